package stripewebhook

import (
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
)

// SignatureHeader carries the processor's HMAC signature.
const SignatureHeader = "Stripe-Signature"

var (
	ErrInvalidSignature = pkgerrors.New(pkgerrors.CodeInvalidSignature, "invalid webhook signature")
	ErrMalformedPayload = pkgerrors.New(pkgerrors.CodeMalformedPayload, "malformed webhook payload")
)

// Verifier authenticates raw webhook bodies against the signing secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

// NewVerifier builds a verifier. A non-positive tolerance uses the processor default.
func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook signing secret required")
	}
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}, nil
}

// Verify checks the signature over the exact payload bytes and decodes the
// event envelope. Signature failures return ErrInvalidSignature; a signed body
// that is not an event returns ErrMalformedPayload.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (*stripe.Event, error) {
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidSignature, err, ErrInvalidSignature.Message())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeMalformedPayload, err, ErrMalformedPayload.Message())
	}
	if event.ID == "" || event.Type == "" {
		return nil, ErrMalformedPayload
	}
	return &event, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrTooOld)
}
