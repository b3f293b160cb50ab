package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/hydrus-backend/api/responses"
	stripewebhook "github.com/angelmondragon/hydrus-backend/internal/webhooks/stripe"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/metrics"
)

// MaxBodyBytes caps a processor webhook body.
const MaxBodyBytes = 1 << 20

// EventVerifier authenticates a raw delivery.
type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (*stripe.Event, error)
}

// EventProcessor applies a decoded event.
type EventProcessor interface {
	Process(ctx context.Context, event stripewebhook.Event) (stripewebhook.Outcome, error)
}

// OutcomeObserver records how a delivery ended.
type OutcomeObserver interface {
	Observe(eventType, outcome string, elapsed time.Duration)
}

type ackResponse struct {
	Received bool `json:"received"`
}

// StripeWebhook verifies, decodes and applies processor events. Every
// accepted delivery, duplicates and ignored types included, is acknowledged
// with 200 so the processor stops retrying.
func StripeWebhook(verifier EventVerifier, processor EventProcessor, observer OutcomeObserver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		if verifier == nil || processor == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook pipeline unavailable"))
			return
		}

		observe := func(eventType, outcome string) {
			if observer != nil {
				observer.Observe(eventType, outcome, time.Since(start))
			}
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				observe("", metrics.OutcomeMalformed)
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeMalformedPayload, err, "webhook body too large"))
				return
			}
			observe("", metrics.OutcomeFailed)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read request body"))
			return
		}

		event, err := verifier.Verify(payload, r.Header.Get(stripewebhook.SignatureHeader))
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeInvalidSignature) {
				observe("", metrics.OutcomeInvalidSignature)
			} else {
				observe("", metrics.OutcomeMalformed)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventType := string(event.Type)
		if logg != nil {
			ctx = logg.WithEvent(ctx, event.ID, eventType)
		}

		parsed, err := stripewebhook.ParseEvent(event, payload)
		if err != nil {
			observe(eventType, metrics.OutcomeMalformed)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		outcome, err := processor.Process(ctx, parsed)
		if err != nil {
			observe(eventType, metrics.OutcomeFailed)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		observe(eventType, string(outcome))
		if logg != nil {
			logg.Info(logg.WithField(ctx, "outcome", string(outcome)), "webhook event handled")
		}
		responses.WriteRaw(w, http.StatusOK, ackResponse{Received: true})
	}
}
