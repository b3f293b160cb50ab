package stripewebhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84/webhook"

	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
)

func sign(payload []byte, secret string, at time.Time) *webhook.SignedPayload {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v, err := NewVerifier(testSecret, time.Minute)
	require.NoError(t, err)

	signed := sign([]byte(`{"id":"evt_ok","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`), testSecret, time.Now())
	evt, err := v.Verify(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_ok", evt.ID)
	assert.JSONEq(t, `{"id":"cus_1"}`, string(evt.Data.Raw))
}

func TestVerifyRejectsBadSignatures(t *testing.T) {
	v, err := NewVerifier(testSecret, time.Minute)
	require.NoError(t, err)
	body := []byte(`{"id":"evt_1","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)
	valid := sign(body, testSecret, time.Now())

	tampered := append([]byte{}, valid.Payload...)
	tampered[len(tampered)-3] = ' '

	cases := map[string]struct {
		payload []byte
		header  string
	}{
		"missing header": {payload: body, header: ""},
		"garbage header": {payload: body, header: "nonsense"},
		"tampered body":  {payload: tampered, header: valid.Header},
		"wrong secret":   {payload: body, header: sign(body, "whsec_other", time.Now()).Header},
		"too old":        {payload: body, header: sign(body, testSecret, time.Now().Add(-time.Hour)).Header},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tc.payload, tc.header)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidSignature), "got %v", err)
		})
	}
}

func TestVerifySignedGarbageIsMalformed(t *testing.T) {
	v, err := NewVerifier(testSecret, 0)
	require.NoError(t, err)

	signed := sign([]byte(`not json`), testSecret, time.Now())
	_, err = v.Verify(signed.Payload, signed.Header)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMalformedPayload), "got %v", err)
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("  ", time.Minute)
	require.Error(t, err)
}
