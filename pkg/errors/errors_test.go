package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeInvalidSignature, status: http.StatusBadRequest, publicMsg: "invalid signature"},
		{code: CodeMalformedPayload, status: http.StatusBadRequest, publicMsg: "malformed payload"},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing name")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing name" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "name"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeInternal, cause, "insert webhook log")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "INTERNAL_ERROR: insert webhook log: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestCodeOfFollowsChain(t *testing.T) {
	err := fmt.Errorf("verify: %w", New(CodeInvalidSignature, "signature mismatch"))
	if CodeOf(err) != CodeInvalidSignature {
		t.Fatalf("expected invalid signature code, got %s", CodeOf(err))
	}
	if !HasCode(err, CodeInvalidSignature) {
		t.Fatalf("HasCode should match wrapped typed error")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
	if HasCode(nil, CodeInternal) {
		t.Fatalf("nil error should not carry a code")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeNotFound, "no customer")
	if got := As(err); got == nil || got.Code() != CodeNotFound {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestHasCodeWalksNestedErrors(t *testing.T) {
	inner := New(CodeConflict, "duplicate external id")
	outer := Wrap(CodeInternal, fmt.Errorf("insert: %w", inner), "create customer")
	if !HasCode(outer, CodeConflict) {
		t.Fatal("expected nested conflict to match")
	}
	if !HasCode(outer, CodeInternal) {
		t.Fatal("expected outer code to match")
	}
	if HasCode(outer, CodeNotFound) || HasCode(nil, CodeInternal) {
		t.Fatal("unexpected match")
	}
	if got := Newf(CodeNotFound, "product %s", "prod_1").Message(); got != "product prod_1" {
		t.Fatalf("unexpected message %q", got)
	}
}
