package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _ = rec.Write([]byte("ok"))
	if rec.status != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.status)
	}
}

func TestMiddlewareChainSetsRequestIDAndRecovers(t *testing.T) {
	logg := logger.Nop()
	handler := RequestID(logg)(Logging(logg)(Recoverer(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if resp.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRequestIDKeepsSaneInboundID(t *testing.T) {
	var seen string
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req_abc-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if seen != "req_abc-123" || resp.Header().Get(requestIDHeader) != "req_abc-123" {
		t.Fatalf("expected inbound id kept, got ctx=%q header=%q", seen, resp.Header().Get(requestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id\nwith newline")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if seen == "bad id\nwith newline" || seen == "" {
		t.Fatalf("expected replacement id, got %q", seen)
	}
}

func TestRecovererSkipsBodyAfterHeadersSent(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected original status kept, got %d", resp.Code)
	}
	if resp.Body.Len() != 0 {
		t.Fatalf("expected no error body, got %q", resp.Body.String())
	}
}

func TestRecovererRepanicsAbort(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", v)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
