package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterThrottlesPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	handler := rl.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/instruments/", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("1.2.3.4:1234"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("1.2.3.4:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from same IP to be throttled, got %d", code)
	}

	// A different client has its own bucket.
	if code := send("5.6.7.8:1234"); code != http.StatusOK {
		t.Fatalf("expected request from a different IP to pass, got %d", code)
	}
}

func TestClientIPStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"

	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected 10.0.0.1, got %q", got)
	}

	req.RemoteAddr = "10.0.0.2"
	if got := clientIP(req); got != "10.0.0.2" {
		t.Fatalf("expected bare address passthrough, got %q", got)
	}
}
