package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentica-backend/internal/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterFixedWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := RequestID(rl.Middleware(okHandler))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/analyze_video", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := range 2 {
		if rec := do("10.0.0.1:1111"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, rec.Code)
		}
	}
	// Different source port, same client.
	rec := do("10.0.0.1:2222")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	var body models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "RATE_LIMITED" || body.Error == "" || body.RequestID == "" {
		t.Errorf("unexpected body %+v", body)
	}

	if rec := do("10.0.0.2:1111"); rec.Code != http.StatusOK {
		t.Errorf("other client limited: %d", rec.Code)
	}

	now = now.Add(2 * time.Minute)
	if rec := do("10.0.0.1:1111"); rec.Code != http.StatusOK {
		t.Errorf("window did not reset: %d", rec.Code)
	}
}

func TestRequestIDPreservesIncoming(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("incoming id not kept: seen=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id missing: seen=%q", seen)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		origin  string
		method  string
		want    string
		status  int
	}{
		{"wildcard", "*", "http://x.test", http.MethodGet, "*", http.StatusOK},
		{"matching origin", "http://app.test/", "http://app.test", http.MethodGet, "http://app.test", http.StatusOK},
		{"foreign origin", "http://app.test", "http://evil.test", http.MethodGet, "", http.StatusOK},
		{"preflight", "*", "http://x.test", http.MethodOptions, "*", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/outputs/list", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(okHandler).ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("allow-origin = %q, want %q", got, tt.want)
			}
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
