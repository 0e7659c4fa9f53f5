package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerWindow: 2, Window: time.Minute})
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Error("third request in the window should be rejected")
	}
	if !rl.Allow("b") {
		t.Error("other clients have their own window")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("a new window should reset the counter")
	}
	if rl.Hits() != 1 {
		t.Errorf("Hits() = %d, want 1", rl.Hits())
	}

	now = now.Add(10 * time.Minute)
	if removed := rl.cleanupStaleEntries(); removed != 2 {
		t.Errorf("cleanupStaleEntries() = %d, want 2", removed)
	}
	if rl.ActiveClients() != 0 {
		t.Errorf("ActiveClients() = %d, want 0", rl.ActiveClients())
	}
}

func TestMiddlewareOnlyLimitsWrites(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerWindow: 1, Window: time.Hour})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/ledger", nil))
		return rec
	}

	if got := do(http.MethodPost).Code; got != http.StatusNoContent {
		t.Fatalf("first write = %d", got)
	}
	rec := do(http.MethodPut)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second write = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "3600" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	for i := 0; i < 5; i++ {
		if got := do(http.MethodGet).Code; got != http.StatusNoContent {
			t.Fatalf("read %d = %d", i, got)
		}
	}
}
