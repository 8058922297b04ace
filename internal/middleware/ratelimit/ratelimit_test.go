package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour, Now: c.Now})
	t.Cleanup(l.Stop)
	return l, c
}

func TestAllow(t *testing.T) {
	l, c := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("fourth request within a minute should be limited")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatal("other clients are counted separately")
	}

	c.Advance(time.Minute)
	if !l.Allow("1.2.3.4") {
		t.Fatal("a new window should reset the counter")
	}

	m := l.GetMetrics()
	if m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	l, c := newTestLimiter(t, 10)
	l.Allow("a")
	c.Advance(11 * time.Minute)
	l.Allow("b")

	if removed := l.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("expected 1 removed entry, got %d", removed)
	}
	if l.ActiveClients() != 1 {
		t.Fatalf("expected 1 active client, got %d", l.ActiveClients())
	}
}

func TestMiddlewareLimitsOnlyMutations(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	h := l.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(method string) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/api/transactions", nil))
		return rr.Code
	}

	if code := do(http.MethodPost); code != http.StatusNoContent {
		t.Fatalf("first POST: %d", code)
	}
	if code := do(http.MethodDelete); code != http.StatusTooManyRequests {
		t.Fatalf("second mutation should be limited, got %d", code)
	}
	for i := 0; i < 5; i++ {
		if code := do(http.MethodGet); code != http.StatusNoContent {
			t.Fatalf("GET should never be limited, got %d", code)
		}
	}
}
