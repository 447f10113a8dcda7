package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestRateLimiter_RefillsAfterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(2, time.Minute, clock.now)

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	clock.t = clock.t.Add(20 * time.Second)
	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	// Another client has its own bucket.
	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok)

	clock.t = clock.t.Add(40 * time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(1, time.Minute, clock.now)

	rl.Allow("1.2.3.4")
	clock.t = clock.t.Add(2 * time.Hour)
	rl.Allow("5.6.7.8")
	rl.cleanup()

	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "5.6.7.8")
	rl.Stop()
	rl.Stop()
}

func TestRateLimitMiddleware_RetryAfter(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(1, time.Minute, clock.now)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RateLimitMiddleware(rl, next)

	req := httptest.NewRequest(http.MethodGet, "/loan/payment", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestCORSMiddleware_DisallowedPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := CORSMiddleware([]string{"https://solar-1e6d6b.webflow.io/"}, next)

	req := httptest.NewRequest(http.MethodOptions, "/loan/quote", nil)
	req.Header.Set("Origin", "https://other.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "X-Custom")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://solar-1e6d6b.webflow.io")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "https://solar-1e6d6b.webflow.io", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Custom", w.Header().Get("Access-Control-Allow-Headers"))
}
