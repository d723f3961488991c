package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter bounds calls per caller to maxRate within a fixed window.
// It guards the endpoints that fan out to the taxonomy service, so the
// window is generous and the buckets are purely in-memory.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*callerWindow
	maxRate int
	window  time.Duration

	now  func() time.Time // swappable for tests
	stop chan struct{}
}

type callerWindow struct {
	count   int
	started time.Time
}

// NewRateLimiter allows maxRate calls per caller per window. A
// background sweeper drops idle callers; call Stop to shut it down.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*callerWindow),
		maxRate: maxRate,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the background sweeper. The limiter itself keeps working.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Allow records one call for the caller and reports whether it fit the
// current window.
func (rl *RateLimiter) Allow(caller string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[caller]
	if !ok || now.Sub(w.started) >= rl.window {
		rl.windows[caller] = &callerWindow{count: 1, started: now}
		return true
	}
	if w.count >= rl.maxRate {
		return false
	}
	w.count++
	return true
}

// RetryAfter reports whole seconds until the caller's window resets,
// rounded up so the advertised wait is always sufficient.
func (rl *RateLimiter) RetryAfter(caller string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[caller]
	if !ok {
		return 0
	}
	left := rl.window - rl.now().Sub(w.started)
	if left <= 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

func (rl *RateLimiter) sweep() {
	t := time.NewTicker(rl.window)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.mu.Lock()
			now := rl.now()
			for caller, w := range rl.windows {
				if now.Sub(w.started) >= 2*rl.window {
					delete(rl.windows, caller)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// RateLimitMiddleware answers 429 with a Retry-After header once a
// caller exhausts its window.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := clientIP(r)
		if !rl.Allow(caller) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(caller)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP identifies the caller: the first X-Forwarded-For entry when
// a proxy set one, otherwise the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
