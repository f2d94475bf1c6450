package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/render"
)

const (
	defaultMaxHits  = 10
	defaultWindow   = time.Minute
	maxTrackedHosts = 5000
)

// RateLimiter throttles credential endpoints per client host
type RateLimiter struct {
	mu      sync.Mutex
	maxHits int
	window  time.Duration
	hits    map[string][]time.Time
}

func NewRateLimiter(maxHits int, window time.Duration) *RateLimiter {
	if maxHits <= 0 {
		maxHits = defaultMaxHits
	}
	if window <= 0 {
		window = defaultWindow
	}

	return &RateLimiter{
		maxHits: maxHits,
		window:  window,
		hits:    make(map[string][]time.Time),
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := clientHost(r)

		allowed, retryAfter := l.allow(host, time.Now())
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			render.Failed(w, "Too many attempts, slow down.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(host string, now time.Time) (bool, time.Duration) {
	threshold := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]time.Time, 0, len(l.hits[host])+1)
	for _, hit := range l.hits[host] {
		if hit.After(threshold) {
			kept = append(kept, hit)
		}
	}

	if len(kept) >= l.maxHits {
		l.hits[host] = kept
		return false, kept[0].Sub(threshold)
	}

	// Forget everything when the map grows out of bounds, better to let a
	// burst through than to grow without limit
	if len(l.hits) >= maxTrackedHosts {
		l.hits = make(map[string][]time.Time)
	}

	l.hits[host] = append(kept, now)
	return true, 0
}

func clientHost(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
