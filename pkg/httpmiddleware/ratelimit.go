package httpmiddleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-caller sliding window limiter.
type RateLimitConfig struct {
	// Max is the budget of one credential per window.
	Max    int
	Window time.Duration
	// IPMax is the budget of one client IP per window, across every
	// credential it presents. Max when zero.
	IPMax  int
	// Header names the credential header. Requests carrying it are charged
	// to the client IP first and then to the credential.
	Header string
	// Now is the limiter's clock; time.Now when nil.
	Now    func() time.Time
}

type window struct {
	prev      float64
	curr      float64
	currStart time.Time
}

// Limiter approximates a sliding window from two fixed windows: the previous
// window's count is weighted by how much of it still overlaps.
type Limiter struct {
	cfg RateLimitConfig

	mu   sync.Mutex
	keys map[string]*window
}

// NewLimiter creates a Limiter.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IPMax <= 0 {
		cfg.IPMax = cfg.Max
	}
	return &Limiter{cfg: cfg, keys: make(map[string]*window)}
}

// Allow counts a request for key against Max. It reports whether the request
// fits, how many remain and when the current window resets.
func (l *Limiter) Allow(key string) (allowed bool, remaining int, resetAt time.Time) {
	return l.allow(key, l.cfg.Max)
}

func (l *Limiter) allow(key string, limit int) (allowed bool, remaining int, resetAt time.Time) {
	now := l.cfg.Now()
	size := l.cfg.Window

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.keys[key]
	if !ok {
		w = &window{currStart: now.Truncate(size)}
		l.keys[key] = w
	}
	if elapsed := now.Sub(w.currStart); elapsed >= size {
		w.prev = w.curr
		if elapsed >= 2*size {
			w.prev = 0
		}
		w.curr = 0
		w.currStart = now.Truncate(size)
	}

	overlap := max(0, 1-now.Sub(w.currStart).Seconds()/size.Seconds())
	used := w.prev*overlap + w.curr
	resetAt = w.currStart.Add(size)
	if used >= float64(limit) {
		return false, 0, resetAt
	}
	w.curr++
	return true, max(0, int(float64(limit)-used-1)), resetAt
}

// Sweep drops keys idle for two windows.
func (l *Limiter) Sweep() {
	now := l.cfg.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.keys {
		if now.Sub(w.currStart) >= 2*l.cfg.Window {
			delete(l.keys, key)
		}
	}
}

// SweepEvery runs Sweep every interval until ctx is done.
func (l *Limiter) SweepEvery(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// Middleware answers 429 once the caller exceeds the limit. The client IP is
// charged first, so a rejected request never creates a credential bucket.
// Every response carries X-RateLimit-* headers of the deciding bucket.
func (l *Limiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := l.cfg.IPMax
			allowed, remaining, resetAt := l.allow("ip:"+clientIP(r), limit)
			if key, ok := l.credentialKey(r); ok && allowed {
				limit = l.cfg.Max
				allowed, remaining, resetAt = l.allow(key, limit)
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
			if !allowed {
				retry := max(0, resetAt.Sub(l.cfg.Now()))
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// credentialKey hashes the credential so raw tokens are not held in memory.
func (l *Limiter) credentialKey(r *http.Request) (string, bool) {
	if l.cfg.Header == "" {
		return "", false
	}
	v := strings.TrimSpace(r.Header.Get(l.cfg.Header))
	if v == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(v))
	return "token:" + hex.EncodeToString(sum[:8]), true
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
