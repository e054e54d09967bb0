package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/metrics"
	"github.com/hageshiame/light-heart/internal/utils"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window counter keyed by caller identity. Stale
// windows are reclaimed by a background sweep.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	scope   string
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewLimiter creates a limiter allowing limit requests per period and
// starts its sweep goroutine. scope labels the metrics.
func NewLimiter(scope string, limit int, period time.Duration) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		scope:   scope,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			now := l.now()
			l.mu.Lock()
			for key, w := range l.windows {
				if now.After(w.resetAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// Allow consumes one slot for key. It returns the remaining budget, the
// window reset time and whether the request may proceed.
func (l *Limiter) Allow(key string) (remaining int, resetAt time.Time, ok bool) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.windows[key] = w
	}
	if w.count >= l.limit {
		return 0, w.resetAt, false
	}
	w.count++
	return l.limit - w.count, w.resetAt, true
}

func (l *Limiter) handle(next http.Handler, keyFn func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := keyFn(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		remaining, resetAt, ok := l.Allow(key)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !ok {
			metrics.RateLimited.WithLabelValues(l.scope).Inc()
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			utils.WriteError(w, apperr.RateLimited("too many requests, slow down", retryAfter))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ByIP limits by caller address; applied to the whole API surface.
func (l *Limiter) ByIP(next http.Handler) http.Handler {
	return l.handle(next, utils.ClientIP)
}

// ByPlayer limits by authenticated player, falling back to IP for
// unauthenticated routes.
func (l *Limiter) ByPlayer(next http.Handler) http.Handler {
	return l.handle(next, func(r *http.Request) string {
		if claims := PlayerFromContext(r); claims != nil {
			return claims.PlayerID
		}
		return utils.ClientIP(r)
	})
}
