// Package ratelimit throttles unauthenticated endpoints per client IP with
// in-process token buckets.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/platform/httputil"
	"learnhub/pkg/requestcontext"
)

const idleSweepInterval = 5 * time.Minute

var rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "learnhub_ratelimit_rejected_total",
	Help: "Requests rejected by the per-IP rate limiter",
}, []string{"route"})

// KeyFunc extracts the bucket key from a request.
type KeyFunc func(*http.Request) string

// ClientIPKey keys buckets by the client IP recorded by the metadata middleware.
func ClientIPKey(r *http.Request) string {
	return requestcontext.ClientIP(r.Context())
}

// Limiter holds one token bucket per key.
type Limiter struct {
	limit     rate.Limit
	burst     int
	perMinute int
	keyFunc   KeyFunc
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	lastSweep time.Time
}

type Option func(*Limiter)

func WithKeyFunc(fn KeyFunc) Option {
	return func(l *Limiter) {
		l.keyFunc = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// WithClock sets the time source; token replenishment follows it.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New allows perMinute requests per key per minute with the given burst.
func New(perMinute, burst int, opts ...Option) *Limiter {
	l := &Limiter{
		limit:     rate.Limit(float64(perMinute) / time.Minute.Seconds()),
		burst:     burst,
		perMinute: perMinute,
		keyFunc:   ClientIPKey,
		logger:    slog.Default(),
		now:       time.Now,
		buckets:   make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Allow consumes one token from key's bucket. The second return value is the
// wait until the next token when the request is rejected.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.sweepLocked(now)
	l.mu.Unlock()

	if b.AllowN(now, 1) {
		return true, 0
	}
	r := b.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay
}

// sweepLocked drops buckets that have refilled completely since they are
// indistinguishable from fresh ones.
func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < idleSweepInterval {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if b.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
// Requests without a key pass through.
func (l *Limiter) Middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := l.keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, delay := l.Allow(route + "|" + key)
			if !allowed {
				ctx := r.Context()
				retryAfter := max(int(delay.Round(time.Second).Seconds()), 1)
				rejectedTotal.WithLabelValues(route).Inc()
				l.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"route", route,
					"retry_after", retryAfter,
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.perMinute))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
