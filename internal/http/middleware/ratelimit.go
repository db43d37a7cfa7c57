package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"otikaapi/internal/apperr"
)

// RateLimiter keeps one token bucket per client key and evicts idle keys.
type RateLimiter struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type RateLimiterOption func(*RateLimiter)

func WithIdleTTL(d time.Duration) RateLimiterOption {
	return func(r *RateLimiter) { r.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) RateLimiterOption {
	return func(r *RateLimiter) { r.cleanupEvery = d }
}

// NewRateLimiter allows rps requests per second per key with the given burst.
// An rps of zero or less disables limiting.
func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	r := &RateLimiter{
		entries:      make(map[string]*limiterEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RateLimiter) enabled() bool { return r.rps > 0 }

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if ent, ok := r.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(r.rps, r.burst)
	r.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup drops keys not seen within the idle TTL.
func (r *RateLimiter) Cleanup() {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	for k, ent := range r.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(r.entries, k)
		}
	}
}

// Len returns the number of tracked keys.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// StartJanitor runs Cleanup periodically until ctx is done.
func (r *RateLimiter) StartJanitor(ctx context.Context) {
	if !r.enabled() || r.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(r.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.Cleanup()
			}
		}
	}()
}

// Handler limits requests per client IP. Rejected requests get a Retry-After
// header and a RATE_LIMIT_EXCEEDED error for the global error handler.
func (r *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !r.enabled() {
			return c.Next()
		}

		res := r.limiter(c.IP()).ReserveN(r.now(), 1)
		if !res.OK() {
			return apperr.New(apperr.KindRateLimited, "rate limit exceeded")
		}
		if delay := res.DelayFrom(r.now()); delay > 0 {
			res.CancelAt(r.now())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			return apperr.New(apperr.KindRateLimited, "rate limit exceeded, retry later")
		}

		return c.Next()
	}
}
