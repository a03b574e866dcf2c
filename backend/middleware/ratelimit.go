package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"

	"github.com/leetboard/leetboard/backend/utils"
)

const maxTrackedClients = 4096

// RateLimiter hands out one token bucket per client key. Buckets live in an
// LRU so idle clients are forgotten without a cleanup goroutine.
type RateLimiter struct {
	buckets *lru.Cache
	limit   rate.Limit
	burst   int
}

// NewRateLimiter allows burst requests per key, refilled evenly over window.
func NewRateLimiter(burst int, window time.Duration) *RateLimiter {
	buckets, _ := lru.New(maxTrackedClients)
	return &RateLimiter{
		buckets: buckets,
		limit:   rate.Every(window / time.Duration(burst)),
		burst:   burst,
	}
}

// Allow checks if a request should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	v, ok := rl.buckets.Get(key)
	if !ok {
		v = rate.NewLimiter(rl.limit, rl.burst)
		if prev, found, _ := rl.buckets.PeekOrAdd(key, v); found {
			v = prev
		}
	}
	return v.(*rate.Limiter).Allow()
}

// RateLimit middleware limits requests per IP address
func RateLimit(burst int, window time.Duration) fiber.Handler {
	limiter := NewRateLimiter(burst, window)

	return func(c *fiber.Ctx) error {
		ip := utils.GetIPAddress(c)

		if !limiter.Allow(ip) {
			slog.Warn("Rate limit exceeded",
				slog.String("type", "cmd"),
				slog.String("ip", ip),
				slog.String("path", c.Path()),
				slog.String("method", c.Method()),
				slog.Int("burst", burst),
				slog.Duration("window", window))

			return utils.SendError(c, fiber.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Too many requests. Please try again later.", nil)
		}

		return c.Next()
	}
}

// TriggerRateLimit guards endpoints that start upstream work.
func TriggerRateLimit() fiber.Handler {
	return RateLimit(5, time.Minute)
}
