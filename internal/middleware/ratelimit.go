package middleware

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/passbi/transport_catalogue/internal/config"
)

// Counter increments windowed request counters
type Counter interface {
	// Incr increments key and returns the new count; the key expires after ttl
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounter keeps counters in Redis
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps a Redis client
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr increments key and sets its expiration in one round trip
func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimitMiddleware limits requests per client IP per second and per day.
// Counter failures let the request through.
func RateLimitMiddleware(counter Counter, limits config.RateLimitConfig) fiber.Handler {
	return rateLimit(counter, limits, time.Now)
}

func rateLimit(counter Counter, limits config.RateLimitConfig, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		t := now()
		client := c.IP()

		keySecond := fmt.Sprintf("rl:ip:%s:second:%d", client, t.Unix())
		keyDay := fmt.Sprintf("rl:ip:%s:day:%s", client, t.Format("2006-01-02"))

		// Check per-second rate limit
		if limits.PerSecond > 0 {
			countSecond, err := counter.Incr(ctx, keySecond, 2*time.Second)
			if err != nil {
				log.Printf("Rate limit counter unavailable: %v", err)
			} else if countSecond > int64(limits.PerSecond) {
				c.Set("X-RateLimit-Limit-Second", strconv.Itoa(limits.PerSecond))
				c.Set("X-RateLimit-Remaining-Second", "0")
				c.Set("X-RateLimit-Reset-Second", strconv.FormatInt(t.Unix()+1, 10))
				c.Set("Retry-After", "1")

				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests per second",
					"limit_type":  "per_second",
					"limit":       limits.PerSecond,
					"retry_after": 1,
				})
			}
		}

		// Check per-day rate limit
		if limits.PerDay > 0 {
			countDay, err := counter.Incr(ctx, keyDay, 25*time.Hour)
			if err != nil {
				log.Printf("Rate limit counter unavailable: %v", err)
			} else {
				if countDay > int64(limits.PerDay) {
					tomorrow := t.AddDate(0, 0, 1)
					midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, tomorrow.Location())
					retryAfter := int64(midnight.Sub(t).Seconds())

					c.Set("X-RateLimit-Limit-Day", strconv.Itoa(limits.PerDay))
					c.Set("X-RateLimit-Remaining-Day", "0")
					c.Set("X-RateLimit-Reset-Day", strconv.FormatInt(midnight.Unix(), 10))
					c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))

					return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
						"error":       "daily_quota_exceeded",
						"message":     "Daily quota exceeded",
						"limit_type":  "per_day",
						"limit":       limits.PerDay,
						"used":        countDay,
						"retry_after": retryAfter,
						"reset_at":    midnight.Format(time.RFC3339),
					})
				}

				c.Set("X-RateLimit-Remaining-Day", strconv.FormatInt(int64(limits.PerDay)-countDay, 10))
			}
		}

		c.Set("X-RateLimit-Limit-Second", strconv.Itoa(limits.PerSecond))
		c.Set("X-RateLimit-Limit-Day", strconv.Itoa(limits.PerDay))

		return c.Next()
	}
}
