package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/transport_catalogue/internal/config"
)

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memoryCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	m.counts[key]++
	return m.counts[key], nil
}

func newLimitedApp(counter Counter, limits config.RateLimitConfig, now func() time.Time) *fiber.App {
	app := fiber.New()
	app.Use(rateLimit(counter, limits, now))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func get(t *testing.T, app *fiber.App) (int, map[string]interface{}, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	if resp.StatusCode == fiber.StatusTooManyRequests {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body, resp.Header.Get("Retry-After")
}

func TestRateLimitPerSecond(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := fixed
	app := newLimitedApp(&memoryCounter{}, config.RateLimitConfig{PerSecond: 2}, func() time.Time { return now })

	for i := 0; i < 2; i++ {
		status, _, _ := get(t, app)
		assert.Equal(t, fiber.StatusOK, status)
	}

	status, body, retryAfter := get(t, app)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.Equal(t, "1", retryAfter)

	// Next second starts a new window
	now = fixed.Add(time.Second)
	status, _, _ = get(t, app)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRateLimitPerDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Second)
	}
	app := newLimitedApp(&memoryCounter{}, config.RateLimitConfig{PerSecond: 100, PerDay: 3}, clock)

	for i := 0; i < 3; i++ {
		status, _, _ := get(t, app)
		assert.Equal(t, fiber.StatusOK, status)
	}

	status, body, retryAfter := get(t, app)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "daily_quota_exceeded", body["error"])
	assert.Equal(t, float64(4), body["used"])
	assert.Equal(t, "3596", retryAfter)
}

func TestRateLimitFailsOpen(t *testing.T) {
	counter := &memoryCounter{err: errors.New("connection refused")}
	app := newLimitedApp(counter, config.RateLimitConfig{PerSecond: 1, PerDay: 1}, time.Now)

	for i := 0; i < 3; i++ {
		status, _, _ := get(t, app)
		assert.Equal(t, fiber.StatusOK, status)
	}
}
