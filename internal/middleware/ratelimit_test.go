package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exitboard/exitboard/internal/config"
)

func bucketEnv(t *testing.T, cfg config.RateLimitConfig) (echo.MiddlewareFunc, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokenBucket(cfg, rdb), mr
}

func fireRequest(mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/auth/signin")

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec
}

func TestTokenBucket_AllowsWithinCapacity(t *testing.T) {
	mw, _ := bucketEnv(t, config.RateLimitConfig{
		Enabled:        true,
		Capacity:       3,
		RefillTokens:   1,
		RefillInterval: time.Hour, // no refill during the test
		TTL:            time.Hour,
		Prefix:         "rl",
	})

	for i := 0; i < 3; i++ {
		rec := fireRequest(mw)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}
}

func TestTokenBucket_RejectsWhenDrained(t *testing.T) {
	mw, _ := bucketEnv(t, config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		Prefix:         "rl",
	})

	fireRequest(mw)
	fireRequest(mw)
	rec := fireRequest(mw)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too many requests")
}

func TestTokenBucket_FailsOpenWithoutRedis(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)

	for i := 0; i < 5; i++ {
		rec := fireRequest(mw)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestTokenBucket_FailsOpenWhenRedisDies(t *testing.T) {
	mw, mr := bucketEnv(t, config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		Prefix:         "rl",
	})
	mr.Close()

	rec := fireRequest(mw)
	assert.Equal(t, http.StatusOK, rec.Code)
}
