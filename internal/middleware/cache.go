package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/exitboard/exitboard/internal/config"
)

// CachePublic returns a middleware that serves short-lived cached copies
// of public GET responses out of Redis.  It is only mounted on the
// unauthenticated job-browse routes: caching anything behind the session
// gate would let a revoked session read stale data, which the gate exists
// to prevent.  Only 200 responses up to MaxBodyBytes are stored.
func CachePublic(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := cfg.Prefix + ":" + c.Path() + "?" + c.Request().URL.RawQuery
			ctx := c.Request().Context()

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec

			if err := next(c); err != nil {
				return err
			}

			if rec.status == http.StatusOK && !rec.overflow {
				_ = rdb.Set(ctx, key, rec.body, cfg.TTL).Err()
			}
			return nil
		}
	}
}

// bodyRecorder captures the response body while forwarding it to the
// client, giving up once the size limit is exceeded.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	body     []byte
	limit    int
	overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if !r.overflow {
		if len(r.body)+len(b) <= r.limit {
			r.body = append(r.body, b...)
		} else {
			r.overflow = true
			r.body = nil
		}
	}
	return r.ResponseWriter.Write(b)
}
