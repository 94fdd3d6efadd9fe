package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tunelab/songbook/internal/errs"
	"github.com/tunelab/songbook/internal/server"
)

// RateLimitMiddleware enforces a fixed-window per-IP request limit backed
// by Redis INCR/EXPIRE.
//
// The limiter fails open: when Redis is unavailable or not configured,
// requests pass through unthrottled.
type RateLimitMiddleware struct {
	server *server.Server
}

// NewRateLimitMiddleware constructs the rate limiter.
func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Limit returns the echo middleware. It is a no-op when Redis is not
// configured or the configured limit is zero.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cfg := r.server.Config.Redis
			if r.server.Redis == nil || cfg == nil || cfg.RateLimit <= 0 {
				return next(c)
			}

			ctx := c.Request().Context()
			window := time.Duration(cfg.RateWindow) * time.Second
			key := fmt.Sprintf("ratelimit:%s:%d", c.RealIP(), time.Now().Unix()/int64(cfg.RateWindow))

			count, err := r.server.Redis.Incr(ctx, key).Result()
			if err != nil {
				GetLogger(c).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if count == 1 {
				r.server.Redis.Expire(ctx, key, window)
			}

			if count > int64(cfg.RateLimit) {
				return errs.NewTooManyRequestsError("Too many requests")
			}

			return next(c)
		}
	}
}
