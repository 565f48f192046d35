package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
	"tourhub/pkg/response"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

// RateLimitByIP rejects requests from a client IP that exceeds the limiter's
// budget.
func RateLimitByIP(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if allowed, wait := limiter.Allow(c.Request().Context(), "ip:"+ip); !allowed {
				logger.Warn("RATE LIMIT: blocked request from IP %s (retry in %v)", ip, wait)
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
			}
			return next(c)
		}
	}
}
