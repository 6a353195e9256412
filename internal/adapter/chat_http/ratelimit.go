package chat_http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// windowCounter is the consumer interface for the rate limiter.
type windowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

type rateWindow struct {
	name     string
	duration time.Duration
	limit    int64
}

// RateLimitConfig bounds requests per client across three fixed windows.
type RateLimitConfig struct {
	PerMinute int64
	PerHour   int64
	PerDay    int64
}

// DefaultRateLimitConfig returns the production limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{PerMinute: 20, PerHour: 100, PerDay: 500}
}

// RateLimiter enforces per-client fixed-window limits backed by Redis.
// When the counter store is unreachable the limiter fails open: losing
// rate limiting briefly is preferable to refusing all traffic.
type RateLimiter struct {
	counter windowCounter
	windows []rateWindow
	logger  *slog.Logger
}

// NewRateLimiter creates the limiter middleware.
func NewRateLimiter(counter windowCounter, cfg RateLimitConfig, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		windows: []rateWindow{
			{name: "minute", duration: time.Minute, limit: cfg.PerMinute},
			{name: "hour", duration: time.Hour, limit: cfg.PerHour},
			{name: "day", duration: 24 * time.Hour, limit: cfg.PerDay},
		},
		logger: logger,
	}
}

// Middleware returns the echo middleware function.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			client := clientIP(c)
			ctx := c.Request().Context()

			for _, w := range rl.windows {
				key := fmt.Sprintf("ratelimit:%s:%s", w.name, client)
				count, err := rl.counter.IncrWindow(ctx, key, w.duration)
				if err != nil {
					rl.logger.Warn("rate_limit_check_failed",
						slog.String("window", w.name),
						slog.String("error", err.Error()))
					continue
				}
				if count > w.limit {
					c.Response().Header().Set("Retry-After",
						fmt.Sprintf("%d", int(w.duration.Seconds())))
					return c.JSON(http.StatusTooManyRequests, map[string]string{
						"error": "Has excedido el límite de solicitudes. Intenta de nuevo más tarde.",
					})
				}
			}
			return next(c)
		}
	}
}

// clientIP resolves the caller address, honoring proxy headers in order.
func clientIP(c echo.Context) string {
	if fwd := c.Request().Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if real := c.Request().Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return c.RealIP()
}
