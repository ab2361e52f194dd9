package middleware

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-programs/internal/config"
	"github.com/iliyamo/cinema-programs/internal/identity"
	"github.com/iliyamo/cinema-programs/internal/ratelimit"
)

// RateLimit guards a route with rule under the key "<name>:<client>". The
// client part follows cfg.KeyStrategy. A rejected call sets Retry-After and
// returns ratelimit.ErrLimitExceeded for the error handler to render as 429.
// Backend failures are logged and the call is let through.
func RateLimit(limiter ratelimit.Limiter, name string, rule ratelimit.Rule, cfg config.RateLimitConfig, log zerolog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || limiter == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := name + ":" + buildRateKey(cfg, c)
			res, err := limiter.Allow(c.Request().Context(), key, rule)
			switch {
			case errors.Is(err, ratelimit.ErrLimitExceeded):
				setRateHeaders(c, res)
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				log.Info().Str("key", key).Dur("retry_after", res.RetryAfter).Msg("rate limit exceeded")
				return ratelimit.ErrLimitExceeded
			case err != nil:
				log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			setRateHeaders(c, res)
			return next(c)
		}
	}
}

func setRateHeaders(c echo.Context, res ratelimit.Result) {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
}

// buildRateKey identifies the client. The route is not part of the key
// because every guarded route carries its own name.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	user := "anon"
	if name, ok := identity.UsernameFrom(c.Request().Context()); ok {
		user = name
	}
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip_user":
		return ip + ":" + user
	case "ip_route":
		return ip + ":" + route
	case "ip_user_route":
		return ip + ":" + user + ":" + route
	case "user":
		return user
	}
	return ip
}
