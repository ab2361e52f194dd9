// Package router wires handlers and middleware onto Echo routes.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-programs/internal/config"
	"github.com/iliyamo/cinema-programs/internal/handler"
	"github.com/iliyamo/cinema-programs/internal/middleware"
	"github.com/iliyamo/cinema-programs/internal/ratelimit"
)

// Rate limit key names.
const (
	ProgramSearchLimit        = "program-search"
	ScreeningSearchLimit      = "screening-search"
	ScreeningSubmitLimit      = "screening-submit"
	ScreeningFinalSubmitLimit = "screening-final-submit"
	LoginLimit                = "login"
)

// Limits builds the per-route rate limit guards.
type Limits struct {
	Limiter ratelimit.Limiter // nil disables limiting
	Config  config.RateLimitConfig
	Log     zerolog.Logger
}

func (l Limits) guard(name string, rule ratelimit.Rule) echo.MiddlewareFunc {
	return middleware.RateLimit(l.Limiter, name, rule, l.Config, l.Log)
}

// RegisterRoutes registers routes that need neither identity nor limits.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers login and the current-user endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limits Limits) {
	e.POST("/v1/auth/login", a.Login, limits.guard(LoginLimit, limits.Config.Login))

	v1 := e.Group("/v1", middleware.Identity(jwtSecret))
	v1.GET("/me", a.Me)
}
