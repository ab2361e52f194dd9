package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-programs/internal/identity"
	"github.com/iliyamo/cinema-programs/internal/utils"
)

// Identity validates an optional Bearer access token. Requests without an
// Authorization header pass through and act as the visitor. A present but
// invalid token is rejected with 401. For a valid token the username is
// stored in the request context, where the services pick it up, and the
// claims are exposed as c.Get("username") and c.Get("role").
func Identity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return next(c)
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid token"})
			}

			req := c.Request()
			c.SetRequest(req.WithContext(identity.WithUsername(req.Context(), claims.Subject)))
			c.Set("username", claims.Subject)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}
