package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
	"github.com/iliyamo/cinema-programs/internal/utils"
)

// Credentials is the lookup login needs.
type Credentials interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users        Credentials
	Identity     service.CurrentUser
	JWTSecret    string
	AccessTTLMin int
	Log          zerolog.Logger
}

func NewAuthHandler(users Credentials, identity service.CurrentUser, secret string, ttlMin int, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Users: users, Identity: identity, JWTSecret: secret, AccessTTLMin: ttlMin, Log: log}
}

var errBadCredentials = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")

// Login: verify the password and return an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return badRequest("username/password required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return errBadCredentials
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Log.Info().Str("username", req.Username).Msg("login rejected")
		return errBadCredentials
	}

	access, err := utils.NewAccessToken(h.JWTSecret, u.Username, string(u.Role), h.AccessTTLMin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResp{
		User:   newUserPart(u),
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me returns the current user, the visitor for anonymous requests.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.Identity.CurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserPart(u))
}
