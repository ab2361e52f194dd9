package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-programs/internal/ratelimit"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var kinds = []struct {
	err    error
	status int
	name   string
}{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{service.ErrValidation, http.StatusBadRequest, "validation"},
	{ratelimit.ErrLimitExceeded, http.StatusTooManyRequests, "rate_limit_exceeded"},
}

// ErrorHandler renders errors returned by handlers and middleware. Domain
// kinds keep their message; anything unclassified becomes a generic 500 and
// the detail only goes to the log.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}

func classify(err error) (int, errorBody) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status, errorBody{Error: k.name, Message: err.Error()}
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, errorBody{Error: strings.ToLower(strings.ReplaceAll(http.StatusText(he.Code), " ", "_")), Message: msg}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"}
}

// badRequest reports malformed input as a validation failure.
func badRequest(msg string) error {
	return &service.Error{Kind: service.ErrValidation, Msg: msg}
}
