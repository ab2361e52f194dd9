package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"}

// parseTime accepts RFC 3339 or a zone-less layout read as UTC. Blank input
// yields nil.
func parseTime(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, badRequest("invalid " + field + ": " + s)
}

// bodyOrQuery returns the bound body value, falling back to a query param.
func bodyOrQuery(c echo.Context, fromBody, param string) string {
	if strings.TrimSpace(fromBody) != "" {
		return fromBody
	}
	return c.QueryParam(param)
}
