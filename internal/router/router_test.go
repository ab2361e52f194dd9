package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-programs/internal/config"
	"github.com/iliyamo/cinema-programs/internal/handler"
	"github.com/iliyamo/cinema-programs/internal/identity"
	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/ratelimit"
	"github.com/iliyamo/cinema-programs/internal/repository/memory"
	"github.com/iliyamo/cinema-programs/internal/service"
	"github.com/iliyamo/cinema-programs/internal/utils"
)

const secret = "test-secret"

type server struct {
	t *testing.T
	e *echo.Echo
}

func newServer(t *testing.T) *server {
	t.Helper()
	store := memory.New()
	hash, err := utils.HashPassword("password", 4)
	require.NoError(t, err)
	for name, role := range map[string]model.Role{
		"user1": model.RoleProgrammer, "staff1": model.RoleStaff,
		"submitter": model.RoleSubmitter, "admin": model.RoleUser,
	} {
		require.NoError(t, store.Users().Create(context.Background(), &model.User{Username: name, Role: role, PasswordHash: hash}))
	}

	ident := identity.NewProvider(store.Users())
	deps := service.Deps{
		Users: store.Users(), Programs: store.Programs(), Screenings: store.Screenings(),
		Tx: store, Identity: ident, Log: zerolog.Nop(),
	}
	rl := config.RateLimitConfig{
		Enabled:     true,
		KeyStrategy: "ip",
		Search:      ratelimit.Rule{Max: 10, Window: 10 * time.Second},
		Submit:      ratelimit.Rule{Max: 5, Window: 10 * time.Second},
		Login:       ratelimit.Rule{Max: 10, Window: time.Minute},
	}
	limits := Limits{Limiter: ratelimit.NewWindow(), Config: rl, Log: zerolog.Nop()}

	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler(zerolog.Nop())
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(store.Users(), ident, secret, 60, zerolog.Nop()), secret, limits)
	RegisterPrograms(e,
		handler.NewProgramHandler(service.NewProgramService(deps), ident),
		handler.NewScreeningHandler(service.NewScreeningService(deps)),
		secret, limits)
	return &server{t: t, e: e}
}

func (s *server) token(username string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": username, "password": "password"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Access.Token
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.RemoteAddr = "192.0.2.10:40000"
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// expect asserts the status and decodes the body into a generic map.
func (s *server) expect(rec *httptest.ResponseRecorder, status int) map[string]any {
	s.t.Helper()
	require.Equal(s.t, status, rec.Code, rec.Body.String())
	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return out
}

func TestHealthAndMe(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "ok", rec.Body.String())

	me := s.expect(s.do(http.MethodGet, "/v1/me", "", nil), http.StatusOK)
	assert.Equal(t, "VISITOR", me["role"])

	me = s.expect(s.do(http.MethodGet, "/v1/me", s.token("user1"), nil), http.StatusOK)
	assert.Equal(t, "user1", me["username"])

	s.expect(s.do(http.MethodGet, "/v1/me", "forged", nil), http.StatusUnauthorized)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newServer(t)
	body := s.expect(s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "user1", "password": "nope"}), http.StatusUnauthorized)
	assert.Equal(t, "unauthorized", body["error"])
	s.expect(s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "ghost", "password": "password"}), http.StatusUnauthorized)
	s.expect(s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "user1"}), http.StatusBadRequest)
}

func TestWorkflowOverHTTP(t *testing.T) {
	s := newServer(t)
	prog, sub, staff := s.token("user1"), s.token("submitter"), s.token("staff1")

	created := s.expect(s.do(http.MethodPost, "/v1/programs", prog, map[string]string{
		"name": "Festival", "description": "summer run", "startDate": "2025-06-01", "endDate": "2025-06-30",
	}), http.StatusCreated)
	pid := uint64(created["id"].(float64))
	programPath := fmt.Sprintf("/v1/programs/%d", pid)

	s.expect(s.do(http.MethodPost, programPath+"/staff/staff1", prog, nil), http.StatusOK)
	advance := func(state string) {
		s.expect(s.do(http.MethodPost, programPath+"/state", prog, map[string]string{"state": state}), http.StatusOK)
	}
	advance("SUBMISSION")

	sc := s.expect(s.do(http.MethodPost, programPath+"/screenings", sub, map[string]any{
		"title": "Movie A", "cast": "Jane Doe", "genres": "Drama", "durationMinutes": 90,
		"auditorium": "Hall A", "startTime": "2025-06-10T18:00:00Z",
	}), http.StatusCreated)
	assert.Equal(t, "CREATED", sc["state"])
	screeningPath := fmt.Sprintf("/v1/screenings/%d", uint64(sc["id"].(float64)))

	got := s.expect(s.do(http.MethodPost, screeningPath+"/submit", sub, nil), http.StatusOK)
	assert.Equal(t, "2025-06-10T19:30:00Z", got["endTime"])

	// Anonymous callers see nothing before the announcement.
	s.expect(s.do(http.MethodGet, screeningPath, "", nil), http.StatusForbidden)

	advance("ASSIGNMENT")
	got = s.expect(s.do(http.MethodPost, screeningPath+"/assign-handler?username=staff1", prog, nil), http.StatusOK)
	assert.Equal(t, "staff1", got["handler"])

	advance("REVIEW")
	s.expect(s.do(http.MethodPost, screeningPath+"/review", staff, map[string]any{"comments": "no score"}), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, screeningPath+"/review", staff, map[string]any{"score": 8, "comments": "strong"}), http.StatusOK)

	advance("SCHEDULING")
	s.expect(s.do(http.MethodPost, screeningPath+"/approve", sub, map[string]string{"notes": "thanks"}), http.StatusOK)

	advance("FINAL_PUBLICATION")
	s.expect(s.do(http.MethodPost, screeningPath+"/final-submit", sub, nil), http.StatusOK)

	advance("DECISION")
	got = s.expect(s.do(http.MethodPost, screeningPath+"/accept", prog, nil), http.StatusOK)
	assert.Equal(t, "SCHEDULED", got["state"])

	advance("ANNOUNCED")
	public := s.expect(s.do(http.MethodGet, screeningPath, "", nil), http.StatusOK)
	assert.Equal(t, "Movie A", public["title"])
	assert.NotContains(t, public, "reviewScore")
	assert.NotContains(t, public, "cast")

	full := s.expect(s.do(http.MethodGet, screeningPath, staff, nil), http.StatusOK)
	assert.Equal(t, float64(8), full["reviewScore"])

	summary := s.expect(s.do(http.MethodGet, programPath, "", nil), http.StatusOK)
	assert.NotContains(t, summary, "staff")
	details := s.expect(s.do(http.MethodGet, programPath, prog, nil), http.StatusOK)
	assert.Equal(t, []any{"staff1"}, details["staff"])
}

func TestErrorStatuses(t *testing.T) {
	s := newServer(t)
	prog, sub := s.token("user1"), s.token("submitter")

	created := s.expect(s.do(http.MethodPost, "/v1/programs", prog, map[string]string{
		"name": "Festival", "startDate": "2025-06-01", "endDate": "2025-06-30",
	}), http.StatusCreated)
	programPath := fmt.Sprintf("/v1/programs/%d", uint64(created["id"].(float64)))

	body := s.expect(s.do(http.MethodPost, programPath+"/state?newState=REVIEW", prog, nil), http.StatusConflict)
	assert.Equal(t, "invalid_transition", body["error"])

	body = s.expect(s.do(http.MethodPost, programPath+"/state", sub, map[string]string{"state": "SUBMISSION"}), http.StatusForbidden)
	assert.Equal(t, "forbidden", body["error"])

	s.expect(s.do(http.MethodPost, programPath+"/state", prog, map[string]string{"state": "LAUNCHED"}), http.StatusBadRequest)
	s.expect(s.do(http.MethodGet, "/v1/programs/999", prog, nil), http.StatusNotFound)
	s.expect(s.do(http.MethodGet, "/v1/programs/abc", prog, nil), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, "/v1/programs", "", map[string]string{"name": "x"}), http.StatusForbidden)
	s.expect(s.do(http.MethodPost, programPath+"/screenings", sub, map[string]any{"title": "Early"}), http.StatusConflict)
	s.expect(s.do(http.MethodDelete, programPath, prog, nil), http.StatusNoContent)
}

func TestSearchIsRateLimited(t *testing.T) {
	s := newServer(t)
	prog := s.token("user1")

	for i := 0; i < 10; i++ {
		rec := s.do(http.MethodPost, "/v1/programs/search", prog, map[string]string{"name": "fest"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fmt.Sprint(9-i), rec.Header().Get("X-RateLimit-Remaining"))
	}
	rec := s.do(http.MethodPost, "/v1/programs/search", prog, map[string]string{"name": "fest"})
	body := s.expect(rec, http.StatusTooManyRequests)
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other guarded routes keep their own windows.
	s.expect(s.do(http.MethodPost, "/v1/programs/1/screenings/search", prog, nil), http.StatusNotFound)
}
