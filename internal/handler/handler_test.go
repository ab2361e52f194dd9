package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/policy"
	"github.com/iliyamo/cinema-programs/internal/ratelimit"
	"github.com/iliyamo/cinema-programs/internal/service"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{service.NotFoundf("program 9 not found"), http.StatusNotFound, "not_found"},
		{&service.Error{Kind: service.ErrForbidden, Msg: "no"}, http.StatusForbidden, "forbidden"},
		{&service.Error{Kind: service.ErrInvalidTransition, Msg: "no"}, http.StatusConflict, "invalid_transition"},
		{badRequest("bad"), http.StatusBadRequest, "validation"},
		{ratelimit.ErrLimitExceeded, http.StatusTooManyRequests, "rate_limit_exceeded"},
		{echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials"), http.StatusUnauthorized, "unauthorized"},
		{echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed"},
	}
	for _, tc := range cases {
		status, body := classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.kind, body.Error)
	}

	status, body := classify(fmt.Errorf("insert program: %w", errors.New("Error 1452: foreign key constraint fails")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", body.Message, "detail stays in the log")
}

func TestErrorHandlerWritesJSON(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(zerolog.Nop())(service.NotFoundf("screening 4 not found"), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"screening 4 not found"}`, rec.Body.String())
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("startTime", "2025-06-10T18:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC), *got)

	got, err = parseTime("startTime", "2025-06-10T18:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC), *got)

	got, err = parseTime("startDate", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Day())

	got, err = parseTime("startTime", "  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseTime("startTime", "tomorrow")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestProgramViewDependsOnCaller(t *testing.T) {
	user1 := &model.User{ID: 1, Username: "user1", Role: model.RoleProgrammer}
	staff := &model.User{ID: 2, Username: "staff1", Role: model.RoleStaff}
	visitor := &model.User{ID: 3, Username: "visitor", Role: model.RoleVisitor}
	p := &model.Program{
		ID:          5,
		Name:        "Summer",
		State:       model.ProgramAnnounced,
		Creator:     user1.Ref(),
		Programmers: model.NewMembers(user1.Ref()),
		Staff:       model.NewMembers(staff.Ref()),
		StartDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	details, ok := programView(staff, p).(ProgramDetails)
	require.True(t, ok)
	assert.Equal(t, []string{"staff1"}, details.Staff)
	assert.Equal(t, "2025-06-01", details.StartDate)

	summary, ok := programView(visitor, p).(ProgramSummary)
	require.True(t, ok)
	assert.Equal(t, []string{"user1"}, summary.Programmers)
}

func TestScreeningViewRedacts(t *testing.T) {
	score := 8
	sc := model.Screening{ID: 1, ProgramID: 2, State: model.ScreeningScheduled, ReviewScore: &score,
		Film: model.Film{Title: "Movie A", Cast: "Jane Doe", Genres: "Drama"}}

	_, public := screeningView(service.VisibleScreening{Screening: sc, Access: policy.AccessPublic}).(ScreeningPublic)
	assert.True(t, public)

	full, ok := screeningView(service.VisibleScreening{Screening: sc, Access: policy.AccessFull}).(ScreeningDetails)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", full.Cast)
	assert.Equal(t, &score, full.ReviewScore)
}
