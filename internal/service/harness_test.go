package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-programs/internal/identity"
	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/queue"
	"github.com/iliyamo/cinema-programs/internal/repository/memory"
	"github.com/iliyamo/cinema-programs/internal/service"
)

type recorder struct {
	mu     sync.Mutex
	events []queue.WorkflowEvent
}

func (r *recorder) Publish(_ context.Context, ev queue.WorkflowEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	t          *testing.T
	store      *memory.Store
	programs   *service.ProgramService
	screenings *service.ScreeningService
	events     *recorder
}

var demoUsers = []struct {
	name string
	role model.Role
}{
	{"user1", model.RoleProgrammer},
	{"prog2", model.RoleProgrammer},
	{"staff1", model.RoleStaff},
	{"staff2", model.RoleStaff},
	{"submitter", model.RoleSubmitter},
	{"submitter2", model.RoleSubmitter},
	{"plain", model.RoleUser},
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := newEmptyHarness(t)
	for _, u := range demoUsers {
		h.addUser(u.name, u.role)
	}
	return h
}

func newEmptyHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	events := &recorder{}
	deps := service.Deps{
		Users:      store.Users(),
		Programs:   store.Programs(),
		Screenings: store.Screenings(),
		Tx:         store,
		Identity:   identity.NewProvider(store.Users()),
		Events:     events,
		Log:        zerolog.Nop(),
	}
	return &harness{
		t:          t,
		store:      store,
		programs:   service.NewProgramService(deps),
		screenings: service.NewScreeningService(deps),
		events:     events,
	}
}

func (h *harness) addUser(name string, role model.Role) *model.User {
	h.t.Helper()
	u := &model.User{Username: name, Role: role}
	require.NoError(h.t, h.store.Users().Create(context.Background(), u))
	return u
}

// as returns a request context authenticated as username; "" is anonymous.
func as(username string) context.Context {
	if username == "" {
		return context.Background()
	}
	return identity.WithUsername(context.Background(), username)
}

func day(d int) *time.Time {
	t := time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func at(hour, minute int) *time.Time {
	t := time.Date(2025, 6, 10, hour, minute, 0, 0, time.UTC)
	return &t
}

func programInput(name string) service.ProgramInput {
	return service.ProgramInput{Name: name, Description: "festival run", StartDate: day(1), EndDate: day(30)}
}

// newProgram creates a program as user1 and advances it to state.
func (h *harness) newProgram(state model.ProgramState) *model.Program {
	h.t.Helper()
	p, err := h.programs.Create(as("user1"), programInput("Summer"))
	require.NoError(h.t, err)
	h.advance(p.ID, state)
	p, err = h.programs.Get(as("user1"), p.ID)
	require.NoError(h.t, err)
	return p
}

// advance moves the program forward as user1 until it reaches state.
func (h *harness) advance(id uint64, state model.ProgramState) {
	h.t.Helper()
	p, err := h.programs.Get(as("user1"), id)
	require.NoError(h.t, err)
	for p.State != state {
		next, ok := p.State.Next()
		require.True(h.t, ok, "cannot reach %s", state)
		p, err = h.programs.ChangeState(as("user1"), id, next)
		require.NoError(h.t, err)
	}
}

func film(title string, minutes int, start, end *time.Time) model.Film {
	return model.Film{
		Title:           title,
		Cast:            "Jane Doe, John Roe",
		Genres:          "Drama",
		DurationMinutes: minutes,
		Auditorium:      "Hall A",
		StartTime:       start,
		EndTime:         end,
	}
}
