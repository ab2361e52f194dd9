package service

import (
	"context"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/queue"
)

// UserStore looks users up. Missing users are reported as ErrNotFound.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	// Create inserts u and assigns its ID. A duplicate username is
	// reported as ErrDuplicateUser.
	Create(ctx context.Context, u *model.User) error
}

// ErrDuplicateUser is returned by UserStore.Create for a taken username.
var ErrDuplicateUser = &Error{Kind: ErrValidation, Msg: "username already exists"}

// ProgramStore persists programs together with their rosters.
type ProgramStore interface {
	// GetByID loads a program. Inside a transaction the row is locked
	// until commit.
	GetByID(ctx context.Context, id uint64) (*model.Program, error)
	// Create inserts p with its rosters and assigns its ID.
	Create(ctx context.Context, p *model.Program) error
	// Save writes fields, state and rosters of an existing program.
	Save(ctx context.Context, p *model.Program) error
	// Delete removes the program and, by cascade, its screenings.
	Delete(ctx context.Context, id uint64) error

	ListByState(ctx context.Context, state model.ProgramState) ([]model.Program, error)
	ListCreatedBy(ctx context.Context, userID uint64) ([]model.Program, error)
	ListByProgrammer(ctx context.Context, userID uint64) ([]model.Program, error)
	ListByStaff(ctx context.Context, userID uint64) ([]model.Program, error)
	ListByHandler(ctx context.Context, userID uint64) ([]model.Program, error)
	ListWithoutProgrammers(ctx context.Context) ([]model.Program, error)
}

// ScreeningStore persists screenings.
type ScreeningStore interface {
	// ProgramIDOf returns the owning program id without locking, so callers
	// can lock the program before the screening.
	ProgramIDOf(ctx context.Context, id uint64) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*model.Screening, error)
	ListByProgram(ctx context.Context, programID uint64) ([]model.Screening, error)
	Create(ctx context.Context, s *model.Screening) error
	Save(ctx context.Context, s *model.Screening) error
	Delete(ctx context.Context, id uint64) error
}

// TxRunner runs fn inside one transaction. fn's stores are bound to that
// transaction; returning an error rolls everything back.
type TxRunner interface {
	Run(ctx context.Context, fn func(programs ProgramStore, screenings ScreeningStore) error) error
}

// CurrentUser resolves the acting user. It always returns a user, falling
// back to the synthesized visitor.
type CurrentUser interface {
	CurrentUser(ctx context.Context) (*model.User, error)
}

// EventPublisher receives committed workflow events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.WorkflowEvent) error
}
