package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/policy"
	"github.com/iliyamo/cinema-programs/internal/queue"
)

// AutoRejectReason is recorded on screenings rejected when their program
// enters DECISION without a final submission.
const AutoRejectReason = "auto-rejected: not final-submitted before DECISION"

// ProgramInput carries the editable program fields.
type ProgramInput struct {
	Name         string
	Description  string
	StartDate    *time.Time
	EndDate      *time.Time
	CreationDate *time.Time // create only; defaults to now
}

func (in ProgramInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("program name is required")
	}
	if in.StartDate == nil || in.EndDate == nil {
		return invalid("program start and end dates are required")
	}
	if in.EndDate.Before(*in.StartDate) {
		return invalid("program end date precedes its start date")
	}
	return nil
}

func (in ProgramInput) apply(p *model.Program) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.StartDate = *in.StartDate
	p.EndDate = *in.EndDate
}

// ProgramService runs the program state machine and roster management.
type ProgramService struct {
	d Deps
}

// NewProgramService panics if a required dependency is missing.
func NewProgramService(d Deps) *ProgramService {
	return &ProgramService{d: d.withDefaults()}
}

// Create starts a program in CREATED with every PROGRAMMER-role user on its
// roster, the creator included when they are a programmer.
func (s *ProgramService) Create(ctx context.Context, in ProgramInput) (*model.Program, error) {
	u, err := s.d.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !policy.CanCreateProgram(u) {
		return nil, forbidden("visitors cannot create programs")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	programmers, err := s.d.Users.ListByRole(ctx, model.RoleProgrammer)
	if err != nil {
		return nil, err
	}

	p := &model.Program{
		State:        model.ProgramCreated,
		Creator:      u.Ref(),
		CreationDate: s.d.Now().UTC(),
	}
	in.apply(p)
	if in.CreationDate != nil {
		p.CreationDate = *in.CreationDate
	}
	for i := range programmers {
		p.Programmers.Add(programmers[i].Ref())
	}
	if u.Role == model.RoleProgrammer {
		p.Programmers.Add(u.Ref())
	}

	err = s.d.Tx.Run(ctx, func(programs ProgramStore, _ ScreeningStore) error {
		return programs.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.d.Log.Info().Uint64("program_id", p.ID).Str("actor", u.Username).Int("programmers", p.Programmers.Len()).Msg("program created")
	s.d.emit(ctx, programEvent(queue.ProgramCreated, p, u))
	return p, nil
}

// Get returns a program the caller is allowed to see.
func (s *ProgramService) Get(ctx context.Context, id uint64) (*model.Program, error) {
	u, err := s.d.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.d.Programs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProgram(u, p) {
		return nil, forbidden("program %d is not visible to %s", id, u.Username)
	}
	return p, nil
}

// Update replaces name, description and dates.
func (s *ProgramService) Update(ctx context.Context, id uint64, in ProgramInput) (*model.Program, error) {
	p, u, err := s.manage(ctx, id, func(_ *model.User, p *model.Program, programs ProgramStore, _ ScreeningStore) error {
		if err := in.validate(); err != nil {
			return err
		}
		in.apply(p)
		return programs.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.d.emit(ctx, programEvent(queue.ProgramUpdated, p, u))
	return p, nil
}

// Delete removes the program and all of its screenings.
func (s *ProgramService) Delete(ctx context.Context, id uint64) error {
	p, u, err := s.manage(ctx, id, func(_ *model.User, p *model.Program, programs ProgramStore, _ ScreeningStore) error {
		return programs.Delete(ctx, p.ID)
	})
	if err != nil {
		return err
	}
	s.d.Log.Info().Uint64("program_id", id).Str("actor", u.Username).Msg("program deleted")
	s.d.emit(ctx, programEvent(queue.ProgramDeleted, p, u))
	return nil
}

// AddProgrammer puts username on the programmer roster. Re-adding is a no-op.
func (s *ProgramService) AddProgrammer(ctx context.Context, id uint64, username string) (*model.Program, error) {
	return s.addMember(ctx, id, username, "programmer", func(p *model.Program) *model.Members { return &p.Programmers })
}

// AddStaff puts username on the staff roster. Re-adding is a no-op.
func (s *ProgramService) AddStaff(ctx context.Context, id uint64, username string) (*model.Program, error) {
	return s.addMember(ctx, id, username, "staff", func(p *model.Program) *model.Members { return &p.Staff })
}

func (s *ProgramService) addMember(ctx context.Context, id uint64, username, roster string, pick func(*model.Program) *model.Members) (*model.Program, error) {
	var added bool
	var target *model.User
	p, u, err := s.manage(ctx, id, func(_ *model.User, p *model.Program, programs ProgramStore, _ ScreeningStore) error {
		var err error
		target, err = s.d.Users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if added = pick(p).Add(target.Ref()); !added {
			return nil
		}
		return programs.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if added {
		ev := programEvent(queue.ProgramRosterChanged, p, u)
		ev.Detail = roster + "+" + target.Username
		s.d.emit(ctx, ev)
	}
	return p, nil
}

// ChangeState advances the program to next, which must be the successor of
// its current stage. Entering REVIEW requires every submitted screening to
// have a handler; entering DECISION rejects every screening that was not
// final-submitted.
func (s *ProgramService) ChangeState(ctx context.Context, id uint64, next model.ProgramState) (*model.Program, error) {
	var from model.ProgramState
	var rejected []autoRejection
	p, u, err := s.manage(ctx, id, func(_ *model.User, p *model.Program, programs ProgramStore, screenings ScreeningStore) error {
		succ, ok := p.State.Next()
		if !ok {
			return invalidTransition("program %d is %s and cannot change stage", p.ID, p.State)
		}
		if next != succ {
			return invalidTransition("program %d can only move from %s to %s, not %s", p.ID, p.State, succ, next)
		}
		var err error
		if rejected, err = enterStage(ctx, p, next, screenings); err != nil {
			return err
		}
		from = p.State
		p.State = next
		return programs.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.d.Log.Info().Uint64("program_id", p.ID).Str("actor", u.Username).
		Str("from", string(from)).Str("to", string(p.State)).Int("auto_rejected", len(rejected)).
		Msg("program stage changed")
	ev := programEvent(queue.ProgramStateChanged, p, u)
	ev.From, ev.To = string(from), string(p.State)
	events := []queue.WorkflowEvent{ev}
	for _, r := range rejected {
		rev := screeningEvent(queue.ScreeningRejected, r.screening, u.Username, r.from)
		rev.Detail = AutoRejectReason
		events = append(events, rev)
	}
	s.d.emit(ctx, events...)
	return p, nil
}

type autoRejection struct {
	screening *model.Screening
	from      model.ScreeningState
}

// enterStage applies the side conditions of entering a stage. It returns
// the screenings it rejected.
func enterStage(ctx context.Context, p *model.Program, next model.ProgramState, screenings ScreeningStore) ([]autoRejection, error) {
	if next != model.ProgramReview && next != model.ProgramDecision {
		return nil, nil
	}
	list, err := screenings.ListByProgram(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if next == model.ProgramReview {
		for i := range list {
			if list[i].State == model.ScreeningSubmitted && list[i].Handler == nil {
				return nil, invalidTransition("screening %d is submitted but has no handler", list[i].ID)
			}
		}
		return nil, nil
	}

	var rejected []autoRejection
	for i := range list {
		sc := &list[i]
		if sc.State.Terminal() || (sc.State == model.ScreeningApproved && sc.FinalSubmitted) {
			continue
		}
		from := sc.State
		reason := AutoRejectReason
		sc.State = model.ScreeningRejected
		sc.RejectionReason = &reason
		if err := screenings.Save(ctx, sc); err != nil {
			return nil, err
		}
		rejected = append(rejected, autoRejection{screening: sc, from: from})
	}
	return rejected, nil
}

// manage runs fn in a transaction after checking that the caller is a
// programmer of the program.
func (s *ProgramService) manage(ctx context.Context, id uint64,
	fn func(u *model.User, p *model.Program, programs ProgramStore, screenings ScreeningStore) error,
) (*model.Program, *model.User, error) {
	u, err := s.d.currentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	var out *model.Program
	err = s.d.Tx.Run(ctx, func(programs ProgramStore, screenings ScreeningStore) error {
		p, err := programs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !policy.CanManageProgram(u, p) {
			return forbidden("only programmers of program %d may change it", id)
		}
		if err := fn(u, p, programs, screenings); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, u, nil
}
