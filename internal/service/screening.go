package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/policy"
	"github.com/iliyamo/cinema-programs/internal/queue"
)

// Review scores must fall in this range.
const (
	MinReviewScore = 0
	MaxReviewScore = 10
)

// ScreeningService runs the screening state machine. Every transition is
// checked against the transition table in package policy and executed in a
// transaction that locks the program before the screening.
type ScreeningService struct {
	d Deps
}

// NewScreeningService panics if a required dependency is missing.
func NewScreeningService(d Deps) *ScreeningService {
	return &ScreeningService{d: d.withDefaults()}
}

// Create adds a screening to a program that is collecting submissions.
func (s *ScreeningService) Create(ctx context.Context, programID uint64, film model.Film) (*model.Screening, error) {
	u, err := s.d.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	sc := &model.Screening{
		ProgramID: programID,
		State:     model.ScreeningCreated,
		Submitter: u.Ref(),
	}
	err = s.d.Tx.Run(ctx, func(programs ProgramStore, screenings ScreeningStore) error {
		p, err := programs.GetByID(ctx, programID)
		if err != nil {
			return err
		}
		if err := guard(policy.OpCreate, u, p, nil); err != nil {
			return err
		}
		film = normalizeFilm(film)
		if err := validateFilm(film); err != nil {
			return err
		}
		sc.Film = film
		now := s.d.Now().UTC()
		sc.CreatedAt, sc.UpdatedAt = now, now
		return screenings.Create(ctx, sc)
	})
	if err != nil {
		return nil, err
	}
	s.d.Log.Info().Uint64("program_id", programID).Uint64("screening_id", sc.ID).Str("actor", u.Username).Msg("screening created")
	s.d.emit(ctx, screeningEvent(queue.ScreeningCreated, sc, u.Username, ""))
	return sc, nil
}

// Update replaces the film data of a screening that has not been submitted.
func (s *ScreeningService) Update(ctx context.Context, id uint64, film model.Film) (*model.Screening, error) {
	return s.transition(ctx, id, policy.OpUpdate, queue.ScreeningUpdated, func(t *step) error {
		film = normalizeFilm(film)
		if err := validateFilm(film); err != nil {
			return err
		}
		t.screening.Film = film
		return nil
	})
}

// Withdraw deletes a screening that has not been submitted.
func (s *ScreeningService) Withdraw(ctx context.Context, id uint64) error {
	_, err := s.transition(ctx, id, policy.OpWithdraw, queue.ScreeningWithdrawn, func(t *step) error {
		t.remove = true
		return nil
	})
	return err
}

// Submit hands a complete screening to the programmers. A missing end time
// is derived from start time and duration.
func (s *ScreeningService) Submit(ctx context.Context, id uint64) (*model.Screening, error) {
	return s.transition(ctx, id, policy.OpSubmit, queue.ScreeningSubmitted, func(t *step) error {
		return completeFilm(&t.screening.Film)
	})
}

// AssignHandler makes username, a STAFF user, the reviewer of the screening
// and adds them to the program staff when missing.
func (s *ScreeningService) AssignHandler(ctx context.Context, id uint64, username string) (*model.Screening, error) {
	return s.transition(ctx, id, policy.OpAssignHandler, queue.ScreeningHandlerAssigned, func(t *step) error {
		target, err := s.d.Users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if target.Role != model.RoleStaff {
			return invalid("user %s does not hold the STAFF role", target.Username)
		}
		ref := target.Ref()
		t.screening.Handler = &ref
		t.detail = "handler=" + target.Username
		if t.program.Staff.Add(ref) {
			return t.programs.Save(ctx, t.program)
		}
		return nil
	})
}

// Review records the handler's score and comments. A reviewed screening can
// be reviewed again while the program stays in REVIEW.
func (s *ScreeningService) Review(ctx context.Context, id uint64, score int, comments string) (*model.Screening, error) {
	return s.transition(ctx, id, policy.OpReview, queue.ScreeningReviewed, func(t *step) error {
		if score < MinReviewScore || score > MaxReviewScore {
			return invalid("review score must be between %d and %d", MinReviewScore, MaxReviewScore)
		}
		t.screening.ReviewScore = &score
		t.screening.ReviewComments = optional(comments)
		t.detail = fmt.Sprintf("score=%d", score)
		return nil
	})
}

// Approve is the submitter's confirmation after review.
func (s *ScreeningService) Approve(ctx context.Context, id uint64, notes string) (*model.Screening, error) {
	return s.transition(ctx, id, policy.OpApprove, queue.ScreeningApproved, func(t *step) error {
		t.screening.ApprovalNotes = optional(notes)
		t.screening.RejectionReason = nil
		return nil
	})
}

// Reject ends the screening. A non-blank reason is required.
func (s *ScreeningService) Reject(ctx context.Context, id uint64, reason string) (*model.Screening, error) {
	return s.transition(ctx, id, policy.OpReject, queue.ScreeningRejected, func(t *step) error {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return invalid("a rejection reason is required")
		}
		t.screening.RejectionReason = &reason
		t.detail = reason
		return nil
	})
}

// FinalSubmit is the submitter's final confirmation of an approved screening.
func (s *ScreeningService) FinalSubmit(ctx context.Context, id uint64) (*model.Screening, error) {
	return s.transition(ctx, id, policy.OpFinalSubmit, queue.ScreeningFinalSubmitted, func(t *step) error {
		t.screening.FinalSubmitted = true
		return nil
	})
}

// Accept schedules a final-submitted screening.
func (s *ScreeningService) Accept(ctx context.Context, id uint64) (*model.Screening, error) {
	return s.transition(ctx, id, policy.OpAccept, queue.ScreeningAccepted, func(*step) error { return nil })
}

// step is the state handed to a transition body.
type step struct {
	user      *model.User
	program   *model.Program
	screening *model.Screening
	programs  ProgramStore
	remove    bool
	detail    string
}

// transition loads program and screening in lock order, checks the guards of
// op, lets apply mutate the screening and persists the result.
func (s *ScreeningService) transition(ctx context.Context, id uint64, op policy.Operation, typ queue.EventType, apply func(*step) error) (*model.Screening, error) {
	u, err := s.d.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	rule, ok := policy.RuleFor(op)
	if !ok {
		return nil, fmt.Errorf("no transition rule for %s", op)
	}

	var t *step
	var from model.ScreeningState
	err = s.d.Tx.Run(ctx, func(programs ProgramStore, screenings ScreeningStore) error {
		programID, err := screenings.ProgramIDOf(ctx, id)
		if err != nil {
			return err
		}
		p, err := programs.GetByID(ctx, programID)
		if err != nil {
			return err
		}
		sc, err := screenings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guard(op, u, p, sc); err != nil {
			return err
		}

		t = &step{user: u, program: p, screening: sc, programs: programs}
		from = sc.State
		if err := apply(t); err != nil {
			return err
		}
		if t.remove {
			return screenings.Delete(ctx, sc.ID)
		}
		if rule.To != "" {
			sc.State = rule.To
		}
		sc.UpdatedAt = s.d.Now().UTC()
		return screenings.Save(ctx, sc)
	})
	if err != nil {
		return nil, err
	}

	sc := t.screening
	s.d.Log.Info().Uint64("program_id", sc.ProgramID).Uint64("screening_id", sc.ID).Str("actor", u.Username).
		Str("op", string(op)).Str("from", string(from)).Str("to", string(sc.State)).Msg("screening transition")
	ev := screeningEvent(typ, sc, u.Username, from)
	ev.Detail = t.detail
	s.d.emit(ctx, ev)
	if t.remove {
		return nil, nil
	}
	return sc, nil
}

// guard turns a policy violation into the matching error kind.
func guard(op policy.Operation, u *model.User, p *model.Program, sc *model.Screening) error {
	rule, ok := policy.RuleFor(op)
	if !ok {
		return fmt.Errorf("no transition rule for %s", op)
	}
	switch rule.Check(u, p, sc) {
	case policy.WrongActor:
		return forbidden("%s requires %s", op, rule.Actor)
	case policy.WrongStage:
		return invalidTransition("%s is not allowed while program %d is in %s", op, p.ID, p.State)
	case policy.WrongState:
		switch {
		case rule.HandlerUnset && sc.Handler != nil && sc.State == model.ScreeningSubmitted:
			return invalidTransition("screening %d already has a handler", sc.ID)
		case rule.FinalSubmitted && !sc.FinalSubmitted && sc.State == model.ScreeningApproved:
			return invalidTransition("screening %d has not been final-submitted", sc.ID)
		}
		return invalidTransition("%s is not allowed for screening %d in state %s", op, sc.ID, sc.State)
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeFilm(f model.Film) model.Film {
	f.Title = strings.TrimSpace(f.Title)
	f.Cast = strings.TrimSpace(f.Cast)
	f.Genres = strings.TrimSpace(f.Genres)
	f.Auditorium = strings.TrimSpace(f.Auditorium)
	if f.StartTime != nil {
		t := f.StartTime.UTC()
		f.StartTime = &t
	}
	if f.EndTime != nil {
		t := f.EndTime.UTC()
		f.EndTime = &t
	}
	return f
}

// validateFilm checks what must hold at every stage: a non-negative duration
// and, when start, end and a positive duration are all known, an interval
// long enough to fit the film.
func validateFilm(f model.Film) error {
	if f.DurationMinutes < 0 {
		return invalid("film duration must not be negative")
	}
	if f.StartTime != nil && f.EndTime != nil {
		if f.EndTime.Before(*f.StartTime) {
			return invalid("end time precedes start time")
		}
		if f.DurationMinutes > 0 {
			gap := int(f.EndTime.Sub(*f.StartTime) / time.Minute)
			if gap < f.DurationMinutes {
				return invalid("the interval between start and end (%d min) is shorter than the film (%d min)", gap, f.DurationMinutes)
			}
		}
	}
	return nil
}

// completeFilm is the submission check. It fills in a missing end time.
func completeFilm(f *model.Film) error {
	var missing []string
	if f.Title == "" {
		missing = append(missing, "film title")
	}
	if f.Auditorium == "" {
		missing = append(missing, "auditorium")
	}
	if f.StartTime == nil {
		missing = append(missing, "start time")
	}
	if len(missing) > 0 {
		return invalid("screening is incomplete: missing %s", strings.Join(missing, ", "))
	}
	if f.DurationMinutes <= 0 {
		return invalid("film duration must be positive")
	}
	if f.EndTime == nil {
		end := f.StartTime.Add(time.Duration(f.DurationMinutes) * time.Minute)
		f.EndTime = &end
	}
	return validateFilm(*f)
}
