// Package service implements the program and screening workflows: the two
// coupled state machines, their authorization guards and the role-dependent
// listing and search rules. Storage, identity and event delivery are reached
// through the interfaces in ports.go.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/queue"
)

// Deps bundles what both services need.
type Deps struct {
	Users      UserStore
	Programs   ProgramStore
	Screenings ScreeningStore
	Tx         TxRunner
	Identity   CurrentUser
	Events     EventPublisher   // optional, events are dropped when nil
	Log        zerolog.Logger
	Now        func() time.Time // optional, defaults to time.Now
}

func (d Deps) withDefaults() Deps {
	if d.Users == nil || d.Programs == nil || d.Screenings == nil || d.Tx == nil || d.Identity == nil {
		panic("service: nil dependency")
	}
	if d.Events == nil {
		d.Events = queue.Discard{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// emit publishes committed events. Delivery problems are logged and never
// reach the caller.
func (d Deps) emit(ctx context.Context, events ...queue.WorkflowEvent) {
	for _, ev := range events {
		if err := d.Events.Publish(ctx, ev); err != nil {
			d.Log.Warn().Err(err).Str("event", string(ev.Type)).Uint64("program_id", ev.ProgramID).Msg("event not published")
		}
	}
}

func (d Deps) currentUser(ctx context.Context) (*model.User, error) {
	return d.Identity.CurrentUser(ctx)
}

func programEvent(typ queue.EventType, p *model.Program, actor *model.User) queue.WorkflowEvent {
	return queue.NewEvent(typ, p.ID, actor.Username)
}

func screeningEvent(typ queue.EventType, s *model.Screening, actor string, from model.ScreeningState) queue.WorkflowEvent {
	ev := queue.NewEvent(typ, s.ProgramID, actor)
	ev.ScreeningID = s.ID
	ev.From = string(from)
	ev.To = string(s.State)
	return ev
}
