// Package queue defines the workflow events exchanged over RabbitMQ together
// with the publisher used by the API and the consumer used by the auditor.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowQueue is the durable queue every workflow event is routed to.
const WorkflowQueue = "cinema.workflow"

// EventType names what happened.
type EventType string

const (
	ProgramCreated           EventType = "program.created"
	ProgramUpdated           EventType = "program.updated"
	ProgramDeleted           EventType = "program.deleted"
	ProgramRosterChanged     EventType = "program.roster_changed"
	ProgramStateChanged      EventType = "program.state_changed"
	ScreeningCreated         EventType = "screening.created"
	ScreeningUpdated         EventType = "screening.updated"
	ScreeningWithdrawn       EventType = "screening.withdrawn"
	ScreeningSubmitted       EventType = "screening.submitted"
	ScreeningHandlerAssigned EventType = "screening.handler_assigned"
	ScreeningReviewed        EventType = "screening.reviewed"
	ScreeningApproved        EventType = "screening.approved"
	ScreeningRejected        EventType = "screening.rejected"
	ScreeningFinalSubmitted  EventType = "screening.final_submitted"
	ScreeningAccepted        EventType = "screening.accepted"
)

// WorkflowEvent is published after a mutation has been committed. It carries
// enough context for consumers to audit or notify without reading the
// database.
type WorkflowEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ProgramID   uint64    `json:"program_id"`
	ScreeningID uint64    `json:"screening_id,omitempty"`
	Actor       string    `json:"actor"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh id and the current UTC time.
func NewEvent(typ EventType, programID uint64, actor string) WorkflowEvent {
	return WorkflowEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		ProgramID:  programID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}
