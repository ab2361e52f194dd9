package model

import (
	"strings"
	"time"
)

// ProgramState is a stage of a festival program. Stages advance strictly in
// the order below; ANNOUNCED is terminal.
type ProgramState string

const (
	ProgramCreated          ProgramState = "CREATED"
	ProgramSubmission       ProgramState = "SUBMISSION"
	ProgramAssignment       ProgramState = "ASSIGNMENT"
	ProgramReview           ProgramState = "REVIEW"
	ProgramScheduling       ProgramState = "SCHEDULING"
	ProgramFinalPublication ProgramState = "FINAL_PUBLICATION"
	ProgramDecision         ProgramState = "DECISION"
	ProgramAnnounced        ProgramState = "ANNOUNCED"
)

var programSuccessor = map[ProgramState]ProgramState{
	ProgramCreated:          ProgramSubmission,
	ProgramSubmission:       ProgramAssignment,
	ProgramAssignment:       ProgramReview,
	ProgramReview:           ProgramScheduling,
	ProgramScheduling:       ProgramFinalPublication,
	ProgramFinalPublication: ProgramDecision,
	ProgramDecision:         ProgramAnnounced,
}

// Next returns the single legal successor of s. ok is false for ANNOUNCED
// and for unknown values.
func (s ProgramState) Next() (next ProgramState, ok bool) {
	next, ok = programSuccessor[s]
	return next, ok
}

// Valid reports whether s is one of the eight stages.
func (s ProgramState) Valid() bool {
	_, ok := programSuccessor[s]
	return ok || s == ProgramAnnounced
}

// ParseProgramState normalizes s (case-insensitive) into a ProgramState.
func ParseProgramState(s string) (ProgramState, bool) {
	st := ProgramState(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Program is the aggregate root of a festival run. It mirrors the `programs`
// table plus the `program_programmers` and `program_staff` rosters.
type Program struct {
	ID           uint64       // programs.id
	Name         string       // programs.name
	Description  string       // programs.description
	StartDate    time.Time    // programs.start_date
	EndDate      time.Time    // programs.end_date
	CreationDate time.Time    // programs.creation_date
	State        ProgramState // programs.state
	Creator      UserRef      // programs.creator_id, never changes
	Programmers  Members      // program_programmers
	Staff        Members      // program_staff
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (p *Program) Clone() *Program {
	c := *p
	c.Programmers = p.Programmers.Clone()
	c.Staff = p.Staff.Clone()
	return &c
}
