package policy

import "github.com/iliyamo/cinema-programs/internal/model"

// Operation names a screening mutation.
type Operation string

const (
	OpCreate        Operation = "create"
	OpUpdate        Operation = "update"
	OpWithdraw      Operation = "withdraw"
	OpSubmit        Operation = "submit"
	OpAssignHandler Operation = "assign-handler"
	OpReview        Operation = "review"
	OpApprove       Operation = "approve"
	OpReject        Operation = "reject"
	OpFinalSubmit   Operation = "final-submit"
	OpAccept        Operation = "accept"
)

// Actor is the relationship the caller must hold to run an operation.
type Actor int

const (
	// ActorOutsider is any non-VISITOR that is neither programmer nor staff
	// of the program.
	ActorOutsider Actor = iota
	ActorSubmitter
	ActorHandler
	ActorProgrammer
)

func (a Actor) String() string {
	switch a {
	case ActorOutsider:
		return "a non-visitor outside the program team"
	case ActorSubmitter:
		return "the submitter"
	case ActorHandler:
		return "the assigned handler"
	case ActorProgrammer:
		return "a programmer of the program"
	}
	return "unknown"
}

// Rule is one row of the screening transition table.
type Rule struct {
	Actor Actor
	// Stages the program must be in; nil allows any stage.
	Stages []model.ProgramState
	// From lists the accepted prior screening states; nil for create.
	From []model.ScreeningState
	// To is the resulting state. Empty means the state is left unchanged
	// (update, final-submit) or the screening is removed (withdraw).
	To model.ScreeningState
	// HandlerUnset requires that no handler is assigned yet.
	HandlerUnset bool
	// FinalSubmitted requires the submitter's final confirmation.
	FinalSubmitted bool
}

var rules = map[Operation]Rule{
	OpCreate: {
		Actor:  ActorOutsider,
		Stages: []model.ProgramState{model.ProgramSubmission},
		To:     model.ScreeningCreated,
	},
	OpUpdate: {
		Actor: ActorSubmitter,
		From:  []model.ScreeningState{model.ScreeningCreated},
	},
	OpWithdraw: {
		Actor: ActorSubmitter,
		From:  []model.ScreeningState{model.ScreeningCreated},
	},
	OpSubmit: {
		Actor:  ActorSubmitter,
		Stages: []model.ProgramState{model.ProgramSubmission},
		From:   []model.ScreeningState{model.ScreeningCreated},
		To:     model.ScreeningSubmitted,
	},
	OpAssignHandler: {
		Actor:        ActorProgrammer,
		Stages:       []model.ProgramState{model.ProgramAssignment},
		From:         []model.ScreeningState{model.ScreeningSubmitted},
		HandlerUnset: true,
	},
	OpReview: {
		Actor:  ActorHandler,
		Stages: []model.ProgramState{model.ProgramReview},
		From:   []model.ScreeningState{model.ScreeningSubmitted, model.ScreeningReviewed},
		To:     model.ScreeningReviewed,
	},
	OpApprove: {
		Actor:  ActorSubmitter,
		Stages: []model.ProgramState{model.ProgramScheduling},
		From:   []model.ScreeningState{model.ScreeningReviewed},
		To:     model.ScreeningApproved,
	},
	OpReject: {
		Actor:  ActorProgrammer,
		Stages: []model.ProgramState{model.ProgramScheduling, model.ProgramDecision},
		From: []model.ScreeningState{
			model.ScreeningCreated, model.ScreeningSubmitted,
			model.ScreeningReviewed, model.ScreeningApproved,
		},
		To: model.ScreeningRejected,
	},
	OpFinalSubmit: {
		Actor:  ActorSubmitter,
		Stages: []model.ProgramState{model.ProgramFinalPublication},
		From:   []model.ScreeningState{model.ScreeningApproved},
	},
	OpAccept: {
		Actor:          ActorProgrammer,
		Stages:         []model.ProgramState{model.ProgramDecision},
		From:           []model.ScreeningState{model.ScreeningApproved},
		To:             model.ScreeningScheduled,
		FinalSubmitted: true,
	},
}

// RuleFor returns the transition rule of op.
func RuleFor(op Operation) (Rule, bool) {
	r, ok := rules[op]
	return r, ok
}

// Violation tells which guard of a rule failed.
type Violation int

const (
	Allowed Violation = iota
	WrongActor
	WrongStage
	WrongState
)

// Allows reports whether u holds the relationship a to the program and
// screening. s may be nil only for ActorOutsider and ActorProgrammer.
func (a Actor) Allows(u *model.User, p *model.Program, s *model.Screening) bool {
	switch a {
	case ActorOutsider:
		return u.Role != model.RoleVisitor &&
			!p.Programmers.Contains(u.ID) && !p.Staff.Contains(u.ID)
	case ActorSubmitter:
		return s != nil && IsSubmitter(u, s)
	case ActorHandler:
		return s != nil && IsHandler(u, s)
	case ActorProgrammer:
		return IsProgrammer(u, p)
	}
	return false
}

// Check evaluates the guards of r in order: caller, program stage, screening
// state. s is nil for create.
func (r Rule) Check(u *model.User, p *model.Program, s *model.Screening) Violation {
	if !r.Actor.Allows(u, p, s) {
		return WrongActor
	}
	if r.Stages != nil && !containsStage(r.Stages, p.State) {
		return WrongStage
	}
	if s == nil {
		return Allowed
	}
	if r.From != nil && !containsState(r.From, s.State) {
		return WrongState
	}
	if r.HandlerUnset && s.Handler != nil {
		return WrongState
	}
	if r.FinalSubmitted && !s.FinalSubmitted {
		return WrongState
	}
	return Allowed
}

func containsStage(list []model.ProgramState, v model.ProgramState) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsState(list []model.ScreeningState, v model.ScreeningState) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
