package model

import "time"

// ScreeningState is the lifecycle of a single film submission.
type ScreeningState string

const (
	ScreeningCreated   ScreeningState = "CREATED"
	ScreeningSubmitted ScreeningState = "SUBMITTED"
	ScreeningReviewed  ScreeningState = "REVIEWED"
	ScreeningApproved  ScreeningState = "APPROVED"
	ScreeningRejected  ScreeningState = "REJECTED"
	ScreeningScheduled ScreeningState = "SCHEDULED"
)

// Terminal reports whether no further transition may leave s.
func (s ScreeningState) Terminal() bool {
	return s == ScreeningRejected || s == ScreeningScheduled
}

// Film holds the submitter-editable part of a screening.
type Film struct {
	Title           string     // screenings.film_title
	Cast            string     // screenings.film_cast
	Genres          string     // screenings.film_genres
	DurationMinutes int        // screenings.film_duration_minutes
	Auditorium      string     // screenings.auditorium_name
	StartTime       *time.Time // screenings.start_time (nullable)
	EndTime         *time.Time // screenings.end_time (nullable)
}

// Screening mirrors a row of the `screenings` table. Nullable columns use
// pointers.
type Screening struct {
	ID              uint64         // screenings.id
	ProgramID       uint64         // screenings.program_id, immutable
	State           ScreeningState // screenings.state
	Film                           // film metadata and schedule
	Submitter       UserRef        // screenings.submitter_id, immutable
	Handler         *UserRef       // screenings.handler_id, set at most once
	ReviewScore     *int           // screenings.review_score
	ReviewComments  *string        // screenings.review_comments
	ApprovalNotes   *string        // screenings.approval_notes
	RejectionReason *string        // screenings.rejection_reason
	FinalSubmitted  bool           // screenings.final_submitted
	CreatedAt       time.Time      // screenings.created_at
	UpdatedAt       time.Time      // screenings.updated_at
}

// Clone returns a deep copy.
func (s *Screening) Clone() *Screening {
	c := *s
	c.StartTime = cloneTime(s.StartTime)
	c.EndTime = cloneTime(s.EndTime)
	if s.Handler != nil {
		h := *s.Handler
		c.Handler = &h
	}
	if s.ReviewScore != nil {
		v := *s.ReviewScore
		c.ReviewScore = &v
	}
	c.ReviewComments = cloneString(s.ReviewComments)
	c.ApprovalNotes = cloneString(s.ApprovalNotes)
	c.RejectionReason = cloneString(s.RejectionReason)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
