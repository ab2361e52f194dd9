package handler

import (
	"time"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/policy"
	"github.com/iliyamo/cinema-programs/internal/service"
)

const dateLayout = "2006-01-02"

// ----- requests -----

type programReq struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	CreationDate string `json:"creationDate"`
}

func (r programReq) input() (service.ProgramInput, error) {
	in := service.ProgramInput{Name: r.Name, Description: r.Description}
	var err error
	if in.StartDate, err = parseTime("startDate", r.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = parseTime("endDate", r.EndDate); err != nil {
		return in, err
	}
	if in.CreationDate, err = parseTime("creationDate", r.CreationDate); err != nil {
		return in, err
	}
	return in, nil
}

type programSearchReq struct {
	Name  string `json:"name" query:"name"`
	State string `json:"state" query:"state"`
}

type stateReq struct {
	State string `json:"state"`
}

type filmReq struct {
	Title           string `json:"title"`
	Cast            string `json:"cast"`
	Genres          string `json:"genres"`
	DurationMinutes int    `json:"durationMinutes"`
	Auditorium      string `json:"auditorium"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
}

func (r filmReq) film() (model.Film, error) {
	f := model.Film{
		Title:           r.Title,
		Cast:            r.Cast,
		Genres:          r.Genres,
		DurationMinutes: r.DurationMinutes,
		Auditorium:      r.Auditorium,
	}
	var err error
	if f.StartTime, err = parseTime("startTime", r.StartTime); err != nil {
		return f, err
	}
	if f.EndTime, err = parseTime("endTime", r.EndTime); err != nil {
		return f, err
	}
	return f, nil
}

type screeningSearchReq struct {
	Title string `json:"title"`
	Cast  string `json:"cast"`
	Genre string `json:"genre"`
	From  string `json:"from"`
	To    string `json:"to"`
}

func (r screeningSearchReq) criteria() (service.ScreeningCriteria, error) {
	c := service.ScreeningCriteria{Title: r.Title, Cast: r.Cast, Genre: r.Genre}
	var err error
	if c.From, err = parseTime("from", r.From); err != nil {
		return c, err
	}
	if c.To, err = parseTime("to", r.To); err != nil {
		return c, err
	}
	return c, nil
}

type assignReq struct {
	Username string `json:"username"`
}

type reviewReq struct {
	Score    *int   `json:"score"`
	Comments string `json:"comments"`
}

type notesReq struct {
	Notes string `json:"notes"`
}

type reasonReq struct {
	Reason string `json:"reason"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ----- responses -----

type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role"`
}

func newUserPart(u *model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: string(u.Role)}
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type loginResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// ProgramDetails is the team view of a program.
type ProgramDetails struct {
	ID              uint64   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	StartDate       string   `json:"startDate"`
	EndDate         string   `json:"endDate"`
	CreationDate    string   `json:"creationDate"`
	State           string   `json:"state"`
	Creator         string   `json:"creator"`
	Programmers     []string `json:"programmers"`
	Staff           []string `json:"staff"`
	ProgrammerCount int      `json:"programmerCount"`
	StaffCount      int      `json:"staffCount"`
}

// ProgramSummary is what everyone else sees.
type ProgramSummary struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	State       string   `json:"state"`
	Programmers []string `json:"programmers"`
}

// programView picks details for the program team and its creator.
func programView(u *model.User, p *model.Program) any {
	if policy.IsProgrammer(u, p) || policy.IsStaff(u, p) || policy.IsCreator(u, p) {
		return ProgramDetails{
			ID:              p.ID,
			Name:            p.Name,
			Description:     p.Description,
			StartDate:       p.StartDate.UTC().Format(dateLayout),
			EndDate:         p.EndDate.UTC().Format(dateLayout),
			CreationDate:    p.CreationDate.UTC().Format(time.RFC3339),
			State:           string(p.State),
			Creator:         p.Creator.Username,
			Programmers:     p.Programmers.Usernames(),
			Staff:           p.Staff.Usernames(),
			ProgrammerCount: p.Programmers.Len(),
			StaffCount:      p.Staff.Len(),
		}
	}
	return ProgramSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate.UTC().Format(dateLayout),
		EndDate:     p.EndDate.UTC().Format(dateLayout),
		State:       string(p.State),
		Programmers: p.Programmers.Usernames(),
	}
}

func programViews(u *model.User, list []model.Program) []any {
	out := make([]any, 0, len(list))
	for i := range list {
		out = append(out, programView(u, &list[i]))
	}
	return out
}

// ScreeningDetails carries every field of a screening.
type ScreeningDetails struct {
	ID              uint64     `json:"id"`
	ProgramID       uint64     `json:"programId"`
	State           string     `json:"state"`
	Title           string     `json:"title"`
	Cast            string     `json:"cast"`
	Genres          string     `json:"genres"`
	DurationMinutes int        `json:"durationMinutes"`
	Auditorium      string     `json:"auditorium"`
	StartTime       *time.Time `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	Submitter       string     `json:"submitter"`
	Handler         *string    `json:"handler"`
	ReviewScore     *int       `json:"reviewScore"`
	ReviewComments  *string    `json:"reviewComments"`
	ApprovalNotes   *string    `json:"approvalNotes"`
	RejectionReason *string    `json:"rejectionReason"`
	FinalSubmitted  bool       `json:"finalSubmitted"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ScreeningPublic is the redacted view.
type ScreeningPublic struct {
	ID         uint64     `json:"id"`
	ProgramID  uint64     `json:"programId"`
	Title      string     `json:"title"`
	Genres     string     `json:"genres"`
	Auditorium string     `json:"auditorium"`
	StartTime  *time.Time `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
	State      string     `json:"state"`
}

func screeningDetails(s *model.Screening) ScreeningDetails {
	d := ScreeningDetails{
		ID:              s.ID,
		ProgramID:       s.ProgramID,
		State:           string(s.State),
		Title:           s.Title,
		Cast:            s.Cast,
		Genres:          s.Genres,
		DurationMinutes: s.DurationMinutes,
		Auditorium:      s.Auditorium,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Submitter:       s.Submitter.Username,
		ReviewScore:     s.ReviewScore,
		ReviewComments:  s.ReviewComments,
		ApprovalNotes:   s.ApprovalNotes,
		RejectionReason: s.RejectionReason,
		FinalSubmitted:  s.FinalSubmitted,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Handler != nil {
		name := s.Handler.Username
		d.Handler = &name
	}
	return d
}

func screeningView(v service.VisibleScreening) any {
	if v.Access == policy.AccessFull {
		return screeningDetails(&v.Screening)
	}
	s := v.Screening
	return ScreeningPublic{
		ID:         s.ID,
		ProgramID:  s.ProgramID,
		Title:      s.Title,
		Genres:     s.Genres,
		Auditorium: s.Auditorium,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		State:      string(s.State),
	}
}

func screeningViews(list []service.VisibleScreening) []any {
	out := make([]any, 0, len(list))
	for _, v := range list {
		out = append(out, screeningView(v))
	}
	return out
}
