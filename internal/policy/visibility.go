package policy

import "github.com/iliyamo/cinema-programs/internal/model"

// Access is how much of a screening a caller may see.
type Access int

const (
	AccessNone   Access = iota // excluded entirely
	AccessPublic               // redacted public view
	AccessFull                 // full detail view
)

// ScreeningAccess runs the visibility chain for one screening. The first
// matching rule wins; programmers of the program always get the full view.
func ScreeningAccess(u *model.User, p *model.Program, s *model.Screening) Access {
	switch {
	case IsProgrammer(u, p):
		return AccessFull
	case IsHandler(u, s), IsSubmitter(u, s):
		return AccessFull
	case IsStaff(u, p):
		return AccessPublic
	case p.State == model.ProgramAnnounced && s.State == model.ScreeningScheduled:
		return AccessPublic
	}
	return AccessNone
}
