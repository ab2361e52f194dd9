// Package policy holds the pure authorization and visibility predicates for
// programs and screenings. Nothing here touches storage; every function
// decides from the caller, the program and (optionally) the screening.
package policy

import "github.com/iliyamo/cinema-programs/internal/model"

// IsProgrammer reports whether u holds the PROGRAMMER role and sits on the
// program's programmer roster.
func IsProgrammer(u *model.User, p *model.Program) bool {
	return u.Role == model.RoleProgrammer && p.Programmers.Contains(u.ID)
}

// IsStaff reports whether u is on the program's staff roster.
func IsStaff(u *model.User, p *model.Program) bool {
	return p.Staff.Contains(u.ID)
}

// IsCreator reports whether u created the program.
func IsCreator(u *model.User, p *model.Program) bool {
	return u.ID == p.Creator.ID
}

// IsSubmitter reports whether u created the screening.
func IsSubmitter(u *model.User, s *model.Screening) bool {
	return u.ID == s.Submitter.ID
}

// IsHandler reports whether u is the screening's assigned handler.
func IsHandler(u *model.User, s *model.Screening) bool {
	return u.Is(s.Handler)
}

// CanCreateProgram allows every role except VISITOR.
func CanCreateProgram(u *model.User) bool {
	return u.Role != model.RoleVisitor
}

// CanManageProgram covers update, delete, roster changes and stage changes.
func CanManageProgram(u *model.User, p *model.Program) bool {
	return IsProgrammer(u, p)
}

// CanViewProgram decides direct access to a single program.
func CanViewProgram(u *model.User, p *model.Program) bool {
	if p.State == model.ProgramAnnounced {
		return true
	}
	switch u.Role {
	case model.RoleSubmitter:
		return IsCreator(u, p)
	case model.RoleProgrammer:
		return p.Programmers.Contains(u.ID) || IsCreator(u, p)
	case model.RoleStaff:
		return IsStaff(u, p)
	}
	return false
}
