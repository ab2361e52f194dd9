package model

import (
	"strings"
	"time"
)

// Role is the single authorization role a user holds.
type Role string

const (
	RoleVisitor    Role = "VISITOR"
	RoleUser       Role = "USER"
	RoleSubmitter  Role = "SUBMITTER"
	RoleStaff      Role = "STAFF"
	RoleProgrammer Role = "PROGRAMMER"
)

// VisitorUsername is the username of the synthesized anonymous identity.
const VisitorUsername = "visitor"

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleVisitor, RoleUser, RoleSubmitter, RoleStaff, RoleProgrammer:
		return r, true
	}
	return "", false
}

// User represents a row of the `users` table.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name; programs and screenings reference users by it.
//	FullName     – display name (optional).
//	PasswordHash – bcrypt hash; empty for identities that cannot log in (the visitor).
//	Role         – one of the Role constants.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	FullName     string    // users.full_name
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
}

// Ref returns the lightweight reference stored on programs and screenings.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// Is reports whether u and ref point at the same user.
func (u *User) Is(ref *UserRef) bool {
	return u != nil && ref != nil && u.ID == ref.ID
}

// UserRef is a reference to a user owned elsewhere.
type UserRef struct {
	ID       uint64
	Username string
}
