package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "password"

// DemoUsers are the accounts created by SeedDemoUsers.
var DemoUsers = []struct {
	Username string
	FullName string
	Role     model.Role
}{
	{model.VisitorUsername, "Visitor", model.RoleVisitor},
	{"user1", "User One", model.RoleProgrammer},
	{"prog1", "Programmer One", model.RoleProgrammer},
	{"staff1", "Staff One", model.RoleStaff},
	{"submitter", "Submitter", model.RoleSubmitter},
	{"admin", "Admin", model.RoleUser},
}

// SeedDemoUsers creates the demo accounts that do not exist yet and returns
// how many were added. hash turns DemoPassword into a stored hash. The
// visitor never gets a password.
func SeedDemoUsers(ctx context.Context, users Users, hash func(string) (string, error)) (int, error) {
	pw, err := hash(DemoPassword)
	if err != nil {
		return 0, fmt.Errorf("hash demo password: %w", err)
	}
	created := 0
	for _, d := range DemoUsers {
		if _, err := users.FindByUsername(ctx, d.Username); err == nil {
			continue
		} else if !errors.Is(err, service.ErrNotFound) {
			return created, err
		}
		u := &model.User{Username: d.Username, FullName: d.FullName, Role: d.Role}
		if d.Role != model.RoleVisitor {
			u.PasswordHash = pw
		}
		if err := users.Create(ctx, u); err != nil {
			if errors.Is(err, service.ErrDuplicateUser) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", d.Username, err)
		}
		created++
	}
	return created, nil
}
