package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// UserRepo reads and writes the 'users' table.
type UserRepo struct{ q dbtx }

var _ service.UserStore = (*UserRepo)(nil)

const userColumns = "id, username, full_name, password_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// FindByUsername fetches a user by exact username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.NotFoundf("user %s not found", username)
	}
	return u, err
}

// ListByRole returns users holding role, ordered by id.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = ? ORDER BY id", string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Create inserts u and sets its ID. created_at defaults in the database when
// u.CreatedAt is zero.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	var (
		res sql.Result
		err error
	)
	if u.CreatedAt.IsZero() {
		res, err = r.q.ExecContext(ctx,
			"INSERT INTO users (username, full_name, password_hash, role) VALUES (?,?,?,?)",
			u.Username, u.FullName, u.PasswordHash, string(u.Role))
	} else {
		res, err = r.q.ExecContext(ctx,
			"INSERT INTO users (username, full_name, password_hash, role, created_at) VALUES (?,?,?,?,?)",
			u.Username, u.FullName, u.PasswordHash, string(u.Role), u.CreatedAt.UTC())
	}
	if err != nil {
		if isDuplicate(err) {
			return service.ErrDuplicateUser
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}
