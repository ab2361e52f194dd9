package memory

import (
	"context"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// Users stores user accounts under their own lock.
type Users struct{ s *Store }

var _ service.UserStore = (*Users)(nil)

func (r *Users) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.umu.RLock()
	defer r.s.umu.RUnlock()
	for _, id := range sortedIDs(r.s.users) {
		if u := r.s.users[id]; u.Username == username {
			v := *u
			return &v, nil
		}
	}
	return nil, service.NotFoundf("user %s not found", username)
}

func (r *Users) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	r.s.umu.RLock()
	defer r.s.umu.RUnlock()
	var out []model.User
	for _, id := range sortedIDs(r.s.users) {
		if u := r.s.users[id]; u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.s.umu.Lock()
	defer r.s.umu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return service.ErrDuplicateUser
		}
	}
	r.s.nextUser++
	u.ID = r.s.nextUser
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now().UTC()
	}
	v := *u
	r.s.users[u.ID] = &v
	return nil
}
