// Package identity resolves the acting user of a request. The transport
// layer stores the authenticated username in the request context; requests
// without one act as the shared visitor account.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

type ctxKey struct{}

// WithUsername returns a context carrying the authenticated username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// UsernameFrom returns the authenticated username, if any.
func UsernameFrom(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxKey{}).(string)
	return u, ok && u != ""
}

// Users is the lookup the provider needs.
type Users interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

// Provider implements service.CurrentUser.
type Provider struct {
	users Users
}

func NewProvider(users Users) *Provider {
	return &Provider{users: users}
}

var _ service.CurrentUser = (*Provider)(nil)

// CurrentUser loads the authenticated user, or the visitor account when the
// request is anonymous. The visitor is created on first use.
func (p *Provider) CurrentUser(ctx context.Context) (*model.User, error) {
	if name, ok := UsernameFrom(ctx); ok {
		u, err := p.users.FindByUsername(ctx, name)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				// The token outlived its account.
				return nil, &service.Error{Kind: service.ErrForbidden, Msg: "unknown user " + name}
			}
			return nil, err
		}
		return u, nil
	}
	return p.visitor(ctx)
}

func (p *Provider) visitor(ctx context.Context) (*model.User, error) {
	u, err := p.users.FindByUsername(ctx, model.VisitorUsername)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, service.ErrNotFound) {
		return nil, err
	}
	u = &model.User{Username: model.VisitorUsername, FullName: "Visitor", Role: model.RoleVisitor}
	if err := p.users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent first request.
		if errors.Is(err, service.ErrDuplicateUser) {
			return p.users.FindByUsername(ctx, model.VisitorUsername)
		}
		return nil, fmt.Errorf("create visitor: %w", err)
	}
	return u, nil
}
