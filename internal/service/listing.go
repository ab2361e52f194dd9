package service

import (
	"context"
	"strings"

	"github.com/iliyamo/cinema-programs/internal/model"
)

// programSource yields one slice of the role-specific program union.
type programSource func(ctx context.Context, programs ProgramStore, u *model.User) ([]model.Program, error)

func announced(ctx context.Context, programs ProgramStore, _ *model.User) ([]model.Program, error) {
	return programs.ListByState(ctx, model.ProgramAnnounced)
}

func createdBy(ctx context.Context, programs ProgramStore, u *model.User) ([]model.Program, error) {
	return programs.ListCreatedBy(ctx, u.ID)
}

func staffOf(ctx context.Context, programs ProgramStore, u *model.User) ([]model.Program, error) {
	return programs.ListByStaff(ctx, u.ID)
}

func handlerIn(ctx context.Context, programs ProgramStore, u *model.User) ([]model.Program, error) {
	return programs.ListByHandler(ctx, u.ID)
}

func programmerOf(ctx context.Context, programs ProgramStore, u *model.User) ([]model.Program, error) {
	return programs.ListByProgrammer(ctx, u.ID)
}

func withoutProgrammers(ctx context.Context, programs ProgramStore, _ *model.User) ([]model.Program, error) {
	return programs.ListWithoutProgrammers(ctx)
}

// listingSources maps each role to the parts of its program listing, in the
// order they are merged. VISITOR and USER only see announced programs.
var listingSources = map[model.Role][]programSource{
	model.RoleVisitor:    {announced},
	model.RoleUser:       {announced},
	model.RoleSubmitter:  {announced, createdBy},
	model.RoleStaff:      {announced, staffOf, handlerIn},
	model.RoleProgrammer: {announced, programmerOf, createdBy, withoutProgrammers},
}

// List returns the programs visible to the caller, de-duplicated by id in
// first-seen order.
func (s *ProgramService) List(ctx context.Context) ([]model.Program, error) {
	u, err := s.d.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, u)
}

func (s *ProgramService) visible(ctx context.Context, u *model.User) ([]model.Program, error) {
	sources, ok := listingSources[u.Role]
	if !ok {
		sources = listingSources[model.RoleVisitor]
	}
	seen := make(map[uint64]bool)
	out := make([]model.Program, 0)
	for _, src := range sources {
		part, err := src(ctx, s.d.Programs, u)
		if err != nil {
			return nil, err
		}
		for _, p := range part {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// ProgramCriteria filters a program search. Zero values match everything.
type ProgramCriteria struct {
	Name  string
	State model.ProgramState
}

// Search filters the caller's program listing by name tokens and stage.
func (s *ProgramService) Search(ctx context.Context, c ProgramCriteria) ([]model.Program, error) {
	if c.State != "" && !c.State.Valid() {
		return nil, invalid("unknown program state %q", c.State)
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	name := tokens(c.Name)
	out := make([]model.Program, 0, len(all))
	for _, p := range all {
		if c.State != "" && p.State != c.State {
			continue
		}
		if !matchAll(p.Name, name) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// tokens splits a free-text query into lower-cased whitespace-separated terms.
func tokens(q string) []string {
	return strings.Fields(strings.ToLower(q))
}

// matchAll reports whether every term is a substring of field, ignoring case.
func matchAll(field string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	f := strings.ToLower(field)
	for _, t := range terms {
		if !strings.Contains(f, t) {
			return false
		}
	}
	return true
}
