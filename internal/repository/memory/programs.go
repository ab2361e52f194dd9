package memory

import (
	"context"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// Programs stores programs and their rosters.
type Programs struct{ view }

var _ service.ProgramStore = (*Programs)(nil)

func (r *Programs) GetByID(_ context.Context, id uint64) (*model.Program, error) {
	defer r.read()()
	p, ok := r.s.d.programs[id]
	if !ok {
		return nil, service.NotFoundf("program %d not found", id)
	}
	return p.Clone(), nil
}

func (r *Programs) Create(_ context.Context, p *model.Program) error {
	defer r.write()()
	r.s.d.nextProgram++
	p.ID = r.s.d.nextProgram
	r.s.d.programs[p.ID] = p.Clone()
	return nil
}

func (r *Programs) Save(_ context.Context, p *model.Program) error {
	defer r.write()()
	if _, ok := r.s.d.programs[p.ID]; !ok {
		return service.NotFoundf("program %d not found", p.ID)
	}
	r.s.d.programs[p.ID] = p.Clone()
	return nil
}

func (r *Programs) Delete(_ context.Context, id uint64) error {
	defer r.write()()
	if _, ok := r.s.d.programs[id]; !ok {
		return service.NotFoundf("program %d not found", id)
	}
	delete(r.s.d.programs, id)
	for sid, sc := range r.s.d.screenings {
		if sc.ProgramID == id {
			delete(r.s.d.screenings, sid)
		}
	}
	return nil
}

func (r *Programs) ListByState(_ context.Context, state model.ProgramState) ([]model.Program, error) {
	return r.filter(func(p *model.Program) bool { return p.State == state }), nil
}

func (r *Programs) ListCreatedBy(_ context.Context, userID uint64) ([]model.Program, error) {
	return r.filter(func(p *model.Program) bool { return p.Creator.ID == userID }), nil
}

func (r *Programs) ListByProgrammer(_ context.Context, userID uint64) ([]model.Program, error) {
	return r.filter(func(p *model.Program) bool { return p.Programmers.Contains(userID) }), nil
}

func (r *Programs) ListByStaff(_ context.Context, userID uint64) ([]model.Program, error) {
	return r.filter(func(p *model.Program) bool { return p.Staff.Contains(userID) }), nil
}

func (r *Programs) ListByHandler(_ context.Context, userID uint64) ([]model.Program, error) {
	return r.filter(func(p *model.Program) bool {
		for _, sc := range r.s.d.screenings {
			if sc.ProgramID == p.ID && sc.Handler != nil && sc.Handler.ID == userID {
				return true
			}
		}
		return false
	}), nil
}

func (r *Programs) ListWithoutProgrammers(_ context.Context) ([]model.Program, error) {
	return r.filter(func(p *model.Program) bool { return p.Programmers.Len() == 0 }), nil
}

func (r *Programs) filter(keep func(*model.Program) bool) []model.Program {
	defer r.read()()
	out := make([]model.Program, 0)
	for _, id := range sortedIDs(r.s.d.programs) {
		if p := r.s.d.programs[id]; keep(p) {
			out = append(out, *p.Clone())
		}
	}
	return out
}
