package memory

import (
	"context"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// Screenings stores screenings.
type Screenings struct{ view }

var _ service.ScreeningStore = (*Screenings)(nil)

func (r *Screenings) ProgramIDOf(_ context.Context, id uint64) (uint64, error) {
	defer r.read()()
	sc, ok := r.s.d.screenings[id]
	if !ok {
		return 0, service.NotFoundf("screening %d not found", id)
	}
	return sc.ProgramID, nil
}

func (r *Screenings) GetByID(_ context.Context, id uint64) (*model.Screening, error) {
	defer r.read()()
	sc, ok := r.s.d.screenings[id]
	if !ok {
		return nil, service.NotFoundf("screening %d not found", id)
	}
	return sc.Clone(), nil
}

func (r *Screenings) ListByProgram(_ context.Context, programID uint64) ([]model.Screening, error) {
	defer r.read()()
	out := make([]model.Screening, 0)
	for _, id := range sortedIDs(r.s.d.screenings) {
		if sc := r.s.d.screenings[id]; sc.ProgramID == programID {
			out = append(out, *sc.Clone())
		}
	}
	return out, nil
}

func (r *Screenings) Create(_ context.Context, sc *model.Screening) error {
	defer r.write()()
	if _, ok := r.s.d.programs[sc.ProgramID]; !ok {
		return service.NotFoundf("program %d not found", sc.ProgramID)
	}
	r.s.d.nextScreening++
	sc.ID = r.s.d.nextScreening
	r.s.d.screenings[sc.ID] = sc.Clone()
	return nil
}

func (r *Screenings) Save(_ context.Context, sc *model.Screening) error {
	defer r.write()()
	if _, ok := r.s.d.screenings[sc.ID]; !ok {
		return service.NotFoundf("screening %d not found", sc.ID)
	}
	r.s.d.screenings[sc.ID] = sc.Clone()
	return nil
}

func (r *Screenings) Delete(_ context.Context, id uint64) error {
	defer r.write()()
	if _, ok := r.s.d.screenings[id]; !ok {
		return service.NotFoundf("screening %d not found", id)
	}
	delete(r.s.d.screenings, id)
	return nil
}
