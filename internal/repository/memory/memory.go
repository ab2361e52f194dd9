// Package memory is an in-process implementation of the service storage
// ports. It backs STORE_DRIVER=memory and the tests. Transactions are
// serialized behind one mutex and rolled back from a snapshot on error.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// data is the transactional part of the store. Users live outside it: they
// are shared references and are looked up from inside transactions.
type data struct {
	nextProgram   uint64
	nextScreening uint64
	programs      map[uint64]*model.Program
	screenings    map[uint64]*model.Screening
}

func (d *data) clone() *data {
	c := &data{
		nextProgram:   d.nextProgram,
		nextScreening: d.nextScreening,
		programs:      make(map[uint64]*model.Program, len(d.programs)),
		screenings:    make(map[uint64]*model.Screening, len(d.screenings)),
	}
	for id, p := range d.programs {
		c.programs[id] = p.Clone()
	}
	for id, s := range d.screenings {
		c.screenings[id] = s.Clone()
	}
	return c
}

// Store holds every entity in memory.
type Store struct {
	mu sync.RWMutex
	d  *data

	umu      sync.RWMutex
	users    map[uint64]*model.User
	nextUser uint64

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		d: &data{
			programs:   map[uint64]*model.Program{},
			screenings: map[uint64]*model.Screening{},
		},
		users: map[uint64]*model.User{},
		now:   time.Now,
	}
}

var _ service.TxRunner = (*Store)(nil)

// Users returns the user repository.
func (s *Store) Users() *Users { return &Users{s: s} }

// Programs returns a program repository outside any transaction.
func (s *Store) Programs() *Programs { return &Programs{view{s: s}} }

// Screenings returns a screening repository outside any transaction.
func (s *Store) Screenings() *Screenings { return &Screenings{view{s: s}} }

// Run executes fn with exclusive access. Changes made before fn fails are
// discarded.
func (s *Store) Run(ctx context.Context, fn func(programs service.ProgramStore, screenings service.ScreeningStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	tx := view{s: s, inTx: true}
	if err := fn(&Programs{tx}, &Screenings{tx}); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// view carries the lock discipline: inside Run the store is already locked.
type view struct {
	s    *Store
	inTx bool
}

func (v view) read() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.RLock()
	return v.s.mu.RUnlock
}

func (v view) write() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func sortedIDs[T any](m map[uint64]T) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
