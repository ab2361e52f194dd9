package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// ProgramRepo persists programs and their two rosters
// (program_programmers, program_staff). Roster rows keep a position column
// so members come back in insertion order.
type ProgramRepo struct {
	q    dbtx
	lock bool // SELECT ... FOR UPDATE on GetByID
}

var _ service.ProgramStore = (*ProgramRepo)(nil)

const programSelect = `SELECT p.id, p.name, p.description, p.start_date, p.end_date, p.creation_date,
       p.state, p.creator_id, u.username
  FROM programs p
  JOIN users u ON u.id = p.creator_id`

// GetByID loads one program with its rosters. Inside a transaction the
// program row stays locked until commit.
func (r *ProgramRepo) GetByID(ctx context.Context, id uint64) (*model.Program, error) {
	q := programSelect + " WHERE p.id = ?"
	if r.lock {
		q += " FOR UPDATE OF p"
	}
	list, err := r.query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, service.NotFoundf("program %d not found", id)
	}
	return &list[0], nil
}

// Create inserts the program row and both rosters.
func (r *ProgramRepo) Create(ctx context.Context, p *model.Program) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO programs (name, description, start_date, end_date, creation_date, state, creator_id)
		 VALUES (?,?,?,?,?,?,?)`,
		p.Name, p.Description, p.StartDate.UTC(), p.EndDate.UTC(), p.CreationDate.UTC(), string(p.State), p.Creator.ID)
	if err != nil {
		return fmt.Errorf("insert program: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.writeRosters(ctx, p)
}

// Save updates the program row and rewrites both rosters.
func (r *ProgramRepo) Save(ctx context.Context, p *model.Program) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE programs SET name = ?, description = ?, start_date = ?, end_date = ?, state = ? WHERE id = ?`,
		p.Name, p.Description, p.StartDate.UTC(), p.EndDate.UTC(), string(p.State), p.ID)
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for unchanged rows too; only a missing row is an error.
		if _, err := r.exists(ctx, p.ID); err != nil {
			return err
		}
	}
	for _, table := range []string{"program_programmers", "program_staff"} {
		if _, err := r.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE program_id = ?", p.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return r.writeRosters(ctx, p)
}

// Delete removes the program; screenings and roster rows cascade.
func (r *ProgramRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM programs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return service.NotFoundf("program %d not found", id)
	}
	return nil
}

func (r *ProgramRepo) ListByState(ctx context.Context, state model.ProgramState) ([]model.Program, error) {
	return r.query(ctx, programSelect+" WHERE p.state = ? ORDER BY p.id", string(state))
}

func (r *ProgramRepo) ListCreatedBy(ctx context.Context, userID uint64) ([]model.Program, error) {
	return r.query(ctx, programSelect+" WHERE p.creator_id = ? ORDER BY p.id", userID)
}

func (r *ProgramRepo) ListByProgrammer(ctx context.Context, userID uint64) ([]model.Program, error) {
	return r.query(ctx, programSelect+`
 WHERE EXISTS (SELECT 1 FROM program_programmers pp WHERE pp.program_id = p.id AND pp.user_id = ?)
 ORDER BY p.id`, userID)
}

func (r *ProgramRepo) ListByStaff(ctx context.Context, userID uint64) ([]model.Program, error) {
	return r.query(ctx, programSelect+`
 WHERE EXISTS (SELECT 1 FROM program_staff ps WHERE ps.program_id = p.id AND ps.user_id = ?)
 ORDER BY p.id`, userID)
}

func (r *ProgramRepo) ListByHandler(ctx context.Context, userID uint64) ([]model.Program, error) {
	return r.query(ctx, programSelect+`
 WHERE EXISTS (SELECT 1 FROM screenings s WHERE s.program_id = p.id AND s.handler_id = ?)
 ORDER BY p.id`, userID)
}

func (r *ProgramRepo) ListWithoutProgrammers(ctx context.Context) ([]model.Program, error) {
	return r.query(ctx, programSelect+`
 WHERE NOT EXISTS (SELECT 1 FROM program_programmers pp WHERE pp.program_id = p.id)
 ORDER BY p.id`)
}

func (r *ProgramRepo) exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, "SELECT 1 FROM programs WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, service.NotFoundf("program %d not found", id)
	}
	return err == nil, err
}

// query scans program rows and attaches their rosters.
func (r *ProgramRepo) query(ctx context.Context, q string, args ...any) ([]model.Program, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Program, 0)
	for rows.Next() {
		var p model.Program
		var state string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.CreationDate,
			&state, &p.Creator.ID, &p.Creator.Username); err != nil {
			return nil, err
		}
		p.State = model.ProgramState(state)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := r.loadRosters(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadRosters fills both rosters of every program with one query per table.
func (r *ProgramRepo) loadRosters(ctx context.Context, programs []model.Program) error {
	index := make(map[uint64]int, len(programs))
	args := make([]any, 0, len(programs))
	for i := range programs {
		index[programs[i].ID] = i
		args = append(args, programs[i].ID)
	}
	for _, table := range []string{"program_programmers", "program_staff"} {
		rows, err := r.q.QueryContext(ctx, `SELECT m.program_id, u.id, u.username
  FROM `+table+` m
  JOIN users u ON u.id = m.user_id
 WHERE m.program_id IN (`+placeholders(len(args))+`)
 ORDER BY m.program_id, m.position`, args...)
		if err != nil {
			return fmt.Errorf("load %s: %w", table, err)
		}
		for rows.Next() {
			var programID uint64
			var ref model.UserRef
			if err := rows.Scan(&programID, &ref.ID, &ref.Username); err != nil {
				rows.Close()
				return err
			}
			p := &programs[index[programID]]
			if table == "program_programmers" {
				p.Programmers.Add(ref)
			} else {
				p.Staff.Add(ref)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ProgramRepo) writeRosters(ctx context.Context, p *model.Program) error {
	rosters := map[string][]model.UserRef{
		"program_programmers": p.Programmers.Refs(),
		"program_staff":       p.Staff.Refs(),
	}
	for table, refs := range rosters {
		for pos, ref := range refs {
			if _, err := r.q.ExecContext(ctx,
				"INSERT INTO "+table+" (program_id, user_id, position) VALUES (?,?,?)",
				p.ID, ref.ID, pos); err != nil {
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
	}
	return nil
}
