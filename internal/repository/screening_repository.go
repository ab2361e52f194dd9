package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// ScreeningRepo persists screenings. Submitter and handler usernames are
// joined from users on read.
type ScreeningRepo struct {
	q    dbtx
	lock bool
}

var _ service.ScreeningStore = (*ScreeningRepo)(nil)

const screeningSelect = `SELECT s.id, s.program_id, s.state,
       s.film_title, s.film_cast, s.film_genres, s.film_duration_minutes, s.auditorium_name,
       s.start_time, s.end_time,
       s.submitter_id, su.username, s.handler_id, hu.username,
       s.review_score, s.review_comments, s.approval_notes, s.rejection_reason,
       s.final_submitted, s.created_at, s.updated_at
  FROM screenings s
  JOIN users su ON su.id = s.submitter_id
  LEFT JOIN users hu ON hu.id = s.handler_id`

// ProgramIDOf never locks, so callers can lock the program row first.
func (r *ScreeningRepo) ProgramIDOf(ctx context.Context, id uint64) (uint64, error) {
	var programID uint64
	err := r.q.QueryRowContext(ctx, "SELECT program_id FROM screenings WHERE id = ?", id).Scan(&programID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, service.NotFoundf("screening %d not found", id)
	}
	return programID, err
}

func (r *ScreeningRepo) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
	q := screeningSelect + " WHERE s.id = ?"
	if r.lock {
		q += " FOR UPDATE OF s"
	}
	list, err := r.query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, service.NotFoundf("screening %d not found", id)
	}
	return &list[0], nil
}

func (r *ScreeningRepo) ListByProgram(ctx context.Context, programID uint64) ([]model.Screening, error) {
	return r.query(ctx, screeningSelect+" WHERE s.program_id = ? ORDER BY s.id", programID)
}

func (r *ScreeningRepo) Create(ctx context.Context, sc *model.Screening) error {
	res, err := r.q.ExecContext(ctx, `INSERT INTO screenings
		(program_id, state, film_title, film_cast, film_genres, film_duration_minutes, auditorium_name,
		 start_time, end_time, submitter_id, handler_id, review_score, review_comments, approval_notes,
		 rejection_reason, final_submitted, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sc.ProgramID, string(sc.State), sc.Title, sc.Cast, sc.Genres, sc.DurationMinutes, sc.Auditorium,
		nullTime(sc.StartTime), nullTime(sc.EndTime), sc.Submitter.ID, handlerID(sc), nullInt(sc.ReviewScore),
		nullString(sc.ReviewComments), nullString(sc.ApprovalNotes), nullString(sc.RejectionReason),
		sc.FinalSubmitted, sc.CreatedAt.UTC(), sc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert screening: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sc.ID = uint64(id)
	return nil
}

// Save writes every mutable column. program_id and submitter_id never change.
func (r *ScreeningRepo) Save(ctx context.Context, sc *model.Screening) error {
	res, err := r.q.ExecContext(ctx, `UPDATE screenings SET
		state = ?, film_title = ?, film_cast = ?, film_genres = ?, film_duration_minutes = ?, auditorium_name = ?,
		start_time = ?, end_time = ?, handler_id = ?, review_score = ?, review_comments = ?, approval_notes = ?,
		rejection_reason = ?, final_submitted = ?, updated_at = ?
		WHERE id = ?`,
		string(sc.State), sc.Title, sc.Cast, sc.Genres, sc.DurationMinutes, sc.Auditorium,
		nullTime(sc.StartTime), nullTime(sc.EndTime), handlerID(sc), nullInt(sc.ReviewScore),
		nullString(sc.ReviewComments), nullString(sc.ApprovalNotes), nullString(sc.RejectionReason),
		sc.FinalSubmitted, sc.UpdatedAt.UTC(), sc.ID)
	if err != nil {
		return fmt.Errorf("update screening: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.ProgramIDOf(ctx, sc.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScreeningRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM screenings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete screening: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return service.NotFoundf("screening %d not found", id)
	}
	return nil
}

func (r *ScreeningRepo) query(ctx context.Context, q string, args ...any) ([]model.Screening, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Screening, 0)
	for rows.Next() {
		var (
			sc                      model.Screening
			state                   string
			start, end              sql.NullTime
			handler                 sql.NullInt64
			handlerName             sql.NullString
			score                   sql.NullInt64
			comments, notes, reason sql.NullString
		)
		if err := rows.Scan(&sc.ID, &sc.ProgramID, &state,
			&sc.Title, &sc.Cast, &sc.Genres, &sc.DurationMinutes, &sc.Auditorium,
			&start, &end,
			&sc.Submitter.ID, &sc.Submitter.Username, &handler, &handlerName,
			&score, &comments, &notes, &reason,
			&sc.FinalSubmitted, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, err
		}
		sc.State = model.ScreeningState(state)
		sc.StartTime = timePtr(start)
		sc.EndTime = timePtr(end)
		if handler.Valid {
			sc.Handler = &model.UserRef{ID: uint64(handler.Int64), Username: handlerName.String}
		}
		if score.Valid {
			v := int(score.Int64)
			sc.ReviewScore = &v
		}
		sc.ReviewComments = stringPtr(comments)
		sc.ApprovalNotes = stringPtr(notes)
		sc.RejectionReason = stringPtr(reason)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func handlerID(sc *model.Screening) sql.NullInt64 {
	if sc.Handler == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(sc.Handler.ID), Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
