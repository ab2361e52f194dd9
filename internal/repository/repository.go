// Package repository contains the MySQL implementations of the service
// storage ports. Repositories are bound either to the pool or to one
// transaction; only transaction-bound repositories take row locks.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-programs/internal/service"
)

// dbtx is the subset shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the pool and hands out repositories.
type Store struct {
	db *sql.DB
}

var _ service.TxRunner = (*Store)(nil)

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Users() *UserRepo           { return &UserRepo{q: s.db} }
func (s *Store) Programs() *ProgramRepo     { return &ProgramRepo{q: s.db} }
func (s *Store) Screenings() *ScreeningRepo { return &ScreeningRepo{q: s.db} }

// Run begins a transaction, hands fn repositories bound to it and commits
// when fn succeeds. Any error rolls the transaction back.
func (s *Store) Run(ctx context.Context, fn func(programs service.ProgramStore, screenings service.ScreeningStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&ProgramRepo{q: tx, lock: true}, &ScreeningRepo{q: tx, lock: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isDuplicate reports a unique key violation (MySQL error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
