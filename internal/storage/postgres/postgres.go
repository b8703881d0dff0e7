package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"coach-schedule/pkg/response"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Storage struct {
	db         *sqlx.DB
	savepoints atomic.Uint64
}

type txKey struct{}

// querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sqlx.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}

	return s.db
}

// InTx runs fn in a transaction carried by the context. A nested call joins
// the outer transaction.
func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "storage.postgres.InTx"

	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// Savepoint isolates fn inside the current transaction so that its failure
// undoes only its own writes. Outside a transaction it behaves like InTx.
func (s *Storage) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "storage.postgres.Savepoint"

	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	if !ok {
		return s.InTx(ctx, fn)
	}

	name := fmt.Sprintf("sp_%d", s.savepoints.Add(1))

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("%s: rollback: %w", op, rbErr))
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%s: release: %w", op, err)
	}

	return nil
}

// mapErr turns driver errors into the shared sentinels.
func mapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, response.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, response.ErrNotFound)
		case "23514":
			return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, response.ErrValidation)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
