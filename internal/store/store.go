// Package store is the PostgreSQL persistence layer. Store implements
// learning.Repository and the read models behind the stats and practice
// endpoints.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/exam-mentor/backend/internal/learning"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

var _ learning.Repository = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// WithTx runs fn inside a transaction. Nested calls reuse the outer
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(learning.Repository) error) error {
	return s.InTx(ctx, func(tx *Store) error { return fn(tx) })
}

// InTx is WithTx with the concrete store type, for callers that need the
// queries outside learning.Repository.
func (s *Store) InTx(ctx context.Context, fn func(*Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("[store] rollback after panic failed: %v", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
