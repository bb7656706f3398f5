// Package store implements the PostgreSQL persistence layer.
//
// Reads for scoped entity types mandatorily compose the visibility predicate
// from pkg/scope; the only unscoped lookups are the ...Unscoped methods used
// inside authorization rules and the identity TrustedReader, neither of which
// is reachable from router-bound input.
//
// Lifecycle hooks live here so no mutation path can skip them: inserts stamp
// created_by/updated_by, owner-bearing inserts force owner_id to the actor,
// updates stamp updated_by, and deletes are always soft (deleted_at +
// deleted_by), never physical.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
)

// Store is the PostgreSQL-backed repository for all domain entities.
type Store struct {
	db *sql.DB
}

// New creates a Store on top of an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// actorOrNil converts an actor id to the nullable form stored in deleted_by.
func actorOrNil(actorID int64) interface{} {
	if actorID == 0 {
		return nil
	}
	return actorID
}

// softDelete marks a row deleted and stamps the deleting actor. It returns
// NotFound when the row does not exist or is already deleted.
func (s *Store) softDelete(ctx context.Context, q querier, table, resource string, id, actorID int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW(), deleted_by = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND deleted_at IS NULL
	`, table)
	result, err := q.ExecContext(ctx, query, actorOrNil(actorID), actorID, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", resource, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NotFound(resource)
	}
	return nil
}

// restoreRow clears the soft-delete marker. Reaching it is policy-gated; most
// policies deny restore outright.
func (s *Store) restoreRow(ctx context.Context, table, resource string, id, actorID int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NULL, deleted_by = NULL, updated_at = NOW(), updated_by = $1
		WHERE id = $2 AND deleted_at IS NOT NULL
	`, table)
	result, err := s.db.ExecContext(ctx, query, actorID, id)
	if err != nil {
		return fmt.Errorf("failed to restore %s: %w", resource, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NotFound(resource)
	}
	return nil
}

// inTx runs fn inside a transaction with the given isolation level.
func (s *Store) inTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanInt64s collects a single-column id result set.
func scanInt64s(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// requireActor guards mutations that only make sense with an authenticated
// identity at the store boundary.
func requireActor(idc *identity.Context) error {
	if !idc.Authenticated() {
		return errs.Forbidden("authentication required")
	}
	return nil
}
