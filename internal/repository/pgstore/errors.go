package pgstore

import (
	"errors"

	"settlement-engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATEs that mean "run it again".
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// classify maps serialization failures and deadlocks to ConflictError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsConflict(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return &domain.ConflictError{Op: op, Err: err}
		}
	}
	return err
}

// notFound turns pgx.ErrNoRows into a NotFoundError.
func notFound(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return err
}
