package services

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"mentorlog-backend/internal/repository"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// InvalidStateError rejects an operation that the current lifecycle state of
// a session or report does not allow.
type InvalidStateError struct{ Message string }

func (e *InvalidStateError) Error() string { return e.Message }

// ConflictError reports a lost optimistic-concurrency race. Callers may
// reload and retry.
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// storeError maps repository sentinels onto service errors. Unknown errors
// pass through unchanged.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return &NotFoundError{Message: what + " not found"}
	case errors.Is(err, repository.ErrVersionConflict):
		return &ConflictError{Message: what + " was modified concurrently"}
	default:
		return err
	}
}
