package database

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist or is not owned
	// by the requesting user.
	ErrNotFound = errors.New("record not found")

	// ErrActiveSessionExists is returned when creating a study session would
	// violate the one-incomplete-session-per-user constraint.
	ErrActiveSessionExists = errors.New("user already has an active study session")

	// ErrAlreadyCompleted is returned when completing a session that has
	// already been completed.
	ErrAlreadyCompleted = errors.New("session already completed")
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, optionally on a specific constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
