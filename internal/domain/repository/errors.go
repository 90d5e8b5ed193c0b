package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an insert hits the users primary
	// key. Uniqueness is enforced by the storage constraint, so two
	// concurrent registrations for one email yield exactly one of these.
	ErrDuplicateEmail = errors.New("email already exists")
)
