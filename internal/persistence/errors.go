package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrAlreadyExists is returned when a uniqueness constraint rejects a write.
	ErrAlreadyExists = errors.New("persistence: already exists")
	// ErrConstraintViolation is returned when a record is missing required fields
	// or references a row that does not exist.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
