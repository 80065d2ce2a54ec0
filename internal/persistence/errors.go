package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert collides with an existing id.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a record breaks a storage-level
	// check, such as an event ending before it starts.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a sub-record references a
	// missing parent.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrUnauthorized is returned when a mutation is attempted by a caller
	// who is neither the author nor elevated. Mutation rights are enforced
	// here, at the storage layer; read visibility is not.
	ErrUnauthorized = errors.New("persistence: unauthorized")
)
