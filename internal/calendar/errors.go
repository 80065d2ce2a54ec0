package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission
	// for a mutation. Read-time visibility never raises it; disallowed events
	// are silently filtered instead.
	ErrUnauthorized = errors.New("calendar: unauthorized")
	// ErrNotFound is returned when the requested event does not exist.
	ErrNotFound = errors.New("calendar: not found")
	// ErrAlreadyExists is returned when a mutation collides with an existing
	// event id.
	ErrAlreadyExists = errors.New("calendar: already exists")
	// ErrInvalidEnum is wrapped by enum parse failures.
	ErrInvalidEnum = errors.New("calendar: invalid enumeration value")
	// ErrReservedID is returned when a persisted event would use an id prefix
	// reserved for the static dataset.
	ErrReservedID = errors.New("calendar: id prefix reserved for static events")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
