package persistence

import "context"

// EventRepository exposes CRUD operations for persisted events together with
// their recurrence and attachment sub-records.
//
// UpdateEvent and DeleteEvent succeed only for the event's author or an
// elevated caller; other callers receive ErrUnauthorized.
type EventRepository interface {
	CreateEvent(ctx context.Context, event EventRecord) (EventRecord, error)
	GetEvent(ctx context.Context, id string) (EventRecord, error)
	UpdateEvent(ctx context.Context, caller Caller, event EventRecord) (EventRecord, error)
	DeleteEvent(ctx context.Context, caller Caller, id string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]EventRecord, error)
}
