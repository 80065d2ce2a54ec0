package persistence

import "time"

// EventRecord is the storage shape of a user-created calendar event. Category
// and priority are kept as raw strings at this layer; the adapter boundary
// maps them onto the closed enumerations and rejects unknown values.
type EventRecord struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Category    string
	Priority    string
	AllDay      bool
	IsPublic    bool
	Location    string
	Color       string
	AuthorID    string
	Attendees   []string
	Metadata    map[string]string
	Recurrence  *RecurrenceRecord
	Attachments []AttachmentRecord
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecurrenceRecord is the recurrence sub-record stored alongside a base
// event. It is created with the event and deleted in cascade with it.
type RecurrenceRecord struct {
	ID          string
	EventID     string
	Pattern     string
	Interval    int
	Weekdays    []time.Weekday
	MonthOfYear int
	WeekOfMonth int
	EndsOn      *time.Time
	Occurrences int
	Exceptions  []time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AttachmentRecord is a file reference stored alongside an event.
type AttachmentRecord struct {
	ID      string
	EventID string
	Name    string
	URL     string
	Type    string
	Size    int64
}

// Caller identifies the mutating or reading user at the storage layer.
type Caller struct {
	UserID   string
	Elevated bool
}

// EventFilter narrows event listings.
//
// Caller is an optional read-side optimization: anonymous callers (empty
// UserID, not elevated) are narrowed to public events in SQL because nothing
// else can ever be visible to them. Identified callers receive the full
// candidate set; the service-side visibility filter remains authoritative.
type EventFilter struct {
	StartsAfter *time.Time
	EndsBefore  *time.Time
	Categories  []string
	Priority    string
	Caller      *Caller
}
