package calendar

import (
	"fmt"
	"time"

	"github.com/example/campus-calendar/internal/recurrence"
)

// Category is the closed set of event classifications used by the portal.
type Category string

const (
	CategoryAcademic       Category = "academic"
	CategoryHoliday        Category = "holiday"
	CategorySpecial        Category = "special"
	CategoryParent         Category = "parent"
	CategoryAdministrative Category = "administrative"
	CategoryExam           Category = "exam"
	CategoryMeeting        Category = "meeting"
	CategoryVacation       Category = "vacation"
	CategoryEvent          Category = "event"
	CategoryDeadline       Category = "deadline"
	CategoryOther          Category = "other"
)

// Categories lists every member of the enumeration in declaration order.
func Categories() []Category {
	return []Category{
		CategoryAcademic, CategoryHoliday, CategorySpecial, CategoryParent,
		CategoryAdministrative, CategoryExam, CategoryMeeting, CategoryVacation,
		CategoryEvent, CategoryDeadline, CategoryOther,
	}
}

// ParseCategory maps a stored value onto the enumeration, rejecting unknowns
// at construction time instead of letting them pass through.
func ParseCategory(value string) (Category, error) {
	c := Category(value)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidEnum, value)
	}
	return c, nil
}

// Valid reports membership in the closed enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryAcademic, CategoryHoliday, CategorySpecial, CategoryParent,
		CategoryAdministrative, CategoryExam, CategoryMeeting, CategoryVacation,
		CategoryEvent, CategoryDeadline, CategoryOther:
		return true
	}
	return false
}

// Priority ranks the urgency of an event.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps a stored value onto the enumeration.
func ParsePriority(value string) (Priority, error) {
	p := Priority(value)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidEnum, value)
	}
	return p, nil
}

// Valid reports membership in the closed enumeration.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Source distinguishes compiled-in calendar entries from user-created ones.
type Source string

const (
	// SourceStatic marks events regenerated from the embedded dataset on
	// every read; they are never editable.
	SourceStatic Source = "static"
	// SourcePersisted marks events owned by the backing store.
	SourcePersisted Source = "persisted"
)

// Role is the closed set of caller roles recognised by the portal.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports membership in the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleStudent, RoleParent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Elevated reports whether the role bypasses visibility narrowing.
func (r Role) Elevated() bool {
	return r == RoleAdmin
}

// Authenticated reports whether the role belongs to a signed-in member of the
// institution. Unknown roles are treated as unauthenticated so visibility
// fails closed.
func (r Role) Authenticated() bool {
	switch r {
	case RoleStudent, RoleParent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Principal identifies the caller of a query or mutation. It is supplied by
// the surrounding portal's identity provider and treated as opaque input.
type Principal struct {
	UserID string
	Role   Role
}

// Attachment is a file reference carried by a persisted event.
type Attachment struct {
	ID   string
	Name string
	URL  string
	Type string
	Size int64
}

// Event is the canonical unit every component of the calendar core operates
// on. Static and persisted events share this shape; occurrences derived from
// a recurrence rule carry ParentID and never a Recurrence of their own.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Category    Category
	Priority    Priority
	AllDay      bool
	Source      Source
	Location    string
	Color       string

	// Persisted-only fields.
	IsPublic    bool
	AuthorID    string
	AttendeeIDs []string
	Attachments []Attachment
	Recurrence  *recurrence.Rule

	// ParentID references the base event an occurrence was derived from.
	ParentID string

	Metadata map[string]string
}

// Recurring reports whether the event carries an expandable recurrence rule.
func (e Event) Recurring() bool {
	return e.Recurrence != nil && e.Recurrence.Pattern != recurrence.PatternNone
}

// Intersects reports whether the event overlaps [start, end]. A nil bound is
// open on that side.
func (e Event) Intersects(start, end *time.Time) bool {
	if start != nil && e.End.Before(*start) {
		return false
	}
	if end != nil && e.Start.After(*end) {
		return false
	}
	return true
}

// QuerySpec is the input contract of the query engine.
type QuerySpec struct {
	Start      *time.Time
	End        *time.Time
	Categories []Category
	Priority   *Priority
	Search     string
	Principal  Principal
}

// Warning surfaces a non-fatal degradation alongside query results.
type Warning struct {
	Type    string
	Message string
}

// WarningStoreUnavailable marks a query that degraded to static-only results
// because the persisted store could not be reached.
const WarningStoreUnavailable = "store_unavailable"

// Statistics aggregates a merged, filtered event set.
type Statistics struct {
	TotalEvents      int
	EventsByCategory map[Category]int
	EventsByPriority map[Priority]int
	UpcomingEvents   int
}

// EventInput captures caller-provided fields for event mutations.
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Category    Category
	Priority    Priority
	AllDay      bool
	IsPublic    bool
	Location    string
	Color       string
	AttendeeIDs []string
	Attachments []AttachmentInput
	Recurrence  *recurrence.Rule
	Metadata    map[string]string
}

// AttachmentInput captures caller-provided attachment fields.
type AttachmentInput struct {
	Name string
	URL  string
	Type string
	Size int64
}
