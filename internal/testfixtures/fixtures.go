// Package testfixtures provides deterministic builders shared by the test
// suites: a controllable clock, a sequential id generator, event fixtures and
// an in-memory event store.
package testfixtures

import (
	"time"

	"github.com/example/campus-calendar/internal/calendar"
	"github.com/example/campus-calendar/internal/recurrence"
)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)
}

// EventFixture represents a deterministic event that can be materialised for
// service or persistence tests.
type EventFixture struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Category    calendar.Category
	Priority    calendar.Priority
	AllDay      bool
	IsPublic    bool
	Location    string
	AuthorID    string
	AttendeeIDs []string
	Recurrence  *recurrence.Rule
	Metadata    map[string]string
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a deterministic event fixture with optional
// overrides. The default is a one hour meeting starting at ReferenceTime.
func NewEventFixture(opts ...EventOption) EventFixture {
	f := EventFixture{
		ID:       "evt-1",
		Title:    "Reunión de Apoderados",
		Start:    ReferenceTime(),
		End:      ReferenceTime().Add(time.Hour),
		Category: calendar.CategoryMeeting,
		Priority: calendar.PriorityMedium,
		AuthorID: "teacher-1",
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithEventID overrides the generated event id.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) { f.ID = id }
}

// WithEventTitle overrides the generated title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) { f.Title = title }
}

// WithEventDescription overrides the generated description.
func WithEventDescription(description string) EventOption {
	return func(f *EventFixture) { f.Description = description }
}

// WithEventSpan sets both start and end timestamps.
func WithEventSpan(start, end time.Time) EventOption {
	return func(f *EventFixture) {
		f.Start = start
		f.End = end
	}
}

// WithEventCategory overrides the generated category.
func WithEventCategory(category calendar.Category) EventOption {
	return func(f *EventFixture) { f.Category = category }
}

// WithEventPriority overrides the generated priority.
func WithEventPriority(priority calendar.Priority) EventOption {
	return func(f *EventFixture) { f.Priority = priority }
}

// WithEventPublic sets the public visibility flag.
func WithEventPublic(public bool) EventOption {
	return func(f *EventFixture) { f.IsPublic = public }
}

// WithEventAllDay sets the all-day flag.
func WithEventAllDay(allDay bool) EventOption {
	return func(f *EventFixture) { f.AllDay = allDay }
}

// WithEventAuthor overrides the author id.
func WithEventAuthor(authorID string) EventOption {
	return func(f *EventFixture) { f.AuthorID = authorID }
}

// WithEventAttendees sets the attendee list.
func WithEventAttendees(ids ...string) EventOption {
	return func(f *EventFixture) { f.AttendeeIDs = ids }
}

// WithEventRecurrence attaches a recurrence rule.
func WithEventRecurrence(rule *recurrence.Rule) EventOption {
	return func(f *EventFixture) { f.Recurrence = rule }
}

// WithEventLocation overrides the location.
func WithEventLocation(location string) EventOption {
	return func(f *EventFixture) { f.Location = location }
}

// Event returns the fixture as a persisted calendar.Event value.
func (f EventFixture) Event() calendar.Event {
	return calendar.Event{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Category:    f.Category,
		Priority:    f.Priority,
		AllDay:      f.AllDay,
		Source:      calendar.SourcePersisted,
		Location:    f.Location,
		IsPublic:    f.IsPublic,
		AuthorID:    f.AuthorID,
		AttendeeIDs: f.AttendeeIDs,
		Recurrence:  f.Recurrence,
		Metadata:    f.Metadata,
	}
}

// Input returns the fixture as a calendar.EventInput for mutation tests.
func (f EventFixture) Input() calendar.EventInput {
	return calendar.EventInput{
		Title:       f.Title,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Category:    f.Category,
		Priority:    f.Priority,
		AllDay:      f.AllDay,
		IsPublic:    f.IsPublic,
		Location:    f.Location,
		AttendeeIDs: f.AttendeeIDs,
		Recurrence:  f.Recurrence,
		Metadata:    f.Metadata,
	}
}
