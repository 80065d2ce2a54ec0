package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/campus-calendar/internal/calendar"
	"github.com/example/campus-calendar/internal/persistence"
	"github.com/example/campus-calendar/internal/recurrence"
)

// Adapter exposes a persistence.EventRepository as the calendar service's
// EventStore, translating between storage records and the canonical event
// model. Unknown category, priority or pattern values in stored rows surface
// as errors here instead of leaking into the core.
type Adapter struct {
	repo persistence.EventRepository
}

// NewAdapter wraps a record-level repository.
func NewAdapter(repo persistence.EventRepository) *Adapter {
	return &Adapter{repo: repo}
}

// CreateEvent persists a new event.
func (a *Adapter) CreateEvent(ctx context.Context, event calendar.Event) (calendar.Event, error) {
	created, err := a.repo.CreateEvent(ctx, recordFromEvent(event))
	if err != nil {
		return calendar.Event{}, err
	}
	return eventFromRecord(created)
}

// UpdateEvent persists changes to an existing event.
func (a *Adapter) UpdateEvent(ctx context.Context, principal calendar.Principal, event calendar.Event) (calendar.Event, error) {
	updated, err := a.repo.UpdateEvent(ctx, callerFrom(principal), recordFromEvent(event))
	if err != nil {
		return calendar.Event{}, err
	}
	return eventFromRecord(updated)
}

// DeleteEvent removes an event and its sub-records.
func (a *Adapter) DeleteEvent(ctx context.Context, principal calendar.Principal, id string) error {
	return a.repo.DeleteEvent(ctx, callerFrom(principal), id)
}

// ListEvents returns persisted events matching the filter, each carrying its
// recurrence rule when one is stored.
func (a *Adapter) ListEvents(ctx context.Context, filter calendar.StoreFilter) ([]calendar.Event, error) {
	categories := make([]string, 0, len(filter.Categories))
	for _, category := range filter.Categories {
		categories = append(categories, string(category))
	}
	var priority string
	if filter.Priority != nil {
		priority = string(*filter.Priority)
	}
	caller := callerFrom(filter.Principal)

	records, err := a.repo.ListEvents(ctx, persistence.EventFilter{
		StartsAfter: filter.Start,
		EndsBefore:  filter.End,
		Categories:  categories,
		Priority:    priority,
		Caller:      &caller,
	})
	if err != nil {
		return nil, err
	}

	events := make([]calendar.Event, 0, len(records))
	for _, record := range records {
		event, err := eventFromRecord(record)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func callerFrom(principal calendar.Principal) persistence.Caller {
	return persistence.Caller{
		UserID:   principal.UserID,
		Elevated: principal.Role.Elevated(),
	}
}

func recordFromEvent(event calendar.Event) persistence.EventRecord {
	record := persistence.EventRecord{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Start:       event.Start,
		End:         event.End,
		Category:    string(event.Category),
		Priority:    string(event.Priority),
		AllDay:      event.AllDay,
		IsPublic:    event.IsPublic,
		Location:    event.Location,
		Color:       event.Color,
		AuthorID:    event.AuthorID,
		Attendees:   event.AttendeeIDs,
		Metadata:    event.Metadata,
	}

	if event.Recurrence != nil {
		record.Recurrence = &persistence.RecurrenceRecord{
			EventID:     event.ID,
			Pattern:     string(event.Recurrence.Pattern),
			Interval:    event.Recurrence.Interval,
			Weekdays:    event.Recurrence.Weekdays,
			MonthOfYear: int(event.Recurrence.MonthOfYear),
			WeekOfMonth: event.Recurrence.WeekOfMonth,
			EndsOn:      event.Recurrence.EndsOn,
			Occurrences: event.Recurrence.Occurrences,
			Exceptions:  event.Recurrence.Exceptions,
		}
	}

	for _, att := range event.Attachments {
		record.Attachments = append(record.Attachments, persistence.AttachmentRecord{
			ID:      att.ID,
			EventID: event.ID,
			Name:    att.Name,
			URL:     att.URL,
			Type:    att.Type,
			Size:    att.Size,
		})
	}

	return record
}

func eventFromRecord(record persistence.EventRecord) (calendar.Event, error) {
	category, err := calendar.ParseCategory(record.Category)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("event %s: %w", record.ID, err)
	}
	priority, err := calendar.ParsePriority(record.Priority)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("event %s: %w", record.ID, err)
	}

	event := calendar.Event{
		ID:          record.ID,
		Title:       record.Title,
		Description: record.Description,
		Start:       record.Start,
		End:         record.End,
		Category:    category,
		Priority:    priority,
		AllDay:      record.AllDay,
		Source:      calendar.SourcePersisted,
		Location:    record.Location,
		Color:       record.Color,
		IsPublic:    record.IsPublic,
		AuthorID:    record.AuthorID,
		AttendeeIDs: record.Attendees,
		Metadata:    record.Metadata,
	}

	if record.Recurrence != nil {
		pattern, err := recurrence.ParsePattern(record.Recurrence.Pattern)
		if err != nil {
			return calendar.Event{}, fmt.Errorf("event %s: %w", record.ID, err)
		}
		event.Recurrence = &recurrence.Rule{
			Pattern:     pattern,
			Interval:    record.Recurrence.Interval,
			Weekdays:    record.Recurrence.Weekdays,
			MonthOfYear: monthFromInt(record.Recurrence.MonthOfYear),
			WeekOfMonth: record.Recurrence.WeekOfMonth,
			EndsOn:      record.Recurrence.EndsOn,
			Occurrences: record.Recurrence.Occurrences,
			Exceptions:  record.Recurrence.Exceptions,
		}
	}

	for _, att := range record.Attachments {
		event.Attachments = append(event.Attachments, calendar.Attachment{
			ID:   att.ID,
			Name: att.Name,
			URL:  att.URL,
			Type: att.Type,
			Size: att.Size,
		})
	}

	return event, nil
}

func monthFromInt(n int) time.Month {
	if n < 1 || n > 12 {
		return 0
	}
	return time.Month(n)
}
