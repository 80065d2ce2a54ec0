package testfixtures

import (
	"context"
	"sort"
	"sync"

	"github.com/example/campus-calendar/internal/calendar"
	"github.com/example/campus-calendar/internal/persistence"
)

// MemoryEventStore is an in-memory calendar.EventStore with the same
// authorization semantics as the SQLite store: only the author or an elevated
// principal may mutate an event. FailWith makes every call return the given
// error, which lets tests exercise store degradation.
type MemoryEventStore struct {
	mu     sync.Mutex
	events map[string]calendar.Event
	fail   error
}

// NewMemoryEventStore returns an empty store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{events: make(map[string]calendar.Event)}
}

// FailWith forces every subsequent call to fail with err. Passing nil restores
// normal operation.
func (s *MemoryEventStore) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// Seed inserts events directly, bypassing authorization.
func (s *MemoryEventStore) Seed(events ...calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		s.events[event.ID] = event
	}
}

// CreateEvent stores a new event, rejecting duplicate ids.
func (s *MemoryEventStore) CreateEvent(_ context.Context, event calendar.Event) (calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return calendar.Event{}, s.fail
	}
	if _, ok := s.events[event.ID]; ok {
		return calendar.Event{}, persistence.ErrDuplicate
	}
	s.events[event.ID] = event
	return event, nil
}

// UpdateEvent replaces a stored event after checking mutation authorization.
func (s *MemoryEventStore) UpdateEvent(_ context.Context, principal calendar.Principal, event calendar.Event) (calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return calendar.Event{}, s.fail
	}
	existing, ok := s.events[event.ID]
	if !ok {
		return calendar.Event{}, persistence.ErrNotFound
	}
	if !principal.Role.Elevated() && existing.AuthorID != principal.UserID {
		return calendar.Event{}, persistence.ErrUnauthorized
	}
	event.AuthorID = existing.AuthorID
	s.events[event.ID] = event
	return event, nil
}

// DeleteEvent removes a stored event after checking mutation authorization.
func (s *MemoryEventStore) DeleteEvent(_ context.Context, principal calendar.Principal, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	existing, ok := s.events[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if !principal.Role.Elevated() && existing.AuthorID != principal.UserID {
		return persistence.ErrUnauthorized
	}
	delete(s.events, id)
	return nil
}

// ListEvents returns stored events matching the filter, ordered by start time
// then id.
func (s *MemoryEventStore) ListEvents(_ context.Context, filter calendar.StoreFilter) ([]calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}

	var wanted map[calendar.Category]struct{}
	if len(filter.Categories) > 0 {
		wanted = make(map[calendar.Category]struct{}, len(filter.Categories))
		for _, category := range filter.Categories {
			wanted[category] = struct{}{}
		}
	}

	out := make([]calendar.Event, 0, len(s.events))
	for _, event := range s.events {
		if !event.Intersects(filter.Start, filter.End) && !event.Recurring() {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[event.Category]; !ok {
				continue
			}
		}
		if filter.Priority != nil && event.Priority != *filter.Priority {
			continue
		}
		out = append(out, event)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
