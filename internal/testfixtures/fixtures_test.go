package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-calendar/internal/calendar"
	"github.com/example/campus-calendar/internal/persistence"
)

func TestClockAdvanceAndSet(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if !clock.Now().Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("set not applied: %v", clock.Now())
	}
}

func TestClockDefaultsToReferenceTime(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestIDGeneratorSequence(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("evt")
	if got := gen.Next(); got != "evt-1" {
		t.Fatalf("unexpected first id %q", got)
	}
	if got := gen.Next(); got != "evt-2" {
		t.Fatalf("unexpected second id %q", got)
	}

	gen.SetCounter(41)
	if got := gen.Next(); got != "evt-42" {
		t.Fatalf("counter override not applied: %q", got)
	}
}

func TestEventFixtureOverrides(t *testing.T) {
	t.Parallel()

	fixture := NewEventFixture(
		WithEventID("evt-9"),
		WithEventCategory(calendar.CategoryExam),
		WithEventPublic(true),
		WithEventAttendees("student-1"),
	)

	event := fixture.Event()
	if event.ID != "evt-9" || event.Category != calendar.CategoryExam || !event.IsPublic {
		t.Fatalf("overrides not applied: %+v", event)
	}
	if event.Source != calendar.SourcePersisted {
		t.Fatalf("fixture events are persisted, got %q", event.Source)
	}

	input := fixture.Input()
	if input.Title != event.Title || len(input.AttendeeIDs) != 1 {
		t.Fatalf("input conversion drifted: %+v", input)
	}
}

func TestMemoryEventStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryEventStore()
	author := calendar.Principal{UserID: "teacher-1", Role: calendar.RoleTeacher}

	event := NewEventFixture().Event()
	if _, err := store.CreateEvent(ctx, event); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.CreateEvent(ctx, event); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	stranger := calendar.Principal{UserID: "teacher-2", Role: calendar.RoleTeacher}
	if _, err := store.UpdateEvent(ctx, stranger, event); !errors.Is(err, persistence.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := store.UpdateEvent(ctx, author, event); err != nil {
		t.Fatalf("author update failed: %v", err)
	}

	listed, err := store.ListEvents(ctx, calendar.StoreFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 event, got %d", len(listed))
	}

	store.FailWith(errors.New("down"))
	if _, err := store.ListEvents(ctx, calendar.StoreFilter{}); err == nil {
		t.Fatal("expected injected failure")
	}
	store.FailWith(nil)

	if err := store.DeleteEvent(ctx, author, event.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.DeleteEvent(ctx, author, event.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
