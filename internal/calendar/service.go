package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-calendar/internal/logging"
	"github.com/example/campus-calendar/internal/persistence"
	"github.com/example/campus-calendar/internal/recurrence"
)

// Reserved id prefixes of the static dataset. The persisted store must never
// issue ids carrying them, which keeps mixed static/persisted identity
// collisions structurally impossible.
const (
	HolidayIDPrefix  = "holiday-"
	AcademicIDPrefix = "academic-"
)

// defaultExpansionHorizon bounds recurrence expansion when a query omits its
// end date, so an unterminated rule cannot expand forever.
const defaultExpansionHorizon = 366 * 24 * time.Hour

// StaticSource exposes the compiled-in calendar. List is a pure function and
// performs no I/O.
type StaticSource interface {
	List(start, end *time.Time, categories []Category) []Event
}

// StoreFilter narrows queries issued to the persisted store. The principal is
// carried so the store may pre-narrow results as an optimization; read
// visibility is still enforced by Filter afterwards.
type StoreFilter struct {
	Start      *time.Time
	End        *time.Time
	Categories []Category
	Priority   *Priority
	Principal  Principal
}

// EventStore captures the persisted-store interactions needed by the service.
// Implementations enforce mutation authorization (author match or elevated
// role) at the storage layer; ListEvents returns events that already carry
// their recurrence sub-record.
type EventStore interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, principal Principal, event Event) (Event, error)
	DeleteEvent(ctx context.Context, principal Principal, id string) error
	ListEvents(ctx context.Context, filter StoreFilter) ([]Event, error)
}

// Service merges the static and persisted sources behind one read API,
// expands recurrences, applies visibility and serves aggregate statistics.
type Service struct {
	static      StaticSource
	store       EventStore
	engine      *recurrence.Engine
	cache       *queryCache
	idGenerator func() string
	now         func() time.Time
}

// NewService wires the calendar service. engine, idGenerator and now may be
// nil; sensible defaults are applied.
func NewService(static StaticSource, store EventStore, engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *Service {
	return NewServiceWithCache(static, store, engine, idGenerator, now, 0, 0)
}

// NewServiceWithCache wires the calendar service with explicit result cache
// tuning. Non-positive ttl or maxEntries fall back to the defaults.
func NewServiceWithCache(static StaticSource, store EventStore, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, cacheTTL time.Duration, cacheMaxEntries int) *Service {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		static:      static,
		store:       store,
		engine:      engine,
		cache:       newQueryCache(cacheTTL, cacheMaxEntries, now),
		idGenerator: idGenerator,
		now:         now,
	}
}

// Query returns the merged, visibility-filtered event set for the spec,
// sorted ascending by start time with category and id tie-breaks. When the
// persisted store is unreachable the static results are still returned and
// the degradation is surfaced as a warning, never as an error.
func (s *Service) Query(ctx context.Context, spec QuerySpec) ([]Event, []Warning, error) {
	if s == nil {
		return nil, nil, fmt.Errorf("Service is nil")
	}
	if err := validateQuerySpec(spec); err != nil {
		return nil, nil, err
	}

	key := buildQueryCacheKey(spec)
	if events, warnings, ok := s.cache.Get(key); ok {
		return events, warnings, nil
	}

	// The store fetch is the only blocking call in a query; run it while the
	// static set is assembled in-process.
	type storeResult struct {
		events []Event
		err    error
	}
	storeCh := make(chan storeResult, 1)
	go func() {
		if s.store == nil {
			storeCh <- storeResult{}
			return
		}
		events, err := s.store.ListEvents(ctx, StoreFilter{
			Start:      spec.Start,
			End:        spec.End,
			Categories: spec.Categories,
			Priority:   spec.Priority,
			Principal:  spec.Principal,
		})
		storeCh <- storeResult{events: events, err: err}
	}()

	var merged []Event
	if s.static != nil {
		merged = append(merged, s.static.List(spec.Start, spec.End, spec.Categories)...)
	}

	res := <-storeCh

	var warnings []Warning
	if res.err != nil {
		logging.FromContext(ctx).Warn("persisted store unavailable, degrading to static-only results", "error", res.err)
		warnings = append(warnings, Warning{
			Type:    WarningStoreUnavailable,
			Message: "persisted events are temporarily unavailable",
		})
	} else {
		merged = append(merged, s.expandPersisted(ctx, res.events, spec)...)
	}

	merged = Filter(merged, spec.Principal)
	if spec.Search != "" {
		merged = searchEvents(merged, spec.Search)
	}
	sortEvents(merged)

	s.cache.Store(key, merged, warnings)
	return merged, warnings, nil
}

// Summarize aggregates the exact event set Query returns for the same spec,
// so the statistics can never drift from what a caller would see.
func (s *Service) Summarize(ctx context.Context, spec QuerySpec) (Statistics, []Warning, error) {
	events, warnings, err := s.Query(ctx, spec)
	if err != nil {
		return Statistics{}, nil, err
	}
	return Summarize(events, s.now()), warnings, nil
}

// CreateEvent validates the input and delegates to the persisted store. The
// caller becomes the event's author.
func (s *Service) CreateEvent(ctx context.Context, principal Principal, input EventInput) (Event, error) {
	if s == nil {
		return Event{}, fmt.Errorf("Service is nil")
	}
	if s.store == nil {
		return Event{}, fmt.Errorf("event store not configured")
	}
	if principal.UserID == "" || !principal.Role.Authenticated() {
		return Event{}, ErrUnauthorized
	}
	if err := validateEventInput(input); err != nil {
		return Event{}, err
	}

	id := s.idGenerator()
	if hasReservedPrefix(id) {
		return Event{}, ErrReservedID
	}

	event := s.eventFromInput(id, principal.UserID, input)

	persisted, err := s.store.CreateEvent(ctx, event)
	if err != nil {
		return Event{}, mapStoreError(err)
	}

	s.cache.Invalidate()
	return persisted, nil
}

// UpdateEvent validates the input and delegates to the persisted store, which
// enforces that only the author or an elevated role may mutate the event.
func (s *Service) UpdateEvent(ctx context.Context, principal Principal, id string, input EventInput) (Event, error) {
	if s == nil {
		return Event{}, fmt.Errorf("Service is nil")
	}
	if s.store == nil {
		return Event{}, fmt.Errorf("event store not configured")
	}
	if principal.UserID == "" || !principal.Role.Authenticated() {
		return Event{}, ErrUnauthorized
	}
	if hasReservedPrefix(id) {
		// Static events are immutable; their id space is never stored.
		return Event{}, ErrUnauthorized
	}
	if err := validateEventInput(input); err != nil {
		return Event{}, err
	}

	event := s.eventFromInput(id, "", input)

	persisted, err := s.store.UpdateEvent(ctx, principal, event)
	if err != nil {
		return Event{}, mapStoreError(err)
	}

	s.cache.Invalidate()
	return persisted, nil
}

// DeleteEvent delegates to the persisted store, which cascades recurrence and
// attachment sub-records.
func (s *Service) DeleteEvent(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("Service is nil")
	}
	if s.store == nil {
		return fmt.Errorf("event store not configured")
	}
	if principal.UserID == "" || !principal.Role.Authenticated() {
		return ErrUnauthorized
	}
	if hasReservedPrefix(id) {
		return ErrUnauthorized
	}

	if err := s.store.DeleteEvent(ctx, principal, id); err != nil {
		return mapStoreError(err)
	}

	s.cache.Invalidate()
	return nil
}

// expandPersisted replaces recurring base events with their occurrences
// inside the query window. The base itself is suppressed: expansion covers
// the anchor date, so returning both would double-count it. Events whose
// recurrence rule is malformed are kept as plain one-off events and the rule
// is skipped with a log line rather than failing the whole query.
func (s *Service) expandPersisted(ctx context.Context, events []Event, spec QuerySpec) []Event {
	out := make([]Event, 0, len(events))
	for _, event := range events {
		if !event.Recurring() {
			out = append(out, event)
			continue
		}

		windowStart := event.Start
		if spec.Start != nil && spec.Start.After(windowStart) {
			windowStart = *spec.Start
		}
		windowEnd := windowStart.Add(defaultExpansionHorizon)
		if spec.End != nil {
			windowEnd = *spec.End
		}

		occurrences, err := s.engine.Expand(*event.Recurrence, event.Start, event.End, windowStart, windowEnd)
		if err != nil {
			logging.FromContext(ctx).Warn("skipping malformed recurrence rule",
				"event_id", event.ID, "error", err)
			plain := event
			plain.Recurrence = nil
			out = append(out, plain)
			continue
		}

		for _, occ := range occurrences {
			out = append(out, occurrenceEvent(event, occ))
		}
	}
	return out
}

// occurrenceEvent materializes one occurrence of a base event. The id is
// stable within a query result and carries the occurrence date; ParentID
// points back at the base and Recurrence is dropped to prevent re-expansion.
func occurrenceEvent(base Event, occ recurrence.Occurrence) Event {
	event := base
	event.ID = fmt.Sprintf("%s-occ-%s", base.ID, occ.Start.UTC().Format("20060102"))
	event.Start = occ.Start
	event.End = occ.End
	event.ParentID = base.ID
	event.Recurrence = nil
	return event
}

func (s *Service) eventFromInput(id, authorID string, input EventInput) Event {
	attachments := make([]Attachment, 0, len(input.Attachments))
	for _, att := range input.Attachments {
		attachments = append(attachments, Attachment{
			ID:   s.idGenerator(),
			Name: att.Name,
			URL:  att.URL,
			Type: att.Type,
			Size: att.Size,
		})
	}
	if len(attachments) == 0 {
		attachments = nil
	}

	return Event{
		ID:          id,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Start:       input.Start,
		End:         input.End,
		Category:    input.Category,
		Priority:    input.Priority,
		AllDay:      input.AllDay,
		Source:      SourcePersisted,
		Location:    input.Location,
		Color:       input.Color,
		IsPublic:    input.IsPublic,
		AuthorID:    authorID,
		AttendeeIDs: sortStrings(uniqueStrings(input.AttendeeIDs)),
		Attachments: attachments,
		Recurrence:  input.Recurrence,
		Metadata:    input.Metadata,
	}
}

func validateQuerySpec(spec QuerySpec) error {
	vErr := &ValidationError{}

	if spec.Start != nil && spec.End != nil && spec.End.Before(*spec.Start) {
		vErr.add("range", "end date must not precede start date")
	}
	for _, category := range spec.Categories {
		if !category.Valid() {
			vErr.add("categories", fmt.Sprintf("unknown category %q", category))
		}
	}
	if spec.Priority != nil && !spec.Priority.Valid() {
		vErr.add("priority", fmt.Sprintf("unknown priority %q", *spec.Priority))
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func validateEventInput(input EventInput) error {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && input.End.Before(input.Start) {
		vErr.add("time", "end must not precede start")
	}
	if !input.Category.Valid() {
		vErr.add("category", fmt.Sprintf("unknown category %q", input.Category))
	}
	if !input.Priority.Valid() {
		vErr.add("priority", fmt.Sprintf("unknown priority %q", input.Priority))
	}
	for _, att := range input.Attachments {
		if strings.TrimSpace(att.URL) == "" {
			vErr.add("attachments", "attachment url is required")
		}
	}
	if input.Recurrence != nil {
		if err := input.Recurrence.Validate(); err != nil {
			vErr.add("recurrence", err.Error())
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func searchEvents(events []Event, term string) []Event {
	needle := strings.ToLower(term)
	out := make([]Event, 0, len(events))
	for _, event := range events {
		if strings.Contains(strings.ToLower(event.Title), needle) ||
			strings.Contains(strings.ToLower(event.Description), needle) {
			out = append(out, event)
		}
	}
	return out
}

// sortEvents orders events ascending by start time, breaking ties by
// category then id so repeated queries return a stable order.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		if events[i].Category != events[j].Category {
			return events[i].Category < events[j].Category
		}
		return events[i].ID < events[j].ID
	})
}

func hasReservedPrefix(id string) bool {
	return strings.HasPrefix(id, HolidayIDPrefix) || strings.HasPrefix(id, AcademicIDPrefix)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func sortStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrUnauthorized) {
		return ErrUnauthorized
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "end must not precede start")
		return vErr
	}
	return err
}
