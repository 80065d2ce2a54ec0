package calendar

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// queryCache memoizes merged query results so repeated identical queries skip
// adapter fetches and re-expansion while the store remains unchanged. Keys
// cover the full QuerySpec including the principal; every persisted-store
// mutation invalidates the whole cache.
type queryCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]queryCacheEntry
}

type queryCacheEntry struct {
	events    []Event
	warnings  []Warning
	expiresAt time.Time
}

func newQueryCache(ttl time.Duration, maxEntries int, now func() time.Time) *queryCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &queryCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]queryCacheEntry),
	}
}

func (c *queryCache) Get(key string) ([]Event, []Warning, bool) {
	if c == nil {
		return nil, nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil, false
	}
	return cloneEvents(entry.events), cloneWarnings(entry.warnings), true
}

func (c *queryCache) Store(key string, events []Event, warnings []Warning) {
	if c == nil {
		return
	}
	entry := queryCacheEntry{
		events:    cloneEvents(events),
		warnings:  cloneWarnings(warnings),
		expiresAt: c.now().Add(c.ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = entry
}

func (c *queryCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]queryCacheEntry)
	c.mu.Unlock()
}

func (c *queryCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *queryCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

// cloneEvents copies the slice and every reference-typed field, so cached
// entries and caller-held results never share mutable state.
func cloneEvents(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]Event, len(events))
	for i, event := range events {
		out[i] = cloneEvent(event)
	}
	return out
}

func cloneEvent(event Event) Event {
	if len(event.AttendeeIDs) > 0 {
		attendees := make([]string, len(event.AttendeeIDs))
		copy(attendees, event.AttendeeIDs)
		event.AttendeeIDs = attendees
	}
	if len(event.Attachments) > 0 {
		attachments := make([]Attachment, len(event.Attachments))
		copy(attachments, event.Attachments)
		event.Attachments = attachments
	}
	if len(event.Metadata) > 0 {
		metadata := make(map[string]string, len(event.Metadata))
		for key, value := range event.Metadata {
			metadata[key] = value
		}
		event.Metadata = metadata
	}
	if event.Recurrence != nil {
		rule := *event.Recurrence
		if len(rule.Weekdays) > 0 {
			weekdays := make([]time.Weekday, len(rule.Weekdays))
			copy(weekdays, rule.Weekdays)
			rule.Weekdays = weekdays
		}
		if len(rule.Exceptions) > 0 {
			exceptions := make([]time.Time, len(rule.Exceptions))
			copy(exceptions, rule.Exceptions)
			rule.Exceptions = exceptions
		}
		if rule.EndsOn != nil {
			endsOn := *rule.EndsOn
			rule.EndsOn = &endsOn
		}
		event.Recurrence = &rule
	}
	return event
}

func cloneWarnings(warnings []Warning) []Warning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]Warning, len(warnings))
	copy(out, warnings)
	return out
}

func buildQueryCacheKey(spec QuerySpec) string {
	var start, end string
	if spec.Start != nil {
		start = spec.Start.UTC().Format(time.RFC3339Nano)
	}
	if spec.End != nil {
		end = spec.End.UTC().Format(time.RFC3339Nano)
	}

	categories := make([]string, 0, len(spec.Categories))
	for _, category := range spec.Categories {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)

	var priority string
	if spec.Priority != nil {
		priority = string(*spec.Priority)
	}

	builder := strings.Builder{}
	builder.WriteString(spec.Principal.UserID)
	builder.WriteString("|")
	builder.WriteString(string(spec.Principal.Role))
	builder.WriteString("|")
	builder.WriteString(start)
	builder.WriteString("|")
	builder.WriteString(end)
	builder.WriteString("|")
	builder.WriteString(strings.Join(categories, ","))
	builder.WriteString("|")
	builder.WriteString(priority)
	builder.WriteString("|")
	builder.WriteString(strings.ToLower(spec.Search))
	return builder.String()
}
