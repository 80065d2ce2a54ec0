// Package staticsource exposes the compiled-in institutional calendar:
// national holidays and academic-period markers. The dataset is embedded at
// build time, so listing it performs no I/O and every read regenerates the
// same immutable events.
package staticsource

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/campus-calendar/internal/calendar"
)

//go:embed dataset.yaml
var rawDataset []byte

type datasetFile struct {
	Version  string          `yaml:"version"`
	Holidays []holidayEntry  `yaml:"holidays"`
	Academic []academicEntry `yaml:"academic"`
}

type holidayEntry struct {
	Key         string `yaml:"key"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Date        string `yaml:"date"`
	National    bool   `yaml:"national"`
}

type academicEntry struct {
	Key         string `yaml:"key"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Category    string `yaml:"category"`
	Priority    string `yaml:"priority"`
	Period      string `yaml:"period"`
}

// Adapter serves the embedded dataset as canonical events.
type Adapter struct {
	version string
	events  []calendar.Event
}

// New decodes and validates the embedded dataset, mapping every entry to an
// event once. Construction fails on unknown enum values, inverted spans,
// duplicate keys or ids that break the reserved-prefix invariant, so a
// malformed dataset is caught at startup rather than at query time. Dates are
// interpreted in loc; UTC is used when loc is nil.
func New(loc *time.Location) (*Adapter, error) {
	return newFromBytes(rawDataset, loc)
}

func newFromBytes(raw []byte, loc *time.Location) (*Adapter, error) {
	if loc == nil {
		loc = time.UTC
	}

	var file datasetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("staticsource: malformed dataset: %w", err)
	}

	adapter := &Adapter{version: file.Version}
	seen := make(map[string]struct{})

	for _, entry := range file.Holidays {
		event, err := holidayEvent(entry, loc)
		if err != nil {
			return nil, err
		}
		if err := registerID(seen, event.ID, calendar.HolidayIDPrefix); err != nil {
			return nil, err
		}
		adapter.events = append(adapter.events, event)
	}

	for _, entry := range file.Academic {
		event, err := academicEvent(entry, loc)
		if err != nil {
			return nil, err
		}
		if err := registerID(seen, event.ID, calendar.AcademicIDPrefix); err != nil {
			return nil, err
		}
		adapter.events = append(adapter.events, event)
	}

	return adapter, nil
}

// Version reports the dataset revision, useful for cache busting in callers.
func (a *Adapter) Version() string {
	return a.version
}

// List returns the static events intersecting [start, end], optionally
// narrowed to the given categories. A nil bound leaves that side open. The
// returned slice is freshly allocated on every call.
func (a *Adapter) List(start, end *time.Time, categories []calendar.Category) []calendar.Event {
	var wanted map[calendar.Category]struct{}
	if len(categories) > 0 {
		wanted = make(map[calendar.Category]struct{}, len(categories))
		for _, category := range categories {
			wanted[category] = struct{}{}
		}
	}

	out := make([]calendar.Event, 0, len(a.events))
	for _, event := range a.events {
		if !event.Intersects(start, end) {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[event.Category]; !ok {
				continue
			}
		}
		out = append(out, event)
	}
	return out
}

func holidayEvent(entry holidayEntry, loc *time.Location) (calendar.Event, error) {
	if entry.Key == "" {
		return calendar.Event{}, fmt.Errorf("staticsource: holiday entry without key")
	}
	day, err := time.ParseInLocation(time.DateOnly, entry.Date, loc)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("staticsource: holiday %q: invalid date: %w", entry.Key, err)
	}

	metadata := map[string]string{}
	if entry.National {
		metadata["isNationalHoliday"] = "true"
	}

	return calendar.Event{
		ID:          calendar.HolidayIDPrefix + entry.Key,
		Title:       entry.Title,
		Description: entry.Description,
		Start:       day,
		End:         endOfDay(day),
		Category:    calendar.CategoryHoliday,
		Priority:    calendar.PriorityMedium,
		AllDay:      true,
		Source:      calendar.SourceStatic,
		Metadata:    metadata,
	}, nil
}

func academicEvent(entry academicEntry, loc *time.Location) (calendar.Event, error) {
	if entry.Key == "" {
		return calendar.Event{}, fmt.Errorf("staticsource: academic entry without key")
	}
	start, err := time.ParseInLocation(time.DateOnly, entry.Start, loc)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("staticsource: academic %q: invalid start: %w", entry.Key, err)
	}
	endDay := entry.End
	if endDay == "" {
		endDay = entry.Start
	}
	end, err := time.ParseInLocation(time.DateOnly, endDay, loc)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("staticsource: academic %q: invalid end: %w", entry.Key, err)
	}
	if end.Before(start) {
		return calendar.Event{}, fmt.Errorf("staticsource: academic %q: end precedes start", entry.Key)
	}

	category, err := calendar.ParseCategory(entry.Category)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("staticsource: academic %q: %w", entry.Key, err)
	}

	priority := calendar.PriorityMedium
	if entry.Priority != "" {
		priority, err = calendar.ParsePriority(entry.Priority)
		if err != nil {
			return calendar.Event{}, fmt.Errorf("staticsource: academic %q: %w", entry.Key, err)
		}
	}

	metadata := map[string]string{}
	if entry.Period != "" {
		metadata["academicPeriod"] = entry.Period
	}

	return calendar.Event{
		ID:          calendar.AcademicIDPrefix + entry.Key,
		Title:       entry.Title,
		Description: entry.Description,
		Start:       start,
		End:         endOfDay(end),
		Category:    category,
		Priority:    priority,
		AllDay:      true,
		Source:      calendar.SourceStatic,
		Metadata:    metadata,
	}, nil
}

func registerID(seen map[string]struct{}, id, prefix string) error {
	if !strings.HasPrefix(id, prefix) {
		return fmt.Errorf("staticsource: id %q missing reserved prefix %q", id, prefix)
	}
	if _, ok := seen[id]; ok {
		return fmt.Errorf("staticsource: duplicate dataset key %q", id)
	}
	seen[id] = struct{}{}
	return nil
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Second)
}
