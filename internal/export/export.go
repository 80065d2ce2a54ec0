// Package export renders event lists into interchange formats: CSV for
// spreadsheets, JSON for programmatic consumers and iCalendar for calendar
// clients. Exports are pure functions over already-filtered events; callers
// run visibility and querying first.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/campus-calendar/internal/calendar"
)

// Format identifies a supported export encoding.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatJSON Format = "JSON"
	FormatICal Format = "ICAL"
)

const (
	productID    = "-//Campus Calendar//Unified Calendar Service//ES"
	icalStampFmt = "20060102T150405Z"
)

// ParseFormat normalizes and validates a format name.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToUpper(strings.TrimSpace(value))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatICal:
		return FormatICal, nil
	}
	return "", unsupportedFormat(value)
}

// Export renders events in the requested format. The event order is
// preserved, so callers exporting query results get deterministic output.
func Export(events []calendar.Event, format Format) (string, error) {
	switch format {
	case FormatCSV:
		return exportCSV(events), nil
	case FormatJSON:
		return exportJSON(events)
	case FormatICal:
		return exportICal(events), nil
	}
	return "", unsupportedFormat(string(format))
}

func unsupportedFormat(value string) error {
	return &calendar.ValidationError{FieldErrors: map[string]string{
		"format": fmt.Sprintf("unsupported export format %q", value),
	}}
}

var csvHeader = []string{
	"title", "description", "startDate", "endDate",
	"category", "priority", "isAllDay", "location",
}

// exportCSV writes one row per event with every field quoted. encoding/csv
// only quotes when a field requires it, and downstream spreadsheet imports
// expect uniformly quoted cells, so quoting is done here directly.
func exportCSV(events []calendar.Event) string {
	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, event := range events {
		writeCSVRow(&b, []string{
			event.Title,
			event.Description,
			event.Start.UTC().Format(time.RFC3339),
			event.End.UTC().Format(time.RFC3339),
			string(event.Category),
			string(event.Priority),
			fmt.Sprintf("%t", event.AllDay),
			event.Location,
		})
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}

type jsonEvent struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Start       string            `json:"startDate"`
	End         string            `json:"endDate"`
	Category    string            `json:"category"`
	Priority    string            `json:"priority"`
	AllDay      bool              `json:"isAllDay"`
	Location    string            `json:"location,omitempty"`
	Source      string            `json:"source"`
	ParentID    string            `json:"parentId,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func exportJSON(events []calendar.Event) (string, error) {
	out := make([]jsonEvent, 0, len(events))
	for _, event := range events {
		out = append(out, jsonEvent{
			ID:          event.ID,
			Title:       event.Title,
			Description: event.Description,
			Start:       event.Start.UTC().Format(time.RFC3339),
			End:         event.End.UTC().Format(time.RFC3339),
			Category:    string(event.Category),
			Priority:    string(event.Priority),
			AllDay:      event.AllDay,
			Location:    event.Location,
			Source:      string(event.Source),
			ParentID:    event.ParentID,
			Metadata:    event.Metadata,
		})
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode events: %w", err)
	}
	return string(encoded), nil
}

// exportICal emits one VEVENT per event. Recurring series arrive here already
// expanded into occurrence events, so no RRULE property is written; each
// occurrence stands alone with its own UID.
func exportICal(events []calendar.Event) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")

	for _, event := range events {
		ve := cal.AddEvent(event.ID)
		ve.SetProperty(ics.ComponentPropertyDtstamp, event.Start.UTC().Format(icalStampFmt))
		ve.SetProperty(ics.ComponentPropertyDtStart, event.Start.UTC().Format(icalStampFmt))
		ve.SetProperty(ics.ComponentPropertyDtEnd, event.End.UTC().Format(icalStampFmt))
		ve.SetSummary(event.Title)
		if event.Description != "" {
			ve.SetDescription(event.Description)
		}
		if event.Location != "" {
			ve.SetLocation(event.Location)
		}
		ve.SetProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(event.Category)))
		ve.SetProperty(ics.ComponentProperty("PRIORITY"), icalPriority(event.Priority))
	}

	return cal.Serialize()
}

func icalPriority(priority calendar.Priority) string {
	switch priority {
	case calendar.PriorityHigh:
		return "1"
	case calendar.PriorityLow:
		return "9"
	default:
		return "5"
	}
}
