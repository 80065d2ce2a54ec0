package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/campus-calendar/internal/calendar"
)

func sampleEvents() []calendar.Event {
	start := time.Date(2025, time.September, 18, 0, 0, 0, 0, time.UTC)
	return []calendar.Event{
		{
			ID:          "holiday-independencia-2025",
			Title:       "Independencia Nacional",
			Description: "Fiestas Patrias",
			Start:       start,
			End:         start.Add(24*time.Hour - time.Second),
			Category:    calendar.CategoryHoliday,
			Priority:    calendar.PriorityMedium,
			AllDay:      true,
			Source:      calendar.SourceStatic,
		},
		{
			ID:       "evt-1",
			Title:    "Acto de Fiestas Patrias",
			Start:    start.Add(34 * time.Hour),
			End:      start.Add(36 * time.Hour),
			Category: calendar.CategoryEvent,
			Priority: calendar.PriorityHigh,
			Source:   calendar.SourcePersisted,
			Location: "Gimnasio",
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"csv", "CSV", " json ", "ical", "ICAL"} {
		if _, err := ParseFormat(value); err != nil {
			t.Fatalf("ParseFormat(%q) failed: %v", value, err)
		}
	}

	_, err := ParseFormat("pdf")
	var vErr *calendar.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := Export(sampleEvents(), Format("XML"))
	var vErr *calendar.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestExportCSV_QuotesEveryField(t *testing.T) {
	t.Parallel()

	out, err := Export(sampleEvents(), FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != `"title","description","startDate","endDate","category","priority","isAllDay","location"` {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `"`) {
			t.Fatalf("line %d is not fully quoted: %s", i, line)
		}
	}
	if !strings.Contains(lines[2], `"2025-09-19T10:00:00Z"`) {
		t.Fatalf("timestamps must be RFC3339 UTC: %s", lines[2])
	}
}

func TestExportCSV_RoundTripsThroughStandardReader(t *testing.T) {
	t.Parallel()

	events := sampleEvents()
	events[1].Title = `Cita "importante", sala 2`

	out, err := Export(events, FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("standard reader rejected the output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[2][0] != `Cita "importante", sala 2` {
		t.Fatalf("embedded quotes not preserved: %q", records[2][0])
	}
	if records[1][6] != "true" {
		t.Fatalf("all-day flag wrong: %q", records[1][6])
	}
}

func TestExportJSON(t *testing.T) {
	t.Parallel()

	out, err := Export(sampleEvents(), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded []jsonEvent
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 events, got %d", len(decoded))
	}
	if decoded[0].Start != "2025-09-18T00:00:00Z" {
		t.Fatalf("start date not ISO-8601 UTC: %s", decoded[0].Start)
	}
	if decoded[0].Category != "holiday" || decoded[1].Priority != "high" {
		t.Fatalf("enum fields wrong: %+v", decoded)
	}
	if !decoded[0].AllDay {
		t.Fatal("all-day flag lost")
	}
}

func TestExportJSON_EmptySet(t *testing.T) {
	t.Parallel()

	out, err := Export(nil, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("empty export must be an empty array, got %q", out)
	}
}

func TestExportICal(t *testing.T) {
	t.Parallel()

	out, err := Export(sampleEvents(), FormatICal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + productID,
		"CALSCALE:GREGORIAN",
		"UID:holiday-independencia-2025",
		"UID:evt-1",
		"DTSTART:20250918T000000Z",
		"DTSTART:20250919T100000Z",
		"DTEND:20250919T120000Z",
		"SUMMARY:Independencia Nacional",
		"LOCATION:Gimnasio",
		"CATEGORIES:HOLIDAY",
		"PRIORITY:1",
		"PRIORITY:5",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("calendar output missing %q:\n%s", want, out)
		}
	}

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("expected 2 VEVENT blocks, got %d", got)
	}
	if strings.Contains(out, "RRULE") {
		t.Fatal("expanded occurrences must not carry RRULE properties")
	}
}

func TestExportICal_OccurrencesAsSeparateEvents(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)
	occurrences := []calendar.Event{
		{ID: "evt-r-occ-20250901", Title: "Taller", Start: start, End: start.Add(time.Hour), Category: calendar.CategoryAcademic, Priority: calendar.PriorityMedium, ParentID: "evt-r"},
		{ID: "evt-r-occ-20250908", Title: "Taller", Start: start.AddDate(0, 0, 7), End: start.AddDate(0, 0, 7).Add(time.Hour), Category: calendar.CategoryAcademic, Priority: calendar.PriorityMedium, ParentID: "evt-r"},
	}

	out, err := Export(occurrences, FormatICal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("each occurrence needs its own VEVENT, got %d", got)
	}
	if !strings.Contains(out, "UID:evt-r-occ-20250901") || !strings.Contains(out, "UID:evt-r-occ-20250908") {
		t.Fatalf("occurrence UIDs missing:\n%s", out)
	}
}
