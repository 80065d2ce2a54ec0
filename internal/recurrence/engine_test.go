package recurrence

import (
	"errors"
	"testing"
	"time"
)

func utcDay(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestEngine_ExpandDaily(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	baseStart := utcDay(2025, time.September, 1, 9)
	baseEnd := baseStart.Add(time.Hour)

	occurrences, err := engine.Expand(
		Rule{Pattern: PatternDaily, Interval: 1},
		baseStart, baseEnd,
		utcDay(2025, time.September, 1, 0), utcDay(2025, time.September, 7, 23),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 7 {
		t.Fatalf("expected 7 occurrences, got %d", len(occurrences))
	}
	for i, occ := range occurrences {
		want := baseStart.AddDate(0, 0, i)
		if !occ.Start.Equal(want) {
			t.Fatalf("occurrence %d starts at %v, want %v", i, occ.Start, want)
		}
		if got := occ.End.Sub(occ.Start); got != time.Hour {
			t.Fatalf("occurrence %d duration %v, want 1h", i, got)
		}
	}
}

func TestEngine_ExpandWeeklyOnSelectedWeekdays(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	// Monday anchor; the rule only selects Tuesday and Thursday.
	baseStart := utcDay(2025, time.September, 1, 10)
	baseEnd := baseStart.Add(90 * time.Minute)

	occurrences, err := engine.Expand(
		Rule{
			Pattern:  PatternWeekly,
			Interval: 1,
			Weekdays: []time.Weekday{time.Tuesday, time.Thursday},
		},
		baseStart, baseEnd,
		utcDay(2025, time.September, 1, 0), utcDay(2025, time.September, 28, 23),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 8 {
		t.Fatalf("expected 8 occurrences over four weeks, got %d", len(occurrences))
	}
	for i, occ := range occurrences {
		if day := occ.Start.Weekday(); day != time.Tuesday && day != time.Thursday {
			t.Fatalf("occurrence %d falls on %v", i, day)
		}
		if i > 0 && occ.Start.Before(occurrences[i-1].Start) {
			t.Fatalf("occurrences out of chronological order at index %d", i)
		}
	}
}

func TestEngine_ExpandBiweeklyInterval(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	baseStart := utcDay(2025, time.September, 1, 9)
	baseEnd := baseStart.Add(time.Hour)

	occurrences, err := engine.Expand(
		Rule{Pattern: PatternWeekly, Interval: 2, Weekdays: []time.Weekday{time.Monday}},
		baseStart, baseEnd,
		utcDay(2025, time.September, 1, 0), utcDay(2025, time.October, 13, 23),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		utcDay(2025, time.September, 1, 9),
		utcDay(2025, time.September, 15, 9),
		utcDay(2025, time.September, 29, 9),
		utcDay(2025, time.October, 13, 9),
	}
	if len(occurrences) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(occurrences))
	}
	for i, occ := range occurrences {
		if !occ.Start.Equal(want[i]) {
			t.Fatalf("occurrence %d starts at %v, want %v", i, occ.Start, want[i])
		}
	}
}

func TestEngine_ExpandCountBoundsSeries(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	baseStart := utcDay(2025, time.September, 1, 9)
	baseEnd := baseStart.Add(time.Hour)

	// The window spans a full year; the count still caps the series.
	occurrences, err := engine.Expand(
		Rule{Pattern: PatternDaily, Interval: 1, Occurrences: 3},
		baseStart, baseEnd,
		utcDay(2025, time.September, 1, 0), utcDay(2026, time.September, 1, 0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(occurrences))
	}
	last := utcDay(2025, time.September, 3, 9)
	if !occurrences[2].Start.Equal(last) {
		t.Fatalf("last occurrence at %v, want %v", occurrences[2].Start, last)
	}
}

func TestEngine_ExpandEndsOnIsInclusive(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	baseStart := utcDay(2025, time.September, 1, 9)
	baseEnd := baseStart.Add(time.Hour)
	endsOn := utcDay(2025, time.September, 5, 0)

	occurrences, err := engine.Expand(
		Rule{Pattern: PatternDaily, Interval: 1, EndsOn: &endsOn},
		baseStart, baseEnd,
		utcDay(2025, time.September, 1, 0), utcDay(2025, time.September, 30, 0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 5 {
		t.Fatalf("expected the end date's occurrence to be included, got %d occurrences", len(occurrences))
	}
}

func TestEngine_ExpandSkipsExceptionDates(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	baseStart := utcDay(2025, time.September, 1, 9)
	baseEnd := baseStart.Add(time.Hour)

	occurrences, err := engine.Expand(
		Rule{
			Pattern:    PatternDaily,
			Interval:   1,
			Exceptions: []time.Time{utcDay(2025, time.September, 3, 0)},
		},
		baseStart, baseEnd,
		utcDay(2025, time.September, 1, 0), utcDay(2025, time.September, 7, 23),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 6 {
		t.Fatalf("expected 6 occurrences after one exclusion, got %d", len(occurrences))
	}
	for _, occ := range occurrences {
		if occ.Start.Day() == 3 {
			t.Fatalf("excluded date still present: %v", occ.Start)
		}
	}
}

func TestEngine_ExpandMonthlyOrdinalWeek(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	// First Monday of September 2025.
	baseStart := utcDay(2025, time.September, 1, 18)
	baseEnd := baseStart.Add(2 * time.Hour)

	occurrences, err := engine.Expand(
		Rule{
			Pattern:     PatternMonthly,
			Interval:    1,
			WeekOfMonth: 1,
			Weekdays:    []time.Weekday{time.Monday},
		},
		baseStart, baseEnd,
		utcDay(2025, time.September, 1, 0), utcDay(2025, time.December, 31, 23),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		utcDay(2025, time.September, 1, 18),
		utcDay(2025, time.October, 6, 18),
		utcDay(2025, time.November, 3, 18),
		utcDay(2025, time.December, 1, 18),
	}
	if len(occurrences) != len(want) {
		t.Fatalf("expected %d first-Monday occurrences, got %d", len(want), len(occurrences))
	}
	for i, occ := range occurrences {
		if !occ.Start.Equal(want[i]) {
			t.Fatalf("occurrence %d at %v, want %v", i, occ.Start, want[i])
		}
	}
}

func TestEngine_ExpandYearlyPinnedToMonth(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	baseStart := utcDay(2025, time.September, 18, 0)
	baseEnd := baseStart.Add(24 * time.Hour)

	occurrences, err := engine.Expand(
		Rule{Pattern: PatternYearly, Interval: 1, MonthOfYear: time.September},
		baseStart, baseEnd,
		utcDay(2025, time.January, 1, 0), utcDay(2026, time.December, 31, 0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 2 {
		t.Fatalf("expected 2 yearly occurrences, got %d", len(occurrences))
	}
	if occurrences[1].Start.Year() != 2026 || occurrences[1].Start.Month() != time.September {
		t.Fatalf("second occurrence at %v", occurrences[1].Start)
	}
}

func TestEngine_ExpandNonePatternYieldsNothing(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	start := utcDay(2025, time.September, 1, 9)
	occurrences, err := engine.Expand(Rule{Pattern: PatternNone}, start, start.Add(time.Hour), start, start.AddDate(1, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 0 {
		t.Fatalf("expected no occurrences, got %d", len(occurrences))
	}
}

func TestEngine_ExpandRejectsMalformedRules(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	start := utcDay(2025, time.September, 1, 9)
	end := start.Add(time.Hour)
	windowEnd := start.AddDate(0, 1, 0)
	endsOn := start.AddDate(0, 0, 10)

	cases := []struct {
		name    string
		rule    Rule
		wantErr error
	}{
		{
			name:    "zero interval",
			rule:    Rule{Pattern: PatternDaily, Interval: 0},
			wantErr: ErrInvalidInterval,
		},
		{
			name:    "both terminations",
			rule:    Rule{Pattern: PatternDaily, Interval: 1, EndsOn: &endsOn, Occurrences: 5},
			wantErr: ErrConflictingTermination,
		},
		{
			name:    "unknown pattern",
			rule:    Rule{Pattern: Pattern("hourly"), Interval: 1},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "ordinal week out of range",
			rule:    Rule{Pattern: PatternMonthly, Interval: 1, WeekOfMonth: 7},
			wantErr: ErrInvalidConstraint,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := engine.Expand(tc.rule, start, end, start, windowEnd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestEngine_ExpandRejectsInvertedWindow(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	start := utcDay(2025, time.September, 1, 9)
	_, err := engine.Expand(Rule{Pattern: PatternDaily, Interval: 1}, start, start.Add(time.Hour), start, start.AddDate(0, 0, -1))
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("got %v, want ErrInvalidWindow", err)
	}
}

func TestEngine_ExpandRejectsNegativeDuration(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	start := utcDay(2025, time.September, 1, 9)
	_, err := engine.Expand(Rule{Pattern: PatternDaily, Interval: 1}, start, start.Add(-time.Hour), start, start.AddDate(0, 0, 7))
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("got %v, want ErrInvalidDuration", err)
	}
}

func TestParsePattern(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"none", "daily", "weekly", "monthly", "yearly", "custom"} {
		if _, err := ParsePattern(value); err != nil {
			t.Fatalf("ParsePattern(%q) failed: %v", value, err)
		}
	}
	if _, err := ParsePattern("fortnightly"); !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
}
