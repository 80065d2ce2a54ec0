package main

import (
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}

	start, err := parseDay("2025-09-18", loc, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 0 || start.Day() != 18 {
		t.Fatalf("unexpected start %v", start)
	}

	end, err := parseDay("2025-09-18", loc, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Fatalf("end not widened to end of day: %v", end)
	}

	if got, err := parseDay("", loc, false); err != nil || got != nil {
		t.Fatalf("empty value must yield nil bound, got %v, %v", got, err)
	}
	if _, err := parseDay("18/09/2025", loc, false); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	if got := splitList(" exam , holiday ,, "); !reflect.DeepEqual(got, []string{"exam", "holiday"}) {
		t.Fatalf("unexpected split: %v", got)
	}
	if got := splitList("  "); got != nil {
		t.Fatalf("blank input must yield nil, got %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for value, want := range cases {
		if got := parseLevel(value); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", value, got, want)
		}
	}
}
