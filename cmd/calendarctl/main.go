// Command calendarctl queries the unified calendar from the command line and
// renders the result in one of the supported export formats. It wires the
// static dataset and the SQLite-backed persisted store behind the calendar
// service the same way an embedding portal would.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-calendar/internal/calendar"
	"github.com/example/campus-calendar/internal/config"
	"github.com/example/campus-calendar/internal/export"
	"github.com/example/campus-calendar/internal/logging"
	"github.com/example/campus-calendar/internal/persistence/sqlite"
	"github.com/example/campus-calendar/internal/recurrence"
	"github.com/example/campus-calendar/internal/staticsource"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		fromFlag     = flag.String("from", "", "window start (YYYY-MM-DD)")
		toFlag       = flag.String("to", "", "window end (YYYY-MM-DD)")
		formatFlag   = flag.String("format", "JSON", "output format: CSV, JSON or ICAL")
		roleFlag     = flag.String("role", string(calendar.RoleGuest), "caller role")
		userFlag     = flag.String("user", "", "caller user id")
		categoryFlag = flag.String("categories", "", "comma separated category filter")
		searchFlag   = flag.String("search", "", "free text search over title and description")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(os.Stderr, parseLevel(cfg.LogLevel))
	ctx := logging.ContextWithLogger(context.Background(), logger)

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("failed to resolve timezone: %w", err)
	}

	format, err := export.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}

	static, err := staticsource.New(loc)
	if err != nil {
		return err
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()
	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	service := calendar.NewServiceWithCache(static, sqlite.NewAdapter(storage), recurrence.NewEngine(loc), uuid.NewString, time.Now, cfg.CacheTTL, cfg.CacheMaxEntries)

	spec := calendar.QuerySpec{
		Search: *searchFlag,
		Principal: calendar.Principal{
			UserID: *userFlag,
			Role:   calendar.Role(*roleFlag),
		},
	}
	if spec.Start, err = parseDay(*fromFlag, loc, false); err != nil {
		return err
	}
	if spec.End, err = parseDay(*toFlag, loc, true); err != nil {
		return err
	}
	for _, name := range splitList(*categoryFlag) {
		category, err := calendar.ParseCategory(name)
		if err != nil {
			return err
		}
		spec.Categories = append(spec.Categories, category)
	}

	events, warnings, err := service.Query(ctx, spec)
	if err != nil {
		return err
	}
	for _, warning := range warnings {
		logger.Warn(warning.Message, "type", warning.Type)
	}

	rendered, err := export.Export(events, format)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

// parseDay interprets a YYYY-MM-DD flag in loc. End dates are widened to the
// last second of the day so the window is inclusive.
func parseDay(value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Second)
	}
	return &day, nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
