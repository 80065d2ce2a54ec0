package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the calendar
// service.
type Config struct {
	SQLiteDSN       string
	Timezone        string
	LogLevel        string
	CacheTTL        time.Duration
	CacheMaxEntries int
}

// Load parses configuration values from the current process environment. A
// .env file in the working directory is merged in first when present; real
// environment variables always win.
//
// The loader applies defaults for optional fields while validating provided
// values and reporting every invalid entry in a single error.
func Load() (Config, error) {
	// Best effort; absence of a .env file is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		SQLiteDSN:       "file:calendar.db",
		Timezone:        "America/Santiago",
		LogLevel:        "info",
		CacheTTL:        30 * time.Second,
		CacheMaxEntries: 128,
	}

	invalid := make([]string, 0, 2)

	if dsn := strings.TrimSpace(os.Getenv("CALENDAR_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tz := strings.TrimSpace(os.Getenv("CALENDAR_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "CALENDAR_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if level := strings.TrimSpace(os.Getenv("CALENDAR_LOG_LEVEL")); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, "CALENDAR_LOG_LEVEL")
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CALENDAR_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CALENDAR_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if entriesValue := strings.TrimSpace(os.Getenv("CALENDAR_CACHE_MAX_ENTRIES")); entriesValue != "" {
		entries, err := strconv.Atoi(entriesValue)
		if err != nil || entries <= 0 {
			invalid = append(invalid, "CALENDAR_CACHE_MAX_ENTRIES")
		} else {
			cfg.CacheMaxEntries = entries
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load has already validated the
// name, so failures here indicate a zoneinfo database problem.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
