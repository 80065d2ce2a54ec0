package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Pattern identifies the repeat cadence of a recurrence rule.
type Pattern string

const (
	// PatternNone marks a rule that never repeats; expansion yields nothing.
	PatternNone Pattern = "none"
	// PatternDaily repeats every Interval days.
	PatternDaily Pattern = "daily"
	// PatternWeekly repeats every Interval weeks on the selected weekdays.
	PatternWeekly Pattern = "weekly"
	// PatternMonthly repeats every Interval months, optionally pinned to an
	// ordinal week of the month.
	PatternMonthly Pattern = "monthly"
	// PatternYearly repeats every Interval years, optionally pinned to a month.
	PatternYearly Pattern = "yearly"
	// PatternCustom behaves like a weekly rule driven entirely by the weekday
	// selection.
	PatternCustom Pattern = "custom"
)

// ParsePattern maps a stored pattern value onto the closed enumeration.
func ParsePattern(value string) (Pattern, error) {
	switch Pattern(value) {
	case PatternNone, PatternDaily, PatternWeekly, PatternMonthly, PatternYearly, PatternCustom:
		return Pattern(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, value)
	}
}

// Rule describes a recurrence configuration attached to a base event.
//
// Exactly zero or one of EndsOn and Occurrences may be set; Interval must be
// at least 1. Exceptions are calendar dates excluded from the expansion.
type Rule struct {
	Pattern     Pattern
	Interval    int
	Weekdays    []time.Weekday
	MonthOfYear time.Month
	WeekOfMonth int
	EndsOn      *time.Time
	Occurrences int
	Exceptions  []time.Time
}

var (
	// ErrInvalidPattern indicates the recurrence pattern is not part of the
	// supported enumeration.
	ErrInvalidPattern = errors.New("recurrence: invalid pattern")
	// ErrInvalidInterval indicates the repeat interval is below 1. A zero
	// interval is rejected rather than coerced; the store refuses such rules
	// at creation time and the engine re-checks defensively.
	ErrInvalidInterval = errors.New("recurrence: interval must be at least 1")
	// ErrConflictingTermination indicates both an end date and an occurrence
	// count were supplied.
	ErrConflictingTermination = errors.New("recurrence: end date and occurrence count are mutually exclusive")
	// ErrInvalidConstraint indicates an out-of-range month or ordinal week.
	ErrInvalidConstraint = errors.New("recurrence: constraint out of range")
	// ErrInvalidWindow indicates the expansion window is inverted.
	ErrInvalidWindow = errors.New("recurrence: window end precedes window start")
	// ErrInvalidDuration indicates the base event ends before it starts.
	ErrInvalidDuration = errors.New("recurrence: base event duration is negative")
)

// Validate reports whether the rule is structurally sound. Rules with
// PatternNone are always valid.
func (r Rule) Validate() error {
	if r.Pattern == PatternNone {
		return nil
	}
	if _, err := ParsePattern(string(r.Pattern)); err != nil {
		return err
	}
	if r.Interval < 1 {
		return ErrInvalidInterval
	}
	if r.EndsOn != nil && r.Occurrences > 0 {
		return ErrConflictingTermination
	}
	if r.Occurrences < 0 {
		return fmt.Errorf("%w: negative occurrence count", ErrConflictingTermination)
	}
	if r.MonthOfYear < 0 || r.MonthOfYear > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidConstraint, r.MonthOfYear)
	}
	if r.WeekOfMonth < -1 || r.WeekOfMonth > 5 {
		return fmt.Errorf("%w: week of month %d", ErrInvalidConstraint, r.WeekOfMonth)
	}
	return nil
}

// Occurrence is a single expanded instance of a recurring base event.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Engine expands recurrence rules into concrete occurrences.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that evaluates rules in the provided
// location. If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Expand generates the occurrences of rule that fall inside
// [windowStart, windowEnd], anchored at the base event's start. The base
// event's duration is preserved on every occurrence. Occurrence dates listed
// in rule.Exceptions are dropped by calendar-date comparison, and the count
// termination is applied from the series start, so a rule with Occurrences=N
// never yields more than N instances regardless of window size.
func (e *Engine) Expand(rule Rule, baseStart, baseEnd, windowStart, windowEnd time.Time) ([]Occurrence, error) {
	if rule.Pattern == PatternNone {
		return nil, nil
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if windowEnd.Before(windowStart) {
		return nil, ErrInvalidWindow
	}

	loc := e.location
	start := baseStart.In(loc)
	end := baseEnd.In(loc)
	duration := end.Sub(start)
	if duration < 0 {
		return nil, ErrInvalidDuration
	}

	opt, err := e.buildOption(rule, start)
	if err != nil {
		return nil, err
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	candidates := r.Between(windowStart.In(loc), windowEnd.In(loc), true)
	if len(candidates) == 0 {
		return nil, nil
	}

	excluded := exceptionDates(rule.Exceptions)

	occurrences := make([]Occurrence, 0, len(candidates))
	for _, candidate := range candidates {
		if _, skip := excluded[candidate.In(loc).Format(time.DateOnly)]; skip {
			continue
		}
		occurrences = append(occurrences, Occurrence{
			Start: candidate,
			End:   candidate.Add(duration),
		})
	}
	return occurrences, nil
}

func (e *Engine) buildOption(rule Rule, start time.Time) (rrule.ROption, error) {
	opt := rrule.ROption{
		Dtstart:  start,
		Interval: rule.Interval,
	}

	switch rule.Pattern {
	case PatternDaily:
		opt.Freq = rrule.DAILY
	case PatternWeekly, PatternCustom:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = toRRuleWeekdays(rule.Weekdays)
	case PatternMonthly:
		opt.Freq = rrule.MONTHLY
	case PatternYearly:
		opt.Freq = rrule.YEARLY
	default:
		return opt, fmt.Errorf("%w: %q", ErrInvalidPattern, rule.Pattern)
	}

	if rule.MonthOfYear != 0 {
		opt.Bymonth = []int{int(rule.MonthOfYear)}
	}
	if rule.WeekOfMonth != 0 && (rule.Pattern == PatternMonthly || rule.Pattern == PatternYearly) {
		// Pinning to an ordinal week needs a weekday anchor; fall back to the
		// base event's weekday when the rule does not select any.
		weekdays := rule.Weekdays
		if len(weekdays) == 0 {
			weekdays = []time.Weekday{start.Weekday()}
		}
		opt.Byweekday = toRRuleWeekdays(weekdays)
		opt.Bysetpos = []int{rule.WeekOfMonth}
	}

	if rule.Occurrences > 0 {
		opt.Count = rule.Occurrences
	}
	if rule.EndsOn != nil {
		opt.Until = inclusiveEnd(rule.EndsOn.In(e.location))
	}

	return opt, nil
}

// inclusiveEnd widens a date-only termination bound to the end of that day so
// a series ending "on" a date still produces that day's occurrence.
func inclusiveEnd(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return t
}

func toRRuleWeekdays(weekdays []time.Weekday) []rrule.Weekday {
	if len(weekdays) == 0 {
		return nil
	}
	out := make([]rrule.Weekday, 0, len(weekdays))
	for _, day := range weekdays {
		out = append(out, rruleWeekdays[day])
	}
	return out
}

// exceptionDates keys exclusions by the calendar date they were supplied
// with. The date is read in the exception's own location so a date-only
// exclusion is never shifted across midnight by zone conversion.
func exceptionDates(exceptions []time.Time) map[string]struct{} {
	if len(exceptions) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(exceptions))
	for _, ex := range exceptions {
		out[ex.Format(time.DateOnly)] = struct{}{}
	}
	return out
}
