package calendar

import "time"

// Summarize aggregates an already merged and filtered event set. It must be
// fed the exact slice a query returned; it never re-derives events on its
// own. Upcoming counts events starting strictly after now.
func Summarize(events []Event, now time.Time) Statistics {
	stats := Statistics{
		TotalEvents:      len(events),
		EventsByCategory: make(map[Category]int),
		EventsByPriority: make(map[Priority]int),
	}

	for _, event := range events {
		stats.EventsByCategory[event.Category]++
		stats.EventsByPriority[event.Priority]++
		if event.Start.After(now) {
			stats.UpcomingEvents++
		}
	}

	return stats
}
