package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-calendar/internal/persistence"
)

// CreateEvent inserts an event row together with its attendee, recurrence and
// attachment sub-records.
func (s *Store) CreateEvent(ctx context.Context, event persistence.EventRecord) (persistence.EventRecord, error) {
	if event.ID == "" {
		return persistence.EventRecord{}, persistence.ErrConstraintViolation
	}
	if event.End.Before(event.Start) {
		return persistence.EventRecord{}, persistence.ErrConstraintViolation
	}
	if err := validateRecurrenceRecord(event.Recurrence); err != nil {
		return persistence.EventRecord{}, err
	}

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		metadata, err := encodeMetadata(event.Metadata)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (id, title, description, start_time, end_time, category, priority,
				all_day, is_public, location, color, author_id, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID,
			event.Title,
			event.Description,
			event.Start.UTC().Format(time.RFC3339),
			event.End.UTC().Format(time.RFC3339),
			event.Category,
			event.Priority,
			boolToInt(event.AllDay),
			boolToInt(event.IsPublic),
			event.Location,
			event.Color,
			event.AuthorID,
			metadata,
			event.CreatedAt.Format(time.RFC3339),
			event.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return mapSQLiteError(err)
		}

		if err := insertAttendees(ctx, tx, event.ID, event.Attendees); err != nil {
			return err
		}
		if err := insertRecurrence(ctx, tx, event.ID, event.Recurrence, now); err != nil {
			return err
		}
		return insertAttachments(ctx, tx, event.ID, event.Attachments)
	})
	if err != nil {
		return persistence.EventRecord{}, err
	}

	return s.GetEvent(ctx, event.ID)
}

// GetEvent retrieves a single event with its sub-records.
func (s *Store) GetEvent(ctx context.Context, id string) (persistence.EventRecord, error) {
	if id == "" {
		return persistence.EventRecord{}, persistence.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, start_time, end_time, category, priority,
			all_day, is_public, location, color, author_id, metadata, created_at, updated_at
		FROM events WHERE id = ?`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.EventRecord{}, persistence.ErrNotFound
		}
		return persistence.EventRecord{}, err
	}

	if err := s.loadSubRecords(ctx, &event); err != nil {
		return persistence.EventRecord{}, err
	}
	return event, nil
}

// UpdateEvent replaces the event row and its sub-records. Only the author or
// an elevated caller may update; the author id itself is never changed.
func (s *Store) UpdateEvent(ctx context.Context, caller persistence.Caller, event persistence.EventRecord) (persistence.EventRecord, error) {
	if event.ID == "" {
		return persistence.EventRecord{}, persistence.ErrNotFound
	}
	if event.End.Before(event.Start) {
		return persistence.EventRecord{}, persistence.ErrConstraintViolation
	}
	if err := validateRecurrenceRecord(event.Recurrence); err != nil {
		return persistence.EventRecord{}, err
	}

	now := time.Now().UTC()

	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		authorID, err := authorOf(ctx, tx, event.ID)
		if err != nil {
			return err
		}
		if !caller.Elevated && caller.UserID != authorID {
			return persistence.ErrUnauthorized
		}

		metadata, err := encodeMetadata(event.Metadata)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE events
			SET title = ?, description = ?, start_time = ?, end_time = ?, category = ?,
				priority = ?, all_day = ?, is_public = ?, location = ?, color = ?,
				metadata = ?, updated_at = ?
			WHERE id = ?`,
			event.Title,
			event.Description,
			event.Start.UTC().Format(time.RFC3339),
			event.End.UTC().Format(time.RFC3339),
			event.Category,
			event.Priority,
			boolToInt(event.AllDay),
			boolToInt(event.IsPublic),
			event.Location,
			event.Color,
			metadata,
			now.Format(time.RFC3339),
			event.ID,
		)
		if err != nil {
			return mapSQLiteError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if err := deleteSubRecords(ctx, tx, event.ID); err != nil {
			return err
		}
		if err := insertAttendees(ctx, tx, event.ID, event.Attendees); err != nil {
			return err
		}
		if err := insertRecurrence(ctx, tx, event.ID, event.Recurrence, now); err != nil {
			return err
		}
		return insertAttachments(ctx, tx, event.ID, event.Attachments)
	})
	if err != nil {
		return persistence.EventRecord{}, err
	}

	return s.GetEvent(ctx, event.ID)
}

// DeleteEvent removes an event and cascades its sub-records. Only the author
// or an elevated caller may delete.
func (s *Store) DeleteEvent(ctx context.Context, caller persistence.Caller, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		authorID, err := authorOf(ctx, tx, id)
		if err != nil {
			return err
		}
		if !caller.Elevated && caller.UserID != authorID {
			return persistence.ErrUnauthorized
		}

		if err := deleteSubRecords(ctx, tx, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
		if err != nil {
			return mapSQLiteError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// ListEvents returns events matching the filter ordered by start time then
// id, each carrying its sub-records.
func (s *Store) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.EventRecord, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var events []persistence.EventRecord
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	for i := range events {
		if err := s.loadSubRecords(ctx, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func buildListQuery(filter persistence.EventFilter) (string, []any) {
	query := `
		SELECT id, title, description, start_time, end_time, category, priority,
			all_day, is_public, location, color, author_id, metadata, created_at, updated_at
		FROM events`

	var conditions []string
	var args []any

	if filter.StartsAfter != nil {
		// A recurring base stores only its anchor span; its occurrences may
		// fall long after end_time, so recurring events are exempt from the
		// lower bound and left for the expansion step to clip.
		conditions = append(conditions,
			"(end_time >= ? OR EXISTS (SELECT 1 FROM recurrences WHERE event_id = events.id))")
		args = append(args, filter.StartsAfter.UTC().Format(time.RFC3339))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time <= ?")
		args = append(args, filter.EndsBefore.UTC().Format(time.RFC3339))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			placeholders[i] = "?"
			args = append(args, category)
		}
		conditions = append(conditions, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.Caller != nil && !filter.Caller.Elevated && filter.Caller.UserID == "" {
		// Anonymous callers can only ever see public events.
		conditions = append(conditions, "is_public = 1")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (persistence.EventRecord, error) {
	var event persistence.EventRecord
	var startStr, endStr, createdStr, updatedStr, metadataStr string
	var allDay, isPublic int

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&startStr,
		&endStr,
		&event.Category,
		&event.Priority,
		&allDay,
		&isPublic,
		&event.Location,
		&event.Color,
		&event.AuthorID,
		&metadataStr,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.EventRecord{}, err
	}

	event.AllDay = allDay != 0
	event.IsPublic = isPublic != 0

	if event.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.EventRecord{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if event.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.EventRecord{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if event.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return persistence.EventRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if event.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return persistence.EventRecord{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if event.Metadata, err = decodeMetadata(metadataStr); err != nil {
		return persistence.EventRecord{}, err
	}

	return event, nil
}

func (s *Store) loadSubRecords(ctx context.Context, event *persistence.EventRecord) error {
	attendees, err := s.loadAttendees(ctx, event.ID)
	if err != nil {
		return err
	}
	event.Attendees = attendees

	rule, err := s.loadRecurrence(ctx, event.ID)
	if err != nil {
		return err
	}
	event.Recurrence = rule

	attachments, err := s.loadAttachments(ctx, event.ID)
	if err != nil {
		return err
	}
	event.Attachments = attachments
	return nil
}

func (s *Store) loadAttendees(ctx context.Context, eventID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM event_attendees WHERE event_id = ? ORDER BY user_id ASC", eventID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var attendees []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		attendees = append(attendees, userID)
	}
	return attendees, rows.Err()
}

func (s *Store) loadRecurrence(ctx context.Context, eventID string) (*persistence.RecurrenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, pattern, repeat_interval, weekdays, month_of_year,
			week_of_month, ends_on, occurrence_count, exceptions, created_at, updated_at
		FROM recurrences WHERE event_id = ?`, eventID)

	var rule persistence.RecurrenceRecord
	var weekdaysStr, exceptionsStr, createdStr, updatedStr string
	var endsOn sql.NullString

	err := row.Scan(
		&rule.ID,
		&rule.EventID,
		&rule.Pattern,
		&rule.Interval,
		&weekdaysStr,
		&rule.MonthOfYear,
		&rule.WeekOfMonth,
		&endsOn,
		&rule.Occurrences,
		&exceptionsStr,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if rule.Weekdays, err = parseWeekdays(weekdaysStr); err != nil {
		return nil, err
	}
	if rule.Exceptions, err = parseExceptions(exceptionsStr); err != nil {
		return nil, err
	}
	if endsOn.Valid {
		t, err := time.Parse(time.RFC3339, endsOn.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ends_on: %w", err)
		}
		rule.EndsOn = &t
	}
	if rule.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if rule.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &rule, nil
}

func (s *Store) loadAttachments(ctx context.Context, eventID string) ([]persistence.AttachmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, name, url, mime_type, size
		FROM attachments WHERE event_id = ? ORDER BY id ASC`, eventID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var attachments []persistence.AttachmentRecord
	for rows.Next() {
		var att persistence.AttachmentRecord
		if err := rows.Scan(&att.ID, &att.EventID, &att.Name, &att.URL, &att.Type, &att.Size); err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}

func authorOf(ctx context.Context, tx *sql.Tx, eventID string) (string, error) {
	var authorID string
	err := tx.QueryRowContext(ctx, "SELECT author_id FROM events WHERE id = ?", eventID).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", persistence.ErrNotFound
		}
		return "", mapSQLiteError(err)
	}
	return authorID, nil
}

func insertAttendees(ctx context.Context, tx *sql.Tx, eventID string, attendees []string) error {
	seen := make(map[string]struct{}, len(attendees))
	for _, attendee := range attendees {
		attendee = strings.TrimSpace(attendee)
		if attendee == "" {
			continue
		}
		if _, ok := seen[attendee]; ok {
			continue
		}
		seen[attendee] = struct{}{}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO event_attendees (event_id, user_id) VALUES (?, ?)", eventID, attendee)
		if err != nil {
			return mapSQLiteError(err)
		}
	}
	return nil
}

func insertRecurrence(ctx context.Context, tx *sql.Tx, eventID string, rule *persistence.RecurrenceRecord, now time.Time) error {
	if rule == nil {
		return nil
	}

	id := rule.ID
	if id == "" {
		id = uuid.NewString()
	}

	var endsOn sql.NullString
	if rule.EndsOn != nil {
		endsOn.String = rule.EndsOn.UTC().Format(time.RFC3339)
		endsOn.Valid = true
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO recurrences (id, event_id, pattern, repeat_interval, weekdays,
			month_of_year, week_of_month, ends_on, occurrence_count, exceptions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		eventID,
		rule.Pattern,
		rule.Interval,
		formatWeekdays(rule.Weekdays),
		rule.MonthOfYear,
		rule.WeekOfMonth,
		endsOn,
		rule.Occurrences,
		formatExceptions(rule.Exceptions),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	return mapSQLiteError(err)
}

func insertAttachments(ctx context.Context, tx *sql.Tx, eventID string, attachments []persistence.AttachmentRecord) error {
	for _, att := range attachments {
		id := att.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO attachments (id, event_id, name, url, mime_type, size) VALUES (?, ?, ?, ?, ?, ?)",
			id, eventID, att.Name, att.URL, att.Type, att.Size)
		if err != nil {
			return mapSQLiteError(err)
		}
	}
	return nil
}

func deleteSubRecords(ctx context.Context, tx *sql.Tx, eventID string) error {
	for _, table := range []string{"event_attendees", "recurrences", "attachments"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE event_id = ?", table), eventID); err != nil {
			return mapSQLiteError(err)
		}
	}
	return nil
}

// validateRecurrenceRecord rejects malformed rules before any row is written,
// mirroring the checks the schema enforces.
func validateRecurrenceRecord(rule *persistence.RecurrenceRecord) error {
	if rule == nil {
		return nil
	}
	if rule.Interval < 1 {
		return persistence.ErrConstraintViolation
	}
	if rule.EndsOn != nil && rule.Occurrences > 0 {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(raw), nil
}

func decodeMetadata(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return metadata, nil
}

func formatWeekdays(weekdays []time.Weekday) string {
	if len(weekdays) == 0 {
		return ""
	}
	parts := make([]string, len(weekdays))
	for i, day := range weekdays {
		parts[i] = strconv.Itoa(int(day))
	}
	return strings.Join(parts, ",")
}

func parseWeekdays(raw string) ([]time.Weekday, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	weekdays := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday value %q", part)
		}
		weekdays = append(weekdays, time.Weekday(n))
	}
	return weekdays, nil
}

func formatExceptions(exceptions []time.Time) string {
	if len(exceptions) == 0 {
		return ""
	}
	parts := make([]string, len(exceptions))
	for i, ex := range exceptions {
		parts[i] = ex.Format(time.DateOnly)
	}
	return strings.Join(parts, ",")
}

func parseExceptions(raw string) ([]time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	exceptions := make([]time.Time, 0, len(parts))
	for _, part := range parts {
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid exception date %q", part)
		}
		exceptions = append(exceptions, t)
	}
	return exceptions, nil
}
