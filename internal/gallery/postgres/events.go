package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbartonek/face-attendance/internal/attendance"
)

// EventRepository persists attendance events.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a PostgreSQL-backed event store.
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// SaveEvent appends one event.
func (r *EventRepository) SaveEvent(ctx context.Context, ev attendance.Event) error {
	query := `
		INSERT INTO attendance_events (id, person_id, display_name, confidence, source, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, ev.ID, ev.PersonID, ev.DisplayName, ev.Confidence, ev.Source, ev.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns events matching the filter, newest first.
func (r *EventRepository) ListEvents(ctx context.Context, f attendance.EventFilter) ([]attendance.Event, error) {
	query := "SELECT id, person_id, display_name, confidence, source, recorded_at FROM attendance_events"

	var conds []string
	var args []any
	if f.PersonID != "" {
		args = append(args, f.PersonID)
		conds = append(conds, fmt.Sprintf("person_id = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf("recorded_at >= $%d", len(args)))
	}
	if !f.Until.IsZero() {
		args = append(args, f.Until)
		conds = append(conds, fmt.Sprintf("recorded_at < $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY recorded_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		var ev attendance.Event
		if err := rows.Scan(&ev.ID, &ev.PersonID, &ev.DisplayName, &ev.Confidence, &ev.Source, &ev.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CountEvents returns the total number of stored events.
func (r *EventRepository) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_events").Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// Verify interface compliance.
var _ attendance.EventStore = (*EventRepository)(nil)
