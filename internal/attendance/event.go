// Package attendance turns match decisions into recorded check-in events.
// The service composes a gallery snapshot, the matching engine, a dedup
// window and an optional notifier; storage backends plug in through the
// interfaces defined here.
package attendance

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is one accepted check-in. The ID is a ULID, so events sort by
// creation time even across processes.
type Event struct {
	ID          string    `json:"id"`
	PersonID    string    `json:"person_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Confidence  float64   `json:"confidence"`
	Source      string    `json:"source,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// EventFilter narrows an event listing. Zero fields are ignored; Until is
// exclusive, so [Since, Until) windows compose without overlap.
type EventFilter struct {
	PersonID string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// EventStore persists accepted check-ins.
type EventStore interface {
	// SaveEvent appends one event.
	SaveEvent(ctx context.Context, ev Event) error

	// ListEvents returns events matching the filter, newest first.
	ListEvents(ctx context.Context, f EventFilter) ([]Event, error)

	// CountEvents returns the total number of stored events.
	CountEvents(ctx context.Context) (int, error)
}

// Deduper suppresses repeated check-ins of the same person.
type Deduper interface {
	// Claim records a check-in attempt and reports whether it is the first
	// for this person within the window.
	Claim(ctx context.Context, personID string, window time.Duration) (bool, error)
}

// Notifier publishes accepted check-ins to external consumers.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// newEventID builds a ULID from the event timestamp.
func newEventID(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", fmt.Errorf("generating event id: %w", err)
	}
	return id.String(), nil
}
