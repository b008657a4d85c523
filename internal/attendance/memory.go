package attendance

import (
	"context"
	"sort"
	"sync"
)

// MemoryEvents is an in-process event store for single-node deployments
// and tests. Listings follow the same ordering as the SQL store: newest
// first, ties broken by ID descending.
type MemoryEvents struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryEvents creates an empty event store.
func NewMemoryEvents() *MemoryEvents {
	return &MemoryEvents{}
}

// SaveEvent appends one event.
func (m *MemoryEvents) SaveEvent(ctx context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// ListEvents returns events matching the filter, newest first.
func (m *MemoryEvents) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	m.mu.RLock()
	matched := make([]Event, 0)
	for _, ev := range m.events {
		if matchesFilter(ev, f) {
			matched = append(matched, ev)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].RecordedAt.Equal(matched[j].RecordedAt) {
			return matched[i].RecordedAt.After(matched[j].RecordedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// CountEvents returns the total number of stored events.
func (m *MemoryEvents) CountEvents(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events), nil
}

func matchesFilter(ev Event, f EventFilter) bool {
	if f.PersonID != "" && ev.PersonID != f.PersonID {
		return false
	}
	if !f.Since.IsZero() && ev.RecordedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !ev.RecordedAt.Before(f.Until) {
		return false
	}
	return true
}

var _ EventStore = (*MemoryEvents)(nil)
