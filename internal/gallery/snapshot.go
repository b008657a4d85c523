package gallery

import (
	"context"
	"sync"
	"time"
)

// DefaultSnapshotTTL is how long a cached gallery view stays fresh.
const DefaultSnapshotTTL = 30 * time.Second

// Snapshot caches a point-in-time view of the gallery so the identify hot
// path does not hit the store on every frame. The cached slice is replaced,
// never mutated, so callers may keep scoring a stale view while a reload
// runs.
type Snapshot struct {
	reader Reader
	ttl    time.Duration

	mu       sync.RWMutex
	entries  []Entry
	loadedAt time.Time
}

// NewSnapshot wraps a reader with a TTL cache. A non-positive ttl falls back
// to DefaultSnapshotTTL.
func NewSnapshot(reader Reader, ttl time.Duration) *Snapshot {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Snapshot{reader: reader, ttl: ttl}
}

// Entries returns the cached entries, reloading from the store when the
// cache is stale. Concurrent callers during a reload each fetch; the last
// write wins, which is harmless since every fetch is a valid view.
func (s *Snapshot) Entries(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	fresh := s.entries != nil && time.Since(s.loadedAt) < s.ttl
	entries := s.entries
	s.mu.RUnlock()
	if fresh {
		return entries, nil
	}

	loaded, err := s.reader.ListEntries(ctx)
	if err != nil {
		// Serve the stale view if one exists rather than failing identify.
		if entries != nil {
			return entries, nil
		}
		return nil, err
	}
	if loaded == nil {
		loaded = []Entry{}
	}

	s.mu.Lock()
	s.entries = loaded
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return loaded, nil
}

// Invalidate drops the cached view so the next read reloads. Call it after
// enrollment writes.
func (s *Snapshot) Invalidate() {
	s.mu.Lock()
	s.entries = nil
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}
