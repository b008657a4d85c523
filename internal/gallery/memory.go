package gallery

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store. It backs the single-process CLI mode and
// tests. Writes replace stored values wholesale, so slices handed out by
// earlier reads stay valid snapshots.
type Memory struct {
	mu      sync.RWMutex
	persons map[string]Person
	entries map[string]map[string]Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		persons: make(map[string]Person),
		entries: make(map[string]map[string]Entry),
	}
}

// GetPerson returns one person with their sample count filled in.
func (m *Memory) GetPerson(ctx context.Context, personID string) (*Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.persons[personID]
	if !ok {
		return nil, ErrPersonNotFound
	}
	p.SampleCount = len(m.entries[personID])
	return &p, nil
}

// ListPersons returns all persons ordered by ID.
func (m *Memory) ListPersons(ctx context.Context) ([]Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	persons := make([]Person, 0, len(m.persons))
	for id, p := range m.persons {
		p.SampleCount = len(m.entries[id])
		persons = append(persons, p)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })
	return persons, nil
}

// ListEntries returns every entry ordered by person, then sample.
func (m *Memory) ListEntries(ctx context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for _, samples := range m.entries {
		for _, e := range samples {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PersonID != entries[j].PersonID {
			return entries[i].PersonID < entries[j].PersonID
		}
		return entries[i].SampleID < entries[j].SampleID
	})
	return entries, nil
}

// EntriesByPerson returns one person's entries ordered by sample ID.
func (m *Memory) EntriesByPerson(ctx context.Context, personID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.persons[personID]; !ok {
		return nil, ErrPersonNotFound
	}
	samples := m.entries[personID]
	entries := make([]Entry, 0, len(samples))
	for _, e := range samples {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SampleID < entries[j].SampleID })
	return entries, nil
}

// GetStats returns gallery counts.
func (m *Memory) GetStats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Persons: len(m.persons)}
	for _, samples := range m.entries {
		stats.Samples += len(samples)
	}
	return stats, nil
}

// UpsertPerson creates or updates a person, preserving the original
// creation time on update.
func (m *Memory) UpsertPerson(ctx context.Context, p Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.persons[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.SampleCount = 0
	m.persons[p.ID] = p
	return nil
}

// SaveEntry stores a sample for an existing person, replacing any previous
// sample with the same ID. The stored copy owns its own landmark slices.
func (m *Memory) SaveEntry(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.persons[e.PersonID]
	if !ok {
		return ErrPersonNotFound
	}
	if e.DisplayName == "" {
		e.DisplayName = p.DisplayName
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Landmarks = e.Landmarks.Clone()
	if e.Metadata != nil {
		meta := make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = v
		}
		e.Metadata = meta
	}

	if m.entries[e.PersonID] == nil {
		m.entries[e.PersonID] = make(map[string]Entry)
	}
	m.entries[e.PersonID][e.SampleID] = e

	p.UpdatedAt = time.Now().UTC()
	m.persons[e.PersonID] = p
	return nil
}

// DeleteEntry removes one sample.
func (m *Memory) DeleteEntry(ctx context.Context, personID, sampleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples, ok := m.entries[personID]
	if !ok {
		return ErrSampleNotFound
	}
	if _, ok := samples[sampleID]; !ok {
		return ErrSampleNotFound
	}
	delete(samples, sampleID)
	return nil
}

// DeletePerson removes a person and all of their samples.
func (m *Memory) DeletePerson(ctx context.Context, personID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.persons[personID]; !ok {
		return ErrPersonNotFound
	}
	delete(m.persons, personID)
	delete(m.entries, personID)
	return nil
}
