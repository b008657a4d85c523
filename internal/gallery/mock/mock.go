// Package mock provides a gallery store double with error injection for
// handler and service tests.
package mock

import (
	"context"

	"github.com/vbartonek/face-attendance/internal/gallery"
)

// Store wraps the in-memory gallery store and fails selected operations
// when the matching error field is set.
type Store struct {
	mem *gallery.Memory

	// Error injection
	GetPersonError       error
	ListPersonsError     error
	ListEntriesError     error
	EntriesByPersonError error
	GetStatsError        error
	UpsertPersonError    error
	SaveEntryError       error
	DeleteEntryError     error
	DeletePersonError    error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{mem: gallery.NewMemory()}
}

// Seed enrolls a person with the given entries, bypassing error injection.
func (s *Store) Seed(p gallery.Person, entries ...gallery.Entry) *Store {
	ctx := context.Background()
	if err := s.mem.UpsertPerson(ctx, p); err != nil {
		panic("seeding mock store: " + err.Error())
	}
	for _, e := range entries {
		if err := s.mem.SaveEntry(ctx, e); err != nil {
			panic("seeding mock store: " + err.Error())
		}
	}
	return s
}

func (s *Store) GetPerson(ctx context.Context, personID string) (*gallery.Person, error) {
	if s.GetPersonError != nil {
		return nil, s.GetPersonError
	}
	return s.mem.GetPerson(ctx, personID)
}

func (s *Store) ListPersons(ctx context.Context) ([]gallery.Person, error) {
	if s.ListPersonsError != nil {
		return nil, s.ListPersonsError
	}
	return s.mem.ListPersons(ctx)
}

func (s *Store) ListEntries(ctx context.Context) ([]gallery.Entry, error) {
	if s.ListEntriesError != nil {
		return nil, s.ListEntriesError
	}
	return s.mem.ListEntries(ctx)
}

func (s *Store) EntriesByPerson(ctx context.Context, personID string) ([]gallery.Entry, error) {
	if s.EntriesByPersonError != nil {
		return nil, s.EntriesByPersonError
	}
	return s.mem.EntriesByPerson(ctx, personID)
}

func (s *Store) GetStats(ctx context.Context) (gallery.Stats, error) {
	if s.GetStatsError != nil {
		return gallery.Stats{}, s.GetStatsError
	}
	return s.mem.GetStats(ctx)
}

func (s *Store) UpsertPerson(ctx context.Context, p gallery.Person) error {
	if s.UpsertPersonError != nil {
		return s.UpsertPersonError
	}
	return s.mem.UpsertPerson(ctx, p)
}

func (s *Store) SaveEntry(ctx context.Context, e gallery.Entry) error {
	if s.SaveEntryError != nil {
		return s.SaveEntryError
	}
	return s.mem.SaveEntry(ctx, e)
}

func (s *Store) DeleteEntry(ctx context.Context, personID, sampleID string) error {
	if s.DeleteEntryError != nil {
		return s.DeleteEntryError
	}
	return s.mem.DeleteEntry(ctx, personID, sampleID)
}

func (s *Store) DeletePerson(ctx context.Context, personID string) error {
	if s.DeletePersonError != nil {
		return s.DeletePersonError
	}
	return s.mem.DeletePerson(ctx, personID)
}
