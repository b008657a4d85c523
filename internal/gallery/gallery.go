// Package gallery defines the enrollment gallery model and the storage
// interfaces its backends implement. Entries hold raw detector landmark
// sets; pose normalization happens inside the matching engine per call.
package gallery

import (
	"context"
	"errors"
	"time"

	"github.com/vbartonek/face-attendance/internal/landmark"
)

// Sentinel errors shared by every store implementation.
var (
	ErrPersonNotFound = errors.New("person not found")
	ErrSampleNotFound = errors.New("sample not found")
)

// Person is an enrolled identity.
type Person struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	SampleCount int       `json:"sample_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Entry is one enrolled landmark sample of a person. Metadata is opaque to
// the matching engine and travels unchanged through stores and exports.
type Entry struct {
	PersonID    string            `json:"person_id"`
	SampleID    string            `json:"sample_id"`
	DisplayName string            `json:"display_name,omitempty"`
	Landmarks   landmark.Set      `json:"landmarks"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Stats summarizes gallery contents.
type Stats struct {
	Persons int `json:"persons"`
	Samples int `json:"samples"`
}

// Reader provides read access to the gallery.
type Reader interface {
	// GetPerson returns one person or ErrPersonNotFound.
	GetPerson(ctx context.Context, personID string) (*Person, error)

	// ListPersons returns all persons with sample counts, ordered by ID.
	ListPersons(ctx context.Context) ([]Person, error)

	// ListEntries returns a copy of every entry in the gallery. The slice
	// is a consistent point-in-time view safe to score concurrently.
	ListEntries(ctx context.Context) ([]Entry, error)

	// EntriesByPerson returns all entries for one person, ordered by sample ID.
	EntriesByPerson(ctx context.Context, personID string) ([]Entry, error)

	// GetStats returns gallery counts.
	GetStats(ctx context.Context) (Stats, error)
}

// Writer provides write access to the gallery.
type Writer interface {
	// UpsertPerson creates or updates a person record.
	UpsertPerson(ctx context.Context, p Person) error

	// SaveEntry stores a sample, replacing any existing sample with the
	// same (person, sample) pair. The person record must exist.
	SaveEntry(ctx context.Context, e Entry) error

	// DeleteEntry removes one sample or returns ErrSampleNotFound.
	DeleteEntry(ctx context.Context, personID, sampleID string) error

	// DeletePerson removes a person and all of their samples.
	DeletePerson(ctx context.Context, personID string) error
}

// Store combines read and write access.
type Store interface {
	Reader
	Writer
}
