package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// exportVersion guards the export file format for future compatibility.
const exportVersion = 1

// Export is the portable JSON form of a full gallery, used for backups and
// for moving enrollments between deployments.
type Export struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Persons    []Person  `json:"persons"`
	Entries    []Entry   `json:"entries"`
}

// NewExport captures the current gallery contents.
func NewExport(ctx context.Context, r Reader) (*Export, error) {
	persons, err := r.ListPersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}
	entries, err := r.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return &Export{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Persons:    persons,
		Entries:    entries,
	}, nil
}

// WriteFile exports the gallery to a JSON file.
func WriteFile(ctx context.Context, r Reader, path string) (*Export, error) {
	export, err := NewExport(ctx, r)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("writing export file: %w", err)
	}
	return export, nil
}

// ReadFile loads a gallery export from a JSON file.
func ReadFile(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export file: %w", err)
	}
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("unmarshaling export file %s: %w", path, err)
	}
	if export.Version != exportVersion {
		return nil, fmt.Errorf("unsupported export version %d (expected %d)", export.Version, exportVersion)
	}
	return &export, nil
}

// Apply writes an export into a store, upserting persons before their
// samples so entry saves never hit a missing person.
func (e *Export) Apply(ctx context.Context, w Writer) error {
	for _, p := range e.Persons {
		if err := w.UpsertPerson(ctx, p); err != nil {
			return fmt.Errorf("importing person %s: %w", p.ID, err)
		}
	}
	for _, entry := range e.Entries {
		if err := w.SaveEntry(ctx, entry); err != nil {
			return fmt.Errorf("importing sample %s/%s: %w", entry.PersonID, entry.SampleID, err)
		}
	}
	return nil
}
