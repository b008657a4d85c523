package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

// Store implements gallery.Store on top of a connection pool.
type Store struct {
	pool *Pool
}

// NewStore creates a PostgreSQL-backed gallery store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// GetPerson returns one person with their sample count filled in.
func (s *Store) GetPerson(ctx context.Context, personID string) (*gallery.Person, error) {
	query := `
		SELECT p.id, p.display_name, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM samples s WHERE s.person_id = p.id)
		FROM persons p
		WHERE p.id = $1
	`

	var p gallery.Person
	err := s.pool.QueryRow(ctx, query, personID).
		Scan(&p.ID, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt, &p.SampleCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gallery.ErrPersonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query person: %w", err)
	}
	return &p, nil
}

// ListPersons returns all persons with sample counts, ordered by ID.
func (s *Store) ListPersons(ctx context.Context) ([]gallery.Person, error) {
	query := `
		SELECT p.id, p.display_name, p.created_at, p.updated_at, COUNT(sm.id)
		FROM persons p
		LEFT JOIN samples sm ON sm.person_id = p.id
		GROUP BY p.id
		ORDER BY p.id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", err)
	}
	defer rows.Close()

	persons := []gallery.Person{}
	for rows.Next() {
		var p gallery.Person
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt, &p.SampleCount); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return persons, nil
}

// ListEntries returns every entry ordered by person, then sample.
func (s *Store) ListEntries(ctx context.Context) ([]gallery.Entry, error) {
	query := `
		SELECT person_id, sample_id, display_name, landmarks, metadata, created_at
		FROM samples
		ORDER BY person_id, sample_id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// EntriesByPerson returns one person's entries ordered by sample ID.
func (s *Store) EntriesByPerson(ctx context.Context, personID string) ([]gallery.Entry, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM persons WHERE id = $1)", personID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check person exists: %w", err)
	}
	if !exists {
		return nil, gallery.ErrPersonNotFound
	}

	query := `
		SELECT person_id, sample_id, display_name, landmarks, metadata, created_at
		FROM samples
		WHERE person_id = $1
		ORDER BY sample_id
	`

	rows, err := s.pool.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("query samples by person: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetStats returns gallery counts.
func (s *Store) GetStats(ctx context.Context) (gallery.Stats, error) {
	var stats gallery.Stats
	err := s.pool.QueryRow(
		ctx, "SELECT (SELECT COUNT(*) FROM persons), (SELECT COUNT(*) FROM samples)",
	).Scan(&stats.Persons, &stats.Samples)
	if err != nil {
		return gallery.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

// UpsertPerson creates or updates a person, preserving the original
// creation time on update.
func (s *Store) UpsertPerson(ctx context.Context, p gallery.Person) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO persons (id, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, p.ID, p.DisplayName, createdAt); err != nil {
		return fmt.Errorf("upsert person: %w", err)
	}
	return nil
}

// SaveEntry stores a sample, replacing any existing sample with the same
// (person, sample) pair. The person record must exist.
func (s *Store) SaveEntry(ctx context.Context, e gallery.Entry) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var personName string
	err = tx.QueryRowContext(ctx, "SELECT display_name FROM persons WHERE id = $1", e.PersonID).Scan(&personName)
	if errors.Is(err, sql.ErrNoRows) {
		return gallery.ErrPersonNotFound
	}
	if err != nil {
		return fmt.Errorf("query person: %w", err)
	}

	if e.DisplayName == "" {
		e.DisplayName = personName
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	landmarks, err := json.Marshal(e.Landmarks)
	if err != nil {
		return fmt.Errorf("marshal landmarks: %w", err)
	}
	var metadata []byte
	if len(e.Metadata) > 0 {
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	// Sets without both outer eye corners yield an all-zero ratio vector;
	// those get a NULL signature so similarity search skips them.
	var signature any
	sig := landmark.Signature(e.Landmarks)
	for _, v := range sig {
		if v != 0 {
			signature = pgvector.NewVector(sig)
			break
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO samples (person_id, sample_id, display_name, landmarks, signature, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5::vector, $6, $7)
		ON CONFLICT (person_id, sample_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			landmarks = EXCLUDED.landmarks,
			signature = EXCLUDED.signature,
			metadata = EXCLUDED.metadata,
			created_at = EXCLUDED.created_at
	`, e.PersonID, e.SampleID, e.DisplayName, landmarks, signature, metadata, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert sample: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE persons SET updated_at = NOW() WHERE id = $1", e.PersonID); err != nil {
		return fmt.Errorf("touch person: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteEntry removes one sample.
func (s *Store) DeleteEntry(ctx context.Context, personID, sampleID string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM samples WHERE person_id = $1 AND sample_id = $2", personID, sampleID)
	if err != nil {
		return fmt.Errorf("delete sample: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sample result: %w", err)
	}
	if affected == 0 {
		return gallery.ErrSampleNotFound
	}
	return nil
}

// DeletePerson removes a person; their samples go with them via the
// foreign key cascade.
func (s *Store) DeletePerson(ctx context.Context, personID string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM persons WHERE id = $1", personID)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete person result: %w", err)
	}
	if affected == 0 {
		return gallery.ErrPersonNotFound
	}
	return nil
}

// SimilarSamples returns the stored samples closest to the probe's ratio
// signature by L2 distance. This is a coarse geometric shortlist, not a
// match decision.
func (s *Store) SimilarSamples(ctx context.Context, probe landmark.Set, limit int) ([]gallery.Neighbor, error) {
	sig := landmark.Signature(probe)
	usable := false
	for _, v := range sig {
		if v != 0 {
			usable = true
			break
		}
	}
	if !usable {
		return nil, errors.New("probe has no usable ratio signature")
	}

	query := `
		SELECT person_id, sample_id, signature <-> $1::vector AS distance
		FROM samples
		WHERE signature IS NOT NULL
		ORDER BY distance
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(sig), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar samples: %w", err)
	}
	defer rows.Close()

	var neighbors []gallery.Neighbor
	for rows.Next() {
		var n gallery.Neighbor
		if err := rows.Scan(&n.PersonID, &n.SampleID, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return neighbors, nil
}

// scanEntry reads one sample row, decoding the landmark and metadata JSONB.
func scanEntry(rows *sql.Rows) (gallery.Entry, error) {
	var e gallery.Entry
	var landmarks []byte
	var metadata []byte

	if err := rows.Scan(&e.PersonID, &e.SampleID, &e.DisplayName, &landmarks, &metadata, &e.CreatedAt); err != nil {
		return e, fmt.Errorf("scan sample: %w", err)
	}

	if err := json.Unmarshal(landmarks, &e.Landmarks); err != nil {
		return e, fmt.Errorf("decode landmarks for %s/%s: %w", e.PersonID, e.SampleID, err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return e, fmt.Errorf("decode metadata for %s/%s: %w", e.PersonID, e.SampleID, err)
		}
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]gallery.Entry, error) {
	var entries []gallery.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return entries, nil
}

// Verify interface compliance.
var _ gallery.Store = (*Store)(nil)
