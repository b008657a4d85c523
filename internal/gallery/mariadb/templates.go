package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

// GetPersons returns every legacy user as a gallery person. Legacy user IDs
// are numeric, so imported persons get stable "user-<id>" identifiers.
func (p *Pool) GetPersons(ctx context.Context) ([]gallery.Person, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT id, name, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var persons []gallery.Person
	for rows.Next() {
		var id int64
		var name string
		var createdAt sql.NullTime
		if err := rows.Scan(&id, &name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		person := gallery.Person{
			ID:          fmt.Sprintf("user-%d", id),
			DisplayName: name,
		}
		if createdAt.Valid {
			person.CreatedAt = createdAt.Time
		}
		persons = append(persons, person)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return persons, nil
}

// GetEntries returns every stored face template as a gallery entry, joined
// with its owner for the display name. Rows whose template JSON does not
// decode are skipped; the second return value counts them.
func (p *Pool) GetEntries(ctx context.Context) ([]gallery.Entry, int, error) {
	query := `
		SELECT t.id, t.user_id, u.name, t.template_json, t.source, t.quality, t.created_at
		FROM face_templates t
		JOIN users u ON u.id = t.user_id
		ORDER BY t.user_id, t.id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("query face templates: %w", err)
	}
	defer rows.Close()

	var entries []gallery.Entry
	skipped := 0
	for rows.Next() {
		var templateID, userID int64
		var name, templateJSON string
		var source sql.NullString
		var quality sql.NullFloat64
		var createdAt sql.NullTime
		if err := rows.Scan(&templateID, &userID, &name, &templateJSON, &source, &quality, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan face template: %w", err)
		}

		var set landmark.Set
		if err := json.Unmarshal([]byte(templateJSON), &set); err != nil || set.IsEmpty() {
			skipped++
			continue
		}
		if set.Quality == 0 && quality.Valid {
			set.Quality = quality.Float64
		}

		entry := gallery.Entry{
			PersonID:    fmt.Sprintf("user-%d", userID),
			SampleID:    fmt.Sprintf("legacy-%d", templateID),
			DisplayName: name,
			Landmarks:   set,
		}
		if source.Valid && source.String != "" {
			entry.Metadata = map[string]string{"source": source.String}
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate face templates: %w", err)
	}
	return entries, skipped, nil
}
