package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"remindbot/internal/database"
	"remindbot/internal/models"
)

type TagRepository struct {
	db *database.DB
}

func NewTagRepository(db *database.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetOrCreate resolves tag names to rows, creating missing ones lazily.
// Names are normalized (trimmed, lower-cased) so "Work" and "work" share
// a row; blanks are skipped.
func (r *TagRepository) GetOrCreate(ctx context.Context, names []string) ([]*models.Tag, error) {
	var tags []*models.Tag
	seen := make(map[string]bool)

	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag := &models.Tag{Name: name}
		err := r.db.Pool.QueryRow(ctx,
			`INSERT INTO tags (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			name,
		).Scan(&tag.ID)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// GetByEvent returns the tags linked to an event, alphabetically.
func (r *TagRepository) GetByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Tag, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT t.id, t.name FROM tags t
		 JOIN event_tags et ON et.tag_id = t.id
		 WHERE et.event_id = $1
		 ORDER BY t.name ASC`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
