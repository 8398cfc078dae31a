package ideas

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/alghanim/clawboard/models"
)

// PostgresStore keeps ideas in the ideas table.
type PostgresStore struct {
	DB *sql.DB
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Idea, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, description, status, priority, category, tags, created_at
		FROM ideas
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying ideas: %w", err)
	}
	defer rows.Close()

	list := []models.Idea{}
	for rows.Next() {
		var (
			idea     models.Idea
			desc     sql.NullString
			category sql.NullString
		)
		if err := rows.Scan(&idea.ID, &idea.Title, &desc, &idea.Status, &idea.Priority,
			&category, &idea.Tags, &idea.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning idea: %w", err)
		}
		idea.Description = models.NullStringToPtr(desc)
		idea.Category = models.NullStringToPtr(category)
		idea.CreatedAt = idea.CreatedAt.UTC()
		list = append(list, idea)
	}
	return list, rows.Err()
}

func (s *PostgresStore) Append(ctx context.Context, idea models.Idea) (models.Idea, error) {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO ideas (id, title, description, status, priority, category, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		idea.ID, idea.Title, models.PtrToNullString(idea.Description), idea.Status, idea.Priority,
		models.PtrToNullString(idea.Category), pq.Array([]string(idea.Tags)), idea.CreatedAt)
	if err != nil {
		return models.Idea{}, fmt.Errorf("inserting idea: %w", err)
	}
	return idea, nil
}
