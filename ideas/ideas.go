// Package ideas persists the dashboard's ideas backlog.
package ideas

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alghanim/clawboard/models"
)

const (
	DefaultStatus   = "proposed"
	DefaultPriority = "Medium"
)

// ErrTitleRequired is returned when a new idea has an empty title.
var ErrTitleRequired = errors.New("title is required")

// Store lists and appends ideas. Implementations serialize writers.
type Store interface {
	List(ctx context.Context) ([]models.Idea, error)
	Append(ctx context.Context, idea models.Idea) (models.Idea, error)
}

// NewIdea is the body accepted when creating an idea.
type NewIdea struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`
}

// Build validates n and fills the generated and defaulted fields.
func (n NewIdea) Build(now time.Time) (models.Idea, error) {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return models.Idea{}, ErrTitleRequired
	}
	idea := models.Idea{
		ID:          uuid.NewString(),
		Title:       title,
		Description: n.Description,
		Status:      n.Status,
		Priority:    n.Priority,
		Category:    n.Category,
		Tags:        n.Tags,
		CreatedAt:   now.UTC(),
	}
	if idea.Status == "" {
		idea.Status = DefaultStatus
	}
	if idea.Priority == "" {
		idea.Priority = DefaultPriority
	}
	if idea.Tags == nil {
		idea.Tags = []string{}
	}
	return idea, nil
}
