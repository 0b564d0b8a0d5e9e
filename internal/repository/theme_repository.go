package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// ThemeRepository handles research theme persistence. The pipeline
// deduplicates themes by label.
type ThemeRepository interface {
	// Create inserts a new theme. A nil ID is replaced with a fresh UUID.
	// Returns domain.ErrAlreadyExists if the label is already taken.
	Create(ctx context.Context, theme *domain.Theme) (*domain.Theme, error)

	// GetByID retrieves a theme by its internal UUID.
	// Returns domain.ErrNotFound if no matching theme exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Theme, error)

	// GetByLabel retrieves a theme by case-insensitive label match.
	// Returns domain.ErrNotFound if no matching theme exists.
	GetByLabel(ctx context.Context, label string) (*domain.Theme, error)

	// List retrieves themes with pagination, ordered by label.
	// Returns the matching themes and total count.
	List(ctx context.Context, limit, offset int) ([]*domain.Theme, int64, error)

	// Delete removes a theme.
	// Returns domain.ErrNotFound if the theme does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
