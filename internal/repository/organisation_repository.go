package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// OrganisationRepository handles organisation persistence for the API layer.
type OrganisationRepository interface {
	// Create inserts a new organisation. A nil ID is replaced with a fresh UUID.
	Create(ctx context.Context, org *domain.Organisation) (*domain.Organisation, error)

	// Update persists all mutable fields of an existing organisation.
	// Returns domain.ErrNotFound if the organisation does not exist.
	Update(ctx context.Context, org *domain.Organisation) (*domain.Organisation, error)

	// GetByID retrieves an organisation by its internal UUID.
	// Returns domain.ErrNotFound if no matching organisation exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organisation, error)

	// List retrieves organisations with pagination, ordered by name.
	// Returns the matching organisations and total count.
	List(ctx context.Context, limit, offset int) ([]*domain.Organisation, int64, error)

	// Delete removes an organisation.
	// Returns domain.ErrNotFound if the organisation does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
