package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// AuthorRepository handles author persistence. The pipeline deduplicates
// authors by name, so name lookup is part of the contract.
type AuthorRepository interface {
	// Create inserts a new author. A nil ID is replaced with a fresh UUID.
	Create(ctx context.Context, author *domain.Author) (*domain.Author, error)

	// Update persists all mutable fields of an existing author.
	// Returns domain.ErrNotFound if the author does not exist.
	Update(ctx context.Context, author *domain.Author) (*domain.Author, error)

	// GetByID retrieves an author by its internal UUID.
	// Returns domain.ErrNotFound if no matching author exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// GetByName retrieves an author by case-insensitive (last, first) name match.
	// Returns domain.ErrNotFound if no matching author exists.
	GetByName(ctx context.Context, lastName, firstName string) (*domain.Author, error)

	// List retrieves authors with pagination, ordered by last name.
	// Returns the matching authors and total count.
	List(ctx context.Context, limit, offset int) ([]*domain.Author, int64, error)

	// Delete removes an author.
	// Returns domain.ErrNotFound if the author does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
