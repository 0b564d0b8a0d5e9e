package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// Compile-time interface verification.
var _ AuthorRepository = (*PgAuthorRepository)(nil)

// PgAuthorRepository is a PostgreSQL implementation of AuthorRepository.
type PgAuthorRepository struct {
	db DBTX
}

// NewPgAuthorRepository creates a new PostgreSQL author repository.
func NewPgAuthorRepository(db DBTX) *PgAuthorRepository {
	return &PgAuthorRepository{db: db}
}

const authorColumns = `id, last_name, first_name, email, orcid,
		semantic_scholar_id, h_index, created_at, updated_at`

// Create inserts a new author.
func (r *PgAuthorRepository) Create(ctx context.Context, author *domain.Author) (*domain.Author, error) {
	if author == nil {
		return nil, domain.NewValidationError("author", "author cannot be nil")
	}
	if strings.TrimSpace(author.LastName) == "" {
		return nil, domain.NewValidationError("last_name", "last name is required")
	}

	if author.ID == uuid.Nil {
		author.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO authors (
			id, last_name, first_name, email, orcid,
			semantic_scholar_id, h_index, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		author.ID,
		author.LastName,
		nullIfEmpty(author.FirstName),
		nullIfEmpty(author.Email),
		nullIfEmpty(author.ORCID),
		nullIfEmpty(author.SemanticScholarID),
		author.HIndex,
		now,
		now,
	).Scan(&author.ID, &author.CreatedAt, &author.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewAlreadyExistsError("author", author.FullName())
		}
		return nil, fmt.Errorf("failed to create author: %w", err)
	}

	return author, nil
}

// Update persists all mutable fields of an existing author.
func (r *PgAuthorRepository) Update(ctx context.Context, author *domain.Author) (*domain.Author, error) {
	if author == nil {
		return nil, domain.NewValidationError("author", "author cannot be nil")
	}
	if author.ID == uuid.Nil {
		return nil, domain.NewValidationError("id", "author ID is required")
	}

	query := `
		UPDATE authors SET
			last_name = $2,
			first_name = $3,
			email = $4,
			orcid = $5,
			semantic_scholar_id = $6,
			h_index = $7,
			updated_at = $8
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		author.ID,
		author.LastName,
		nullIfEmpty(author.FirstName),
		nullIfEmpty(author.Email),
		nullIfEmpty(author.ORCID),
		nullIfEmpty(author.SemanticScholarID),
		author.HIndex,
		time.Now().UTC(),
	).Scan(&author.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("author", author.ID.String())
		}
		return nil, fmt.Errorf("failed to update author: %w", err)
	}

	return author, nil
}

// GetByID retrieves an author by its UUID.
func (r *PgAuthorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	query := fmt.Sprintf(`SELECT %s FROM authors WHERE id = $1`, authorColumns)

	author, err := scanAuthor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("author", id.String())
		}
		return nil, fmt.Errorf("failed to get author by ID: %w", err)
	}

	return author, nil
}

// GetByName retrieves an author by case-insensitive (last, first) name match.
// A missing first name matches only authors without one.
func (r *PgAuthorRepository) GetByName(ctx context.Context, lastName, firstName string) (*domain.Author, error) {
	if strings.TrimSpace(lastName) == "" {
		return nil, domain.NewValidationError("last_name", "last name is required")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM authors
		WHERE LOWER(last_name) = LOWER($1)
		AND LOWER(COALESCE(first_name, '')) = LOWER($2)`, authorColumns)

	author, err := scanAuthor(r.db.QueryRow(ctx, query, lastName, firstName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("author", fmt.Sprintf("%s, %s", lastName, firstName))
		}
		return nil, fmt.Errorf("failed to get author by name: %w", err)
	}

	return author, nil
}

// List retrieves authors with pagination.
func (r *PgAuthorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Author, int64, error) {
	applyPaginationDefaults(&limit, &offset)

	var totalCount int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM authors`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count authors: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM authors
		ORDER BY last_name ASC, first_name ASC
		LIMIT $1 OFFSET $2`, authorColumns)

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	authors := make([]*domain.Author, 0, limit)
	for rows.Next() {
		author, err := scanAuthorFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, author)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating authors: %w", err)
	}

	return authors, totalCount, nil
}

// Delete removes an author.
func (r *PgAuthorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete author: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("author", id.String())
	}

	return nil
}

// authorScanDest holds the destination pointers for scanning an Author row.
type authorScanDest struct {
	author            domain.Author
	firstName         *string
	email             *string
	orcid             *string
	semanticScholarID *string
}

// destinations returns the slice of pointers for Scan operations.
func (d *authorScanDest) destinations() []interface{} {
	return []interface{}{
		&d.author.ID, &d.author.LastName, &d.firstName, &d.email, &d.orcid,
		&d.semanticScholarID, &d.author.HIndex, &d.author.CreatedAt, &d.author.UpdatedAt,
	}
}

// finalize maps nullable columns onto the empty-string convention.
func (d *authorScanDest) finalize() *domain.Author {
	d.author.FirstName = orEmpty(d.firstName)
	d.author.Email = orEmpty(d.email)
	d.author.ORCID = orEmpty(d.orcid)
	d.author.SemanticScholarID = orEmpty(d.semanticScholarID)
	return &d.author
}

// scanAuthor scans a single row into an Author.
func scanAuthor(row pgx.Row) (*domain.Author, error) {
	var dest authorScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// scanAuthorFromRows scans the current row from pgx.Rows into an Author.
func scanAuthorFromRows(rows pgx.Rows) (*domain.Author, error) {
	var dest authorScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}
