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
var _ PublicationRepository = (*PgPublicationRepository)(nil)

// PgPublicationRepository is a PostgreSQL implementation of PublicationRepository.
type PgPublicationRepository struct {
	db DBTX
}

// NewPgPublicationRepository creates a new PostgreSQL publication repository.
func NewPgPublicationRepository(db DBTX) *PgPublicationRepository {
	return &PgPublicationRepository{db: db}
}

const publicationColumns = `id, title, abstract, doi, arxiv_id, url, venue,
		publication_date, publication_type, status, citation_count, author_count,
		source, semantic_scholar_id, created_at, updated_at`

// Create inserts a new publication.
func (r *PgPublicationRepository) Create(ctx context.Context, pub *domain.Publication) (*domain.Publication, error) {
	if pub == nil {
		return nil, domain.NewValidationError("publication", "publication cannot be nil")
	}
	if strings.TrimSpace(pub.Title) == "" {
		return nil, domain.NewValidationError("title", "title is required")
	}

	if pub.ID == uuid.Nil {
		pub.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO publications (
			id, title, abstract, doi, arxiv_id, url, venue,
			publication_date, publication_type, status, citation_count, author_count,
			source, semantic_scholar_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		pub.ID,
		pub.Title,
		nullIfEmpty(pub.Abstract),
		nullIfEmpty(pub.DOI),
		nullIfEmpty(pub.ArxivID),
		nullIfEmpty(pub.URL),
		nullIfEmpty(pub.Venue),
		pub.PublicationDate,
		pub.Type,
		pub.Status,
		pub.CitationCount,
		pub.AuthorCount,
		nullIfEmpty(pub.Source),
		nullIfEmpty(pub.SemanticScholarID),
		now,
		now,
	).Scan(&pub.ID, &pub.CreatedAt, &pub.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewAlreadyExistsError("publication", pub.Title)
		}
		return nil, fmt.Errorf("failed to create publication: %w", err)
	}

	return pub, nil
}

// Update persists all mutable fields of an existing publication.
func (r *PgPublicationRepository) Update(ctx context.Context, pub *domain.Publication) (*domain.Publication, error) {
	if pub == nil {
		return nil, domain.NewValidationError("publication", "publication cannot be nil")
	}
	if pub.ID == uuid.Nil {
		return nil, domain.NewValidationError("id", "publication ID is required")
	}

	query := `
		UPDATE publications SET
			title = $2,
			abstract = $3,
			doi = $4,
			arxiv_id = $5,
			url = $6,
			venue = $7,
			publication_date = $8,
			publication_type = $9,
			status = $10,
			citation_count = $11,
			author_count = $12,
			source = $13,
			semantic_scholar_id = $14,
			updated_at = $15
		WHERE id = $1
		RETURNING updated_at`

	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query,
		pub.ID,
		pub.Title,
		nullIfEmpty(pub.Abstract),
		nullIfEmpty(pub.DOI),
		nullIfEmpty(pub.ArxivID),
		nullIfEmpty(pub.URL),
		nullIfEmpty(pub.Venue),
		pub.PublicationDate,
		pub.Type,
		pub.Status,
		pub.CitationCount,
		pub.AuthorCount,
		nullIfEmpty(pub.Source),
		nullIfEmpty(pub.SemanticScholarID),
		now,
	).Scan(&pub.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("publication", pub.ID.String())
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewAlreadyExistsError("publication", pub.Title)
		}
		return nil, fmt.Errorf("failed to update publication: %w", err)
	}

	return pub, nil
}

// GetByID retrieves a publication by its UUID.
func (r *PgPublicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Publication, error) {
	query := fmt.Sprintf(`SELECT %s FROM publications WHERE id = $1`, publicationColumns)

	pub, err := scanPublication(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("publication", id.String())
		}
		return nil, fmt.Errorf("failed to get publication by ID: %w", err)
	}

	return pub, nil
}

// GetByDOI retrieves a publication by its DOI.
func (r *PgPublicationRepository) GetByDOI(ctx context.Context, doi string) (*domain.Publication, error) {
	if strings.TrimSpace(doi) == "" {
		return nil, domain.NewValidationError("doi", "DOI is required")
	}

	query := fmt.Sprintf(`SELECT %s FROM publications WHERE doi = $1`, publicationColumns)

	pub, err := scanPublication(r.db.QueryRow(ctx, query, doi))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("publication", doi)
		}
		return nil, fmt.Errorf("failed to get publication by DOI: %w", err)
	}

	return pub, nil
}

// GetByArxivID retrieves a publication by its arXiv identifier.
func (r *PgPublicationRepository) GetByArxivID(ctx context.Context, arxivID string) (*domain.Publication, error) {
	if strings.TrimSpace(arxivID) == "" {
		return nil, domain.NewValidationError("arxiv_id", "arXiv ID is required")
	}

	query := fmt.Sprintf(`SELECT %s FROM publications WHERE arxiv_id = $1`, publicationColumns)

	pub, err := scanPublication(r.db.QueryRow(ctx, query, arxivID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("publication", arxivID)
		}
		return nil, fmt.Errorf("failed to get publication by arXiv ID: %w", err)
	}

	return pub, nil
}

// List retrieves publications matching the filter criteria.
func (r *PgPublicationRepository) List(ctx context.Context, filter PublicationFilter) ([]*domain.Publication, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	// Build dynamic WHERE clause
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Source != nil {
		conditions = append(conditions, fmt.Sprintf("p.source = $%d", argIndex))
		args = append(args, *filter.Source)
		argIndex++
	}

	if filter.Theme != nil {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM publication_themes pt WHERE pt.publication_id = p.id AND pt.theme_id = $%d)", argIndex))
		args = append(args, *filter.Theme)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total matching records
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM publications p %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count publications: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT p.id, p.title, p.abstract, p.doi, p.arxiv_id, p.url, p.venue,
			p.publication_date, p.publication_type, p.status, p.citation_count, p.author_count,
			p.source, p.semantic_scholar_id, p.created_at, p.updated_at
		FROM publications p
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list publications: %w", err)
	}
	defer rows.Close()

	pubs, err := collectPublications(rows, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	return pubs, totalCount, nil
}

// ListAll retrieves every publication, most recent first.
func (r *PgPublicationRepository) ListAll(ctx context.Context) ([]*domain.Publication, error) {
	query := fmt.Sprintf(`SELECT %s FROM publications ORDER BY created_at DESC`, publicationColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	defer rows.Close()

	return collectPublications(rows, 0)
}

// ListForEnrichment retrieves publications eligible for enrichment.
func (r *PgPublicationRepository) ListForEnrichment(ctx context.Context, ids []uuid.UUID, forceUpdate bool) ([]*domain.Publication, error) {
	conditions := []string{"(doi IS NOT NULL OR arxiv_id IS NOT NULL)"}
	var args []interface{}
	argIndex := 1

	if !forceUpdate {
		conditions = append(conditions, "citation_count = 0")
	}

	if len(ids) > 0 {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argIndex))
		args = append(args, ids)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM publications
		WHERE %s
		ORDER BY created_at ASC`,
		publicationColumns, strings.Join(conditions, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications for enrichment: %w", err)
	}
	defer rows.Close()

	return collectPublications(rows, 0)
}

// LinkAuthor associates an author with a publication at the given position.
func (r *PgPublicationRepository) LinkAuthor(ctx context.Context, publicationID, authorID uuid.UUID, position int) error {
	if position < 1 {
		return domain.NewValidationError("position", "position must be >= 1")
	}

	query := `
		INSERT INTO publication_authors (publication_id, author_id, position)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`

	_, err := r.db.Exec(ctx, query, publicationID, authorID, position)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.NewNotFoundError("publication or author", publicationID.String())
		}
		return fmt.Errorf("failed to link author: %w", err)
	}

	return nil
}

// LinkTheme associates a theme with a publication.
func (r *PgPublicationRepository) LinkTheme(ctx context.Context, publicationID, themeID uuid.UUID) error {
	query := `
		INSERT INTO publication_themes (publication_id, theme_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	_, err := r.db.Exec(ctx, query, publicationID, themeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.NewNotFoundError("publication or theme", publicationID.String())
		}
		return fmt.Errorf("failed to link theme: %w", err)
	}

	return nil
}

// ListAuthors retrieves the authors of a publication ordered by position.
func (r *PgPublicationRepository) ListAuthors(ctx context.Context, publicationID uuid.UUID) ([]*domain.Author, error) {
	query := `
		SELECT a.id, a.last_name, a.first_name, a.email, a.orcid,
			a.semantic_scholar_id, a.h_index, a.created_at, a.updated_at
		FROM authors a
		INNER JOIN publication_authors pa ON pa.author_id = a.id
		WHERE pa.publication_id = $1
		ORDER BY pa.position ASC`

	rows, err := r.db.Query(ctx, query, publicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list publication authors: %w", err)
	}
	defer rows.Close()

	var authors []*domain.Author
	for rows.Next() {
		author, err := scanAuthorFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, author)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating authors: %w", err)
	}

	return authors, nil
}

// Delete removes a publication and its associations.
func (r *PgPublicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM publications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete publication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("publication", id.String())
	}

	return nil
}

// publicationScanDest holds the destination pointers for scanning a Publication row.
type publicationScanDest struct {
	pub               domain.Publication
	abstract          *string
	doi               *string
	arxivID           *string
	url               *string
	venue             *string
	source            *string
	semanticScholarID *string
}

// destinations returns the slice of pointers for Scan operations.
func (d *publicationScanDest) destinations() []interface{} {
	return []interface{}{
		&d.pub.ID, &d.pub.Title, &d.abstract, &d.doi, &d.arxivID, &d.url, &d.venue,
		&d.pub.PublicationDate, &d.pub.Type, &d.pub.Status, &d.pub.CitationCount, &d.pub.AuthorCount,
		&d.source, &d.semanticScholarID, &d.pub.CreatedAt, &d.pub.UpdatedAt,
	}
}

// finalize maps nullable columns onto the empty-string convention.
func (d *publicationScanDest) finalize() *domain.Publication {
	d.pub.Abstract = orEmpty(d.abstract)
	d.pub.DOI = orEmpty(d.doi)
	d.pub.ArxivID = orEmpty(d.arxivID)
	d.pub.URL = orEmpty(d.url)
	d.pub.Venue = orEmpty(d.venue)
	d.pub.Source = orEmpty(d.source)
	d.pub.SemanticScholarID = orEmpty(d.semanticScholarID)
	return &d.pub
}

// scanPublication scans a single row into a Publication.
func scanPublication(row pgx.Row) (*domain.Publication, error) {
	var dest publicationScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// scanPublicationFromRows scans the current row from pgx.Rows into a Publication.
func scanPublicationFromRows(rows pgx.Rows) (*domain.Publication, error) {
	var dest publicationScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// collectPublications drains rows into a slice. The capacity hint may be zero.
func collectPublications(rows pgx.Rows, capacity int) ([]*domain.Publication, error) {
	pubs := make([]*domain.Publication, 0, capacity)
	for rows.Next() {
		pub, err := scanPublicationFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		pubs = append(pubs, pub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publications: %w", err)
	}

	return pubs, nil
}
