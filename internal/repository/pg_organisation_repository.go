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
var _ OrganisationRepository = (*PgOrganisationRepository)(nil)

// PgOrganisationRepository is a PostgreSQL implementation of OrganisationRepository.
type PgOrganisationRepository struct {
	db DBTX
}

// NewPgOrganisationRepository creates a new PostgreSQL organisation repository.
func NewPgOrganisationRepository(db DBTX) *PgOrganisationRepository {
	return &PgOrganisationRepository{db: db}
}

const organisationColumns = `id, name, country, org_type, created_at, updated_at`

// Create inserts a new organisation.
func (r *PgOrganisationRepository) Create(ctx context.Context, org *domain.Organisation) (*domain.Organisation, error) {
	if org == nil {
		return nil, domain.NewValidationError("organisation", "organisation cannot be nil")
	}
	if strings.TrimSpace(org.Name) == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}

	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO organisations (id, name, country, org_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		org.ID,
		org.Name,
		nullIfEmpty(org.Country),
		nullIfEmpty(org.OrgType),
		now,
		now,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewAlreadyExistsError("organisation", org.Name)
		}
		return nil, fmt.Errorf("failed to create organisation: %w", err)
	}

	return org, nil
}

// Update persists all mutable fields of an existing organisation.
func (r *PgOrganisationRepository) Update(ctx context.Context, org *domain.Organisation) (*domain.Organisation, error) {
	if org == nil {
		return nil, domain.NewValidationError("organisation", "organisation cannot be nil")
	}
	if org.ID == uuid.Nil {
		return nil, domain.NewValidationError("id", "organisation ID is required")
	}

	query := `
		UPDATE organisations SET
			name = $2,
			country = $3,
			org_type = $4,
			updated_at = $5
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		org.ID,
		org.Name,
		nullIfEmpty(org.Country),
		nullIfEmpty(org.OrgType),
		time.Now().UTC(),
	).Scan(&org.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("organisation", org.ID.String())
		}
		return nil, fmt.Errorf("failed to update organisation: %w", err)
	}

	return org, nil
}

// GetByID retrieves an organisation by its UUID.
func (r *PgOrganisationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organisation, error) {
	query := fmt.Sprintf(`SELECT %s FROM organisations WHERE id = $1`, organisationColumns)

	org, err := scanOrganisation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("organisation", id.String())
		}
		return nil, fmt.Errorf("failed to get organisation by ID: %w", err)
	}

	return org, nil
}

// List retrieves organisations with pagination.
func (r *PgOrganisationRepository) List(ctx context.Context, limit, offset int) ([]*domain.Organisation, int64, error) {
	applyPaginationDefaults(&limit, &offset)

	var totalCount int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM organisations`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count organisations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM organisations
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`, organisationColumns)

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organisations: %w", err)
	}
	defer rows.Close()

	orgs := make([]*domain.Organisation, 0, limit)
	for rows.Next() {
		org, err := scanOrganisationFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan organisation: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating organisations: %w", err)
	}

	return orgs, totalCount, nil
}

// Delete removes an organisation.
func (r *PgOrganisationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM organisations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organisation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("organisation", id.String())
	}

	return nil
}

// organisationScanDest holds the destination pointers for scanning an Organisation row.
type organisationScanDest struct {
	org     domain.Organisation
	country *string
	orgType *string
}

// destinations returns the slice of pointers for Scan operations.
func (d *organisationScanDest) destinations() []interface{} {
	return []interface{}{
		&d.org.ID, &d.org.Name, &d.country, &d.orgType, &d.org.CreatedAt, &d.org.UpdatedAt,
	}
}

// finalize maps nullable columns onto the empty-string convention.
func (d *organisationScanDest) finalize() *domain.Organisation {
	d.org.Country = orEmpty(d.country)
	d.org.OrgType = orEmpty(d.orgType)
	return &d.org
}

// scanOrganisation scans a single row into an Organisation.
func scanOrganisation(row pgx.Row) (*domain.Organisation, error) {
	var dest organisationScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// scanOrganisationFromRows scans the current row from pgx.Rows into an Organisation.
func scanOrganisationFromRows(rows pgx.Rows) (*domain.Organisation, error) {
	var dest organisationScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}
