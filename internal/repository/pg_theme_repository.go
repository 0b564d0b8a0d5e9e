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
var _ ThemeRepository = (*PgThemeRepository)(nil)

// PgThemeRepository is a PostgreSQL implementation of ThemeRepository.
type PgThemeRepository struct {
	db DBTX
}

// NewPgThemeRepository creates a new PostgreSQL theme repository.
func NewPgThemeRepository(db DBTX) *PgThemeRepository {
	return &PgThemeRepository{db: db}
}

const themeColumns = `id, label, description, hierarchy_level, parent_id, created_at, updated_at`

// Create inserts a new theme.
func (r *PgThemeRepository) Create(ctx context.Context, theme *domain.Theme) (*domain.Theme, error) {
	if theme == nil {
		return nil, domain.NewValidationError("theme", "theme cannot be nil")
	}
	if strings.TrimSpace(theme.Label) == "" {
		return nil, domain.NewValidationError("label", "label is required")
	}

	if theme.ID == uuid.Nil {
		theme.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO themes (id, label, description, hierarchy_level, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		theme.ID,
		theme.Label,
		nullIfEmpty(theme.Description),
		theme.HierarchyLevel,
		theme.ParentID,
		now,
		now,
	).Scan(&theme.ID, &theme.CreatedAt, &theme.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewAlreadyExistsError("theme", theme.Label)
		}
		return nil, fmt.Errorf("failed to create theme: %w", err)
	}

	return theme, nil
}

// GetByID retrieves a theme by its UUID.
func (r *PgThemeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Theme, error) {
	query := fmt.Sprintf(`SELECT %s FROM themes WHERE id = $1`, themeColumns)

	theme, err := scanTheme(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("theme", id.String())
		}
		return nil, fmt.Errorf("failed to get theme by ID: %w", err)
	}

	return theme, nil
}

// GetByLabel retrieves a theme by case-insensitive label match.
func (r *PgThemeRepository) GetByLabel(ctx context.Context, label string) (*domain.Theme, error) {
	if strings.TrimSpace(label) == "" {
		return nil, domain.NewValidationError("label", "label is required")
	}

	query := fmt.Sprintf(`SELECT %s FROM themes WHERE LOWER(label) = LOWER($1)`, themeColumns)

	theme, err := scanTheme(r.db.QueryRow(ctx, query, label))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("theme", label)
		}
		return nil, fmt.Errorf("failed to get theme by label: %w", err)
	}

	return theme, nil
}

// List retrieves themes with pagination.
func (r *PgThemeRepository) List(ctx context.Context, limit, offset int) ([]*domain.Theme, int64, error) {
	applyPaginationDefaults(&limit, &offset)

	var totalCount int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM themes`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count themes: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM themes
		ORDER BY label ASC
		LIMIT $1 OFFSET $2`, themeColumns)

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list themes: %w", err)
	}
	defer rows.Close()

	themes := make([]*domain.Theme, 0, limit)
	for rows.Next() {
		theme, err := scanThemeFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan theme: %w", err)
		}
		themes = append(themes, theme)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating themes: %w", err)
	}

	return themes, totalCount, nil
}

// Delete removes a theme.
func (r *PgThemeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM themes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete theme: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("theme", id.String())
	}

	return nil
}

// themeScanDest holds the destination pointers for scanning a Theme row.
type themeScanDest struct {
	theme       domain.Theme
	description *string
}

// destinations returns the slice of pointers for Scan operations.
func (d *themeScanDest) destinations() []interface{} {
	return []interface{}{
		&d.theme.ID, &d.theme.Label, &d.description, &d.theme.HierarchyLevel,
		&d.theme.ParentID, &d.theme.CreatedAt, &d.theme.UpdatedAt,
	}
}

// finalize maps nullable columns onto the empty-string convention.
func (d *themeScanDest) finalize() *domain.Theme {
	d.theme.Description = orEmpty(d.description)
	return &d.theme
}

// scanTheme scans a single row into a Theme.
func scanTheme(row pgx.Row) (*domain.Theme, error) {
	var dest themeScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// scanThemeFromRows scans the current row from pgx.Rows into a Theme.
func scanThemeFromRows(rows pgx.Rows) (*domain.Theme, error) {
	var dest themeScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}
