package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// anyArgs returns n pgxmock.AnyArg matchers, for expectations where the
// individual argument values are not under test.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

// Helper to create a valid author for testing.
func newTestAuthor() *domain.Author {
	now := time.Now().UTC()
	return &domain.Author{
		ID:        uuid.New(),
		LastName:  "Hinton",
		FirstName: "Geoffrey",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// authorRows builds a pgxmock row set matching the author columns.
func authorRows(authors ...*domain.Author) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "last_name", "first_name", "email", "orcid",
		"semantic_scholar_id", "h_index", "created_at", "updated_at",
	})
	for _, a := range authors {
		rows.AddRow(
			a.ID, a.LastName, strPtr(a.FirstName), strPtr(a.Email), strPtr(a.ORCID),
			strPtr(a.SemanticScholarID), a.HIndex, a.CreatedAt, a.UpdatedAt,
		)
	}
	return rows
}

func TestPgAuthorRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates author successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)
		author := newTestAuthor()

		mock.ExpectQuery("INSERT INTO authors").
			WithArgs(
				pgxmock.AnyArg(), author.LastName, author.FirstName, nil, nil,
				nil, author.HIndex, pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(author.ID, author.CreatedAt, author.UpdatedAt))

		result, err := repo.Create(ctx, author)
		require.NoError(t, err)
		assert.Equal(t, author.ID, result.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns validation error for missing last name", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)
		author := newTestAuthor()
		author.LastName = ""

		result, err := repo.Create(ctx, author)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("maps unique violation to already exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)
		author := newTestAuthor()

		mock.ExpectQuery("INSERT INTO authors").
			WithArgs(anyArgs(9)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		result, err := repo.Create(ctx, author)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
	})
}

func TestPgAuthorRepository_GetByName(t *testing.T) {
	ctx := context.Background()

	t.Run("returns author when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)
		author := newTestAuthor()

		mock.ExpectQuery("SELECT .* FROM authors WHERE LOWER\\(last_name\\) = LOWER\\(\\$1\\)").
			WithArgs("Hinton", "Geoffrey").
			WillReturnRows(authorRows(author))

		result, err := repo.GetByName(ctx, "Hinton", "Geoffrey")
		require.NoError(t, err)
		assert.Equal(t, author.ID, result.ID)
		assert.Equal(t, "Geoffrey Hinton", result.FullName())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no rows", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)

		mock.ExpectQuery("SELECT .* FROM authors WHERE LOWER\\(last_name\\) = LOWER\\(\\$1\\)").
			WithArgs("Nobody", "").
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.GetByName(ctx, "Nobody", "")
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("returns validation error for empty last name", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)

		result, err := repo.GetByName(ctx, "", "Geoffrey")
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgAuthorRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates author successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)
		author := newTestAuthor()
		author.SemanticScholarID = "1695689"

		mock.ExpectQuery("UPDATE authors SET").
			WithArgs(anyArgs(8)...).
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now().UTC()))

		result, err := repo.Update(ctx, author)
		require.NoError(t, err)
		assert.Equal(t, "1695689", result.SemanticScholarID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing author", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)
		author := newTestAuthor()

		mock.ExpectQuery("UPDATE authors SET").
			WithArgs(anyArgs(8)...).
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.Update(ctx, author)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestPgAuthorRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("lists authors with count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)
		author := newTestAuthor()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM authors").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

		mock.ExpectQuery("SELECT .* FROM authors ORDER BY last_name ASC").
			WithArgs(20, 0).
			WillReturnRows(authorRows(author))

		authors, total, err := repo.List(ctx, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, authors, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgAuthorRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns not found for missing author", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAuthorRepository(mock)
		id := uuid.New()

		mock.ExpectExec("DELETE FROM authors WHERE id = \\$1").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.Delete(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
