package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/mission-service/internal/domain"
)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("assigns id and timestamp", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("a@x.com", "hash", true).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

		repo := NewUserRepository(mock)
		user := &domain.User{Email: "a@x.com", PasswordHash: "hash", IsActive: true}
		require.NoError(t, repo.Create(ctx, user))
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, created, user.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to duplicate", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("a@x.com", "hash", true).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		repo := NewUserRepository(mock)
		err = repo.Create(ctx, &domain.User{Email: "a@x.com", PasswordHash: "hash", IsActive: true})
		require.ErrorIs(t, err, ErrDuplicate)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "is_active", "created_at"}).
			AddRow(int64(3), "a@x.com", "hash", false, created))

	user, err := NewUserRepository(mock).GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.False(t, user.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewUserRepository(mock).GetByID(context.Background(), 99)
	assert.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetActive(t *testing.T) {
	ctx := context.Background()

	t.Run("updates row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE users SET is_active=\$1 WHERE id=\$2`).
			WithArgs(false, int64(5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewUserRepository(mock).SetActive(ctx, 5, false))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE users SET is_active`).
			WithArgs(true, int64(5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewUserRepository(mock).SetActive(ctx, 5, true)
		assert.True(t, IsNotFound(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
