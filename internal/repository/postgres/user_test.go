package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorpion00100/crealith/internal/domain"
	apperrors "github.com/scorpion00100/crealith/pkg/errors"
)

// duplicateEmail mimics the error pgx surfaces when the users_email_key
// constraint fires.
var duplicateEmail = &pgconn.PgError{
	Code:           "23505",
	ConstraintName: "users_email_key",
	Message:        "duplicate key value violates unique constraint",
}

func sellerFixture() *domain.User {
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return &domain.User{
		ID:            "31f6b9a2-seller",
		Email:         "marion@crealith.test",
		PasswordHash:  "$2a$10$fixture",
		FirstName:     "Marion",
		LastName:      "Leroy",
		Role:          domain.RoleSeller,
		Bio:           "Sells UI kits",
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func insertArgs(u *domain.User) []any {
	return []any{
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.Avatar, u.Bio, u.IsActive, u.EmailVerified, u.CreatedAt, u.UpdatedAt,
	}
}

func rowFor(u *domain.User) *pgxmock.Rows {
	cols := []string{
		"id", "email", "password_hash", "first_name", "last_name", "role",
		"avatar", "bio", "is_active", "email_verified", "created_at", "updated_at",
	}
	return pgxmock.NewRows(cols).AddRow(insertArgs(u)...)
}

func TestUserRepository_Create(t *testing.T) {
	u := sellerFixture()

	t.Run("inserts all columns", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("INSERT INTO users").
			WithArgs(insertArgs(u)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewUserRepository(mock).Create(context.Background(), u))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("taken email maps to AlreadyExists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("INSERT INTO users").
			WithArgs(insertArgs(u)...).
			WillReturnError(duplicateEmail)

		err = NewUserRepository(mock).Create(context.Background(), u)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Lookups(t *testing.T) {
	u := sellerFixture()

	tests := []struct {
		name    string
		pattern string
		arg     string
		lookup  func(*UserRepository, context.Context, string) (*domain.User, error)
	}{
		{
			name:    "by id",
			pattern: "SELECT .+ FROM users WHERE id =",
			arg:     u.ID,
			lookup:  (*UserRepository).GetByID,
		},
		{
			name:    "by email",
			pattern: "SELECT .+ FROM users WHERE email =",
			arg:     u.Email,
			lookup:  (*UserRepository).GetByEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery(tt.pattern).WithArgs(tt.arg).WillReturnRows(rowFor(u))

			got, err := tt.lookup(NewUserRepository(mock), context.Background(), tt.arg)
			require.NoError(t, err)
			assert.Equal(t, u, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run(tt.name+" missing row", func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery(tt.pattern).WithArgs("unknown").WillReturnError(pgx.ErrNoRows)

			got, err := tt.lookup(NewUserRepository(mock), context.Background(), "unknown")
			assert.Nil(t, got)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Update(t *testing.T) {
	u := sellerFixture()
	// updated_at is set inside Update, so the tenth argument is unknowable.
	args := []any{
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.Avatar, u.Bio, u.IsActive, u.EmailVerified, pgxmock.AnyArg(), u.ID,
	}

	tests := []struct {
		name    string
		outcome func(*pgxmock.ExpectedExec)
		check   func(*testing.T, error)
	}{
		{
			name:    "writes row",
			outcome: func(e *pgxmock.ExpectedExec) { e.WillReturnResult(pgxmock.NewResult("UPDATE", 1)) },
			check:   func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:    "no row means NotFound",
			outcome: func(e *pgxmock.ExpectedExec) { e.WillReturnResult(pgxmock.NewResult("UPDATE", 0)) },
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, apperrors.ErrNotFound) },
		},
		{
			name:    "email collision means AlreadyExists",
			outcome: func(e *pgxmock.ExpectedExec) { e.WillReturnError(duplicateEmail) },
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, apperrors.ErrAlreadyExists) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.outcome(mock.ExpectExec("UPDATE users").WithArgs(args...))

			tt.check(t, NewUserRepository(mock).Update(context.Background(), sellerFixture()))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Delete(t *testing.T) {
	t.Run("removes row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM users WHERE id =").
			WithArgs("31f6b9a2-seller").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, NewUserRepository(mock).Delete(context.Background(), "31f6b9a2-seller"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row means NotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM users WHERE id =").
			WithArgs("ghost").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = NewUserRepository(mock).Delete(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
