// Package postgres persists user accounts in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scorpion00100/crealith/internal/domain"
	"github.com/scorpion00100/crealith/pkg/database"
	apperrors "github.com/scorpion00100/crealith/pkg/errors"
)

// userColumns is the column list shared by every query so that scanUser and
// the insert stay in one order.
const userColumns = "id, email, password_hash, first_name, last_name, role, avatar, bio, is_active, email_verified, created_at, updated_at"

// UserRepository implements repository.UserRepository on top of a pgx pool.
type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account. A duplicate email maps to AlreadyExists.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := "INSERT INTO users (" + userColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)"

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.Avatar, u.Bio, u.IsActive, u.EmailVerified, u.CreatedAt, u.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return apperrors.AlreadyExists("user", "email", u.Email)
	case err != nil:
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "GetUserByID", "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "GetUserByEmail", "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, operation, column, value string) (u *domain.User, err error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = $1"

	ctx, end := database.TraceQuery(ctx, operation, query)
	defer func() { end(err) }()

	u, err = scanUser(r.db.QueryRow(ctx, query, value))
	return u, err
}

// Update writes every mutable column back and bumps updated_at.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, password_hash = $2, first_name = $3, last_name = $4,
		    role = $5, avatar = $6, bio = $7, is_active = $8, email_verified = $9, updated_at = $10
		WHERE id = $11`

	ctx, end := database.TraceQuery(ctx, "UpdateUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.Avatar, u.Bio, u.IsActive, u.EmailVerified, u.UpdatedAt, u.ID,
	)
	switch {
	case isUniqueViolation(err):
		return apperrors.AlreadyExists("user", "email", u.Email)
	case err != nil:
		return fmt.Errorf("update user: %w", err)
	case ct.RowsAffected() == 0:
		return apperrors.NotFound("user", u.ID)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	query := "DELETE FROM users WHERE id = $1"

	ctx, end := database.TraceQuery(ctx, "DeleteUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// scanUser reads one row in userColumns order.
func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.Avatar, &u.Bio, &u.IsActive, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a unique constraint violation
// (SQLSTATE 23505), which on the users table means a taken email.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
