package repository

import (
	"context"
	"time"

	"github.com/scorpion00100/crealith/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error
}

// TokenStore is the authority on refresh-token validity: a refresh token is
// live only while its session record is present. It also holds single-use
// password-reset and email-verification tokens.
type TokenStore interface {
	// PutRefresh stores the session record for a refresh token with the given TTL.
	PutRefresh(ctx context.Context, token string, session domain.RefreshSession, ttl time.Duration) error

	// GetRefresh retrieves the session record for a refresh token.
	// Returns ErrNotFound when the token has been revoked or expired.
	GetRefresh(ctx context.Context, token string) (*domain.RefreshSession, error)

	// DeleteRefresh revokes a single refresh token. Idempotent.
	DeleteRefresh(ctx context.Context, token string) error

	// DeleteAllForUser revokes every refresh token issued to the user.
	DeleteAllForUser(ctx context.Context, userID string) error

	// PutResetToken stores a password-reset token mapped to the account email.
	PutResetToken(ctx context.Context, token, email string, ttl time.Duration) error

	// TakeResetToken reads and deletes a password-reset token (single use).
	TakeResetToken(ctx context.Context, token string) (string, error)

	// PutVerifyToken stores an email-verification token mapped to the user ID.
	PutVerifyToken(ctx context.Context, token, userID string, ttl time.Duration) error

	// TakeVerifyToken reads and deletes an email-verification token (single use).
	TakeVerifyToken(ctx context.Context, token string) (string, error)
}
