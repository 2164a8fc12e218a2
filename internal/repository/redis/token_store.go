package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scorpion00100/crealith/internal/domain"
	apperrors "github.com/scorpion00100/crealith/pkg/errors"
)

const (
	refreshKeyPrefix = "auth:refresh:"
	userSetKeyPrefix = "auth:user_tokens:"
	resetKeyPrefix   = "auth:reset:"
	verifyKeyPrefix  = "auth:verify:"
)

// TokenStore implements repository.TokenStore using Redis. Refresh tokens are
// keyed by SHA-256 of the raw token so the store never holds a usable
// credential. Presence of the session record is what makes a refresh token
// valid; deleting the record revokes it.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a new Redis-backed token store.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// hashToken returns the hex-encoded SHA-256 of a raw token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// PutRefresh stores the session record for a refresh token and indexes it in
// the owner's token set so DeleteAllForUser can find it.
func (s *TokenStore) PutRefresh(ctx context.Context, token string, session domain.RefreshSession, ttl time.Duration) error {
	hash := hashToken(token)
	key := refreshKeyPrefix + hash

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal refresh session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, userSetKeyPrefix+session.UserID, hash)
	// The set must outlive its longest-lived member.
	pipe.Expire(ctx, userSetKeyPrefix+session.UserID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set refresh session: %w", err)
	}

	return nil
}

// GetRefresh retrieves the session record for a refresh token. A token with
// no record is revoked or expired, reported as ErrNotFound.
func (s *TokenStore) GetRefresh(ctx context.Context, token string) (*domain.RefreshSession, error) {
	key := refreshKeyPrefix + hashToken(token)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get refresh session: %w", err)
	}

	var session domain.RefreshSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal refresh session: %w", err)
	}

	return &session, nil
}

// DeleteRefresh revokes a single refresh token. Deleting a token that is
// already gone is not an error.
func (s *TokenStore) DeleteRefresh(ctx context.Context, token string) error {
	hash := hashToken(token)

	// Remove the set entry too when we still know the owner.
	session, err := s.GetRefresh(ctx, token)
	if err == nil {
		_ = s.client.SRem(ctx, userSetKeyPrefix+session.UserID, hash).Err()
	}

	if err := s.client.Del(ctx, refreshKeyPrefix+hash).Err(); err != nil {
		return fmt.Errorf("redis del refresh session: %w", err)
	}

	return nil
}

// DeleteAllForUser revokes every refresh token issued to the user
// (logout everywhere).
func (s *TokenStore) DeleteAllForUser(ctx context.Context, userID string) error {
	setKey := userSetKeyPrefix + userID

	hashes, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("redis list user tokens: %w", err)
	}

	if len(hashes) > 0 {
		keys := make([]string, 0, len(hashes))
		for _, h := range hashes {
			keys = append(keys, refreshKeyPrefix+h)
		}
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del user refresh sessions: %w", err)
		}
	}

	if err := s.client.Del(ctx, setKey).Err(); err != nil {
		return fmt.Errorf("redis del user token set: %w", err)
	}

	return nil
}

// PutResetToken stores a password-reset token mapped to the account email.
func (s *TokenStore) PutResetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	key := resetKeyPrefix + hashToken(token)
	if err := s.client.Set(ctx, key, email, ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset token: %w", err)
	}
	return nil
}

// TakeResetToken reads and deletes a password-reset token. A token can be
// consumed exactly once; a second call returns ErrNotFound.
func (s *TokenStore) TakeResetToken(ctx context.Context, token string) (string, error) {
	return s.take(ctx, resetKeyPrefix+hashToken(token))
}

// PutVerifyToken stores an email-verification token mapped to the user ID.
func (s *TokenStore) PutVerifyToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	key := verifyKeyPrefix + hashToken(token)
	if err := s.client.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set verify token: %w", err)
	}
	return nil
}

// TakeVerifyToken reads and deletes an email-verification token (single use).
func (s *TokenStore) TakeVerifyToken(ctx context.Context, token string) (string, error) {
	return s.take(ctx, verifyKeyPrefix+hashToken(token))
}

// take atomically reads and deletes a single-use token value.
func (s *TokenStore) take(ctx context.Context, key string) (string, error) {
	value, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("redis getdel token: %w", err)
	}
	return value, nil
}
