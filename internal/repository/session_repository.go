package repository

import (
	"context"
	"fmt"
	"time"

	"sahaayak/internal/domain"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked"

// SessionRepository tracks revoked session tokens by their token id
type SessionRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("%s:%s", revokedKeyPrefix, tokenID)
}

// Revoke remembers tokenID until the token would have expired anyway
func (r *sessionRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether tokenID was logged out
func (r *sessionRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
