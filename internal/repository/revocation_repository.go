package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RevocationRepository keeps a deny-list of logged-out token ids in Redis.
// A nil client turns every call into a no-op.
type RevocationRepository struct {
	client *redis.Client
}

// NewRevocationRepository constructs a RevocationRepository.
func NewRevocationRepository(client *redis.Client) *RevocationRepository {
	return &RevocationRepository{client: client}
}

// Enabled reports whether revocations are persisted.
func (r *RevocationRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Revoke denies tokenID until ttl elapses.
func (r *RevocationRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if !r.Enabled() || tokenID == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether tokenID was logged out.
func (r *RevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !r.Enabled() || tokenID == "" {
		return false, nil
	}
	err := r.client.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, fmt.Errorf("redis check %s: %w", tokenID, err)
}
