// internal/session/revocation.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuskart/campus-market/internal/config"
)

// RevocationStore blacklists JWT IDs until their natural expiry so that
// logout actually invalidates a bearer token. A nil store (no redis
// configured) disables revocation checks.
type RevocationStore struct {
	rdb *redis.Client
}

func NewRevocationStore(cfg config.RedisConfig) *RevocationStore {
	if cfg.Host == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RevocationStore{rdb: rdb}
}

func key(jti string) string { return fmt.Sprintf("auth:revoked:%s", jti) }

// Revoke marks the token id as dead until expiresAt.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if s == nil {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	return s.rdb.Set(ctx, key(jti), 1, ttl).Err()
}

// IsRevoked reports whether the token id has been blacklisted. Redis
// errors fail open: an unreachable revocation store must not take down
// every authenticated request.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) bool {
	if s == nil {
		return false
	}

	n, err := s.rdb.Exists(ctx, key(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func (s *RevocationStore) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}
