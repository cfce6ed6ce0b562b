package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// TokenStore maps the local backend's session secrets to account ids.
// Key format: signin:token:<secret>
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore creates a TokenStore whose tokens expire after ttl.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenStore{client: client, ttl: ttl}
}

// TTL is the lifetime given to new tokens.
func (s *TokenStore) TTL() time.Duration { return s.ttl }

// Issue stores secret for userID until the TTL elapses.
func (s *TokenStore) Issue(ctx context.Context, secret, userID string) error {
	if err := s.client.Set(ctx, s.key(secret), userID, s.ttl).Err(); err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	return nil
}

// Resolve returns the account id behind secret, or domain.ErrSessionNotFound
// when it is unknown or expired.
func (s *TokenStore) Resolve(ctx context.Context, secret string) (string, error) {
	userID, err := s.client.Get(ctx, s.key(secret)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve token: %w", err)
	}
	return userID, nil
}

// Revoke deletes secret. Unknown secrets are not an error.
func (s *TokenStore) Revoke(ctx context.Context, secret string) error {
	return s.client.Del(ctx, s.key(secret)).Err()
}

func (s *TokenStore) key(secret string) string {
	return keyPrefix + "token:" + secret
}
