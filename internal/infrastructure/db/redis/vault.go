package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

// CredentialVault keeps backend sessions server side, keyed by portal session.
// Key format: signin:vault:<session_id>
type CredentialVault struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewCredentialVault creates a vault. Entries live for ttl, or until the
// backend session expires when that comes first.
func NewCredentialVault(client *redis.Client, ttl time.Duration) *CredentialVault {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &CredentialVault{client: client, ttl: ttl, now: time.Now}
}

var _ ports.CredentialVault = (*CredentialVault)(nil)

func (v *CredentialVault) Put(ctx context.Context, key string, session *domain.Session) error {
	if session == nil {
		return errors.New("put backend session: nil session")
	}
	ttl := v.ttl
	if !session.ExpiresAt.IsZero() {
		left := session.ExpiresAt.Sub(v.now())
		if left <= 0 {
			return fmt.Errorf("put backend session: %w", domain.ErrSessionNotFound)
		}
		ttl = min(ttl, left)
	}

	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode backend session: %w", err)
	}
	if err := v.client.Set(ctx, v.key(key), b, ttl).Err(); err != nil {
		return fmt.Errorf("put backend session: %w", err)
	}
	return nil
}

func (v *CredentialVault) Get(ctx context.Context, key string) (*domain.Session, error) {
	raw, err := v.client.Get(ctx, v.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get backend session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode backend session: %w", err)
	}
	return &session, nil
}

func (v *CredentialVault) Delete(ctx context.Context, key string) error {
	if err := v.client.Del(ctx, v.key(key)).Err(); err != nil {
		return fmt.Errorf("delete backend session: %w", err)
	}
	return nil
}

func (v *CredentialVault) key(sessionID string) string {
	return keyPrefix + "vault:" + sessionID
}
