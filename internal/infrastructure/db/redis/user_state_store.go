package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

const (
	defaultStateTTL = 24 * time.Hour
	maxTxRetries    = 100
)

// ErrContention is returned when a dispatch keeps losing optimistic
// transactions to concurrent writers.
var ErrContention = errors.New("user state: too much contention")

// UserStateStore keeps each session's user state as a JSON string.
// Key format: signin:state:<session_id>
type UserStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserStateStore creates a store whose entries expire ttl after the last
// dispatch.
func NewUserStateStore(client *redis.Client, ttl time.Duration) *UserStateStore {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &UserStateStore{client: client, ttl: ttl}
}

var _ ports.UserStateStore = (*UserStateStore)(nil)

func (s *UserStateStore) State(ctx context.Context, key string) (domain.UserState, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.UserState{}, nil
	}
	if err != nil {
		return domain.UserState{}, fmt.Errorf("get user state: %w", err)
	}
	return domain.UnmarshalState(raw)
}

// Dispatch reduces the stored state under WATCH so concurrent dispatches for
// the same session never overwrite each other.
func (s *UserStateStore) Dispatch(ctx context.Context, key string, action domain.Action) (domain.UserState, error) {
	if err := action.Validate(); err != nil {
		return domain.UserState{}, fmt.Errorf("dispatch: %w", err)
	}

	k := s.key(key)
	var next domain.UserState

	apply := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		cur, err := domain.UnmarshalState(raw)
		if err != nil {
			return err
		}

		next = domain.Reduce(cur, action)
		next.Revision = cur.Revision + 1
		b, err := domain.MarshalState(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, b, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, apply, k)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.UserState{}, fmt.Errorf("dispatch %s: %w", action.Type, err)
	}
	return domain.UserState{}, ErrContention
}

func (s *UserStateStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("clear user state: %w", err)
	}
	return nil
}

func (s *UserStateStore) key(sessionID string) string {
	return keyPrefix + "state:" + sessionID
}
