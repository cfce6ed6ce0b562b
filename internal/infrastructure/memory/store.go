// Package memory holds process-local stores for single-instance deployments
// and development. State is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

const (
	defaultTTL = 24 * time.Hour
	// maxSweepInterval bounds how long expired entries of untouched keys
	// stay in memory.
	maxSweepInterval = time.Minute
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// expiringMap is a mutex-guarded map whose entries expire. Expired entries
// are invisible on read and are swept out by writes at most every
// sweepInterval.
type expiringMap[V any] struct {
	mu        sync.Mutex
	items     map[string]entry[V]
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func newExpiringMap[V any](ttl time.Duration) *expiringMap[V] {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &expiringMap[V]{items: make(map[string]entry[V]), ttl: ttl, now: time.Now}
}

func (m *expiringMap[V]) sweepInterval() time.Duration {
	return min(m.ttl, maxSweepInterval)
}

// getLocked returns the live value for key, dropping it when expired.
func (m *expiringMap[V]) getLocked(key string, now time.Time) (V, bool) {
	e, ok := m.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !now.Before(e.expiresAt) {
		delete(m.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (m *expiringMap[V]) setLocked(key string, v V, expiresAt time.Time, now time.Time) {
	m.items[key] = entry[V]{value: v, expiresAt: expiresAt}
	if now.Sub(m.lastSweep) >= m.sweepInterval() {
		for k, e := range m.items {
			if !now.Before(e.expiresAt) {
				delete(m.items, k)
			}
		}
		m.lastSweep = now
	}
}

func (m *expiringMap[V]) get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(key, m.now())
}

func (m *expiringMap[V]) delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// Len counts stored entries, expired or not.
func (m *expiringMap[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// UserStateStore applies dispatches under a single mutex. Each dispatch
// extends the state's lifetime to ttl, as the Redis store does.
type UserStateStore struct {
	states *expiringMap[domain.UserState]
}

func NewUserStateStore(ttl time.Duration) *UserStateStore {
	return &UserStateStore{states: newExpiringMap[domain.UserState](ttl)}
}

var _ ports.UserStateStore = (*UserStateStore)(nil)

func (s *UserStateStore) State(_ context.Context, key string) (domain.UserState, error) {
	state, _ := s.states.get(key)
	return state, nil
}

func (s *UserStateStore) Dispatch(_ context.Context, key string, action domain.Action) (domain.UserState, error) {
	if err := action.Validate(); err != nil {
		return domain.UserState{}, fmt.Errorf("dispatch: %w", err)
	}
	m := s.states
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cur, _ := m.getLocked(key, now)
	next := domain.Reduce(cur, action)
	next.Revision = cur.Revision + 1
	m.setLocked(key, next, now.Add(m.ttl), now)
	return next, nil
}

func (s *UserStateStore) Clear(_ context.Context, key string) error {
	s.states.delete(key)
	return nil
}

// Len reports how many sessions hold state, including expired ones not yet
// swept.
func (s *UserStateStore) Len() int { return s.states.Len() }

// CredentialVault keeps backend sessions for at most ttl, and never past the
// backend session's own expiry.
type CredentialVault struct {
	sessions *expiringMap[domain.Session]
}

func NewCredentialVault(ttl time.Duration) *CredentialVault {
	return &CredentialVault{sessions: newExpiringMap[domain.Session](ttl)}
}

var _ ports.CredentialVault = (*CredentialVault)(nil)

func (v *CredentialVault) Put(_ context.Context, key string, session *domain.Session) error {
	if session == nil {
		return fmt.Errorf("put backend session: nil session")
	}
	m := v.sessions
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expiresAt := now.Add(m.ttl)
	if !session.ExpiresAt.IsZero() {
		if !now.Before(session.ExpiresAt) {
			return fmt.Errorf("put backend session: %w", domain.ErrSessionNotFound)
		}
		if session.ExpiresAt.Before(expiresAt) {
			expiresAt = session.ExpiresAt
		}
	}
	m.setLocked(key, *session, expiresAt, now)
	return nil
}

func (v *CredentialVault) Get(_ context.Context, key string) (*domain.Session, error) {
	session, ok := v.sessions.get(key)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (v *CredentialVault) Delete(_ context.Context, key string) error {
	v.sessions.delete(key)
	return nil
}

// Len reports how many backend sessions are held, including expired ones not
// yet swept.
func (v *CredentialVault) Len() int { return v.sessions.Len() }
