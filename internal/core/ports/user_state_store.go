package ports

import (
	"context"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

// UserStateStore owns the session-scoped user state. State changes only
// through Dispatch, which applies domain.Reduce atomically per key.
type UserStateStore interface {
	// State returns the current state for key; unknown keys yield the zero state.
	State(ctx context.Context, key string) (domain.UserState, error)
	// Dispatch applies action to the state for key and returns the new state.
	Dispatch(ctx context.Context, key string, action domain.Action) (domain.UserState, error)
	// Clear drops the state for key.
	Clear(ctx context.Context, key string) error
}

// CredentialVault keeps the backend session of each portal session on the
// server side.
type CredentialVault interface {
	Put(ctx context.Context, key string, session *domain.Session) error
	// Get returns domain.ErrSessionNotFound when nothing is stored for key.
	Get(ctx context.Context, key string) (*domain.Session, error)
	Delete(ctx context.Context, key string) error
}
