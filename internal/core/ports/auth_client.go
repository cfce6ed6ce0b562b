package ports

import (
	"context"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

// AuthClient is the backend-as-a-service account API the portal signs in
// against. Every method fails by returning an error.
type AuthClient interface {
	// Login creates a backend session for the email/password pair.
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	// GetUser returns the account the session belongs to.
	GetUser(ctx context.Context, session *domain.Session) (*domain.User, error)
	// Logout deletes the backend session.
	Logout(ctx context.Context, session *domain.Session) error
}
