package ports

import (
	"context"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

// AccountService manages accounts of the local auth backend.
type AccountService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
}
