package ports

import (
	"context"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

// AccountRepository persists the local auth backend's accounts.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}
