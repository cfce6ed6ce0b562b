package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
	"github.com/99minutos/signin-portal/internal/core/validation"
)

// AccountService registers accounts for the local auth backend.
type AccountService struct {
	repo   ports.AccountRepository
	schema *validation.Schema
	cost   int
}

// NewAccountService returns an AccountService. Passwords must pass the same
// schema the sign-in form enforces, otherwise the account could never sign in.
func NewAccountService(repo ports.AccountRepository, schema *validation.Schema) *AccountService {
	return &AccountService{repo: repo, schema: schema, cost: bcrypt.DefaultCost}
}

var _ ports.AccountService = (*AccountService)(nil)

func (s *AccountService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if s.schema != nil {
		if _, errs := s.schema.Validate(validation.SignInInput{Email: email, Password: password}); errs != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, errs.Error())
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	return created.User(), nil
}
