// Package localauth is an AuthClient backed by the portal's own accounts:
// bcrypt hashes in MongoDB and opaque session tokens in Redis.
package localauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

// TokenStore keeps session secrets for a limited time.
type TokenStore interface {
	Issue(ctx context.Context, secret, userID string) error
	Resolve(ctx context.Context, secret string) (string, error)
	Revoke(ctx context.Context, secret string) error
	TTL() time.Duration
}

// dummyHash is compared against when the email is unknown so both branches
// cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// Client implements ports.AuthClient.
type Client struct {
	accounts ports.AccountRepository
	tokens   TokenStore
	now      func() time.Time
}

func New(accounts ports.AccountRepository, tokens TokenStore) *Client {
	return &Client{accounts: accounts, tokens: tokens, now: time.Now}
}

var _ ports.AuthClient = (*Client)(nil)

// Login checks the password and issues a new session token. Unknown emails
// and wrong passwords both yield domain.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	account, err := c.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	secret, err := newSecret()
	if err != nil {
		return nil, err
	}
	if err := c.tokens.Issue(ctx, secret, account.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	return &domain.Session{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		Secret:    secret,
		ExpiresAt: c.now().Add(c.tokens.TTL()).UTC(),
	}, nil
}

// GetUser resolves the session token to its account.
func (c *Client) GetUser(ctx context.Context, session *domain.Session) (*domain.User, error) {
	if session == nil || session.Secret == "" {
		return nil, domain.ErrSessionNotFound
	}
	userID, err := c.tokens.Resolve(ctx, session.Secret)
	if err != nil {
		return nil, err
	}
	account, err := c.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return account.User(), nil
}

// Logout revokes the session token.
func (c *Client) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Secret == "" {
		return nil
	}
	return c.tokens.Revoke(ctx, session.Secret)
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
