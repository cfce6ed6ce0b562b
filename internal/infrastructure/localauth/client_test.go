package localauth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/infrastructure/db/redis"
)

type stubAccounts struct {
	byEmail map[string]*domain.Account
}

func (s *stubAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	if a, ok := s.byEmail[email]; ok {
		return a, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	for _, a := range s.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubAccounts) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	s.byEmail[a.Email] = a
	return a, nil
}

func newClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Abcdef12"), bcrypt.MinCost)
	require.NoError(t, err)

	accounts := &stubAccounts{byEmail: map[string]*domain.Account{
		"user@example.com": {ID: "u-1", Email: "user@example.com", Name: "User", PasswordHash: string(hash)},
	}}

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(accounts, redis.NewTokenStore(rdb, time.Hour)), mr
}

func TestLoginAndGetUser(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	session, err := c.Login(ctx, "User@Example.com", "Abcdef12")
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserID)
	assert.NotEmpty(t, session.Secret)
	assert.False(t, session.ExpiresAt.IsZero())

	user, err := c.GetUser(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "User", user.Name)
}

func TestLogin_WrongPasswordAndUnknownEmail(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, "user@example.com", "Wrongpass1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = c.Login(ctx, "ghost@example.com", "Abcdef12")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	session, err := c.Login(ctx, "user@example.com", "Abcdef12")
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx, session))

	_, err = c.GetUser(ctx, session)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestGetUser_ExpiredToken(t *testing.T) {
	c, mr := newClient(t)
	ctx := context.Background()

	session, err := c.Login(ctx, "user@example.com", "Abcdef12")
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	_, err = c.GetUser(ctx, session)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLogin_TokenStoreDown(t *testing.T) {
	c, mr := newClient(t)
	mr.Close()

	_, err := c.Login(context.Background(), "user@example.com", "Abcdef12")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
