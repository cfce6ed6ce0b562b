package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnect_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

// ── UserStateStore ───────────────────────────────────────────────────────────

func TestUserStateStore_UnknownKeyIsZeroState(t *testing.T) {
	_, client := newTestClient(t)
	store := NewUserStateStore(client, time.Hour)

	state, err := store.State(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, domain.UserState{}, state)
}

func TestUserStateStore_DispatchLifecycle(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewUserStateStore(client, time.Hour)
	ctx := context.Background()

	s, err := store.Dispatch(ctx, "sid", domain.InitAction())
	require.NoError(t, err)
	assert.True(t, s.Loading)

	s, err = store.Dispatch(ctx, "sid", domain.SuccessAction(&domain.User{ID: "u-1", Email: "user@example.com"}))
	require.NoError(t, err)
	assert.False(t, s.Loading)
	require.NotNil(t, s.User)
	assert.Equal(t, uint64(2), s.Revision)

	got, err := store.State(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	assert.True(t, mr.Exists("signin:state:sid"))
	assert.Equal(t, time.Hour, mr.TTL("signin:state:sid"))
}

func TestUserStateStore_RejectsInvalidAction(t *testing.T) {
	_, client := newTestClient(t)
	store := NewUserStateStore(client, time.Hour)

	_, err := store.Dispatch(context.Background(), "sid", domain.Action{Type: domain.FetchSuccess})
	assert.Error(t, err)
}

func TestUserStateStore_ConcurrentDispatchLosesNothing(t *testing.T) {
	_, client := newTestClient(t)
	store := NewUserStateStore(client, time.Hour)
	ctx := context.Background()

	const workers, perWorker = 10, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := store.Dispatch(ctx, "sid", domain.InitAction()); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	state, err := store.State(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, uint64(workers*perWorker), state.Revision)
}

func TestUserStateStore_Clear(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewUserStateStore(client, time.Hour)
	ctx := context.Background()

	_, err := store.Dispatch(ctx, "sid", domain.InitAction())
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "sid"))

	assert.False(t, mr.Exists("signin:state:sid"))
}

// ── CredentialVault ──────────────────────────────────────────────────────────

func TestCredentialVault_RoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	vault := NewCredentialVault(client, time.Hour)
	ctx := context.Background()

	_, err := vault.Get(ctx, "sid")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	in := &domain.Session{ID: "s-1", UserID: "u-1", Secret: "top-secret"}
	require.NoError(t, vault.Put(ctx, "sid", in))

	out, err := vault.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, in.Secret, out.Secret)

	require.NoError(t, vault.Delete(ctx, "sid"))
	_, err = vault.Get(ctx, "sid")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCredentialVault_TTLFollowsSessionExpiry(t *testing.T) {
	mr, client := newTestClient(t)
	vault := NewCredentialVault(client, time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	vault.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, vault.Put(ctx, "sid", &domain.Session{ID: "s-1", ExpiresAt: now.Add(10 * time.Minute)}))
	assert.Equal(t, 10*time.Minute, mr.TTL("signin:vault:sid"))

	mr.FastForward(11 * time.Minute)
	_, err := vault.Get(ctx, "sid")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	err = vault.Put(ctx, "sid", &domain.Session{ID: "s-2", ExpiresAt: now.Add(-time.Second)})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// ── TokenStore ───────────────────────────────────────────────────────────────

func TestTokenStore(t *testing.T) {
	mr, client := newTestClient(t)
	tokens := NewTokenStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, tokens.Issue(ctx, "secret-1", "u-1"))
	userID, err := tokens.Resolve(ctx, "secret-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)

	require.NoError(t, tokens.Revoke(ctx, "secret-1"))
	_, err = tokens.Resolve(ctx, "secret-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, tokens.Issue(ctx, "secret-2", "u-2"))
	mr.FastForward(2 * time.Minute)
	_, err = tokens.Resolve(ctx, "secret-2")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
