package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

type stubAttemptRepo struct {
	mu       sync.Mutex
	inserted []domain.SignInAttempt
	err      error
}

func (r *stubAttemptRepo) InsertAttempt(_ context.Context, a *domain.SignInAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.inserted = append(r.inserted, *a)
	return nil
}

func (r *stubAttemptRepo) snapshot() []domain.SignInAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SignInAttempt(nil), r.inserted...)
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &stubAttemptRepo{}, zerolog.Nop())

	a := d.shardIndex("user@example.com")
	b := d.shardIndex("USER@example.com")
	if a != b {
		t.Fatalf("expected case-insensitive sharding, got %d and %d", a, b)
	}
	if a < 0 || a >= 8 {
		t.Fatalf("shard index out of range: %d", a)
	}
}

func TestDispatcher_PersistsInOrderPerEmail(t *testing.T) {
	repo := &stubAttemptRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	outcomes := []domain.AttemptOutcome{domain.OutcomeFailure, domain.OutcomeFailure, domain.OutcomeSuccess}
	for _, o := range outcomes {
		d.Record(domain.SignInAttempt{Email: "user@example.com", Outcome: o})
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(repo.snapshot()) < len(outcomes) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	d.Wait()

	got := repo.snapshot()
	if len(got) != len(outcomes) {
		t.Fatalf("expected %d attempts, got %d", len(outcomes), len(got))
	}
	for i, o := range outcomes {
		if got[i].Outcome != o {
			t.Fatalf("attempt %d: expected %s, got %s", i, o, got[i].Outcome)
		}
	}
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	repo := &stubAttemptRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	for i := 0; i < 10; i++ {
		d.Record(domain.SignInAttempt{Email: "user@example.com"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if n := len(repo.snapshot()); n != 10 {
		t.Fatalf("expected buffered attempts to be drained, got %d", n)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &stubAttemptRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	for i := 0; i < channelBuffer+5; i++ {
		d.Record(domain.SignInAttempt{Email: "user@example.com"})
	}

	if n := len(d.workers[0]); n != channelBuffer {
		t.Fatalf("expected a full queue of %d, got %d", channelBuffer, n)
	}
}

func TestDispatcher_WriteErrorsDoNotStopWorker(t *testing.T) {
	repo := &stubAttemptRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Record(domain.SignInAttempt{Email: "a@example.com"})
	d.Record(domain.SignInAttempt{Email: "a@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = d.Run(ctx)

	if len(d.workers[0]) != 0 {
		t.Fatal("expected queue to be drained despite write errors")
	}
}
