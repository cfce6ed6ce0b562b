package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/signin-portal/internal/api/metrics"
	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher routes sign-in attempts to a fixed set of workers using
// consistent hashing on the email, so the attempts of one account are
// persisted in submit order.
type Dispatcher struct {
	workers []chan domain.SignInAttempt
	repo    ports.AttemptRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AttemptRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SignInAttempt, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SignInAttempt, channelBuffer)
	}
	return d
}

var _ ports.AttemptRecorder = (*Dispatcher)(nil)

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Run starts the workers and blocks until they have all stopped.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.Start(ctx)
	d.Wait()
	return nil
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Record queues an attempt for persistence. It never blocks the submit path:
// when the worker's queue is full the attempt is dropped and counted.
func (d *Dispatcher) Record(attempt domain.SignInAttempt) {
	idx := d.shardIndex(attempt.Email)
	select {
	case d.workers[idx] <- attempt:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().
			Str("email", attempt.Email).
			Int("worker_id", idx).
			Msg("audit queue full, attempt dropped")
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(email)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SignInAttempt) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case attempt := <-ch:
			d.persist(ctx, id, attempt)
		}
	}
}

// drain writes whatever is still buffered after shutdown was requested.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.SignInAttempt) {
	for {
		select {
		case attempt := <-ch:
			d.persist(ctx, id, attempt)
		default:
			return
		}
	}
}

func (d *Dispatcher) persist(ctx context.Context, id int, attempt domain.SignInAttempt) {
	metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Dec()

	// Writes outlive the worker context so shutdown does not abort them.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := d.repo.InsertAttempt(ctx, &attempt); err != nil {
		metrics.AuditErrorsTotal.Inc()
		d.log.Error().Err(err).
			Str("email", attempt.Email).
			Str("outcome", string(attempt.Outcome)).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
