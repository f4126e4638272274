// Package runner executes submitted work units on a bounded pool of
// workers and reports every outcome back into the registry.
package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/flaviabeo/caikit/internal/domain"
	"github.com/flaviabeo/caikit/internal/metrics"
	"github.com/flaviabeo/caikit/internal/registry"
)

// DefaultSize is the worker pool width used when the configured size is
// not positive.
const DefaultSize = 5

// Pool runs training work units with bounded concurrency. Dispatch never
// blocks the caller: each training gets its own goroutine that first
// acquires one of the pool's worker slots, so trainings submitted while
// all slots are busy simply queue on the semaphore. A queued training is
// indistinguishable from an executing one to status readers.
type Pool struct {
	registry *registry.Registry
	sem      *semaphore.Weighted
	size     int
	timeout  time.Duration
	logger   *zap.Logger

	baseCtx   context.Context
	cancelAll context.CancelFunc

	mu      sync.Mutex
	active  map[string]context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a runner pool with the given worker count. A timeout of
// zero means trainings run without a deadline.
func NewPool(reg *registry.Registry, size int, timeout time.Duration, logger *zap.Logger) *Pool {
	if size < 1 {
		size = DefaultSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		registry:  reg,
		sem:       semaphore.NewWeighted(int64(size)),
		size:      size,
		timeout:   timeout,
		logger:    logger,
		baseCtx:   ctx,
		cancelAll: cancel,
		active:    make(map[string]context.CancelFunc),
	}
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.size
}

// Active returns the number of dispatched trainings that have not finished,
// including those still queued for a worker slot.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// Dispatch hands a work unit to the pool and returns immediately. The
// training must already be registered; its outcome is reported through the
// registry, never to the caller.
func (p *Pool) Dispatch(id string, work domain.WorkFunc) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return domain.ErrPoolStopped
	}
	ctx, cancel := context.WithCancel(p.baseCtx)
	p.active[id] = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(ctx, id, work)
	return nil
}

// Abort cancels the context handed to a dispatched training, asking
// cooperative work to stop early. It does not touch the registry: status
// arbitration already happened there, and a work unit that ignores its
// context simply runs on with its outcome discarded.
func (p *Pool) Abort(id string) {
	p.mu.Lock()
	cancel, ok := p.active[id]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// Stop rejects further dispatches and waits for in-flight trainings until
// ctx expires. On expiry the remaining work contexts are canceled and Stop
// returns ctx.Err() without waiting for non-cooperative work.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Runner pool stopped")
		return nil
	case <-ctx.Done():
		p.cancelAll()
		p.logger.Warn("Runner pool drain timed out", zap.Int("still_active", p.Active()))
		return ctx.Err()
	}
}

func (p *Pool) run(ctx context.Context, id string, work domain.WorkFunc) {
	defer p.wg.Done()
	defer p.untrack(id)

	if err := p.sem.Acquire(ctx, 1); err != nil {
		// Aborted while queued, or the pool is shutting down. If a cancel
		// already committed this is a no-op; otherwise the training is
		// failed so waiters are not stranded.
		_ = p.registry.Fail(id, fmt.Errorf("training never started: %w", err))
		return
	}
	defer p.sem.Release(1)

	trainer := "unknown"
	if t, err := p.registry.Get(id); err == nil {
		trainer = t.TrainerName
	}

	runCtx := ctx
	runCancel := func() {}
	if p.timeout > 0 {
		runCtx, runCancel = context.WithTimeout(ctx, p.timeout)
	}
	defer runCancel()

	p.logger.Info("Worker picked up training",
		zap.String("training_id", id),
		zap.String("trainer", trainer),
	)

	metrics.WorkersActive.Inc()
	start := time.Now()

	result, err := p.invoke(runCtx, id, work)

	elapsed := time.Since(start).Seconds()
	metrics.WorkersActive.Dec()
	metrics.TrainingDuration.WithLabelValues(trainer).Observe(elapsed)

	if err != nil {
		if repErr := p.registry.Fail(id, err); repErr != nil {
			p.logger.Warn("Training vanished before failure report",
				zap.String("training_id", id),
				zap.Error(repErr),
			)
			return
		}
		p.logger.Warn("Training failed",
			zap.String("training_id", id),
			zap.Float64("elapsed_s", elapsed),
			zap.Error(err),
		)
		return
	}

	if repErr := p.registry.Complete(id, result); repErr != nil {
		p.logger.Warn("Training vanished before completion report",
			zap.String("training_id", id),
			zap.Error(repErr),
		)
		return
	}
	p.logger.Info("Training finished",
		zap.String("training_id", id),
		zap.String("trainer", trainer),
		zap.Float64("elapsed_s", elapsed),
	)
}

// invoke runs the work unit and contains any panic as an ordinary error,
// so a misbehaving trainer can never take the worker down.
func (p *Pool) invoke(ctx context.Context, id string, work domain.WorkFunc) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Training panic recovered",
				zap.String("training_id", id),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("training panicked: %v", r)
		}
	}()
	return work(ctx)
}

func (p *Pool) untrack(id string) {
	p.mu.Lock()
	cancel, ok := p.active[id]
	delete(p.active, id)
	p.mu.Unlock()
	if ok {
		cancel()
	}
}
