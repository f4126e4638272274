package runner_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/domain"
	"github.com/flaviabeo/caikit/internal/registry"
	"github.com/flaviabeo/caikit/internal/runner"
)

func newTestPool(size int, timeout time.Duration) (*registry.Registry, *runner.Pool) {
	reg := registry.New()
	return reg, runner.NewPool(reg, size, timeout, zap.NewNop())
}

func addAndDispatch(t *testing.T, reg *registry.Registry, pool *runner.Pool, id string, work domain.WorkFunc) {
	t.Helper()
	if err := reg.Add(&domain.Training{ID: id, TrainerName: "test"}); err != nil {
		t.Fatalf("add %s: %v", id, err)
	}
	if err := pool.Dispatch(id, work); err != nil {
		t.Fatalf("dispatch %s: %v", id, err)
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

// Test: the pool never runs more work units at once than its size.
func TestDispatch_BoundsConcurrency(t *testing.T) {
	reg, pool := newTestPool(2, 0)

	var active, peak int32
	gate := make(chan struct{})
	work := func(ctx context.Context) (any, error) {
		cur := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		<-gate
		atomic.AddInt32(&active, -1)
		return "done", nil
	}

	ids := []string{"t1", "t2", "t3", "t4", "t5"}
	for _, id := range ids {
		addAndDispatch(t, reg, pool, id, work)
	}

	waitUntil(t, 2*time.Second, func() bool {
		return atomic.LoadInt32(&active) == 2
	}, "two workers should be executing")
	// Give the remaining dispatches a chance to overshoot if they could.
	time.Sleep(30 * time.Millisecond)
	if got := atomic.LoadInt32(&active); got != 2 {
		t.Fatalf("expected exactly 2 active work units, got %d", got)
	}

	close(gate)
	for _, id := range ids {
		if _, err := reg.Wait(context.Background(), id); err != nil {
			t.Fatalf("wait %s: %v", id, err)
		}
	}
	if got := atomic.LoadInt32(&peak); got != 2 {
		t.Errorf("expected a concurrency peak of 2, got %d", got)
	}
}

// Test: with a single worker, a second training queues but still reports
// RUNNING, and both finish once the first unblocks.
func TestDispatch_SingleWorkerQueues(t *testing.T) {
	reg, pool := newTestPool(1, 0)

	gate := make(chan struct{})
	firstStarted := make(chan struct{})
	var secondStarted atomic.Bool

	addAndDispatch(t, reg, pool, "first", func(ctx context.Context) (any, error) {
		close(firstStarted)
		<-gate
		return 1, nil
	})
	<-firstStarted

	addAndDispatch(t, reg, pool, "second", func(ctx context.Context) (any, error) {
		secondStarted.Store(true)
		return 2, nil
	})

	// Queued behind the busy worker: visible as RUNNING, not yet executing.
	if status, err := reg.Status("second"); err != nil || status != domain.StatusRunning {
		t.Fatalf("expected queued training to report RUNNING, got %s (%v)", status, err)
	}
	time.Sleep(30 * time.Millisecond)
	if secondStarted.Load() {
		t.Fatal("second training ran before the single worker was free")
	}

	close(gate)
	for _, id := range []string{"first", "second"} {
		if _, err := reg.Wait(context.Background(), id); err != nil {
			t.Fatalf("wait %s: %v", id, err)
		}
		if status, _ := reg.Status(id); status != domain.StatusCompleted {
			t.Errorf("%s: expected COMPLETED, got %s", id, status)
		}
	}
}

// Test: a panicking work unit is contained as ERRORED and the worker
// survives to run the next training.
func TestDispatch_PanicContained(t *testing.T) {
	reg, pool := newTestPool(1, 0)

	addAndDispatch(t, reg, pool, "boom", func(ctx context.Context) (any, error) {
		panic("labels are all wrong")
	})

	_, err := reg.Wait(context.Background(), "boom")
	if err == nil || !strings.Contains(err.Error(), "training panicked") {
		t.Fatalf("expected a contained panic error, got %v", err)
	}
	if status, _ := reg.Status("boom"); status != domain.StatusErrored {
		t.Errorf("expected ERRORED, got %s", status)
	}

	addAndDispatch(t, reg, pool, "after", func(ctx context.Context) (any, error) {
		return "fine", nil
	})
	if result, err := reg.Wait(context.Background(), "after"); err != nil || result != "fine" {
		t.Errorf("pool did not survive the panic: (%v, %v)", result, err)
	}
}

// Test: a work unit that errors surfaces its error through Wait.
func TestDispatch_WorkErrorSurfacesViaWait(t *testing.T) {
	reg, pool := newTestPool(2, 0)

	poison := errors.New("this training will explode")
	addAndDispatch(t, reg, pool, "poison", func(ctx context.Context) (any, error) {
		return nil, poison
	})

	if _, err := reg.Wait(context.Background(), "poison"); !errors.Is(err, poison) {
		t.Fatalf("expected the work error, got %v", err)
	}
	if status, _ := reg.Status("poison"); status != domain.StatusErrored {
		t.Errorf("expected ERRORED, got %s", status)
	}
}

// Test: Abort cancels the work context of an executing training; the
// already-committed CANCELED status stands.
func TestAbort_CooperativeStop(t *testing.T) {
	reg, pool := newTestPool(1, 0)

	started := make(chan struct{})
	addAndDispatch(t, reg, pool, "coop", func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started

	if err := reg.Cancel("coop"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	pool.Abort("coop")

	waitUntil(t, 2*time.Second, func() bool { return pool.Active() == 0 }, "aborted training should wind down")
	if status, _ := reg.Status("coop"); status != domain.StatusCanceled {
		t.Errorf("expected CANCELED, got %s", status)
	}
}

// Test: aborting a training still queued for a slot unwinds it without
// disturbing the one occupying the worker.
func TestAbort_WhileQueued(t *testing.T) {
	reg, pool := newTestPool(1, 0)

	gate := make(chan struct{})
	busyStarted := make(chan struct{})
	addAndDispatch(t, reg, pool, "busy", func(ctx context.Context) (any, error) {
		close(busyStarted)
		<-gate
		return "done", nil
	})
	<-busyStarted

	addAndDispatch(t, reg, pool, "queued", func(ctx context.Context) (any, error) {
		return "never runs", nil
	})

	if err := reg.Cancel("queued"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	pool.Abort("queued")

	waitUntil(t, 2*time.Second, func() bool { return pool.Active() == 1 }, "queued training should unwind")
	if status, _ := reg.Status("queued"); status != domain.StatusCanceled {
		t.Errorf("expected CANCELED, got %s", status)
	}

	close(gate)
	if result, err := reg.Wait(context.Background(), "busy"); err != nil || result != "done" {
		t.Errorf("busy training was disturbed: (%v, %v)", result, err)
	}
}

// Test: a late result from a canceled (but never aborted) training is
// discarded, not recorded.
func TestDispatch_LateOutcomeDiscardedAfterCancel(t *testing.T) {
	reg, pool := newTestPool(1, 0)

	gate := make(chan struct{})
	started := make(chan struct{})
	addAndDispatch(t, reg, pool, "ignored", func(ctx context.Context) (any, error) {
		close(started)
		<-gate // ignores ctx on purpose
		return "late result", nil
	})
	<-started

	if err := reg.Cancel("ignored"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if status, _ := reg.Status("ignored"); status != domain.StatusCanceled {
		t.Fatalf("expected CANCELED immediately after cancel")
	}

	close(gate)
	waitUntil(t, 2*time.Second, func() bool { return pool.Active() == 0 }, "worker should finish")

	snap, err := reg.Get("ignored")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Status != domain.StatusCanceled {
		t.Errorf("late completion overwrote CANCELED: %s", snap.Status)
	}
	if snap.Result != nil {
		t.Errorf("late result was recorded: %v", snap.Result)
	}
}

// Test: the execution timeout fails a training that outlives it.
func TestDispatch_TimeoutFailsTraining(t *testing.T) {
	reg, pool := newTestPool(1, 25*time.Millisecond)

	addAndDispatch(t, reg, pool, "slow", func(ctx context.Context) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Second):
			return "too late", nil
		}
	})

	_, err := reg.Wait(context.Background(), "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline error, got %v", err)
	}
	if status, _ := reg.Status("slow"); status != domain.StatusErrored {
		t.Errorf("expected ERRORED, got %s", status)
	}
}

// Test: Stop drains in-flight work and rejects dispatches afterwards.
func TestStop_DrainsAndRejects(t *testing.T) {
	reg, pool := newTestPool(2, 0)

	gate := make(chan struct{})
	addAndDispatch(t, reg, pool, "inflight", func(ctx context.Context) (any, error) {
		<-gate
		return "drained", nil
	})
	waitUntil(t, 2*time.Second, func() bool { return pool.Active() == 1 }, "training should be in flight")

	stopped := make(chan error, 1)
	go func() {
		stopped <- pool.Stop(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)
	close(gate)

	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop never returned after the work drained")
	}

	if status, _ := reg.Status("inflight"); status != domain.StatusCompleted {
		t.Errorf("expected the drained training COMPLETED, got %s", status)
	}

	if err := reg.Add(&domain.Training{ID: "rejected", TrainerName: "test"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := pool.Dispatch("rejected", func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, domain.ErrPoolStopped) {
		t.Fatalf("expected ErrPoolStopped, got %v", err)
	}
}
