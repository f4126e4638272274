// Package registry owns the mapping from training id to training state and
// arbitrates every status transition. It is constructed once by the host
// process and shared by handle between the HTTP layer and the runner.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flaviabeo/caikit/internal/domain"
	"github.com/flaviabeo/caikit/internal/metrics"
)

// record is the registry's internal view of one training: the snapshot
// fields plus the completion signal and the captured work error.
type record struct {
	training domain.Training
	err      error         // set only when the training errored
	done     chan struct{} // closed exactly once when a terminal state commits
}

// Registry is the concurrent store of all known trainings. One
// registry-wide mutex guards the map and every status field, so a cancel
// and the runner's terminal report for the same id are serialized: the
// first committed terminal state wins and is never overwritten.
type Registry struct {
	mu        sync.RWMutex
	trainings map[string]*record
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		trainings: make(map[string]*record),
	}
}

// Add inserts a training in state RUNNING. The status is RUNNING from this
// moment even if no worker has picked the training up yet. Returns
// ErrTrainingAlreadyExists on id collision.
func (r *Registry) Add(t *domain.Training) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trainings[t.ID]; ok {
		return domain.ErrTrainingAlreadyExists
	}

	rec := &record{
		training: *t,
		done:     make(chan struct{}),
	}
	rec.training.Status = domain.StatusRunning
	if rec.training.SubmittedAt.IsZero() {
		rec.training.SubmittedAt = time.Now().UTC()
	}
	r.trainings[t.ID] = rec

	metrics.TrainingsSubmitted.Inc()
	metrics.TrainingsRunning.Inc()
	return nil
}

// Get returns a snapshot copy of the training. The registry's own record is
// never shared with callers.
func (r *Registry) Get(id string) (*domain.Training, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.trainings[id]
	if !ok {
		return nil, domain.NewTrainingNotFound(id)
	}
	t := rec.training
	return &t, nil
}

// Status returns the current status. It never blocks beyond the read lock,
// and a status read issued after a terminal write returned can never
// observe the earlier RUNNING.
func (r *Registry) Status(id string) (domain.TrainingStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.trainings[id]
	if !ok {
		return "", domain.NewTrainingNotFound(id)
	}
	return rec.training.Status, nil
}

// Cancel marks a RUNNING training CANCELED. The compare-and-set happens
// under the write lock: a training already in a terminal state is left
// untouched and Cancel still returns nil. The worker executing the
// training is not interrupted; its eventual outcome is discarded by
// Complete/Fail once CANCELED has committed.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.trainings[id]
	if !ok {
		return domain.NewTrainingNotFound(id)
	}
	if rec.training.Status.IsTerminal() {
		return nil
	}
	r.commit(rec, domain.StatusCanceled)
	return nil
}

// Complete records a successful outcome reported by the runner. It is a
// no-op when the training is already terminal, so a committed CANCELED is
// never overwritten and the late result is discarded.
func (r *Registry) Complete(id string, result any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.trainings[id]
	if !ok {
		return domain.NewTrainingNotFound(id)
	}
	if rec.training.Status.IsTerminal() {
		return nil
	}
	rec.training.Result = result
	r.commit(rec, domain.StatusCompleted)
	return nil
}

// Fail records a failed outcome reported by the runner. Like Complete it
// is a no-op once the training is terminal. The captured error surfaces
// only through Wait and the status snapshot; it never propagates to the
// submitter.
func (r *Registry) Fail(id string, workErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.trainings[id]
	if !ok {
		return domain.NewTrainingNotFound(id)
	}
	if rec.training.Status.IsTerminal() {
		return nil
	}
	rec.err = workErr
	rec.training.Error = workErr.Error()
	r.commit(rec, domain.StatusErrored)
	return nil
}

// Wait blocks until the training reaches a terminal state, then returns
// (result, nil) for COMPLETED, (nil, captured error) for ERRORED, and
// (nil, nil) for CANCELED: a cancellation is not a caller-visible failure
// unless the caller checks the status. Unknown ids fail fast with
// not-found. Every concurrent waiter is released by the same one-shot
// signal.
func (r *Registry) Wait(ctx context.Context, id string) (any, error) {
	r.mu.RLock()
	rec, ok := r.trainings[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NewTrainingNotFound(id)
	}

	select {
	case <-rec.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// The record is immutable once done is closed; the close is the
	// synchronization edge, so no lock is needed here.
	switch rec.training.Status {
	case domain.StatusCompleted:
		return rec.training.Result, nil
	case domain.StatusErrored:
		return nil, rec.err
	default:
		return nil, nil
	}
}

// Remove deletes a training from the registry. A training still RUNNING is
// canceled first so that waiters are released and the running gauge stays
// balanced.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.trainings[id]
	if !ok {
		return domain.NewTrainingNotFound(id)
	}
	if !rec.training.Status.IsTerminal() {
		r.commit(rec, domain.StatusCanceled)
	}
	delete(r.trainings, id)
	return nil
}

// List returns snapshot copies of all trainings ordered by submission time.
func (r *Registry) List() []domain.Training {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Training, 0, len(r.trainings))
	for _, rec := range r.trainings {
		out = append(out, rec.training)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// Len returns the number of trainings currently tracked.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trainings)
}

// Sweep removes terminal trainings that finished before now-olderThan and
// returns how many were removed. RUNNING trainings are never touched. The
// registry itself never ages anything out; retention is driven by the host
// process.
func (r *Registry) Sweep(olderThan time.Duration) int {
	cutoff := time.Now().UTC().Add(-olderThan)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rec := range r.trainings {
		if !rec.training.Status.IsTerminal() {
			continue
		}
		if rec.training.CompletedAt != nil && rec.training.CompletedAt.Before(cutoff) {
			delete(r.trainings, id)
			removed++
		}
	}
	return removed
}

// commit transitions rec into a terminal status, stamps the completion
// time and releases every waiter. Callers must hold the write lock and
// must have checked that the current status is not terminal: that check
// plus the lock is what makes the first committer win.
func (r *Registry) commit(rec *record, status domain.TrainingStatus) {
	now := time.Now().UTC()
	rec.training.Status = status
	rec.training.CompletedAt = &now
	close(rec.done)

	metrics.TrainingsRunning.Dec()
	metrics.TrainingsFinished.WithLabelValues(string(status)).Inc()
}
