package trainer_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/flaviabeo/caikit/internal/domain"
	"github.com/flaviabeo/caikit/internal/trainer"
)

func noopTrainer(_ context.Context, _ json.RawMessage) (any, error) {
	return "ok", nil
}

// Test: registration, lookup and listing round-trip.
func TestCatalog_RegisterAndResolve(t *testing.T) {
	c := trainer.NewCatalog()
	if err := c.Register("noop", noopTrainer); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	fn, err := c.Resolve("noop")
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	result, err := fn(context.Background(), nil)
	if err != nil || result != "ok" {
		t.Errorf("expected (ok, nil), got (%v, %v)", result, err)
	}

	if names := c.Names(); len(names) != 1 || names[0] != "noop" {
		t.Errorf("expected [noop], got %v", names)
	}
}

// Test: duplicate names and unknown lookups are rejected with the
// catalog's sentinel errors.
func TestCatalog_DuplicateAndUnknown(t *testing.T) {
	c := trainer.NewCatalog()
	if err := c.Register("noop", noopTrainer); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	if err := c.Register("noop", noopTrainer); !errors.Is(err, domain.ErrTrainerAlreadyRegistered) {
		t.Errorf("expected ErrTrainerAlreadyRegistered, got %v", err)
	}
	if _, err := c.Resolve("nope"); !errors.Is(err, domain.ErrTrainerNotFound) {
		t.Errorf("expected ErrTrainerNotFound, got %v", err)
	}
	if err := c.Register("", noopTrainer); err == nil {
		t.Error("expected empty name to be rejected")
	}
	if err := c.Register("nilfn", nil); err == nil {
		t.Error("expected nil function to be rejected")
	}
}

// Test: Typed decodes parameters into the declared struct and rejects
// malformed JSON.
func TestTyped_DecodesParameters(t *testing.T) {
	type params struct {
		Epochs int `json:"epochs"`
	}
	fn := trainer.Typed(func(_ context.Context, p params) (any, error) {
		return p.Epochs * 2, nil
	})

	result, err := fn(context.Background(), json.RawMessage(`{"epochs": 21}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %v", result)
	}

	if _, err := fn(context.Background(), json.RawMessage(`{"epochs": "many"}`)); err == nil {
		t.Error("expected a decode error for malformed parameters")
	} else if !strings.Contains(err.Error(), "decode training parameters") {
		t.Errorf("unexpected decode error: %v", err)
	}

	// Missing parameters fall back to the zero value.
	result, err = fn(context.Background(), nil)
	if err != nil || result != 0 {
		t.Errorf("expected (0, nil) for absent params, got (%v, %v)", result, err)
	}
}

// Test: the built-in linear trainer recovers slope and intercept of an
// exact line.
func TestTrainLinear_ExactFit(t *testing.T) {
	result, err := trainer.TrainLinear(context.Background(), trainer.LinearParams{
		Xs: []float64{0, 1, 2, 3},
		Ys: []float64{1, 3, 5, 7}, // y = 2x + 1
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	model, ok := result.(*trainer.LinearModel)
	if !ok {
		t.Fatalf("expected *LinearModel, got %T", result)
	}
	if math.Abs(model.Slope-2) > 1e-9 || math.Abs(model.Intercept-1) > 1e-9 {
		t.Errorf("expected slope 2 intercept 1, got %f and %f", model.Slope, model.Intercept)
	}
	if math.Abs(model.R2-1) > 1e-9 {
		t.Errorf("expected r2 of 1 for an exact fit, got %f", model.R2)
	}
}

// Test: degenerate inputs are rejected instead of producing NaN models.
func TestTrainLinear_RejectsDegenerateInput(t *testing.T) {
	cases := []trainer.LinearParams{
		{Xs: []float64{1}, Ys: []float64{2}},
		{Xs: []float64{1, 2, 3}, Ys: []float64{1, 2}},
		{Xs: []float64{5, 5, 5}, Ys: []float64{1, 2, 3}},
	}
	for i, p := range cases {
		if _, err := trainer.TrainLinear(context.Background(), p); err == nil {
			t.Errorf("case %d: expected an error", i)
		}
	}
}

// Test: the sleep trainer returns early with the context error when
// canceled.
func TestTrainSleep_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := trainer.TrainSleep(ctx, trainer.SleepParams{Duration: "30s"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("sleep trainer ignored cancellation")
	}

	if _, err := trainer.TrainSleep(context.Background(), trainer.SleepParams{Duration: "nonsense"}); err == nil {
		t.Error("expected a duration parse error")
	}
}
