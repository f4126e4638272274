package trainer

import (
	"context"
	"fmt"
	"time"
)

// LinearParams are the inputs of the built-in least-squares trainer.
type LinearParams struct {
	Xs []float64 `json:"xs"`
	Ys []float64 `json:"ys"`
}

// LinearModel is the artifact produced by the built-in linear trainer.
type LinearModel struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	N         int     `json:"n"`
}

// SleepParams are the inputs of the built-in sleep trainer.
type SleepParams struct {
	Duration string `json:"duration"`
}

// SleepReport is the artifact produced by the built-in sleep trainer.
type SleepReport struct {
	Slept string `json:"slept"`
}

// RegisterBuiltins registers the reference trainers shipped with the
// runtime: "linear" (ordinary least squares over xs/ys) and "sleep"
// (holds a worker for a duration, honoring cancellation).
func RegisterBuiltins(c *Catalog) error {
	if err := c.Register("linear", Typed(TrainLinear)); err != nil {
		return err
	}
	return c.Register("sleep", Typed(TrainSleep))
}

// TrainLinear fits y = slope*x + intercept by ordinary least squares.
func TrainLinear(_ context.Context, p LinearParams) (any, error) {
	n := len(p.Xs)
	if n < 2 {
		return nil, fmt.Errorf("linear trainer needs at least 2 points, got %d", n)
	}
	if len(p.Ys) != n {
		return nil, fmt.Errorf("linear trainer: xs has %d points, ys has %d", n, len(p.Ys))
	}

	var sumX, sumY, sumXY, sumXX float64
	for i := 0; i < n; i++ {
		sumX += p.Xs[i]
		sumY += p.Ys[i]
		sumXY += p.Xs[i] * p.Ys[i]
		sumXX += p.Xs[i] * p.Xs[i]
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return nil, fmt.Errorf("linear trainer: xs are degenerate, cannot fit a line")
	}

	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	meanY := sumY / fn
	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		pred := slope*p.Xs[i] + intercept
		ssRes += (p.Ys[i] - pred) * (p.Ys[i] - pred)
		ssTot += (p.Ys[i] - meanY) * (p.Ys[i] - meanY)
	}
	r2 := 1.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	return &LinearModel{Slope: slope, Intercept: intercept, R2: r2, N: n}, nil
}

// TrainSleep blocks for the requested duration or until the work context
// is canceled. It exists for operational smoke tests of the pool.
func TrainSleep(ctx context.Context, p SleepParams) (any, error) {
	d := time.Second
	if p.Duration != "" {
		parsed, err := time.ParseDuration(p.Duration)
		if err != nil {
			return nil, fmt.Errorf("sleep trainer: bad duration %q: %w", p.Duration, err)
		}
		d = parsed
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return &SleepReport{Slept: d.String()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
