package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrainingsSubmitted counts every training accepted by the registry.
	TrainingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caikit_trainings_submitted_total",
			Help: "Total number of submitted trainings",
		},
	)

	// TrainingsFinished counts terminal transitions by final status.
	TrainingsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caikit_trainings_finished_total",
			Help: "Total number of trainings that reached a terminal state",
		},
		[]string{"status"},
	)

	// TrainingsRunning tracks trainings whose status is RUNNING, including
	// those still queued for a worker slot.
	TrainingsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caikit_trainings_running",
			Help: "Number of trainings currently in the RUNNING state",
		},
	)

	// TrainingDuration tracks wall-clock training execution time by trainer.
	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caikit_training_duration_seconds",
			Help:    "Duration of training executions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~2.5m
		},
		[]string{"trainer"},
	)

	// WorkersActive tracks the number of pool workers executing right now.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caikit_workers_active",
			Help: "Number of currently active worker goroutines",
		},
	)
)
