// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring a [Runner].
type Option func(*Runner)

// WithLogger sets the logger used by the runner.
// The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the Prometheus collectors updated by the runner.
// Passing nil disables metrics, which is the default.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithMaxWorkers sets the default worker count used when a batch call
// passes a non-positive max_workers. The default is 10.
func WithMaxWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxWorkers = n
		}
	}
}

// WithBatchTimeout sets an advisory deadline for a whole batch.
//
// Once it fires no further request is dispatched; those requests get an
// error Result wrapping [ErrBatchDeadline]. Probes already running are not
// interrupted and finish under their own timeouts.
//
// Zero, the default, disables the deadline.
func WithBatchTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.batchTimeout = d
		}
	}
}
