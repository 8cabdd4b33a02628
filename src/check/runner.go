// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultMaxWorkers = 10

// Request is one unit of a batch.
type Request struct {
	// ID is caller-supplied and only used for correlation.
	ID string `json:"id" yaml:"id"`

	// Type is the registered check type.
	Type string `json:"check_type" yaml:"check_type"`

	// Config is passed to the check factory unchanged.
	Config Config `json:"config" yaml:"config"`
}

// Outcome pairs a [Request] with its [Result].
type Outcome struct {
	Request Request `json:"request"`
	Result  Result  `json:"result"`
}

// Runner executes checks resolved from a [Registry], either one at a time
// or as bounded-concurrency batches.
type Runner struct {
	registry     *Registry
	logger       *zap.Logger
	metrics      *Metrics
	maxWorkers   int
	batchTimeout time.Duration
}

// NewRunner creates a [Runner] bound to reg.
//
//	reg := builtin.NewRegistry()
//	r := check.NewRunner(reg,
//	    check.WithLogger(logger),
//	    check.WithMaxWorkers(20),
//	)
func NewRunner(reg *Registry, opts ...Option) *Runner {
	r := &Runner{
		registry:   reg,
		logger:     zap.NewNop(),
		maxWorkers: defaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the runner resolves check types from.
func (r *Runner) Registry() *Registry { return r.registry }

// Run resolves checkType, validates cfg and runs the probe.
//
// The only error returned is [ErrUnknownCheckType]; every probe-level
// failure, including invalid configuration and recovered panics, is
// reported through an error [Result].
func (r *Runner) Run(ctx context.Context, checkType string, cfg Config) (Result, error) {
	entry, err := r.registry.Lookup(checkType)
	if err != nil {
		return Result{}, err
	}
	return r.execute(ctx, entry, cfg), nil
}

// RunParallel runs reqs with at most maxWorkers probes in flight.
// It is [Runner.RunBatch] with a single wave.
func (r *Runner) RunParallel(ctx context.Context, reqs []Request, maxWorkers int) []Outcome {
	return r.RunBatch(ctx, reqs, 0, maxWorkers)
}

// RunBatch runs reqs in sequential waves of batchSize requests, each wave
// with at most maxWorkers probes in flight. A non-positive batchSize runs
// everything in one wave; a non-positive maxWorkers uses the runner
// default.
//
// The returned slice always has len(reqs) elements and Outcome i always
// belongs to reqs[i], whatever the completion order. Unknown check types,
// invalid configurations and panics become error Results for the affected
// request only.
//
// If ctx is cancelled, or the batch timeout fires, requests not yet
// dispatched receive an error Result; in-flight probes are awaited.
func (r *Runner) RunBatch(ctx context.Context, reqs []Request, batchSize, maxWorkers int) []Outcome {
	if maxWorkers <= 0 {
		maxWorkers = r.maxWorkers
	}
	if batchSize <= 0 || batchSize > len(reqs) {
		batchSize = len(reqs)
	}

	outcomes := make([]Outcome, len(reqs))
	for i, req := range reqs {
		outcomes[i].Request = req
	}
	if len(reqs) == 0 {
		return outcomes
	}

	var deadline <-chan time.Time
	if r.batchTimeout > 0 {
		timer := time.NewTimer(r.batchTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	r.logger.Debug("batch_started",
		zap.Int("requests", len(reqs)),
		zap.Int("batch_size", batchSize),
		zap.Int("max_workers", maxWorkers),
	)

	for start := 0; start < len(reqs); start += batchSize {
		end := min(start+batchSize, len(reqs))
		r.logger.Debug("batch_wave_started", zap.Int("from", start), zap.Int("to", end))

		if stopped, cause := r.runWave(ctx, deadline, outcomes, start, end, maxWorkers); stopped {
			for j := end; j < len(reqs); j++ {
				outcomes[j].Result = notDispatched(cause)
			}
			r.logger.Warn("batch_stopped_early",
				zap.Int("dispatched", start),
				zap.Int("requests", len(reqs)),
				zap.Error(cause),
			)
			break
		}
	}

	return outcomes
}

// runWave dispatches outcomes[start:end]. It reports whether dispatching
// stopped early and why; undispatched slots of the wave are filled here.
func (r *Runner) runWave(ctx context.Context, deadline <-chan time.Time, outcomes []Outcome, start, end, maxWorkers int) (bool, error) {
	var (
		wg    sync.WaitGroup
		cause error
	)

	// Semaphore to limit the number of probes in flight.
	sem := make(chan struct{}, maxWorkers)

Loop:
	for i := start; i < end; i++ {
		// Check for cancellation before waiting on the semaphore so an
		// already-cancelled batch never dispatches.
		select {
		case <-ctx.Done():
			cause = ctx.Err()
		case <-deadline:
			cause = ErrBatchDeadline
		default:
			select {
			case <-ctx.Done():
				cause = ctx.Err()
			case <-deadline:
				cause = ErrBatchDeadline
			case sem <- struct{}{}:
			}
		}

		if cause != nil {
			for j := i; j < end; j++ {
				outcomes[j].Result = notDispatched(cause)
			}
			// Do not return yet; in-flight probes still write their slots.
			break Loop
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore
			defer func() {
				if rec := recover(); rec != nil {
					req := outcomes[idx].Request
					r.metrics.panicked(req.Type)
					r.logger.Error("batch_worker_panic_recovered",
						zap.String("id", req.ID),
						zap.String("check_type", req.Type),
						zap.Any("panic", rec),
					)
					outcomes[idx].Result = FromError("", fmt.Errorf("%w: %v", ErrInternalPanic, rec), 0, nil)
				}
			}()

			outcomes[idx].Result = r.runRequest(ctx, outcomes[idx].Request)
		}(i)
	}

	wg.Wait()
	return cause != nil, cause
}

// runRequest resolves and executes one batch request. Unknown check types
// become error Results here instead of propagating.
func (r *Runner) runRequest(ctx context.Context, req Request) Result {
	entry, err := r.registry.Lookup(req.Type)
	if err != nil {
		r.logger.Warn("unknown_check_type", zap.String("id", req.ID), zap.String("check_type", req.Type))
		return FromError("", err, 0, NewFields().Set("check_type", req.Type))
	}
	res := r.execute(ctx, entry, req.Config)
	r.logger.Debug("batch_request_completed",
		zap.String("id", req.ID),
		zap.String("check_type", req.Type),
		zap.String("status", string(res.Status())),
	)
	return res
}

// execute validates and runs a single check, recovering panics at the call
// boundary.
func (r *Runner) execute(ctx context.Context, entry Entry, cfg Config) (res Result) {
	start := time.Now()
	r.metrics.started()
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.panicked(entry.Type)
			r.logger.Error("check_panic_recovered",
				zap.String("check_type", entry.Type),
				zap.Any("panic", rec),
			)
			res = FromError("", fmt.Errorf("%w: %v", ErrInternalPanic, rec), time.Since(start), nil)
		}
		if !res.Status().Valid() {
			res = FromError("", fmt.Errorf("%w: check %q returned an empty result", ErrInternalPanic, entry.Type), time.Since(start), nil)
		}
		r.metrics.finished(entry.Type, res.Status(), time.Since(start))
		r.logger.Debug("check_completed",
			zap.String("check_type", entry.Type),
			zap.String("status", string(res.Status())),
			zap.Duration("response_time", res.ResponseTime()),
		)
	}()

	if missing := entry.missing(cfg); len(missing) > 0 {
		return InvalidConfig(missing)
	}

	chk, err := entry.Factory(cfg)
	if err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) {
			return InvalidConfig(cerr.Violations)
		}
		return FromError("cannot build check: "+err.Error(), err, time.Since(start), nil)
	}

	if violations := chk.Validate(); len(violations) > 0 {
		return InvalidConfig(violations)
	}

	return chk.Run(ctx)
}

func notDispatched(cause error) Result {
	raw := NewFields().Set("dispatched", false)
	if errors.Is(cause, ErrBatchDeadline) {
		return FromError("batch deadline exceeded before dispatch", cause, 0, raw)
	}
	return FromError("batch cancelled before dispatch", cause, 0, raw)
}
