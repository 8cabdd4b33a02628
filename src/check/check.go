// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import "context"

// Check is a single configured probe.
//
// A Check moves through three states. It is constructed by a [Factory]
// with its configuration attached, validated by [Check.Validate], and
// executed by [Check.Run], which produces the terminal [Result].
//
// Run must not perform any I/O when the configuration is invalid; it
// returns an error Result describing the violations instead. Run never
// panics or returns a Go error for network or protocol failures: those
// are reported as error Results.
//
// Implementations must be safe to run concurrently with other instances
// of the same type.
type Check interface {
	// Validate checks the configuration and returns every violation found.
	// An empty slice means the check is ready to run.
	Validate() []Violation

	// Run performs the probe. The context bounds the whole probe; each
	// implementation additionally enforces its own configured timeout.
	Run(ctx context.Context) Result
}

// Factory builds a [Check] from a configuration.
type Factory func(cfg Config) (Check, error)

// CheckFunc adapts a plain function to the [Check] interface.
// It has no configuration and therefore never reports violations.
type CheckFunc func(ctx context.Context) Result

// Validate implements [Check].
func (f CheckFunc) Validate() []Violation { return nil }

// Run implements [Check].
func (f CheckFunc) Run(ctx context.Context) Result { return f(ctx) }
