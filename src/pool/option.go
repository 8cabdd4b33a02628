// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package pool

import "go.uber.org/zap"

const (
	defaultMaxActive = 16
	defaultMaxIdle   = 2
)

type config struct {
	maxActive int
	maxIdle   int
	logger    *zap.Logger
}

// Option is a functional option for configuring a [Pool].
type Option func(*config)

// WithMaxActive bounds the number of connections checked out at once.
// The default is 16.
func WithMaxActive(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxActive = n
		}
	}
}

// WithMaxIdle bounds the number of idle connections kept per key.
// Zero disables reuse. The default is 2.
func WithMaxIdle(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxIdle = n
		}
	}
}

// WithLogger sets the logger used for dial and close events.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
