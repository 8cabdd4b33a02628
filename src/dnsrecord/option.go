// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsrecord

import (
	"github.com/H0llyW00dzZ/probekit/src/resolver"
	"go.uber.org/zap"
)

// Option is a functional option for configuring a [Checker].
type Option func(*Checker)

// WithLogger sets the logger used by probes.
func WithLogger(l *zap.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithExchanger routes every query through ex instead of the network.
func WithExchanger(ex resolver.Exchanger) Option {
	return func(c *Checker) {
		c.exchanger = ex
	}
}

// WithCache shares an answer cache between probes.
// Caching is disabled by default.
func WithCache(cache resolver.Cache) Option {
	return func(c *Checker) {
		c.cache = cache
	}
}

// WithConnPool reuses TCP and DNS-over-TLS connections between probes
// that use the tcp or tcp-tls transport.
func WithConnPool(p *resolver.ConnPool) Option {
	return func(c *Checker) {
		c.pool = p
	}
}
