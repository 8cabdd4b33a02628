// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mailserver

import (
	"crypto/tls"

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

// WithDialer replaces the TCP dialer.
func WithDialer(dial DialFunc) Option {
	return func(c *Checker) {
		c.dial = dial
	}
}

// WithResolver sets the DNS client used for MX lookups.
func WithResolver(r *resolver.Client) Option {
	return func(c *Checker) {
		c.dns = r
	}
}

// WithTLSConfig sets the base TLS configuration for SSL and STARTTLS
// connections, e.g. custom root CAs.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Checker) {
		c.tls = cfg
	}
}
