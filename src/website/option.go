// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package website

import (
	"crypto/tls"

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

// WithDialer replaces the TCP dialer, e.g. to pin a host name to a
// specific address.
func WithDialer(dial DialFunc) Option {
	return func(c *Checker) {
		c.dial = dial
	}
}

// WithTLSConfig sets the base TLS configuration, e.g. custom root CAs.
// verify_ssl still decides whether certificates are verified.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Checker) {
		c.tlsConfig = cfg
	}
}
