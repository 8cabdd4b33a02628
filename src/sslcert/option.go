// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sslcert

import (
	"crypto/x509"
	"net/http"
	"time"

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

// WithRootCAs sets the roots used for chain verification.
// The system pool is used by default.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(c *Checker) {
		c.roots = pool
	}
}

// WithClock sets the function used as the current time.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHTTPClient sets the client used for OCSP requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}
