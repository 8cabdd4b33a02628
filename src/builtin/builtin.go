// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package builtin wires the bundled checkers into a [check.Registry].
package builtin

import (
	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/dnsrecord"
	"github.com/H0llyW00dzZ/probekit/src/mailserver"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
	"github.com/H0llyW00dzZ/probekit/src/sslcert"
	"github.com/H0llyW00dzZ/probekit/src/website"
	"go.uber.org/zap"
)

// Option configures the bundled checkers.
type Option func(*options)

type options struct {
	logger *zap.Logger
	cache  resolver.Cache
	pool   *resolver.ConnPool
	dns    *resolver.Client
}

// WithLogger sets the logger passed to every checker.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDNSCache shares cache between the DNS-based checkers.
func WithDNSCache(cache resolver.Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithConnPool reuses TCP DNS connections across dns_record probes.
func WithConnPool(p *resolver.ConnPool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithResolver sets the DNS client used for MX lookups.
func WithResolver(r *resolver.Client) Option {
	return func(o *options) {
		o.dns = r
	}
}

// Entries returns the registry entries of website_status, ssl_certificate,
// mail_server and dns_record, in that order.
func Entries(opts ...Option) []check.Entry {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	dnsOpts := []dnsrecord.Option{dnsrecord.WithLogger(o.logger.Named(dnsrecord.CheckType))}
	if o.cache != nil {
		dnsOpts = append(dnsOpts, dnsrecord.WithCache(o.cache))
	}
	if o.pool != nil {
		dnsOpts = append(dnsOpts, dnsrecord.WithConnPool(o.pool))
	}

	mx := o.dns
	if mx == nil {
		mx = resolver.New(
			resolver.WithLogger(o.logger.Named("resolver")),
			resolver.WithCache(o.cache),
		)
	}

	return []check.Entry{
		website.New(website.WithLogger(o.logger.Named(website.CheckType))).Entry(),
		sslcert.New(sslcert.WithLogger(o.logger.Named(sslcert.CheckType))).Entry(),
		mailserver.New(
			mailserver.WithLogger(o.logger.Named(mailserver.CheckType)),
			mailserver.WithResolver(mx),
		).Entry(),
		dnsrecord.New(dnsOpts...).Entry(),
	}
}

// NewRegistry returns a registry holding every bundled checker.
func NewRegistry(opts ...Option) *check.Registry {
	reg := check.NewRegistry()
	reg.MustRegister(Entries(opts...)...)
	return reg
}
