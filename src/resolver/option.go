// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"crypto/tls"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring a [Client].
type Option func(*Client)

// WithServer sets the default nameserver, with or without a port.
// The default is the first nameserver in /etc/resolv.conf.
func WithServer(addr string) Option {
	return func(c *Client) {
		c.server = strings.TrimSpace(addr)
	}
}

// WithTimeout sets the timeout for each DNS query.
// The default is 5 seconds.
//
// This option has no effect if a custom exchanger is set via
// [WithExchanger], as the exchanger's own timeout takes precedence.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries sets the maximum number of retries after a network
// error. The default is 2 retries (3 total attempts).
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = defaultRetries // Use default on negative input
		}
		c.maxRetries = n
	}
}

// WithRetryWait sets the initial backoff between retries; it doubles
// after each failed attempt. The default is 200ms.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryWait = d
		}
	}
}

// WithTransport selects "udp", "tcp" or "tcp-tls" (DNS over TLS).
// Unknown values are ignored. The default is "udp".
func WithTransport(transport string) Option {
	return func(c *Client) {
		switch t := strings.ToLower(strings.TrimSpace(transport)); t {
		case TransportUDP, TransportTCP, TransportTLS:
			c.transport = t
		}
	}
}

// WithTLSConfig sets the TLS configuration for the "tcp-tls" transport.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.tlsConfig = cfg
	}
}

// WithEDNS0Size sets the advertised EDNS0 UDP buffer size.
// The default is 1232.
func WithEDNS0Size(size uint16) Option {
	return func(c *Client) {
		if size >= 512 {
			c.edns0Size = size
		}
	}
}

// WithExchanger replaces the underlying DNS client. It is mostly useful
// in tests; a [*dns.Client] can be passed directly.
func WithExchanger(ex Exchanger) Option {
	return func(c *Client) {
		c.exchanger = ex
	}
}

// WithCache sets an answer [Cache]. Caching is disabled by default.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithConnPool reuses TCP and DNS-over-TLS connections from p.
// It has no effect with the UDP transport or a custom exchanger.
func WithConnPool(p *ConnPool) Option {
	return func(c *Client) {
		c.pool = p
	}
}

// WithConcurrency sets the maximum number of servers probed at once by
// [Client.Status]. The default is 10.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithProbeName sets the name resolved by [Client.Status].
// The default is "google.com".
func WithProbeName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.probeName = name
		}
	}
}

// WithLogger sets the logger used for retries and cache events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
