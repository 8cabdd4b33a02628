// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// Default configuration values.
const (
	defaultTimeout     = 5 * time.Second
	defaultRetries     = 2
	defaultConcurrency = 10
	defaultEDNS0Size   = 1232 // Recommended size to prevent IP fragmentation
	defaultTransport   = TransportUDP
)

// Transports accepted by [WithTransport].
const (
	TransportUDP = "udp"
	TransportTCP = "tcp"
	TransportTLS = "tcp-tls"
)

// Exchanger sends a DNS message to a server and returns the reply.
// [*dns.Client] satisfies it; tests substitute their own.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// Question describes one DNS query.
type Question struct {
	// Name is the domain to query. It is normalized with [Normalize].
	Name string

	// Type is the query type, e.g. dns.TypeA.
	Type uint16

	// Server is the nameserver address, with or without a port.
	// Empty means the client's default server.
	Server string

	// DNSSEC sets the DO bit and asks for the AD flag.
	DNSSEC bool

	// NoRecursion clears the RD bit, for queries sent straight to an
	// authoritative server.
	NoRecursion bool
}

// Client performs DNS queries with retries, an optional answer cache and
// optional TCP connection reuse.
type Client struct {
	exchanger  Exchanger
	fallback   Exchanger
	server     string
	transport  string
	tlsConfig  *tls.Config
	timeout    time.Duration
	maxRetries int
	retryWait  time.Duration
	edns0Size  uint16
	cache      Cache
	pool       *ConnPool
	logger     *zap.Logger

	concurrency int
	probeName   string
}

// New creates a [Client]. Without options it queries the system
// nameserver over UDP with a 5 second timeout and 2 retries.
//
//	c := resolver.New(
//	    resolver.WithServer("1.1.1.1"),
//	    resolver.WithTimeout(3 * time.Second),
//	)
//	ans, err := c.Query(ctx, resolver.Question{Name: "example.com", Type: dns.TypeA})
func New(opts ...Option) *Client {
	c := &Client{
		transport:   defaultTransport,
		timeout:     defaultTimeout,
		maxRetries:  defaultRetries,
		retryWait:   200 * time.Millisecond,
		edns0Size:   defaultEDNS0Size,
		logger:      zap.NewNop(),
		concurrency: defaultConcurrency,
		probeName:   "google.com",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.server == "" {
		c.server = SystemNameserver()
	}

	// Initialize the DNS client if not set by WithExchanger.
	if c.exchanger == nil {
		client := &dns.Client{
			Net:       c.transport,
			Timeout:   c.timeout,
			TLSConfig: c.tlsConfig,
		}
		switch {
		case c.pool != nil && c.transport != TransportUDP:
			c.exchanger = &pooledExchanger{client: client, pool: c.pool}
		default:
			c.exchanger = client
		}
		if c.transport == TransportUDP {
			c.fallback = &dns.Client{Net: TransportTCP, Timeout: c.timeout}
		}
	}

	return c
}

// Server returns the default nameserver address, including its port.
func (c *Client) Server() string { return c.address(c.server) }

// Transport returns the configured transport.
func (c *Client) Transport() string { return c.transport }

// FlushCache clears all cached answers.
func (c *Client) FlushCache() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

// Query sends q and returns the reply. Any response code is a valid
// answer; use [Answer.Err] to turn NXDOMAIN or an empty answer into an
// error.
//
// Network errors are retried with exponential backoff up to the
// configured number of retries. A truncated UDP reply is retried once
// over TCP.
func (c *Client) Query(ctx context.Context, q Question) (*Answer, error) {
	name, err := Normalize(q.Name)
	if err != nil {
		return nil, err
	}
	q.Name = name

	server := c.address(q.Server)
	if server == "" {
		return nil, ErrNoServers
	}

	key := cacheKey(q, server)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.logger.Debug("dns_cache_hit", zap.String("name", name), zap.String("server", server))
			return cached, nil
		}
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), q.Type)
	msg.RecursionDesired = !q.NoRecursion
	msg.SetEdns0(c.edns0Size, q.DNSSEC)
	if q.DNSSEC {
		msg.AuthenticatedData = true
	}

	var (
		resp *dns.Msg
		rtt  time.Duration
	)
	attempt := 0
	op := func() error {
		attempt++
		r, d, err := queryDNS(ctx, c.exchanger, msg, server)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		resp, rtt = r, d
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("dns_query_retry",
			zap.String("name", name),
			zap.String("server", server),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, c.retryPolicy(ctx), notify); err != nil {
		return nil, classify(err)
	}

	if resp.Truncated && c.fallback != nil {
		if r, d, err := queryDNS(ctx, c.fallback, msg, server); err == nil {
			resp, rtt = r, rtt+d
		}
	}

	ans := &Answer{Msg: resp, Server: server, RTT: rtt}
	if c.cache != nil && (resp.Rcode == dns.RcodeSuccess || resp.Rcode == dns.RcodeNameError) {
		c.cache.Set(key, ans)
	}
	return ans, nil
}

// LookupMX returns the MX records of domain ordered by preference, lowest
// first; ties are ordered by host name. An empty server uses the default.
func (c *Client) LookupMX(ctx context.Context, domain, server string) ([]MX, error) {
	ans, err := c.Query(ctx, Question{Name: domain, Type: dns.TypeMX, Server: server})
	if err != nil {
		return nil, err
	}
	if err := ans.Err(dns.TypeMX); err != nil {
		return nil, err
	}
	mxs := ans.MX()
	if len(mxs) == 0 {
		// Only a null MX (RFC 7505) was published.
		return nil, fmt.Errorf("%w: %s accepts no mail", ErrNoAnswer, domain)
	}
	return mxs, nil
}

// LookupAddrs returns the IPv4 and then IPv6 addresses of host.
func (c *Client) LookupAddrs(ctx context.Context, host, server string) ([]string, error) {
	var (
		addrs   []string
		lastErr error
	)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		ans, err := c.Query(ctx, Question{Name: host, Type: qtype, Server: server})
		if err != nil {
			lastErr = err
			continue
		}
		if err := ans.Err(qtype); err != nil {
			lastErr = err
			continue
		}
		recs, _ := ans.Records(qtype)
		addrs = append(addrs, recs...)
	}
	if len(addrs) == 0 {
		return nil, lastErr
	}
	return addrs, nil
}

// address returns server, or the default server, with the transport's
// default port added when missing.
func (c *Client) address(server string) string {
	if server == "" {
		server = c.server
	}
	if server == "" {
		return ""
	}
	port := "53"
	if c.transport == TransportTLS {
		port = "853"
	}
	return WithPort(server, port)
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
}

// queryDNS sends msg to server. It respects context cancellation even if
// the exchanger does not.
func queryDNS(ctx context.Context, ex Exchanger, msg *dns.Msg, server string) (*dns.Msg, time.Duration, error) {
	// Create a channel to receive the result so we can
	// respect context cancellation.
	type dnsResult struct {
		msg *dns.Msg
		rtt time.Duration
		err error
	}
	ch := make(chan dnsResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- dnsResult{err: fmt.Errorf("%w: %v", ErrInternalPanic, r)}
			}
		}()
		resp, rtt, err := ex.ExchangeContext(ctx, msg, server)
		ch <- dnsResult{msg: resp, rtt: rtt, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, 0, result.err
		}
		if result.msg == nil {
			return nil, 0, fmt.Errorf("%w: empty reply from %s", ErrUnexpectedRcode, server)
		}
		return result.msg, result.rtt, nil
	}
}

// classify marks timeouts with [ErrTimeout], keeping the cause in the chain.
func classify(err error) error {
	if errors.Is(err, ErrTimeout) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
