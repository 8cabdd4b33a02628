// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mailserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
	"go.uber.org/zap"
)

// CheckType is the registry key of the mail server checker.
const CheckType = "mail_server"

// DialFunc matches [net.Dialer.DialContext].
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Checker builds mail_server probes. It is safe for concurrent use.
type Checker struct {
	logger *zap.Logger
	dial   DialFunc
	dns    *resolver.Client
	tls    *tls.Config
}

// New creates a [Checker].
func New(opts ...Option) *Checker {
	c := &Checker{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.dns == nil {
		c.dns = resolver.New(resolver.WithLogger(c.logger))
	}
	return c
}

// Entry returns the registry entry for this checker.
func (c *Checker) Entry() check.Entry {
	return check.Entry{
		Type:     CheckType,
		Factory:  c.Factory,
		Required: requiredKeys,
		Optional: optionalKeys,
	}
}

// Factory returns an unvalidated probe for cfg.
func (c *Checker) Factory(cfg check.Config) (check.Check, error) {
	return &probe{checker: c, raw: cfg}, nil
}

// tlsConfig returns the client configuration for a connection to host.
func (c *Checker) tlsConfig(host string, verify bool) *tls.Config {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.tls != nil {
		cfg = c.tls.Clone()
	}
	if net.ParseIP(host) == nil {
		cfg.ServerName = host
	}
	cfg.InsecureSkipVerify = !verify //nolint:gosec // opt-out via verify_ssl=false
	return cfg
}

type probe struct {
	checker   *Checker
	raw       check.Config
	cfg       config
	validated bool
}

func (p *probe) Validate() []check.Violation {
	cfg, violations := decodeConfig(p.raw)
	p.cfg = cfg
	p.validated = len(violations) == 0
	return violations
}

func (p *probe) Run(ctx context.Context) check.Result {
	if !p.validated {
		if v := p.Validate(); len(v) > 0 {
			return check.InvalidConfig(v)
		}
	}
	cfg := p.cfg
	c := p.checker

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	raw := check.NewFields().
		Set("protocol", cfg.protocol).
		Set("hostname", cfg.hostname)

	start := time.Now()
	target := cfg.hostname
	if cfg.resolveMX {
		target = p.resolveMX(ctx, raw)
	}
	addr := cfg.address(target)
	raw.Set("hostname_used", target).Set("port", cfg.port)

	conn, err := c.connect(ctx, addr)
	if err != nil {
		rt := time.Since(start)
		c.logger.Debug("mail_connect_failed", zap.String("address", addr), zap.Error(err))
		return check.FromError(describe(err, addr, cfg.timeout), check.NetworkError(err), rt, raw)
	}
	s := newSession(ctx, conn, target)
	defer s.Close()

	if cfg.useSSL {
		err = s.startTLS(ctx, c.tlsConfig(target, cfg.verifySSL))
	}
	if err == nil {
		switch cfg.protocol {
		case ProtocolSMTP:
			err = p.runSMTP(ctx, s, raw)
		case ProtocolIMAP:
			err = p.runIMAP(ctx, s, raw)
		case ProtocolPOP3:
			err = p.runPOP3(ctx, s, raw)
		}
	}
	rt := time.Since(start)

	if err != nil {
		c.logger.Debug("mail_check_failed",
			zap.String("protocol", cfg.protocol),
			zap.String("address", addr),
			zap.Error(err),
		)
		return check.FromError(describe(err, addr, cfg.timeout), err, rt, raw)
	}
	return check.Success(fmt.Sprintf("%s server %s is healthy", strings.ToUpper(cfg.protocol), addr), rt, raw)
}

// resolveMX returns the most preferred exchanger for the configured
// domain, or the domain itself when it publishes no usable MX.
func (p *probe) resolveMX(ctx context.Context, raw *check.Fields) string {
	cfg := p.cfg
	mxs, err := p.checker.dns.LookupMX(ctx, cfg.hostname, cfg.nameserver)
	if err != nil {
		p.checker.logger.Debug("mx_lookup_failed", zap.String("domain", cfg.hostname), zap.Error(err))
		raw.Set("mx_error", err.Error())
		return cfg.hostname
	}
	records := make([]any, len(mxs))
	for i, mx := range mxs {
		records[i] = check.NewFields().
			Set("host", mx.Host).
			Set("priority", int(mx.Pref))
	}
	raw.Set("mx_records", records)
	return mxs[0].Host
}

func (c *Checker) connect(ctx context.Context, addr string) (net.Conn, error) {
	if c.dial != nil {
		return c.dial(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// describe turns err into the Result message.
func describe(err error, addr string, timeout time.Duration) string {
	var (
		re     *replyError
		netErr net.Error
		opErr  *net.OpError
	)
	switch {
	case errors.As(err, &re):
		switch re.kind {
		case ErrAuthFailed:
			return "authentication failed: " + re.detail
		case ErrUnsupported:
			return re.detail
		case ErrSendFailed:
			return "test message rejected: " + re.detail
		case ErrBadGreeting:
			return "unexpected greeting from " + addr + ": " + re.detail
		}
		return "server rejected command: " + re.detail
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("connection to %s timed out after %s", addr, timeout)
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return fmt.Sprintf("cannot connect to %s: %v", addr, opErr.Err)
	case errors.Is(err, errSessionClosed):
		return "connection closed by " + addr
	}
	return err.Error()
}
