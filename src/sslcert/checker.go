// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sslcert

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"go.uber.org/zap"
)

// CheckType is the registry key of the certificate checker.
const CheckType = "ssl_certificate"

// ErrNoCertificate is returned when the peer completes the handshake
// without presenting a certificate.
var ErrNoCertificate = errors.New("sslcert: server presented no certificate")

// DialFunc matches [net.Dialer.DialContext].
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Checker builds ssl_certificate probes. It is safe for concurrent use.
type Checker struct {
	logger     *zap.Logger
	dial       DialFunc
	roots      *x509.CertPool
	now        func() time.Time
	httpClient *http.Client
}

// New creates a [Checker].
func New(opts ...Option) *Checker {
	c := &Checker{
		logger:     zap.NewNop(),
		now:        time.Now,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
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

	raw := check.NewFields().
		Set("hostname", cfg.hostname).
		Set("port", cfg.port)

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	start := time.Now()
	state, err := c.handshake(ctx, cfg)
	if err != nil {
		rt := time.Since(start)
		c.logger.Debug("tls_handshake_failed", zap.String("address", cfg.address()), zap.Error(err))
		return check.FromError(describe(err, cfg), check.NetworkError(err), rt, raw)
	}
	rt := time.Since(start)

	certs := state.PeerCertificates
	if len(certs) == 0 {
		return check.FromError("", ErrNoCertificate, rt, raw)
	}
	leaf := certs[0]
	now := c.now()
	days := daysUntil(leaf.NotAfter, now)

	fingerprint := sha256.Sum256(leaf.Raw)
	raw.Set("subject", leaf.Subject.String()).
		Set("issuer", leaf.Issuer.String()).
		Set("serial_number", formatSerial(leaf)).
		Set("not_before", leaf.NotBefore.UTC().Format(time.RFC3339)).
		Set("not_after", leaf.NotAfter.UTC().Format(time.RFC3339)).
		Set("days_until_expiration", days).
		Set("alternative_names", alternativeNames(leaf)).
		Set("signature_algorithm", leaf.SignatureAlgorithm.String()).
		Set("fingerprint_sha256", hex.EncodeToString(fingerprint[:]))

	var hostErr error
	if cfg.verifyHostname {
		hostErr = leaf.VerifyHostname(cfg.hostname)
		raw.Set("hostname_valid", hostErr == nil)
	}

	var chainErr error
	if cfg.checkChain {
		raw.Set("tls_version", tls.VersionName(state.Version)).
			Set("cipher_suite", tls.CipherSuiteName(state.CipherSuite)).
			Set("chain", describeChain(certs))
		chainErr = c.verifyChain(certs, now)
		raw.Set("chain_valid", chainErr == nil)
		if chainErr != nil {
			raw.Set("chain_error", chainErr.Error())
		}
	}

	var revocation ocspOutcome
	if cfg.checkOCSP {
		revocation = c.checkOCSP(ctx, certs)
		raw.Set("ocsp_status", revocation.status)
		if revocation.err != nil {
			raw.Set("ocsp_error", revocation.err.Error())
		}
	}

	switch {
	case now.After(leaf.NotAfter):
		return check.Failure(fmt.Sprintf("certificate expired on %s", leaf.NotAfter.UTC().Format(time.RFC3339)), rt, raw)
	case now.Before(leaf.NotBefore):
		return check.Failure(fmt.Sprintf("certificate is not valid before %s", leaf.NotBefore.UTC().Format(time.RFC3339)), rt, raw)
	case hostErr != nil:
		return check.Failure("hostname verification failed: "+hostErr.Error(), rt, raw)
	case revocation.status == ocspRevoked:
		return check.Failure("certificate has been revoked", rt, raw)
	case chainErr != nil:
		return check.Failure("certificate chain is invalid: "+chainErr.Error(), rt, raw)
	case days <= cfg.criticalDays:
		return check.Failure(fmt.Sprintf("certificate expires in %d days (critical threshold %d)", days, cfg.criticalDays), rt, raw)
	case days <= cfg.warningDays:
		return check.Warning(fmt.Sprintf("certificate expires in %d days (warning threshold %d)", days, cfg.warningDays), rt, raw)
	case revocation.err != nil:
		return check.Warning("OCSP revocation check failed: "+revocation.err.Error(), rt, raw)
	}
	return check.Success(fmt.Sprintf("certificate valid for %d more days", days), rt, raw)
}

// handshake completes a TLS handshake without verification so that
// expired or mismatched certificates can still be inspected.
func (c *Checker) handshake(ctx context.Context, cfg config) (tls.ConnectionState, error) {
	dial := c.dial
	if dial == nil {
		dial = (&net.Dialer{Timeout: cfg.timeout}).DialContext
	}
	conn, err := dial(ctx, "tcp", cfg.address())
	if err != nil {
		return tls.ConnectionState{}, err
	}
	defer conn.Close()

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // verification is done by hand
		Time:               func() time.Time { return c.now().UTC() },
	}
	if net.ParseIP(cfg.hostname) == nil {
		tlsConfig.ServerName = cfg.hostname
	}
	tlsConn := tls.Client(conn, tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return tls.ConnectionState{}, err
	}
	return tlsConn.ConnectionState(), nil
}

func (c *Checker) verifyChain(certs []*x509.Certificate, now time.Time) error {
	opts := x509.VerifyOptions{
		Roots:         c.roots,
		Intermediates: x509.NewCertPool(),
		CurrentTime:   now,
	}
	for _, cert := range certs[1:] {
		opts.Intermediates.AddCert(cert)
	}
	_, err := certs[0].Verify(opts)
	return err
}

// daysUntil returns the whole days from now until t, rounded down.
func daysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}

func alternativeNames(cert *x509.Certificate) []string {
	names := make([]string, 0, len(cert.DNSNames)+len(cert.IPAddresses))
	names = append(names, cert.DNSNames...)
	for _, ip := range cert.IPAddresses {
		names = append(names, ip.String())
	}
	return names
}

func describeChain(certs []*x509.Certificate) []any {
	chain := make([]any, len(certs))
	for i, cert := range certs {
		chain[i] = check.NewFields().
			Set("subject", cert.Subject.String()).
			Set("issuer", cert.Issuer.String()).
			Set("not_after", cert.NotAfter.UTC().Format(time.RFC3339)).
			Set("is_ca", cert.IsCA)
	}
	return chain
}

func formatSerial(cert *x509.Certificate) string {
	if cert.SerialNumber == nil {
		return ""
	}
	return fmt.Sprintf("%X", cert.SerialNumber)
}

func describe(err error, cfg config) string {
	var (
		netErr net.Error
		opErr  *net.OpError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("connection to %s timed out after %s", cfg.address(), cfg.timeout)
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return fmt.Sprintf("cannot connect to %s: %v", cfg.address(), opErr.Err)
	}
	return fmt.Sprintf("TLS handshake with %s failed: %v", cfg.address(), err)
}
