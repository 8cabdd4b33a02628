// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package website

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// CheckType is the registry key of the website checker.
const CheckType = "website_status"

// errTooManyRedirects stops the client once max_redirects is exceeded.
var errTooManyRedirects = errors.New("website: too many redirects")

// DialFunc matches [net.Dialer.DialContext].
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Checker builds website_status probes. It is safe for concurrent use.
type Checker struct {
	logger    *zap.Logger
	dial      DialFunc
	tlsConfig *tls.Config
}

// New creates a [Checker].
func New(opts ...Option) *Checker {
	c := &Checker{logger: zap.NewNop()}
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
	target := cfg.url.String()

	raw := check.NewFields().
		Set("url", target).
		Set("method", cfg.method)

	var body io.Reader
	if cfg.body != "" {
		body = strings.NewReader(cfg.body)
	}
	req, err := http.NewRequestWithContext(ctx, cfg.method, target, body)
	if err != nil {
		return check.FromError("cannot build request: "+err.Error(), err, 0, raw)
	}
	for k, v := range cfg.headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", cfg.userAgent)
	}
	if cfg.username != "" {
		req.SetBasicAuth(cfg.username, cfg.password)
	}

	redirects := 0
	client := p.checker.httpClient(cfg, &redirects)
	defer client.CloseIdleConnections()

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rt := time.Since(start)
		raw.Set("redirect_count", redirects)
		p.checker.logger.Debug("website_request_failed", zap.String("url", target), zap.Error(err))
		if errors.Is(err, errTooManyRedirects) {
			return check.FromError(fmt.Sprintf("stopped after %d redirects", cfg.maxRedirects),
				check.ProtocolError("more than %d redirects", cfg.maxRedirects), rt, raw)
		}
		return check.FromError(describe(err, cfg.timeout), check.NetworkError(err), rt, raw)
	}
	defer resp.Body.Close()

	content, readErr := io.ReadAll(io.LimitReader(resp.Body, cfg.maxBodyBytes+1))
	rt := time.Since(start)
	truncated := int64(len(content)) > cfg.maxBodyBytes
	if truncated {
		content = content[:cfg.maxBodyBytes]
	}

	raw.Set("status_code", resp.StatusCode).
		Set("response_size", len(content)).
		Set("redirect_count", redirects).
		Set("final_url", resp.Request.URL.String()).
		Set("content_type", resp.Header.Get("Content-Type"))
	if truncated {
		raw.Set("body_truncated", true)
	}
	if resp.TLS != nil {
		raw.Set("tls_version", tls.VersionName(resp.TLS.Version))
	}

	if readErr != nil {
		return check.FromError("error reading response body: "+readErr.Error(), check.NetworkError(readErr), rt, raw)
	}

	var problems []string
	if !slices.Contains(cfg.expectedStatus, resp.StatusCode) {
		problems = append(problems, fmt.Sprintf("unexpected status code %d (expected %s)",
			resp.StatusCode, joinInts(cfg.expectedStatus)))
	}
	if cfg.expectedContent != "" {
		found := bytes.Contains(content, []byte(cfg.expectedContent))
		raw.Set("expected_content_found", found)
		if !found {
			problems = append(problems, fmt.Sprintf("expected content %q not found", cfg.expectedContent))
		}
	}
	if cfg.unexpectedContent != "" {
		found := bytes.Contains(content, []byte(cfg.unexpectedContent))
		raw.Set("unexpected_content_found", found)
		if found {
			problems = append(problems, fmt.Sprintf("unexpected content %q found", cfg.unexpectedContent))
		}
	}

	if len(problems) > 0 {
		return check.Failure(strings.Join(problems, "; "), rt, raw)
	}
	return check.Success(fmt.Sprintf("%s %s returned %d", cfg.method, target, resp.StatusCode), rt, raw)
}

// httpClient builds a client for one probe. redirects receives the number
// of redirects followed.
func (c *Checker) httpClient(cfg config, redirects *int) *http.Client {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.tlsConfig != nil {
		tlsConfig = c.tlsConfig.Clone()
	}
	tlsConfig.InsecureSkipVerify = !cfg.verifySSL //nolint:gosec // opt-in via verify_ssl=false

	dialer := &net.Dialer{Timeout: cfg.timeout}
	dial := DialFunc(dialer.DialContext)
	if c.dial != nil {
		dial = c.dial
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dial,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   cfg.timeout,
		ResponseHeaderTimeout: cfg.timeout,
		ForceAttemptHTTP2:     true,
		DisableKeepAlives:     true,
	}

	// Cookies set during a redirect chain are sent on the next hop.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.timeout,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !cfg.followRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) > cfg.maxRedirects {
				return errTooManyRedirects
			}
			*redirects = len(via)
			return nil
		},
	}
}

// describe turns a transport error into a short message.
func describe(err error, timeout time.Duration) string {
	var (
		netErr    net.Error
		dnsErr    *net.DNSError
		certErr   *tls.CertificateVerificationError
		recordErr tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &dnsErr):
		if dnsErr.IsNotFound {
			return "cannot resolve host " + dnsErr.Name
		}
		return "DNS lookup failed: " + dnsErr.Error()
	case errors.As(err, &certErr):
		return "TLS certificate verification failed: " + certErr.Err.Error()
	case errors.As(err, &recordErr):
		return "TLS handshake failed: server did not speak TLS"
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("request timed out after %s", timeout)
	}
	return "request failed: " + err.Error()
}

func joinInts(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, " or ")
}
