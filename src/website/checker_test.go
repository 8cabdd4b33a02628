// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package website

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><title>Example Domain</title></html>")
	})
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	r.Get("/maintenance", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "down for maintenance")
	})
	r.Get("/redirect/{n}", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(chi.URLParam(r, "n"))
		if n <= 0 {
			http.Redirect(w, r, "/final", http.StatusFound)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/redirect/%d", n-1), http.StatusFound)
	})
	r.Get("/final", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "final")
	})
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "welcome")
	})
	r.Get("/private", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Agent", r.UserAgent())
		w.Header().Set("X-Token", r.Header.Get("X-Token"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	})
	r.Head("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// pinnedDialer sends every connection to addr regardless of the host name.
func pinnedDialer(addr string) DialFunc {
	return func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}
}

func trustServer(srv *httptest.Server) *tls.Config {
	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
}

func runCheck(t *testing.T, c *Checker, cfg check.Config) check.Result {
	t.Helper()
	reg := check.NewRegistry()
	reg.MustRegister(c.Entry())
	res, err := check.NewRunner(reg).Run(context.Background(), CheckType, cfg)
	require.NoError(t, err)
	return res
}

func field[T any](t *testing.T, res check.Result, key string) T {
	t.Helper()
	v, ok := res.Get(key)
	require.True(t, ok, "missing key %q", key)
	out, ok := v.(T)
	require.True(t, ok, "key %q has type %T", key, v)
	return out
}

func TestHTTPSExampleDomain(t *testing.T) {
	srv := httptest.NewTLSServer(newRouter())
	defer srv.Close()

	c := New(WithDialer(pinnedDialer(srv.Listener.Addr().String())), WithTLSConfig(trustServer(srv)))
	res := runCheck(t, c, check.Config{
		"url":             "https://example.com",
		"expected_status": 200,
	})

	require.Equal(t, check.StatusSuccess, res.Status(), res.Message())
	assert.Equal(t, 200, field[int](t, res, "status_code"))
	assert.Equal(t, "https://example.com", field[string](t, res, "url"))
	assert.Equal(t, "GET", field[string](t, res, "method"))
	assert.Equal(t, 0, field[int](t, res, "redirect_count"))
	assert.NotEmpty(t, field[string](t, res, "tls_version"))
	assert.Contains(t, field[string](t, res, "content_type"), "text/html")
	assert.Positive(t, field[int](t, res, "response_size"))
	assert.Positive(t, res.ResponseTime())
}

func TestUntrustedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(newRouter())
	defer srv.Close()

	c := New(WithDialer(pinnedDialer(srv.Listener.Addr().String())))

	res := runCheck(t, c, check.Config{"url": "https://example.com"})
	require.Equal(t, check.StatusError, res.Status())
	assert.Contains(t, res.Message(), "TLS certificate verification failed")
	assert.Equal(t, "network", field[string](t, res, "error_kind"))

	res = runCheck(t, c, check.Config{"url": "https://example.com", "verify_ssl": false})
	assert.Equal(t, check.StatusSuccess, res.Status(), res.Message())
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(newRouter())
	defer srv.Close()

	c := New()
	res := runCheck(t, c, check.Config{"url": srv.URL + "/missing"})
	require.Equal(t, check.StatusError, res.Status())
	assert.Contains(t, res.Message(), "unexpected status code 404 (expected 200)")
	assert.Equal(t, 404, field[int](t, res, "status_code"))

	res = runCheck(t, c, check.Config{
		"url":             srv.URL + "/missing",
		"expected_status": []any{200, 404},
	})
	assert.Equal(t, check.StatusSuccess, res.Status(), res.Message())
}

func TestRedirects(t *testing.T) {
	srv := httptest.NewServer(newRouter())
	defer srv.Close()
	c := New()

	t.Run("followed", func(t *testing.T) {
		res := runCheck(t, c, check.Config{"url": srv.URL + "/redirect/2"})
		require.Equal(t, check.StatusSuccess, res.Status(), res.Message())
		assert.Equal(t, 3, field[int](t, res, "redirect_count"))
		assert.Equal(t, srv.URL+"/final", field[string](t, res, "final_url"))
	})

	t.Run("limit exceeded", func(t *testing.T) {
		res := runCheck(t, c, check.Config{"url": srv.URL + "/redirect/5", "max_redirects": 2})
		require.Equal(t, check.StatusError, res.Status())
		assert.Contains(t, res.Message(), "stopped after 2 redirects")
		assert.Equal(t, "protocol", field[string](t, res, "error_kind"))
	})

	t.Run("not followed", func(t *testing.T) {
		res := runCheck(t, c, check.Config{"url": srv.URL + "/redirect/0", "follow_redirects": false})
		require.Equal(t, check.StatusError, res.Status())
		assert.Equal(t, http.StatusFound, field[int](t, res, "status_code"))

		res = runCheck(t, c, check.Config{
			"url":              srv.URL + "/redirect/0",
			"follow_redirects": false,
			"expected_status":  302,
		})
		assert.Equal(t, check.StatusSuccess, res.Status(), res.Message())
		assert.Equal(t, 0, field[int](t, res, "redirect_count"))
	})

	t.Run("cookies carried across hops", func(t *testing.T) {
		res := runCheck(t, c, check.Config{"url": srv.URL + "/login", "expected_content": "welcome"})
		assert.Equal(t, check.StatusSuccess, res.Status(), res.Message())
	})
}

func TestContentChecks(t *testing.T) {
	srv := httptest.NewServer(newRouter())
	defer srv.Close()
	c := New()

	tests := []struct {
		name   string
		cfg    check.Config
		status check.Status
		msg    string
	}{
		{
			name:   "expected content present",
			cfg:    check.Config{"url": srv.URL, "expected_content": "Example Domain"},
			status: check.StatusSuccess,
		},
		{
			name:   "expected content missing",
			cfg:    check.Config{"url": srv.URL, "expected_content": "Welcome back"},
			status: check.StatusError,
			msg:    `expected content "Welcome back" not found`,
		},
		{
			name:   "unexpected content present",
			cfg:    check.Config{"url": srv.URL + "/maintenance", "unexpected_content": "maintenance"},
			status: check.StatusError,
			msg:    `unexpected content "maintenance" found`,
		},
		{
			name:   "status and content both wrong",
			cfg:    check.Config{"url": srv.URL + "/missing", "expected_content": "Example"},
			status: check.StatusError,
			msg:    "unexpected status code 404 (expected 200); expected content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCheck(t, c, tt.cfg)
			assert.Equal(t, tt.status, res.Status(), res.Message())
			if tt.msg != "" {
				assert.Contains(t, res.Message(), tt.msg)
			}
		})
	}
}

func TestRequestShaping(t *testing.T) {
	srv := httptest.NewServer(newRouter())
	defer srv.Close()
	c := New()

	res := runCheck(t, c, check.Config{
		"url":              srv.URL + "/echo",
		"method":           "post",
		"body":             "ping",
		"headers":          map[string]any{"X-Token": "t0k"},
		"user_agent":       "monitor/2",
		"expected_status":  201,
		"expected_content": "ping",
	})
	require.Equal(t, check.StatusSuccess, res.Status(), res.Message())
	assert.Equal(t, "POST", field[string](t, res, "method"))
	assert.Equal(t, 4, field[int](t, res, "response_size"))

	res = runCheck(t, c, check.Config{"url": srv.URL + "/private"})
	assert.Equal(t, 401, field[int](t, res, "status_code"))

	res = runCheck(t, c, check.Config{
		"url":           srv.URL + "/private",
		"auth_username": "admin",
		"auth_password": "secret",
	})
	assert.Equal(t, check.StatusSuccess, res.Status(), res.Message())

	res = runCheck(t, c, check.Config{"url": srv.URL, "method": "HEAD"})
	assert.Equal(t, check.StatusSuccess, res.Status(), res.Message())
	assert.Equal(t, 0, field[int](t, res, "response_size"))
}

func TestBodyLimit(t *testing.T) {
	srv := httptest.NewServer(newRouter())
	defer srv.Close()

	res := runCheck(t, New(), check.Config{
		"url":              srv.URL + "/final",
		"max_body_bytes":   3,
		"expected_content": "fin",
	})
	require.Equal(t, check.StatusSuccess, res.Status(), res.Message())
	assert.Equal(t, 3, field[int](t, res, "response_size"))
	assert.True(t, field[bool](t, res, "body_truncated"))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	res := runCheck(t, New(), check.Config{"url": srv.URL, "timeout": "50ms"})
	require.Equal(t, check.StatusError, res.Status())
	assert.Contains(t, res.Message(), "timed out")
	assert.Equal(t, "network", field[string](t, res, "error_kind"))
}

func TestConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	res := runCheck(t, New(), check.Config{"url": "http://" + addr, "timeout": 2})
	require.Equal(t, check.StatusError, res.Status())
	assert.Equal(t, "network", field[string](t, res, "error_kind"))
	assert.Contains(t, res.Message(), "request failed")
}

func TestInvalidConfigPerformsNoIO(t *testing.T) {
	var dials atomic.Int32
	c := New(WithDialer(func(context.Context, string, string) (net.Conn, error) {
		dials.Add(1)
		return nil, fmt.Errorf("unexpected dial")
	}))

	tests := []struct {
		name string
		cfg  check.Config
		key  string
	}{
		{"missing url", check.Config{}, "url"},
		{"bad scheme", check.Config{"url": "ftp://example.com"}, "url"},
		{"no host", check.Config{"url": "https://"}, "url"},
		{"bad status", check.Config{"url": "https://example.com", "expected_status": 700}, "expected_status"},
		{"bad method", check.Config{"url": "https://example.com", "method": "BREW"}, "method"},
		{"password only", check.Config{"url": "https://example.com", "auth_password": "x"}, "auth_username"},
		{"negative redirects", check.Config{"url": "https://example.com", "max_redirects": -1}, "max_redirects"},
		{"unknown key", check.Config{"url": "https://example.com", "retries": 3}, "retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCheck(t, c, tt.cfg)
			require.Equal(t, check.StatusError, res.Status())
			assert.Equal(t, "config", field[string](t, res, "error_kind"))
			assert.Contains(t, res.Message(), tt.key)
		})
	}
	assert.Zero(t, dials.Load())
}

func TestEntryMetadata(t *testing.T) {
	e := New().Entry()
	assert.Equal(t, "website_status", e.Type)
	assert.Equal(t, []string{"url"}, e.Required)
	assert.Contains(t, e.Optional, "expected_status")
	assert.Contains(t, e.Optional, "verify_ssl")
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(newRouter())
	defer srv.Close()

	p, err := New().Factory(check.Config{"url": srv.URL})
	require.NoError(t, err)
	require.Empty(t, p.Validate())

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	res := p.Run(ctx)
	assert.Equal(t, check.StatusError, res.Status())
	assert.Equal(t, "network", field[string](t, res, "error_kind"))
}
