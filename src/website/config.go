// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package website

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
)

// Configuration keys.
const (
	keyURL               = "url"
	keyTimeout           = "timeout"
	keyExpectedStatus    = "expected_status"
	keyMethod            = "method"
	keyHeaders           = "headers"
	keyBody              = "body"
	keyAuthUsername      = "auth_username"
	keyAuthPassword      = "auth_password"
	keyVerifySSL         = "verify_ssl"
	keyFollowRedirects   = "follow_redirects"
	keyExpectedContent   = "expected_content"
	keyUnexpectedContent = "unexpected_content"
	keyMaxRedirects      = "max_redirects"
	keyMaxBodyBytes      = "max_body_bytes"
	keyUserAgent         = "user_agent"
)

var (
	requiredKeys = []string{keyURL}
	optionalKeys = []string{
		keyTimeout, keyExpectedStatus, keyMethod, keyHeaders, keyBody,
		keyAuthUsername, keyAuthPassword, keyVerifySSL, keyFollowRedirects,
		keyExpectedContent, keyUnexpectedContent,
		keyMaxRedirects, keyMaxBodyBytes, keyUserAgent,
	}
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRedirects = 10
	defaultMaxBodyBytes = 10 << 20
	defaultUserAgent    = "probekit/1.0 (+https://github.com/H0llyW00dzZ/probekit)"
)

var methods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

type config struct {
	url               *url.URL
	timeout           time.Duration
	expectedStatus    []int
	method            string
	headers           map[string]string
	body              string
	username          string
	password          string
	verifySSL         bool
	followRedirects   bool
	expectedContent   string
	unexpectedContent string
	maxRedirects      int
	maxBodyBytes      int64
	userAgent         string
}

// settings mirrors the configuration keys before validation.
type settings struct {
	URL               string            `mapstructure:"url"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	ExpectedStatus    []int             `mapstructure:"expected_status"`
	Method            string            `mapstructure:"method"`
	Headers           map[string]string `mapstructure:"headers"`
	Body              string            `mapstructure:"body"`
	AuthUsername      string            `mapstructure:"auth_username"`
	AuthPassword      string            `mapstructure:"auth_password"`
	VerifySSL         bool              `mapstructure:"verify_ssl"`
	FollowRedirects   bool              `mapstructure:"follow_redirects"`
	ExpectedContent   string            `mapstructure:"expected_content"`
	UnexpectedContent string            `mapstructure:"unexpected_content"`
	MaxRedirects      int               `mapstructure:"max_redirects"`
	MaxBodyBytes      int64             `mapstructure:"max_body_bytes"`
	UserAgent         string            `mapstructure:"user_agent"`
}

func defaultSettings() settings {
	return settings{
		Timeout:         defaultTimeout,
		Method:          http.MethodGet,
		VerifySSL:       true,
		FollowRedirects: true,
		MaxRedirects:    defaultMaxRedirects,
		MaxBodyBytes:    defaultMaxBodyBytes,
		UserAgent:       defaultUserAgent,
	}
}

func decodeConfig(raw check.Config) (config, []check.Violation) {
	s := defaultSettings()
	d := check.NewDecoder(raw)
	d.Decode(&s)
	d.Require(requiredKeys...)

	var cfg config
	if rawURL := strings.TrimSpace(s.URL); rawURL != "" {
		u, err := url.Parse(rawURL)
		switch {
		case err != nil:
			d.Invalid(keyURL, "invalid URL: %v", err)
		case u.Scheme != "http" && u.Scheme != "https":
			d.Invalid(keyURL, "scheme must be http or https, got %q", u.Scheme)
		case u.Host == "":
			d.Invalid(keyURL, "missing host")
		default:
			cfg.url = u
		}
	}

	cfg.timeout = s.Timeout
	if cfg.timeout <= 0 {
		d.Invalid(keyTimeout, "must be positive")
	}

	cfg.expectedStatus = s.ExpectedStatus
	if !d.Present(keyExpectedStatus) {
		cfg.expectedStatus = []int{http.StatusOK}
	}
	for _, code := range cfg.expectedStatus {
		if code < 100 || code > 599 {
			d.Invalid(keyExpectedStatus, "invalid HTTP status code %d", code)
			break
		}
	}
	if len(cfg.expectedStatus) == 0 {
		d.Invalid(keyExpectedStatus, "must list at least one status code")
	}

	cfg.method = strings.ToUpper(strings.TrimSpace(s.Method))
	if !slices.Contains(methods, cfg.method) {
		d.Invalid(keyMethod, "unsupported method %q", cfg.method)
	}

	cfg.headers = s.Headers
	cfg.body = s.Body
	cfg.username = s.AuthUsername
	cfg.password = s.AuthPassword
	if cfg.password != "" && cfg.username == "" {
		d.Invalid(keyAuthUsername, "is required when auth_password is set")
	}

	cfg.verifySSL = s.VerifySSL
	cfg.followRedirects = s.FollowRedirects
	cfg.expectedContent = s.ExpectedContent
	cfg.unexpectedContent = s.UnexpectedContent

	cfg.maxRedirects = s.MaxRedirects
	if cfg.maxRedirects < 0 {
		d.Invalid(keyMaxRedirects, "must not be negative, got %d", cfg.maxRedirects)
	}
	cfg.maxBodyBytes = s.MaxBodyBytes
	if cfg.maxBodyBytes <= 0 {
		d.Invalid(keyMaxBodyBytes, "must be positive, got %d", cfg.maxBodyBytes)
	}
	cfg.userAgent = s.UserAgent

	return cfg, d.Violations()
}
