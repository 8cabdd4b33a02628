// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mailserver

import (
	"net"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
)

// Supported protocols.
const (
	ProtocolSMTP = "smtp"
	ProtocolIMAP = "imap"
	ProtocolPOP3 = "pop3"
)

// Configuration keys.
const (
	keyHostname   = "hostname"
	keyProtocol   = "protocol"
	keyPort       = "port"
	keyUsername   = "username"
	keyPassword   = "password"
	keyUseSSL     = "use_ssl"
	keyUseTLS     = "use_tls"
	keyTimeout    = "timeout"
	keyResolveMX  = "resolve_mx"
	keyTestSend   = "test_send"
	keyFromEmail  = "from_email"
	keyToEmail    = "to_email"
	keySubject    = "subject"
	keyMessage    = "message"
	keyNameserver = "nameserver"
	keyHeloName   = "helo_name"
	keyVerifySSL  = "verify_ssl"
)

var (
	requiredKeys = []string{keyHostname, keyProtocol}
	optionalKeys = []string{
		keyPort, keyUsername, keyPassword, keyUseSSL, keyUseTLS, keyTimeout,
		keyResolveMX, keyTestSend, keyFromEmail, keyToEmail, keySubject,
		keyMessage, keyNameserver, keyHeloName, keyVerifySSL,
	}
)

const (
	defaultTimeout  = 10 * time.Second
	defaultSubject  = "probekit test message"
	defaultMessage  = "This is a test message sent by probekit to verify mail delivery."
	defaultHeloName = "probekit.localhost"
)

// defaultPort returns the well-known port for protocol: implicit TLS
// when ssl is set, submission when starttls is set for SMTP.
func defaultPort(protocol string, ssl, starttls bool) int {
	switch protocol {
	case ProtocolSMTP:
		switch {
		case ssl:
			return 465
		case starttls:
			return 587
		}
		return 25
	case ProtocolIMAP:
		if ssl {
			return 993
		}
		return 143
	case ProtocolPOP3:
		if ssl {
			return 995
		}
		return 110
	}
	return 0
}

type config struct {
	hostname   string
	protocol   string
	port       int
	username   string
	password   string
	useSSL     bool
	useTLS     bool
	timeout    time.Duration
	resolveMX  bool
	testSend   bool
	from       string
	to         string
	subject    string
	message    string
	nameserver string
	heloName   string
	verifySSL  bool
}

func (c config) address(host string) string {
	return net.JoinHostPort(host, strconv.Itoa(c.port))
}

type settings struct {
	Hostname   string        `mapstructure:"hostname"`
	Protocol   string        `mapstructure:"protocol"`
	Port       int           `mapstructure:"port"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ResolveMX  *bool         `mapstructure:"resolve_mx"`
	TestSend   bool          `mapstructure:"test_send"`
	FromEmail  string        `mapstructure:"from_email"`
	ToEmail    string        `mapstructure:"to_email"`
	Subject    string        `mapstructure:"subject"`
	Message    string        `mapstructure:"message"`
	Nameserver string        `mapstructure:"nameserver"`
	HeloName   string        `mapstructure:"helo_name"`
	VerifySSL  bool          `mapstructure:"verify_ssl"`
}

func decodeConfig(raw check.Config) (config, []check.Violation) {
	s := settings{
		Timeout:   defaultTimeout,
		Subject:   defaultSubject,
		Message:   defaultMessage,
		HeloName:  defaultHeloName,
		VerifySSL: true,
	}
	d := check.NewDecoder(raw)
	d.Decode(&s)
	d.Require(requiredKeys...)

	cfg := config{
		username:   s.Username,
		password:   s.Password,
		useSSL:     s.UseSSL,
		useTLS:     s.UseTLS,
		timeout:    s.Timeout,
		testSend:   s.TestSend,
		from:       s.FromEmail,
		to:         s.ToEmail,
		subject:    s.Subject,
		message:    s.Message,
		nameserver: strings.TrimSpace(s.Nameserver),
		heloName:   s.HeloName,
		verifySSL:  s.VerifySSL,
	}

	if host := strings.TrimSpace(s.Hostname); host != "" {
		norm, err := resolver.NormalizeHost(host)
		if err != nil {
			d.Invalid(keyHostname, "invalid hostname %q", host)
		}
		cfg.hostname = norm
	}

	if d.Present(keyProtocol) {
		cfg.protocol = d.OneOf(keyProtocol, s.Protocol, ProtocolSMTP, ProtocolIMAP, ProtocolPOP3)
	}

	if cfg.useSSL && cfg.useTLS {
		d.Invalid(keyUseTLS, "cannot be combined with use_ssl")
	}

	cfg.port = s.Port
	if !d.Present(keyPort) {
		cfg.port = defaultPort(cfg.protocol, cfg.useSSL, cfg.useTLS)
	} else if cfg.port < 1 || cfg.port > 65535 {
		d.Invalid(keyPort, "must be between 1 and 65535, got %d", cfg.port)
	}

	if cfg.username != "" && cfg.password == "" {
		d.Invalid(keyPassword, "is required when username is set")
	}
	if cfg.password != "" && cfg.username == "" {
		d.Invalid(keyUsername, "is required when password is set")
	}

	if cfg.timeout <= 0 {
		d.Invalid(keyTimeout, "must be positive")
	}

	// MX records only exist for domains; IPs and single labels are
	// dialed as given.
	cfg.resolveMX = cfg.protocol == ProtocolSMTP && strings.Contains(cfg.hostname, ".") &&
		net.ParseIP(cfg.hostname) == nil
	if s.ResolveMX != nil && !*s.ResolveMX {
		cfg.resolveMX = false
	}

	if cfg.testSend {
		if cfg.protocol != "" && cfg.protocol != ProtocolSMTP {
			d.Invalid(keyTestSend, "is only supported for smtp")
		}
		cfg.from = validAddress(d, keyFromEmail, cfg.from)
		cfg.to = validAddress(d, keyToEmail, cfg.to)
	}

	if strings.ContainsAny(cfg.heloName, " \r\n") {
		d.Invalid(keyHeloName, "must be a single token")
	}

	return cfg, d.Violations()
}

func validAddress(d *check.Decoder, key, value string) string {
	if value == "" {
		d.Invalid(key, "is required when test_send is set")
		return ""
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		d.Invalid(key, "invalid email address %q", value)
		return ""
	}
	return addr.Address
}
