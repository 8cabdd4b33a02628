// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mailserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/google/uuid"
)

// smtpExtensions holds the EHLO keywords mapped to their parameters.
type smtpExtensions map[string]string

func (e smtpExtensions) has(name string) bool {
	_, ok := e[name]
	return ok
}

func (e smtpExtensions) list() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		if v != "" {
			k += " " + v
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e smtpExtensions) authMechanisms() []string {
	return strings.Fields(strings.ToUpper(e["AUTH"]))
}

func parseEHLO(msg string) smtpExtensions {
	ext := make(smtpExtensions)
	lines := strings.Split(msg, "\n")
	// The first line is the server greeting.
	for _, line := range lines[1:] {
		name, params, _ := strings.Cut(strings.TrimSpace(line), " ")
		if name == "" {
			continue
		}
		ext[strings.ToUpper(name)] = params
	}
	return ext
}

func (p *probe) runSMTP(ctx context.Context, s *session, raw *check.Fields) error {
	cfg := p.cfg

	_, banner, err := s.readCode(220)
	raw.Set("banner", banner)
	if err != nil {
		return err
	}

	ext, err := s.hello(cfg.heloName)
	if err != nil {
		return err
	}
	raw.Set("starttls_supported", ext.has("STARTTLS"))

	if cfg.useTLS {
		if !ext.has("STARTTLS") {
			raw.Set("extensions", ext.list())
			return protocolError(ErrUnsupported, "STARTTLS requested but not advertised by %s", s.host)
		}
		if _, _, err := s.cmd(220, "STARTTLS"); err != nil {
			return err
		}
		if err := s.startTLS(ctx, p.checker.tlsConfig(s.host, cfg.verifySSL)); err != nil {
			return err
		}
		// Extensions must be rediscovered after the upgrade.
		if ext, err = s.hello(cfg.heloName); err != nil {
			return err
		}
	}
	raw.Set("extensions", ext.list())
	if v := s.tlsVersion(); v != "" {
		raw.Set("tls_version", v)
	}

	if cfg.username != "" {
		raw.Set("authenticated", false)
		if err := s.smtpAuth(ext, cfg.username, cfg.password); err != nil {
			return err
		}
		raw.Set("authenticated", true)
	}

	if cfg.testSend {
		raw.Set("test_send_success", false)
		if err := s.sendTestMessage(cfg); err != nil {
			return err
		}
		raw.Set("test_send_success", true)
	}

	_, _, _ = s.cmd(221, "QUIT")
	return nil
}

// hello sends EHLO, falling back to HELO for servers without ESMTP.
func (s *session) hello(name string) (smtpExtensions, error) {
	_, msg, err := s.cmd(250, "EHLO %s", name)
	if err == nil {
		return parseEHLO(msg), nil
	}
	if !isRejection(err) {
		return nil, err
	}
	if _, _, err := s.cmd(250, "HELO %s", name); err != nil {
		return nil, err
	}
	return smtpExtensions{}, nil
}

func (s *session) smtpAuth(ext smtpExtensions, username, password string) error {
	mechs := ext.authMechanisms()
	switch {
	case slices.Contains(mechs, "PLAIN"):
		token := base64.StdEncoding.EncodeToString([]byte("\x00" + username + "\x00" + password))
		if _, _, err := s.cmd(235, "AUTH PLAIN %s", token); err != nil {
			return authError(err)
		}
	case slices.Contains(mechs, "LOGIN"):
		if _, _, err := s.cmd(334, "AUTH LOGIN"); err != nil {
			return authError(err)
		}
		if _, _, err := s.cmd(334, "%s", base64.StdEncoding.EncodeToString([]byte(username))); err != nil {
			return authError(err)
		}
		if _, _, err := s.cmd(235, "%s", base64.StdEncoding.EncodeToString([]byte(password))); err != nil {
			return authError(err)
		}
	case len(mechs) == 0:
		return protocolError(ErrUnsupported, "credentials supplied but %s does not advertise AUTH", s.host)
	default:
		return protocolError(ErrUnsupported, "no supported AUTH mechanism in %s", strings.Join(mechs, " "))
	}
	return nil
}

func (s *session) sendTestMessage(cfg config) error {
	steps := []struct {
		expect int
		line   string
	}{
		{250, "MAIL FROM:<" + cfg.from + ">"},
		{25, "RCPT TO:<" + cfg.to + ">"},
		{354, "DATA"},
	}
	for _, step := range steps {
		if _, _, err := s.cmd(step.expect, "%s", step.line); err != nil {
			return sendError(err)
		}
	}

	w := s.text.DotWriter()
	if _, err := io.WriteString(w, buildMessage(cfg)); err != nil {
		return check.NetworkError(err)
	}
	if err := w.Close(); err != nil {
		return check.NetworkError(err)
	}
	if _, _, err := s.readCode(250); err != nil {
		return sendError(err)
	}
	return nil
}

func buildMessage(cfg config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: <%s>\r\n", cfg.from)
	fmt.Fprintf(&b, "To: <%s>\r\n", cfg.to)
	fmt.Fprintf(&b, "Subject: %s\r\n", strings.NewReplacer("\r", " ", "\n", " ").Replace(cfg.subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), cfg.heloName)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(cfg.message)
	b.WriteString("\r\n")
	return b.String()
}
