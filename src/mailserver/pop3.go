// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mailserver

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/H0llyW00dzZ/probekit/src/check"
)

func (p *probe) runPOP3(ctx context.Context, s *session, raw *check.Fields) error {
	cfg := p.cfg

	greeting, err := s.readLine()
	if err != nil {
		return err
	}
	raw.Set("banner", greeting)
	switch {
	case strings.HasPrefix(greeting, "+OK"):
	case strings.HasPrefix(greeting, "-ERR"):
		return protocolError(ErrRejected, "%s", greeting)
	default:
		return protocolError(ErrBadGreeting, "%q", greeting)
	}

	caps, err := s.pop3Capabilities()
	if err != nil {
		return err
	}
	raw.Set("starttls_supported", slices.Contains(caps, "STLS"))

	if cfg.useTLS {
		if !slices.Contains(caps, "STLS") {
			raw.Set("capabilities", caps)
			return protocolError(ErrUnsupported, "STLS requested but not advertised by %s", s.host)
		}
		if _, err := s.pop3Command("STLS"); err != nil {
			return err
		}
		if err := s.startTLS(ctx, p.checker.tlsConfig(s.host, cfg.verifySSL)); err != nil {
			return err
		}
		if caps, err = s.pop3Capabilities(); err != nil {
			return err
		}
	}
	raw.Set("capabilities", caps)
	if v := s.tlsVersion(); v != "" {
		raw.Set("tls_version", v)
	}

	if cfg.username != "" {
		raw.Set("authenticated", false)
		if _, err := s.pop3Command("USER %s", cfg.username); err != nil {
			return authError(err)
		}
		if _, err := s.pop3Command("PASS %s", cfg.password); err != nil {
			return authError(err)
		}
		raw.Set("authenticated", true)

		if count, size, err := s.pop3Stat(); err == nil {
			raw.Set("message_count", count).Set("mailbox_size", size)
		} else {
			raw.Set("mailbox_error", err.Error())
		}
	}

	_, _ = s.pop3Command("QUIT")
	return nil
}

// pop3Command sends a command and returns the text after +OK.
func (s *session) pop3Command(format string, args ...any) (string, error) {
	if err := s.writeLine(format, args...); err != nil {
		return "", err
	}
	line, err := s.readLine()
	if err != nil {
		return "", err
	}
	if rest, ok := strings.CutPrefix(line, "+OK"); ok {
		return strings.TrimSpace(rest), nil
	}
	return "", protocolError(ErrRejected, "%s", line)
}

// pop3Capabilities issues CAPA. Servers without CAPA report none.
func (s *session) pop3Capabilities() ([]string, error) {
	if _, err := s.pop3Command("CAPA"); err != nil {
		if isRejection(err) {
			return nil, nil
		}
		return nil, err
	}
	lines, err := s.text.ReadDotLines()
	if err != nil {
		return nil, wrapIO(err)
	}
	caps := make([]string, 0, len(lines))
	for _, line := range lines {
		if name, _, _ := strings.Cut(strings.TrimSpace(line), " "); name != "" {
			caps = append(caps, strings.ToUpper(name))
		}
	}
	return caps, nil
}

func (s *session) pop3Stat() (count, size int, err error) {
	reply, err := s.pop3Command("STAT")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(reply)
	if len(fields) < 2 {
		return 0, 0, protocolError(ErrRejected, "malformed STAT reply %q", reply)
	}
	if count, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, protocolError(ErrRejected, "malformed STAT reply %q", reply)
	}
	if size, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, protocolError(ErrRejected, "malformed STAT reply %q", reply)
	}
	return count, size, nil
}
