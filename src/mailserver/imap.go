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
	"sort"
	"strings"
	"sync/atomic"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

const imapInbox = "INBOX"

func (p *probe) runIMAP(ctx context.Context, s *session, raw *check.Fields) error {
	cfg := p.cfg

	greeting, err := s.readLine()
	if err != nil {
		return err
	}
	raw.Set("banner", greeting)
	preauth := false
	switch {
	case strings.HasPrefix(greeting, "* OK"):
	case strings.HasPrefix(greeting, "* PREAUTH"):
		preauth = true
	case strings.HasPrefix(greeting, "* BYE"):
		return protocolError(ErrRejected, "%s", greeting)
	default:
		return protocolError(ErrBadGreeting, "%q", greeting)
	}

	// The client reads the greeting again from the handed-off connection.
	conn := s.handOff(greeting)
	var client *imapclient.Client
	var negotiated atomic.Uint32
	if cfg.useTLS {
		tlsCfg := p.checker.tlsConfig(s.host, cfg.verifySSL)
		tlsCfg.VerifyConnection = func(cs tls.ConnectionState) error {
			negotiated.Store(uint32(cs.Version))
			return nil
		}
		client, err = imapclient.NewStartTLS(conn, &imapclient.Options{TLSConfig: tlsCfg})
		if err != nil {
			raw.Set("starttls_supported", false)
			var imapErr *imap.Error
			if errors.As(err, &imapErr) {
				return protocolError(ErrUnsupported, "STARTTLS refused by %s: %s", s.host, imapDetail(imapErr))
			}
			return check.NetworkError(fmt.Errorf("STARTTLS: %w", err))
		}
		raw.Set("starttls_supported", true)
	} else {
		client = imapclient.New(conn, nil)
	}
	defer client.Close()

	caps := client.Caps()
	if !cfg.useTLS {
		raw.Set("starttls_supported", caps.Has(imap.CapStartTLS))
	}
	raw.Set("capabilities", capList(caps))
	if v := negotiated.Load(); v != 0 {
		raw.Set("tls_version", tls.VersionName(uint16(v)))
	} else if v := s.tlsVersion(); v != "" {
		raw.Set("tls_version", v)
	}

	authenticated := preauth
	if cfg.username != "" && !preauth {
		raw.Set("authenticated", false)
		if caps.Has(imap.CapLoginDisabled) {
			return protocolError(ErrUnsupported, "%s refuses LOGIN on this connection", s.host)
		}
		if err := client.Login(cfg.username, cfg.password).Wait(); err != nil {
			return imapError(ErrAuthFailed, err)
		}
		authenticated = true
	}
	if cfg.username != "" || preauth {
		raw.Set("authenticated", authenticated)
	}

	if authenticated {
		data, err := client.Select(imapInbox, &imap.SelectOptions{ReadOnly: true}).Wait()
		if err == nil {
			raw.Set("message_count", int(data.NumMessages))
		} else {
			raw.Set("mailbox_error", imapError(ErrRejected, err).Error())
		}
	}

	_ = client.Logout().Wait()
	return nil
}

// imapError maps a failed command to kind, or to a network error when the
// server never answered it.
func imapError(kind error, err error) error {
	var imapErr *imap.Error
	if errors.As(err, &imapErr) {
		return protocolError(kind, "%s", imapDetail(imapErr))
	}
	return wrapIO(err)
}

func imapDetail(e *imap.Error) string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s] %s", e.Type, e.Code, e.Text)
	}
	return fmt.Sprintf("%s %s", e.Type, e.Text)
}

func capList(caps imap.CapSet) []string {
	out := make([]string, 0, len(caps))
	for c := range caps {
		out = append(out, strings.ToUpper(string(c)))
	}
	sort.Strings(out)
	return out
}
