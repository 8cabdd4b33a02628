// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mailserver

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"fmt"
	"math/big"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// testPKI holds a self-signed server certificate and a client config
// that trusts it.
type testPKI struct {
	server *tls.Config
	client *tls.Config
}

func newTestPKI(t *testing.T) testPKI {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "mx1.example.com"},
		DNSNames:              []string{"mx1.example.com", "mail.example.com"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return testPKI{
		server: &tls.Config{
			Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}},
			MinVersion:   tls.VersionTLS12,
		},
		client: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
	}
}

// serverConn is the server side of one fake mail session.
type serverConn struct {
	raw  net.Conn
	text *textproto.Conn
	tls  bool
}

func (c *serverConn) upgrade(cfg *tls.Config) error {
	tlsConn := tls.Server(c.raw, cfg)
	if err := tlsConn.Handshake(); err != nil {
		return err
	}
	c.raw = tlsConn
	c.text = textproto.NewConn(tlsConn)
	c.tls = true
	return nil
}

func (c *serverConn) line(format string, args ...any) {
	_ = c.text.PrintfLine(format, args...)
}

// fakeServer accepts connections on 127.0.0.1 and runs handle for each.
type fakeServer struct {
	addr string

	mu     sync.Mutex
	dialed []string
}

// startServer serves handle until the test ends. With implicit set, the
// connection is wrapped in TLS before the greeting.
func startServer(t *testing.T, implicit *tls.Config, handle func(*serverConn)) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer conn.Close()
				_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
				sc := &serverConn{raw: conn, text: textproto.NewConn(conn)}
				if implicit != nil {
					if err := sc.upgrade(implicit); err != nil {
						return
					}
				}
				handle(sc)
			}()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		wg.Wait()
	})
	return &fakeServer{addr: ln.Addr().String()}
}

// dialer routes every connection to the fake server and records the
// requested address.
func (s *fakeServer) dialer() DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		s.mu.Lock()
		s.dialed = append(s.dialed, addr)
		s.mu.Unlock()
		var d net.Dialer
		return d.DialContext(ctx, network, s.addr)
	}
}

func (s *fakeServer) lastDialed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dialed) == 0 {
		return ""
	}
	return s.dialed[len(s.dialed)-1]
}

// smtpServer scripts a minimal ESMTP server.
type smtpServer struct {
	starttls  *tls.Config
	authMechs string
	user      string
	pass      string
	noEHLO    bool
	rejectTo  string

	mu       sync.Mutex
	messages []string
}

func (s *smtpServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func (s *smtpServer) handle(c *serverConn) {
	c.line("220 mx1.example.com ESMTP ready")
	for {
		line, err := c.text.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "EHLO":
			if s.noEHLO {
				c.line("502 command not implemented")
				continue
			}
			ext := []string{"mx1.example.com greets " + arg, "PIPELINING", "SIZE 10240000", "8BITMIME"}
			if s.starttls != nil && !c.tls {
				ext = append(ext, "STARTTLS")
			}
			if s.authMechs != "" {
				ext = append(ext, "AUTH "+s.authMechs)
			}
			for i, e := range ext {
				sep := "-"
				if i == len(ext)-1 {
					sep = " "
				}
				c.line("250%s%s", sep, e)
			}
		case "HELO":
			c.line("250 mx1.example.com")
		case "STARTTLS":
			c.line("220 2.0.0 ready to start TLS")
			if err := c.upgrade(s.starttls); err != nil {
				return
			}
		case "AUTH":
			mech, initial, _ := strings.Cut(arg, " ")
			var user, pass string
			switch strings.ToUpper(mech) {
			case "PLAIN":
				b, _ := base64.StdEncoding.DecodeString(initial)
				parts := strings.Split(string(b), "\x00")
				if len(parts) == 3 {
					user, pass = parts[1], parts[2]
				}
			case "LOGIN":
				c.line("334 VXNlcm5hbWU6")
				u, _ := c.text.ReadLine()
				c.line("334 UGFzc3dvcmQ6")
				p, _ := c.text.ReadLine()
				ub, _ := base64.StdEncoding.DecodeString(u)
				pb, _ := base64.StdEncoding.DecodeString(p)
				user, pass = string(ub), string(pb)
			}
			if user == s.user && pass == s.pass {
				c.line("235 2.7.0 authentication successful")
			} else {
				c.line("535 5.7.8 authentication credentials invalid")
			}
		case "MAIL":
			c.line("250 2.1.0 sender ok")
		case "RCPT":
			if s.rejectTo != "" && strings.Contains(arg, s.rejectTo) {
				c.line("550 5.1.1 mailbox unavailable")
				continue
			}
			c.line("250 2.1.5 recipient ok")
		case "DATA":
			c.line("354 end data with <CR><LF>.<CR><LF>")
			lines, err := c.text.ReadDotLines()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.messages = append(s.messages, strings.Join(lines, "\n"))
			s.mu.Unlock()
			c.line("250 2.0.0 queued")
		case "QUIT":
			c.line("221 2.0.0 bye")
			return
		default:
			c.line("502 5.5.2 command not recognized")
		}
	}
}

// imapServer scripts a minimal IMAP4rev1 server.
type imapServer struct {
	starttls      *tls.Config
	loginDisabled bool
	user          string
	pass          string
	exists        int
}

func (s *imapServer) handle(c *serverConn) {
	c.line("* OK mail.example.com ready")
	for {
		line, err := c.text.ReadLine()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			c.line("* BAD missing command")
			continue
		}
		tag, cmd := fields[0], strings.ToUpper(fields[1])
		switch cmd {
		case "CAPABILITY":
			caps := "IMAP4rev1 IDLE"
			if s.starttls != nil && !c.tls {
				caps += " STARTTLS"
			}
			if s.loginDisabled && !c.tls {
				caps += " LOGINDISABLED"
			}
			c.line("* CAPABILITY %s", caps)
			c.line("%s OK CAPABILITY completed", tag)
		case "STARTTLS":
			if s.starttls == nil {
				c.line("%s NO STARTTLS not available", tag)
				continue
			}
			c.line("%s OK begin TLS negotiation now", tag)
			if err := c.upgrade(s.starttls); err != nil {
				return
			}
		case "LOGIN":
			if len(fields) != 4 {
				c.line("%s BAD invalid arguments", tag)
				continue
			}
			user, pass := imapString(fields[2]), imapString(fields[3])
			if user == s.user && pass == s.pass {
				c.line("%s OK LOGIN completed", tag)
			} else {
				c.line("%s NO [AUTHENTICATIONFAILED] invalid credentials", tag)
			}
		case "EXAMINE", "SELECT":
			c.line("* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft)")
			c.line("* %d EXISTS", s.exists)
			c.line("* 0 RECENT")
			c.line("%s OK [READ-ONLY] EXAMINE completed", tag)
		case "LOGOUT":
			c.line("* BYE logging out")
			c.line("%s OK LOGOUT completed", tag)
			return
		default:
			c.line("%s BAD unknown command", tag)
		}
	}
}

// imapString reads an atom or a quoted string argument.
func imapString(arg string) string {
	if s, err := strconv.Unquote(arg); err == nil {
		return s
	}
	return arg
}

// pop3Server scripts a minimal POP3 server.
type pop3Server struct {
	starttls *tls.Config
	noCAPA   bool
	user     string
	pass     string
	count    int
	size     int
}

func (s *pop3Server) handle(c *serverConn) {
	c.line("+OK POP3 server ready")
	var user string
	for {
		line, err := c.text.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "CAPA":
			if s.noCAPA {
				c.line("-ERR unknown command")
				continue
			}
			c.line("+OK capability list follows")
			c.line("USER")
			c.line("UIDL")
			if s.starttls != nil && !c.tls {
				c.line("STLS")
			}
			c.line(".")
		case "STLS":
			c.line("+OK begin TLS negotiation")
			if err := c.upgrade(s.starttls); err != nil {
				return
			}
		case "USER":
			user = arg
			c.line("+OK send password")
		case "PASS":
			if user == s.user && arg == s.pass {
				c.line("+OK mailbox locked and ready")
			} else {
				c.line("-ERR invalid credentials")
			}
		case "STAT":
			c.line("+OK %d %d", s.count, s.size)
		case "QUIT":
			c.line("+OK bye")
			return
		default:
			c.line("-ERR unknown command")
		}
	}
}

// mxExchanger answers MX queries for example.com and NXDOMAIN otherwise.
type mxExchanger struct {
	records []string
}

func (e mxExchanger) ExchangeContext(_ context.Context, m *dns.Msg, _ string) (*dns.Msg, time.Duration, error) {
	r := new(dns.Msg)
	r.SetReply(m)
	q := m.Question[0]
	if q.Name != "example.com." {
		r.Rcode = dns.RcodeNameError
		return r, time.Millisecond, nil
	}
	if q.Qtype == dns.TypeMX {
		for _, rec := range e.records {
			rr, err := dns.NewRR(rec)
			if err != nil {
				return nil, 0, fmt.Errorf("bad fixture %q: %w", rec, err)
			}
			r.Answer = append(r.Answer, rr)
		}
	}
	return r, time.Millisecond, nil
}
