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
	"io"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
)

// Protocol-level failures. Errors carrying them also match
// [check.ErrProtocol].
var (
	ErrRejected      = errors.New("mailserver: server rejected the command")
	ErrUnsupported   = errors.New("mailserver: capability not supported")
	ErrAuthFailed    = errors.New("mailserver: authentication failed")
	ErrBadGreeting   = errors.New("mailserver: unexpected greeting")
	ErrSendFailed    = errors.New("mailserver: test message was not accepted")
	ErrLineTooLong   = errors.New("mailserver: response line too long")
	errSessionClosed = errors.New("mailserver: session closed")
)

// maxLine bounds a single response line.
const maxLine = 64 << 10

// replyError is a protocol failure with the server's own words.
type replyError struct {
	kind   error
	detail string
}

func (e *replyError) Error() string { return e.kind.Error() + ": " + e.detail }

func (e *replyError) Unwrap() []error { return []error{e.kind, check.ErrProtocol} }

func protocolError(kind error, format string, args ...any) error {
	return &replyError{kind: kind, detail: fmt.Sprintf(format, args...)}
}

// isRejection reports whether err is a negative reply to a command.
func isRejection(err error) bool {
	var re *replyError
	return errors.As(err, &re) && re.kind == ErrRejected
}

// authError turns a rejected command into an authentication failure.
func authError(err error) error {
	var re *replyError
	if errors.As(err, &re) && re.kind == ErrRejected {
		return &replyError{kind: ErrAuthFailed, detail: re.detail}
	}
	return err
}

func sendError(err error) error {
	var re *replyError
	if errors.As(err, &re) && re.kind == ErrRejected {
		return &replyError{kind: ErrSendFailed, detail: re.detail}
	}
	return err
}

// session is one line-oriented connection to a mail server.
type session struct {
	conn     net.Conn
	text     *textproto.Conn
	host     string
	tlsState *tls.ConnectionState
	stop     func() bool
}

func newSession(ctx context.Context, conn net.Conn, host string) *session {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	s := &session{conn: conn, text: textproto.NewConn(conn), host: host}
	// Unblock pending reads when the caller gives up.
	s.stop = context.AfterFunc(ctx, func() {
		_ = s.conn.SetDeadline(time.Unix(1, 0))
	})
	return s
}

// startTLS upgrades the connection in place.
func (s *session) startTLS(ctx context.Context, cfg *tls.Config) error {
	tlsConn := tls.Client(s.conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return check.NetworkError(fmt.Errorf("TLS handshake: %w", err))
	}
	state := tlsConn.ConnectionState()
	s.conn = tlsConn
	s.text = textproto.NewConn(tlsConn)
	s.tlsState = &state
	return nil
}

func (s *session) tlsVersion() string {
	if s.tlsState == nil {
		return ""
	}
	return tls.VersionName(s.tlsState.Version)
}

func (s *session) writeLine(format string, args ...any) error {
	if err := s.text.PrintfLine(format, args...); err != nil {
		return check.NetworkError(err)
	}
	return nil
}

func (s *session) readLine() (string, error) {
	line, err := s.text.ReadLine()
	if err != nil {
		return "", wrapIO(err)
	}
	if len(line) > maxLine {
		return "", protocolError(ErrLineTooLong, "%d bytes", len(line))
	}
	return line, nil
}

// readCode reads an SMTP-style reply, which may span several lines.
func (s *session) readCode(expect int) (int, string, error) {
	code, msg, err := s.text.ReadResponse(expect)
	if err == nil {
		return code, msg, nil
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return code, msg, protocolError(ErrRejected, "%d %s", protoErr.Code, protoErr.Msg)
	}
	return code, msg, wrapIO(err)
}

// cmd sends an SMTP-style command and reads the reply.
func (s *session) cmd(expect int, format string, args ...any) (int, string, error) {
	if err := s.writeLine(format, args...); err != nil {
		return 0, "", err
	}
	return s.readCode(expect)
}

func (s *session) Close() error {
	s.stop()
	return s.text.Close()
}

func wrapIO(err error) error {
	if errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %w", errSessionClosed, io.ErrUnexpectedEOF)
	}
	return check.NetworkError(err)
}

// replayConn serves bytes the session already read before reading
// from the connection again.
type replayConn struct {
	net.Conn
	r io.Reader
}

func (c *replayConn) Read(b []byte) (int, error) { return c.r.Read(b) }

// handOff returns the connection for a client library that reads the
// greeting itself. The consumed greeting line and anything still
// buffered are replayed first.
func (s *session) handOff(greeting string) net.Conn {
	return &replayConn{
		Conn: s.conn,
		r:    io.MultiReader(strings.NewReader(greeting+"\r\n"), s.text.R),
	}
}
