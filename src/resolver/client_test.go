// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/pool"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestDNSServer starts a local DNS server that responds with configurable answers.
// It returns the server address (ip:port) and a cleanup function.
func startTestDNSServer(t *testing.T, handler dns.HandlerFunc) (string, func()) {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err, "failed to listen")

	server := &dns.Server{
		PacketConn: pc,
		Handler:    handler,
	}

	started := make(chan struct{})
	server.NotifyStartedFunc = func() { close(started) }
	go func() {
		if err := server.ActivateAndServe(); err != nil {
			// Server shutdown is expected after started.
			select {
			case <-started:
			default:
				t.Logf("DNS server error: %v", err)
			}
		}
	}()

	<-started
	addr := pc.LocalAddr().String()

	return addr, func() {
		_ = server.Shutdown()
	}
}

// startTestTCPDNSServer is the TCP variant. It also counts accepted
// connections so tests can observe reuse.
func startTestTCPDNSServer(t *testing.T, handler dns.HandlerFunc) (string, *atomic.Int32, func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to listen")

	accepted := new(atomic.Int32)
	server := &dns.Server{
		Listener: &countingListener{Listener: ln, n: accepted},
		Handler:  handler,
	}

	started := make(chan struct{})
	server.NotifyStartedFunc = func() { close(started) }
	go func() {
		_ = server.ActivateAndServe()
	}()

	<-started
	return ln.Addr().String(), accepted, func() {
		_ = server.Shutdown()
	}
}

type countingListener struct {
	net.Listener
	n *atomic.Int32
}

func (l *countingListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err == nil {
		l.n.Add(1)
	}
	return c, err
}

func answerA(ip string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   r.Question[0].Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    60,
			},
			A: net.ParseIP(ip),
		})
		_ = w.WriteMsg(m)
	}
}

// flakyExchanger fails the first n calls with a network error.
type flakyExchanger struct {
	failures int32
	calls    atomic.Int32
	reply    func(m *dns.Msg) *dns.Msg
}

func (f *flakyExchanger) ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, 0, &net.OpError{Op: "read", Net: "udp", Err: errors.New("connection refused")}
	}
	return f.reply(m), time.Millisecond, nil
}

func emptyReply(m *dns.Msg) *dns.Msg {
	r := new(dns.Msg)
	r.SetReply(m)
	return r
}

func TestQuery(t *testing.T) {
	t.Run("successful query", func(t *testing.T) {
		addr, cleanup := startTestDNSServer(t, answerA("192.0.2.1"))
		defer cleanup()

		c := New(WithServer(addr), WithTimeout(2*time.Second))
		ans, err := c.Query(context.Background(), Question{Name: "Example.com", Type: dns.TypeA})
		require.NoError(t, err)
		require.NoError(t, ans.Err(dns.TypeA))

		recs, ttl := ans.Records(dns.TypeA)
		assert.Equal(t, []string{"192.0.2.1"}, recs)
		assert.Equal(t, uint32(60), ttl)
		assert.Equal(t, addr, ans.Server)
	})

	t.Run("per-question server overrides the default", func(t *testing.T) {
		addr, cleanup := startTestDNSServer(t, answerA("192.0.2.7"))
		defer cleanup()

		c := New(WithServer("127.0.0.1:1"), WithMaxRetries(0))
		ans, err := c.Query(context.Background(), Question{Name: "example.com", Type: dns.TypeA, Server: addr})
		require.NoError(t, err)
		recs, _ := ans.Records(dns.TypeA)
		assert.Equal(t, []string{"192.0.2.7"}, recs)
	})

	t.Run("sets DO bit and clears RD on request", func(t *testing.T) {
		var gotDO, gotRD atomic.Bool
		addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
			if opt := r.IsEdns0(); opt != nil {
				gotDO.Store(opt.Do())
			}
			gotRD.Store(r.RecursionDesired)
			m := new(dns.Msg)
			m.SetReply(r)
			m.AuthenticatedData = true
			m.Authoritative = true
			_ = w.WriteMsg(m)
		})
		defer cleanup()

		c := New(WithServer(addr))
		ans, err := c.Query(context.Background(), Question{
			Name: "example.com", Type: dns.TypeA, DNSSEC: true, NoRecursion: true,
		})
		require.NoError(t, err)
		assert.True(t, gotDO.Load())
		assert.False(t, gotRD.Load())
		assert.True(t, ans.AuthenticatedData())
		assert.True(t, ans.Authoritative())
	})

	t.Run("invalid domain", func(t *testing.T) {
		c := New(WithServer("127.0.0.1:1"))
		_, err := c.Query(context.Background(), Question{Name: "not a domain", Type: dns.TypeA})
		assert.ErrorIs(t, err, ErrInvalidDomain)
	})

	t.Run("context cancelled", func(t *testing.T) {
		addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
			time.Sleep(2 * time.Second)
		})
		defer cleanup()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := New(WithServer(addr), WithTimeout(500*time.Millisecond))
		_, err := c.Query(ctx, Question{Name: "example.com", Type: dns.TypeA})
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("unreachable server is a timeout", func(t *testing.T) {
		// A UDP socket that never answers.
		pc, err := net.ListenPacket("udp", "127.0.0.1:0")
		require.NoError(t, err)
		defer pc.Close()

		c := New(WithServer(pc.LocalAddr().String()), WithTimeout(100*time.Millisecond), WithMaxRetries(0))
		_, err = c.Query(context.Background(), Question{Name: "example.com", Type: dns.TypeA})
		assert.ErrorIs(t, err, ErrTimeout)
	})
}

func TestQueryRetriesNetworkErrors(t *testing.T) {
	ex := &flakyExchanger{failures: 2, reply: emptyReply}
	c := New(WithServer("192.0.2.53"), WithExchanger(ex), WithRetryWait(time.Millisecond))

	ans, err := c.Query(context.Background(), Question{Name: "example.com", Type: dns.TypeA})
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeSuccess, ans.Rcode())
	assert.Equal(t, int32(3), ex.calls.Load())
	assert.Equal(t, "192.0.2.53:53", ans.Server)
}

func TestQueryGivesUpAfterMaxRetries(t *testing.T) {
	ex := &flakyExchanger{failures: 10, reply: emptyReply}
	c := New(WithServer("192.0.2.53"), WithExchanger(ex), WithMaxRetries(1), WithRetryWait(time.Millisecond))

	_, err := c.Query(context.Background(), Question{Name: "example.com", Type: dns.TypeA})
	require.Error(t, err)

	var opErr *net.OpError
	assert.ErrorAs(t, err, &opErr)
	assert.Equal(t, int32(2), ex.calls.Load())
}

func TestQueryCache(t *testing.T) {
	var hits atomic.Int32
	addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		hits.Add(1)
		answerA("192.0.2.1")(w, r)
	})
	defer cleanup()

	cache := NewMemoryCache(time.Minute)
	c := New(WithServer(addr), WithCache(cache))

	for range 3 {
		_, err := c.Query(context.Background(), Question{Name: "example.com", Type: dns.TypeA})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())

	c.FlushCache()
	_, err := c.Query(context.Background(), Question{Name: "example.com", Type: dns.TypeA})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestQueryTruncatedFallsBackToTCP(t *testing.T) {
	// Both servers must share a port, so bind TCP first and reuse it for UDP.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	pc, err := net.ListenPacket("udp", ln.Addr().String())
	if err != nil {
		ln.Close()
		t.Skipf("cannot bind UDP on the same port: %v", err)
	}

	udp := &dns.Server{PacketConn: pc, Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		m.Truncated = true
		_ = w.WriteMsg(m)
	})}
	tcp := &dns.Server{Listener: ln, Handler: answerA("192.0.2.9")}

	for _, s := range []*dns.Server{udp, tcp} {
		started := make(chan struct{})
		s.NotifyStartedFunc = func() { close(started) }
		go func(s *dns.Server) { _ = s.ActivateAndServe() }(s)
		<-started
	}
	defer udp.Shutdown()
	defer tcp.Shutdown()

	c := New(WithServer(ln.Addr().String()))
	ans, err := c.Query(context.Background(), Question{Name: "example.com", Type: dns.TypeA})
	require.NoError(t, err)
	recs, _ := ans.Records(dns.TypeA)
	assert.Equal(t, []string{"192.0.2.9"}, recs)
}

func TestQueryTCPConnPoolReuse(t *testing.T) {
	addr, accepted, cleanup := startTestTCPDNSServer(t, answerA("192.0.2.1"))
	defer cleanup()

	p := NewConnPool(time.Second, nil, pool.WithMaxActive(2))
	defer p.Close()

	c := New(WithServer(addr), WithTransport("TCP"), WithConnPool(p))
	assert.Equal(t, TransportTCP, c.Transport())

	for range 5 {
		ans, err := c.Query(context.Background(), Question{Name: "example.com", Type: dns.TypeA})
		require.NoError(t, err)
		require.NoError(t, ans.Err(dns.TypeA))
	}

	assert.Equal(t, int32(1), accepted.Load(), "queries should share one connection")
	active, idle := p.Stats()
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, idle)
}

func TestLookupMX(t *testing.T) {
	addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		name := r.Question[0].Name
		switch name {
		case "example.com.":
			m.Answer = []dns.RR{
				&dns.MX{Hdr: hdr(name, dns.TypeMX, 60), Preference: 20, Mx: "mx2.example.com."},
				&dns.MX{Hdr: hdr(name, dns.TypeMX, 60), Preference: 10, Mx: "mx1.example.com."},
			}
		case "nullmx.example.":
			m.Answer = []dns.RR{&dns.MX{Hdr: hdr(name, dns.TypeMX, 60), Preference: 0, Mx: "."}}
		default:
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})
	defer cleanup()

	c := New(WithServer(addr))

	mxs, err := c.LookupMX(context.Background(), "example.com", "")
	require.NoError(t, err)
	assert.Equal(t, []MX{{Host: "mx1.example.com", Pref: 10}, {Host: "mx2.example.com", Pref: 20}}, mxs)

	_, err = c.LookupMX(context.Background(), "missing.example", "")
	assert.ErrorIs(t, err, ErrNXDomain)

	_, err = c.LookupMX(context.Background(), "nullmx.example", "")
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestLookupAddrs(t *testing.T) {
	addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		switch q.Qtype {
		case dns.TypeA:
			m.Answer = []dns.RR{&dns.A{Hdr: hdr(q.Name, dns.TypeA, 60), A: net.ParseIP("192.0.2.25")}}
		case dns.TypeAAAA:
			m.Answer = []dns.RR{&dns.AAAA{Hdr: hdr(q.Name, dns.TypeAAAA, 60), AAAA: net.ParseIP("2001:db8::25")}}
		}
		_ = w.WriteMsg(m)
	})
	defer cleanup()

	c := New(WithServer(addr))
	addrs, err := c.LookupAddrs(context.Background(), "mx1.example.com", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.25", "2001:db8::25"}, addrs)
}

func TestWithPort(t *testing.T) {
	assert.Equal(t, "192.0.2.1:53", WithPort("192.0.2.1", "53"))
	assert.Equal(t, "192.0.2.1:5353", WithPort("192.0.2.1:5353", "53"))
	assert.Equal(t, "[2001:db8::1]:853", WithPort("2001:db8::1", "853"))
	assert.Equal(t, "[2001:db8::1]:53", WithPort("[2001:db8::1]", "53"))
	assert.Equal(t, "", WithPort("  ", "53"))
}

func TestTLSTransportDefaultPort(t *testing.T) {
	c := New(WithServer("1.1.1.1"), WithTransport("tcp-tls"))
	assert.Equal(t, "1.1.1.1:853", c.Server())

	c = New(WithServer("1.1.1.1"), WithTransport("carrier-pigeon"))
	assert.Equal(t, TransportUDP, c.Transport())
	assert.Equal(t, "1.1.1.1:53", c.Server())
}

func TestSystemNameserver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resolv.conf")
	require.NoError(t, os.WriteFile(path, []byte("nameserver 192.0.2.53\nnameserver 192.0.2.54\n"), 0o600))

	old := resolvConfPath
	t.Cleanup(func() { resolvConfPath = old })

	resolvConfPath = path
	assert.Equal(t, "192.0.2.53:53", SystemNameserver())

	resolvConfPath = filepath.Join(dir, "missing")
	assert.Equal(t, "8.8.8.8:53", SystemNameserver())
}

func TestDefaultResolversIsACopy(t *testing.T) {
	r := DefaultResolvers()
	require.Len(t, r, 10)
	r[0] = "changed"
	assert.Equal(t, "8.8.8.8", DefaultResolvers()[0])
}
