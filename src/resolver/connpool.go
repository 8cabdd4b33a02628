// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/pool"
	"github.com/miekg/dns"
)

// ConnPool reuses TCP and DNS-over-TLS connections between queries.
// Keys have the form "transport://host:port".
type ConnPool = pool.Pool[*dns.Conn]

// NewConnPool creates a [ConnPool]. Connections are dialed with timeout;
// tlsConfig is used for the tcp-tls transport and may be nil.
func NewConnPool(timeout time.Duration, tlsConfig *tls.Config, opts ...pool.Option) *ConnPool {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return pool.New(func(ctx context.Context, key string) (*dns.Conn, error) {
		transport, addr := splitPoolKey(key)
		client := &dns.Client{Net: transport, Timeout: timeout, TLSConfig: tlsConfig}
		return client.DialContext(ctx, addr)
	}, opts...)
}

// pooledExchanger sends queries over pooled stream connections. A
// connection that fails an exchange is closed rather than reused.
type pooledExchanger struct {
	client *dns.Client
	pool   *ConnPool
}

func (p *pooledExchanger) ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
	var (
		resp *dns.Msg
		rtt  time.Duration
	)
	err := p.pool.Do(ctx, poolKey(p.client.Net, address), func(conn *dns.Conn) error {
		var err error
		resp, rtt, err = p.client.ExchangeWithConnContext(ctx, m, conn)
		return err
	})
	return resp, rtt, err
}

func poolKey(transport, addr string) string {
	return transport + "://" + addr
}

func splitPoolKey(key string) (transport, addr string) {
	transport, addr, ok := strings.Cut(key, "://")
	if !ok {
		return TransportTCP, key
	}
	return transport, addr
}
