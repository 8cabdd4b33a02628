// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package pool provides a bounded, concurrency-safe connection pool for
// checkers that reuse expensive connections across probes.
//
// Capacity is enforced with a weighted semaphore, so a saturated pool
// makes callers wait instead of dialing without limit. [Pool.Do] is the
// preferred entry point: it releases the connection on every exit path,
// including errors and panics inside the callback.
//
//	p := pool.New(func(ctx context.Context, addr string) (*dns.Conn, error) {
//	    return client.DialContext(ctx, addr)
//	}, pool.WithMaxActive(4))
//	defer p.Close()
//
//	err := p.Do(ctx, "192.0.2.53:53", func(conn *dns.Conn) error {
//	    _, _, err := client.ExchangeWithConnContext(ctx, msg, conn)
//	    return err
//	})
package pool
