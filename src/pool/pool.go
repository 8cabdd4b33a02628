// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Sentinel errors for the pool package.
var (
	// ErrClosed is returned by [Pool.Acquire] and [Pool.Do] after
	// [Pool.Close] has been called.
	ErrClosed = errors.New("pool: closed")

	// ErrInternalPanic is returned by [Pool.Do] when fn panics.
	// The connection involved is closed, never reused.
	ErrInternalPanic = errors.New("pool: internal panic recovered")
)

// Dialer opens a new connection for key (usually a network address).
type Dialer[C io.Closer] func(ctx context.Context, key string) (C, error)

// Pool is a bounded set of reusable connections grouped by key.
//
// At most MaxActive connections are checked out at once across all keys;
// callers beyond that block in [Pool.Acquire] until a slot frees up or
// their context ends. Released connections are kept idle, per key, up to
// MaxIdle and handed out again before dialing.
//
// A Pool is safe for concurrent use.
type Pool[C io.Closer] struct {
	dial    Dialer[C]
	sem     *semaphore.Weighted
	maxIdle int
	logger  *zap.Logger

	mu     sync.Mutex
	idle   map[string][]C
	active int
	closed bool
}

// New creates a [Pool] that opens connections with dial.
//
//	p := pool.New(dialConn,
//	    pool.WithMaxActive(8),
//	    pool.WithMaxIdle(2),
//	)
//	defer p.Close()
func New[C io.Closer](dial Dialer[C], opts ...Option) *Pool[C] {
	cfg := config{
		maxActive: defaultMaxActive,
		maxIdle:   defaultMaxIdle,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Pool[C]{
		dial:    dial,
		sem:     semaphore.NewWeighted(int64(cfg.maxActive)),
		maxIdle: cfg.maxIdle,
		logger:  cfg.logger,
		idle:    make(map[string][]C),
	}
}

// Acquire returns a connection for key, reusing an idle one when possible.
// Every successful Acquire must be paired with exactly one [Pool.Release].
func (p *Pool[C]) Acquire(ctx context.Context, key string) (C, error) {
	var zero C

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return zero, ErrClosed
	}
	p.active++
	if conns := p.idle[key]; len(conns) > 0 {
		c := conns[len(conns)-1]
		p.idle[key] = conns[:len(conns)-1]
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c, err := p.dial(ctx, key)
	if err != nil {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
		p.sem.Release(1)
		return zero, err
	}
	p.logger.Debug("pool_conn_dialed", zap.String("key", key))
	return c, nil
}

// Release returns c to the pool. Connections that are not healthy, that
// exceed the idle limit for key, or that come back after [Pool.Close] are
// closed instead.
func (p *Pool[C]) Release(key string, c C, healthy bool) {
	p.mu.Lock()
	p.active--
	keep := healthy && !p.closed && len(p.idle[key]) < p.maxIdle
	if keep {
		p.idle[key] = append(p.idle[key], c)
	}
	p.mu.Unlock()
	p.sem.Release(1)

	if !keep {
		if err := c.Close(); err != nil {
			p.logger.Debug("pool_conn_close_failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Do acquires a connection for key, calls fn with it and releases it on
// every path. The connection goes back to the idle set only when fn
// returns nil; on error or panic it is closed.
func (p *Pool[C]) Do(ctx context.Context, key string, fn func(C) error) (err error) {
	c, err := p.Acquire(ctx, key)
	if err != nil {
		return err
	}

	healthy := false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternalPanic, r)
			healthy = false
		}
		p.Release(key, c, healthy)
	}()

	err = fn(c)
	healthy = err == nil
	return err
}

// Stats reports the number of checked-out and idle connections.
func (p *Pool[C]) Stats() (active, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conns := range p.idle {
		idle += len(conns)
	}
	return p.active, idle
}

// Close closes every idle connection and makes later Acquire calls fail
// with [ErrClosed]. Connections still checked out are closed when they are
// released.
func (p *Pool[C]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = make(map[string][]C)
	p.mu.Unlock()

	var err error
	for _, conns := range idle {
		for _, c := range conns {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
