// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConn struct {
	key    string
	id     int64
	closed atomic.Bool
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

type dialCounter struct {
	n    atomic.Int64
	fail error
}

func (d *dialCounter) dial(ctx context.Context, key string) (*fakeConn, error) {
	if d.fail != nil {
		return nil, d.fail
	}
	return &fakeConn{key: key, id: d.n.Add(1)}, nil
}

func TestDoReusesHealthyConnections(t *testing.T) {
	d := &dialCounter{}
	p := New(d.dial)
	defer p.Close()

	var first, second *fakeConn
	require.NoError(t, p.Do(context.Background(), "a", func(c *fakeConn) error {
		first = c
		return nil
	}))
	require.NoError(t, p.Do(context.Background(), "a", func(c *fakeConn) error {
		second = c
		return nil
	}))

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), d.n.Load())

	active, idle := p.Stats()
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, idle)
}

func TestDoKeysAreSeparate(t *testing.T) {
	d := &dialCounter{}
	p := New(d.dial)
	defer p.Close()

	_ = p.Do(context.Background(), "a", func(c *fakeConn) error { return nil })
	_ = p.Do(context.Background(), "b", func(c *fakeConn) error {
		assert.Equal(t, "b", c.key)
		return nil
	})
	assert.Equal(t, int64(2), d.n.Load())
}

func TestDoClosesOnError(t *testing.T) {
	d := &dialCounter{}
	p := New(d.dial)
	defer p.Close()

	boom := errors.New("broken pipe")
	var used *fakeConn
	err := p.Do(context.Background(), "a", func(c *fakeConn) error {
		used = c
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, used.closed.Load())

	active, idle := p.Stats()
	assert.Equal(t, 0, active)
	assert.Equal(t, 0, idle)
}

func TestDoReleasesOnPanic(t *testing.T) {
	d := &dialCounter{}
	p := New(d.dial, WithMaxActive(1))
	defer p.Close()

	var used *fakeConn
	err := p.Do(context.Background(), "a", func(c *fakeConn) error {
		used = c
		panic("checker bug")
	})
	assert.ErrorIs(t, err, ErrInternalPanic)
	assert.True(t, used.closed.Load())

	// The only slot must be free again.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, p.Do(ctx, "a", func(c *fakeConn) error { return nil }))
}

func TestDialFailureReleasesSlot(t *testing.T) {
	d := &dialCounter{fail: errors.New("connection refused")}
	p := New(d.dial, WithMaxActive(1))
	defer p.Close()

	for range 3 {
		err := p.Do(context.Background(), "a", func(c *fakeConn) error { return nil })
		assert.EqualError(t, err, "connection refused")
	}
	active, _ := p.Stats()
	assert.Equal(t, 0, active)
}

func TestMaxActiveBlocksUntilRelease(t *testing.T) {
	d := &dialCounter{}
	p := New(d.dial, WithMaxActive(1))
	defer p.Close()

	c, err := p.Acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.Release("a", c, true)

	c2, err := p.Acquire(context.Background(), "a")
	require.NoError(t, err)
	assert.Same(t, c, c2)
	p.Release("a", c2, true)
}

func TestMaxIdleZeroDisablesReuse(t *testing.T) {
	d := &dialCounter{}
	p := New(d.dial, WithMaxIdle(0))
	defer p.Close()

	for range 3 {
		_ = p.Do(context.Background(), "a", func(c *fakeConn) error { return nil })
	}
	assert.Equal(t, int64(3), d.n.Load())
}

func TestConcurrentUseStaysBounded(t *testing.T) {
	d := &dialCounter{}
	p := New(d.dial, WithMaxActive(3), WithMaxIdle(3))
	defer p.Close()

	var inUse, peak atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), "a", func(c *fakeConn) error {
				cur := inUse.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inUse.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.LessOrEqual(t, d.n.Load(), int64(3))
	active, _ := p.Stats()
	assert.Equal(t, 0, active)
}

func TestClose(t *testing.T) {
	d := &dialCounter{}
	p := New(d.dial)

	var idleConn *fakeConn
	_ = p.Do(context.Background(), "a", func(c *fakeConn) error {
		idleConn = c
		return nil
	})

	held, err := p.Acquire(context.Background(), "b")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, idleConn.closed.Load())
	assert.NoError(t, p.Close(), "second Close is a no-op")

	_, err = p.Acquire(context.Background(), "a")
	assert.ErrorIs(t, err, ErrClosed)

	// Released after Close: closed, not pooled.
	p.Release("b", held, true)
	assert.True(t, held.closed.Load())
	_, idle := p.Stats()
	assert.Equal(t, 0, idle)
}
