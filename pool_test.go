package respd

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pipeConstructor creates connections backed by net.Pipe, with the far
// end discarded. Good enough for lifecycle tests that never do I/O.
func pipeConstructor(ctx context.Context) (*Connection, error) {
	client, server := net.Pipe()
	go func() {
		buf := make([]byte, 256)
		for {
			if _, err := server.Read(buf); err != nil {
				return
			}
		}
	}()
	return NewConnection(client), nil
}

func testPoolFactories(t *testing.T, test func(t *testing.T, factory PoolFactory)) {
	t.Run("channel", func(t *testing.T) { test(t, NewChannelPool) })
	t.Run("puddle", func(t *testing.T) { test(t, NewPuddlePool) })
}

func TestPoolAcquireRelease(t *testing.T) {
	testPoolFactories(t, func(t *testing.T, factory PoolFactory) {
		pool, err := factory(pipeConstructor, 2)
		require.NoError(t, err)
		defer pool.Close()

		res, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		require.NotNil(t, res.Value())

		conn := res.Value()
		res.Release()

		// The released connection is reused.
		res2, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		require.Same(t, conn, res2.Value())
		res2.Release()
	})
}

func TestPoolMaxSizeBlocks(t *testing.T) {
	testPoolFactories(t, func(t *testing.T, factory PoolFactory) {
		pool, err := factory(pipeConstructor, 1)
		require.NoError(t, err)
		defer pool.Close()

		res, err := pool.Acquire(context.Background())
		require.NoError(t, err)

		// The pool is exhausted, the next acquire waits until timeout.
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = pool.Acquire(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		// Releasing unblocks a waiting acquire.
		done := make(chan struct{})
		go func() {
			defer close(done)
			res2, err := pool.Acquire(context.Background())
			if err == nil {
				res2.Release()
			}
		}()
		res.Release()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("acquire did not unblock after release")
		}
	})
}

func TestPoolDestroyRemoves(t *testing.T) {
	testPoolFactories(t, func(t *testing.T, factory PoolFactory) {
		pool, err := factory(pipeConstructor, 1)
		require.NoError(t, err)
		defer pool.Close()

		res, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		conn := res.Value()
		res.Destroy()

		// puddle runs destructors on a background goroutine, so the close
		// is observed asynchronously.
		require.Eventually(t, conn.IsClosed, 2*time.Second, 10*time.Millisecond)

		// Destroying freed a slot, so a fresh connection can be made.
		res2, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		require.NotSame(t, conn, res2.Value())
		res2.Release()
	})
}

func TestPoolAcquireAllIdle(t *testing.T) {
	testPoolFactories(t, func(t *testing.T, factory PoolFactory) {
		pool, err := factory(pipeConstructor, 3)
		require.NoError(t, err)
		defer pool.Close()

		var resources []Resource
		for range 3 {
			res, err := pool.Acquire(context.Background())
			require.NoError(t, err)
			resources = append(resources, res)
		}
		for _, res := range resources {
			res.Release()
		}

		idle := pool.AcquireAllIdle()
		require.Len(t, idle, 3)
		for _, res := range idle {
			res.ReleaseUnused()
		}
	})
}

func TestChannelPoolClosedAcquire(t *testing.T) {
	pool, err := NewChannelPool(pipeConstructor, 1)
	require.NoError(t, err)

	pool.Close()

	_, err = pool.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestChannelPoolClosedAcquireWithIdle(t *testing.T) {
	pool, err := NewChannelPool(pipeConstructor, 1)
	require.NoError(t, err)

	res, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	res.Release()

	pool.Close()

	// The idle connection was drained by Close; the fast path must not
	// hand out a nil resource from the closed channel.
	_, err = pool.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolClosed)
	require.Empty(t, pool.AcquireAllIdle())
}

func TestChannelPoolReleaseAfterClose(t *testing.T) {
	pool, err := NewChannelPool(pipeConstructor, 1)
	require.NoError(t, err)

	res, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	conn := res.Value()

	pool.Close()
	res.Release()

	require.True(t, conn.IsClosed())
}

func TestChannelPoolCloseUnblocksWaiters(t *testing.T) {
	pool, err := NewChannelPool(pipeConstructor, 1)
	require.NoError(t, err)

	res, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer res.Release()

	errs := make(chan error, 1)
	go func() {
		_, err := pool.Acquire(context.Background())
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	pool.Close()

	select {
	case err := <-errs:
		require.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("acquire did not unblock after close")
	}
}

func TestChannelPoolStats(t *testing.T) {
	pool, err := NewChannelPool(pipeConstructor, 2)
	require.NoError(t, err)
	defer pool.Close()

	res, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	res.Release()

	res, err = pool.Acquire(context.Background())
	require.NoError(t, err)
	res.Release()

	stats := pool.Stats()
	require.Equal(t, uint64(2), stats.AcquireCount)
	require.Equal(t, uint64(1), stats.CreatedConns)
	require.Equal(t, int32(1), stats.TotalConns)
	require.Equal(t, int32(1), stats.IdleConns)
	require.Equal(t, int32(0), stats.ActiveConns)
}
