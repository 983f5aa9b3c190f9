package isolate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBasic(t *testing.T) {
	ctx := context.Background()
	p, err := NewPool(ctx, 4)
	require.NoError(t, err)

	var count atomic.Int32
	for range 10 {
		err := p.Submit(func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	err = p.Close()
	require.NoError(t, err, "all tasks succeeded; Close should return nil")
	assert.Equal(t, int32(10), count.Load(), "all 10 tasks should have executed")
}

func TestPoolConcurrencyLimit(t *testing.T) {
	const workers = 3
	ctx := context.Background()
	p, err := NewPool(ctx, workers)
	require.NoError(t, err)

	var (
		active    atomic.Int32
		maxActive atomic.Int32
		wg        sync.WaitGroup
	)

	for range 20 {
		wg.Add(1)
		err := p.Submit(func(ctx context.Context) error {
			defer wg.Done()
			cur := active.Add(1)
			for {
				old := maxActive.Load()
				if cur <= old || maxActive.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
			return nil
		})
		require.NoError(t, err)
	}

	wg.Wait()
	require.NoError(t, p.Close())

	assert.LessOrEqual(t, maxActive.Load(), int32(workers),
		"concurrent tasks should never exceed worker count")
}

func TestPoolRoundRobinSpread(t *testing.T) {
	const workers = 4
	ctx := context.Background()
	p, err := NewPool(ctx, workers)
	require.NoError(t, err)

	blocker := make(chan struct{})

	// One blocking task per worker. Workers are queue mode, so all four
	// can only be in flight at once if round-robin spread them evenly.
	for range workers {
		err := p.Submit(func(ctx context.Context) error {
			<-blocker
			return nil
		})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return p.Stats().InFlight == int64(workers)
	}, 2*time.Second, time.Millisecond,
		"each worker should be running one of the blocking tasks")

	close(blocker)
	require.NoError(t, p.Close())
}

func TestPoolPanicRecovery(t *testing.T) {
	ctx := context.Background()
	p, err := NewPool(ctx, 2)
	require.NoError(t, err)

	err = p.Submit(func(ctx context.Context) error {
		panic("task panic!")
	})
	require.NoError(t, err)

	// Submit a normal task to verify the pool still works.
	var ran atomic.Bool
	err = p.Submit(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)

	closeErr := p.Close()
	require.Error(t, closeErr, "panic should surface as error in Close")

	var f *Fault
	assert.True(t, errors.As(closeErr, &f), "error should be a Fault")
	assert.True(t, ran.Load(), "subsequent tasks should still run after panic")
}

func TestPoolCollectsAllErrors(t *testing.T) {
	ctx := context.Background()
	p, err := NewPool(ctx, 2)
	require.NoError(t, err)

	e1 := errors.New("first")
	e2 := errors.New("second")
	require.NoError(t, p.Submit(func(ctx context.Context) error { return e1 }))
	require.NoError(t, p.Submit(func(ctx context.Context) error { return e2 }))
	require.NoError(t, p.Submit(func(ctx context.Context) error { return nil }))

	closeErr := p.Close()
	require.Error(t, closeErr)
	assert.ErrorIs(t, closeErr, e1)
	assert.ErrorIs(t, closeErr, e2)
}

func TestPoolSubmitAfterClose(t *testing.T) {
	ctx := context.Background()
	p, err := NewPool(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, p.Close())

	err = p.Submit(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolCloseIdempotent(t *testing.T) {
	ctx := context.Background()
	p, err := NewPool(ctx, 2)
	require.NoError(t, err)

	sentinel := errors.New("task failed")
	require.NoError(t, p.Submit(func(ctx context.Context) error { return sentinel }))

	first := p.Close()
	second := p.Close()
	assert.ErrorIs(t, first, sentinel)
	assert.ErrorIs(t, second, sentinel, "repeated Close should return the same result")
}

func TestPoolContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p, err := NewPool(ctx, 2)
	require.NoError(t, err)

	cancel()

	err = p.Submit(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	_ = p.Close()
}

func TestPoolStats(t *testing.T) {
	ctx := context.Background()
	p, err := NewPool(ctx, 2)
	require.NoError(t, err)

	blocker := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) error {
		<-blocker
		return errors.New("late failure")
	}))

	assert.Eventually(t, func() bool {
		return p.Stats().InFlight == 1
	}, 2*time.Second, time.Millisecond)

	st := p.Stats()
	assert.Equal(t, int64(1), st.Submitted)
	assert.Equal(t, int64(0), st.Completed)
	assert.Equal(t, 2, st.Workers)

	close(blocker)
	_ = p.Close()

	st = p.Stats()
	assert.Equal(t, int64(1), st.Completed, "Close drains in-flight tasks")
	assert.Equal(t, int64(1), st.Errored)
	assert.Equal(t, int64(0), st.InFlight)
	assert.Equal(t, int64(0), st.Queued)
}

func TestPoolMetricsCallback(t *testing.T) {
	ctx := context.Background()

	var snapshots atomic.Int32
	p, err := NewPool(ctx, 2,
		WithPoolMetrics(time.Millisecond, func(PoolStats) {
			snapshots.Add(1)
		}),
	)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return snapshots.Load() >= 3
	}, 2*time.Second, time.Millisecond, "metrics callback should fire periodically")

	require.NoError(t, p.Close())
}

func TestPoolStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	const (
		taskCount   = 1000
		workerCount = 10
	)

	ctx := context.Background()
	p, err := NewPool(ctx, workerCount)
	require.NoError(t, err)

	var count atomic.Int32
	sentinel := errors.New("intentional")
	var errCount atomic.Int32

	for i := range taskCount {
		err := p.Submit(func(ctx context.Context) error {
			count.Add(1)
			if i%100 == 0 {
				errCount.Add(1)
				return sentinel
			}
			return nil
		})
		require.NoError(t, err)
	}

	closeErr := p.Close()
	assert.Equal(t, int32(taskCount), count.Load(), "all tasks should have run")

	if errCount.Load() > 0 {
		require.Error(t, closeErr)
	}
}

func TestPoolPanicOnInvalidN(t *testing.T) {
	mustPanic(t, "NewPool requires n > 0", func() {
		_, _ = NewPool(context.Background(), 0)
	})

	mustPanic(t, "NewPool requires n > 0", func() {
		_, _ = NewPool(context.Background(), -1)
	})
}

func TestPoolNilTaskPanics(t *testing.T) {
	ctx := context.Background()
	p, err := NewPool(ctx, 1)
	require.NoError(t, err)
	defer p.Close()

	mustPanic(t, "Submit requires a non-nil task", func() {
		_ = p.Submit(nil)
	})
}
