package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsEveryUnitOnce(t *testing.T) {
	p := New(4)
	defer p.Close()

	const n = 1000
	runs := make([]atomic.Int32, n)
	for i := range n {
		require.NoError(t, p.Submit(func() error {
			runs[i].Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Join())
	for i := range runs {
		if got := runs[i].Load(); got != 1 {
			t.Fatalf("unit %d ran %d times, want 1", i, got)
		}
	}

	stats := p.Stats()
	assert.Equal(t, int64(n), stats.Submitted)
	assert.Equal(t, int64(n), stats.Completed)
	assert.Zero(t, stats.Failed)
}

func TestPool_JoinWaitsForAllUnits(t *testing.T) {
	p := New(2)
	defer p.Close()

	var done atomic.Int32
	for range 4 {
		require.NoError(t, p.Submit(func() error {
			time.Sleep(10 * time.Millisecond)
			done.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Join())
	assert.Equal(t, int32(4), done.Load())
}

func TestPool_ConcurrencyBoundedByWorkers(t *testing.T) {
	const workers = 3
	p := New(workers)
	defer p.Close()

	var active, peak atomic.Int32
	for range 30 {
		require.NoError(t, p.Submit(func() error {
			cur := active.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			return nil
		}))
	}

	require.NoError(t, p.Join())
	assert.LessOrEqual(t, peak.Load(), int32(workers))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestPool_JoinAfterJoin(t *testing.T) {
	p := New(2)
	defer p.Close()

	var count atomic.Int32
	inc := func() error { count.Add(1); return nil }

	require.NoError(t, p.Submit(inc))
	require.NoError(t, p.Join())
	assert.Equal(t, int32(1), count.Load())

	require.NoError(t, p.Submit(inc))
	require.NoError(t, p.Submit(inc))
	require.NoError(t, p.Join())
	assert.Equal(t, int32(3), count.Load())

	// Join with nothing pending returns immediately.
	require.NoError(t, p.Join())
}

func TestPool_FirstErrorDiscardsQueuedUnits(t *testing.T) {
	p := New(1)
	defer p.Close()

	boom := errors.New("boom")
	gate := make(chan struct{})
	var ran atomic.Int32

	require.NoError(t, p.Submit(func() error {
		<-gate
		return boom
	}))
	for range 5 {
		require.NoError(t, p.Submit(func() error {
			ran.Add(1)
			return nil
		}))
	}
	close(gate)

	err := p.Join()
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, ran.Load())

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(5), stats.Discarded)

	// The error is reported once; the pool is usable afterwards.
	require.NoError(t, p.Submit(func() error { ran.Add(1); return nil }))
	assert.NoError(t, p.Join())
	assert.Equal(t, int32(1), ran.Load())
}

func TestPool_PanicBecomesError(t *testing.T) {
	p := New(2)
	defer p.Close()

	require.NoError(t, p.Submit(func() error { panic("bad row") }))
	err := p.Join()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad row")
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := New(2)
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Submit(func() error { return nil }), ErrClosed)
	assert.Error(t, New(1).Submit(nil))
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	p := New(1)

	var count atomic.Int32
	for range 10 {
		require.NoError(t, p.Submit(func() error { count.Add(1); return nil }))
	}
	p.Close()
	assert.Equal(t, int32(10), count.Load())
}

func TestPool_MinimumOneWorker(t *testing.T) {
	p := New(0)
	defer p.Close()
	assert.Equal(t, 1, p.Workers())
}

func TestPool_ConcurrentSubmitters(t *testing.T) {
	p := New(8)
	defer p.Close()

	var count atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				_ = p.Submit(func() error { count.Add(1); return nil })
			}
		}()
	}
	wg.Wait()

	require.NoError(t, p.Join())
	assert.Equal(t, int64(4000), count.Load())
}
