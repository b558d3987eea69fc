package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamesainslie/parbench/pkg/parbench/matrix"
	"github.com/jamesainslie/parbench/pkg/parbench/partition"
	"github.com/jamesainslie/parbench/pkg/parbench/probe"
	"github.com/jamesainslie/parbench/pkg/parbench/progress"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
	"github.com/jamesainslie/parbench/pkg/parbench/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counting is a streaming workload that records every processed item.
type counting struct {
	n        int
	prepared bool

	mu   sync.Mutex
	seen map[int]int

	fail       int
	prepareErr error
}

func newCounting(n int) *counting {
	return &counting{n: n, seen: make(map[int]int), fail: -1}
}

func (c *counting) Name() string { return fmt.Sprintf("counting %d", c.n) }

func (c *counting) Prepare(context.Context, int) error {
	c.prepared = true
	return c.prepareErr
}

func (c *counting) Len() int { return c.n }

func (c *counting) Process(i int) error {
	if i == c.fail {
		return fmt.Errorf("reading item %d: %w", i, types.ErrIOFailure)
	}
	c.mu.Lock()
	c.seen[i]++
	c.mu.Unlock()
	return nil
}

// reducing is a partition-only workload.
type reducing struct {
	n        int
	sum      atomic.Int64
	merged   bool
	mergeErr error
}

func (r *reducing) Name() string                       { return "reducing" }
func (r *reducing) Prepare(context.Context, int) error { return nil }
func (r *reducing) Len() int                           { return r.n }

func (r *reducing) ProcessPartition(p partition.Partition, onItem func() error) error {
	for i := range p.Items() {
		r.sum.Add(int64(i))
		if err := onItem(); err != nil {
			return err
		}
	}
	return nil
}

func (r *reducing) Merge() error {
	r.merged = true
	return r.mergeErr
}

// steppingProbe advances wall and CPU time by 1ms per sample and fails
// once failAt samples have been taken (0 never fails).
func steppingProbe(failAt int64) (probe.Probe, *atomic.Int64) {
	var calls atomic.Int64
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return probe.Func(func() (types.ResourceSample, error) {
		n := calls.Add(1)
		if failAt > 0 && n >= failAt {
			return types.ResourceSample{}, &types.ProbeError{Op: "memory", Err: errors.New("no such process")}
		}
		step := time.Duration(n) * time.Millisecond
		return types.ResourceSample{
			Wall:           base.Add(step),
			CPUTime:        step,
			WorkingSet:     uint64(n * types.MiB),
			PeakWorkingSet: uint64(n * types.MiB),
		}, nil
	}), &calls
}

func none() []progress.Spec { return []progress.Spec{} }

func TestRun_StreamingDispatchesEveryItem(t *testing.T) {
	w := newCounting(4)
	p, _ := steppingProbe(0)

	h, err := New(Options{Workload: w, Mode: types.ModeStreaming, Workers: 2, Probe: p, Checkpoints: none(), Cores: 2})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Items)
	assert.Equal(t, int64(4), report.Pool.Submitted)
	assert.Equal(t, int64(4), report.Pool.Completed)
	assert.Len(t, w.seen, 4)
	for i := range 4 {
		assert.Equal(t, 1, w.seen[i], "item %d", i)
	}
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, time.Millisecond, report.Delta.Wall)
	assert.Equal(t, 2, report.Delta.Cores)
}

func TestRun_StaticStreamerRunsPartitionsSequentially(t *testing.T) {
	w := newCounting(103)
	p, _ := steppingProbe(0)

	h, err := New(Options{Workload: w, Mode: types.ModeStatic, Workers: 8, Probe: p, Checkpoints: none()})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(8), report.Pool.Submitted)
	assert.Len(t, w.seen, 103)
	assert.Zero(t, report.MergeTime)
}

func TestRun_StaticMatrixMergesToProduct(t *testing.T) {
	const size = 17
	m := workload.NewMatrix(workload.MatrixOptions{Size: size})
	p, _ := steppingProbe(0)

	h, err := New(Options{Workload: m, Mode: types.ModeStatic, Workers: 4, Probe: p, Checkpoints: none(), Verify: true})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Verified)
	assert.True(t, m.Result().Equal(matrix.Filled(size, size, size), 0))
	assert.Equal(t, int64(4), report.Pool.Submitted)
}

func TestRun_StreamingMatrix(t *testing.T) {
	m := workload.NewMatrix(workload.MatrixOptions{Size: 9, Fill: workload.FillRandom, Seed: 3})
	p, _ := steppingProbe(0)

	h, err := New(Options{Workload: m, Mode: types.ModeStreaming, Workers: 3, Probe: p, Verify: true})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Verified)
	assert.Equal(t, int64(9), report.Pool.Submitted)
}

func TestRun_ReducerMerges(t *testing.T) {
	r := &reducing{n: 50}
	p, _ := steppingProbe(0)

	h, err := New(Options{Workload: r, Workers: 6, Probe: p, Checkpoints: none()})
	require.NoError(t, err)

	_, err = h.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, r.merged)
	assert.Equal(t, int64(49*50/2), r.sum.Load())
}

func TestRun_CheckpointsSampledOnce(t *testing.T) {
	w := newCounting(100)
	p, calls := steppingProbe(0)

	var hookCalls atomic.Int64
	h, err := New(Options{
		Workload:     w,
		Mode:         types.ModeStreaming,
		Workers:      8,
		Probe:        p,
		OnCheckpoint: func(CheckpointSample) { hookCalls.Add(1) },
	})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Checkpoints, 3)
	assert.Equal(t, int64(10), report.Checkpoints[0].Checkpoint.Threshold)
	assert.Equal(t, int64(50), report.Checkpoints[1].Checkpoint.Threshold)
	assert.Equal(t, int64(90), report.Checkpoints[2].Checkpoint.Threshold)
	for _, cs := range report.Checkpoints {
		assert.Equal(t, cs.Checkpoint.Threshold, cs.Count)
		assert.Positive(t, cs.Delta.Wall)
	}

	assert.Equal(t, int64(5), calls.Load(), "start + end + three checkpoints")
	assert.Equal(t, int64(3), hookCalls.Load())
}

func TestRun_SkippedCheckpoints(t *testing.T) {
	w := newCounting(5)
	p, _ := steppingProbe(0)

	h, err := New(Options{Workload: w, Workers: 2, Probe: p})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Checkpoints, 1)
	assert.Equal(t, "half", report.Checkpoints[0].Checkpoint.Label)
	assert.Equal(t, int64(3), report.Checkpoints[0].Checkpoint.Threshold)
	assert.Len(t, report.Skipped, 2)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name   string
		build  func() (Options, *counting)
		phase  types.Phase
		target error
	}{
		{
			name: "unit failure",
			build: func() (Options, *counting) {
				w := newCounting(20)
				w.fail = 3
				p, _ := steppingProbe(0)
				return Options{Workload: w, Mode: types.ModeStreaming, Workers: 1, Probe: p, Checkpoints: none()}, w
			},
			phase:  types.PhaseExecution,
			target: types.ErrIOFailure,
		},
		{
			name: "start sample fails",
			build: func() (Options, *counting) {
				p, _ := steppingProbe(1)
				return Options{Workload: newCounting(4), Workers: 1, Probe: p}, nil
			},
			phase:  types.PhaseProbing,
			target: types.ErrProbeUnavailable,
		},
		{
			name: "checkpoint sample fails",
			build: func() (Options, *counting) {
				p, _ := steppingProbe(2)
				return Options{
					Workload:    newCounting(10),
					Mode:        types.ModeStreaming,
					Workers:     1,
					Probe:       p,
					Checkpoints: []progress.Spec{{At: "2", Label: "two"}},
				}, nil
			},
			phase:  types.PhaseProbing,
			target: types.ErrProbeUnavailable,
		},
		{
			name: "prepare fails",
			build: func() (Options, *counting) {
				w := newCounting(4)
				w.prepareErr = types.ErrIOFailure
				p, _ := steppingProbe(0)
				return Options{Workload: w, Workers: 1, Probe: p}, nil
			},
			phase:  types.PhasePrepare,
			target: types.ErrIOFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, w := tt.build()
			h, err := New(opts)
			require.NoError(t, err)

			report, err := h.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, report)

			var pe *types.PhaseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.phase, pe.Phase)
			assert.ErrorIs(t, err, tt.target)

			if w != nil {
				// One worker: nothing after the failing item runs.
				assert.Len(t, w.seen, 3)
			}
		})
	}
}

func TestRun_MergeFailure(t *testing.T) {
	r := &reducing{n: 10, mergeErr: errors.New("shape")}
	p, _ := steppingProbe(0)

	h, err := New(Options{Workload: r, Workers: 2, Probe: p})
	require.NoError(t, err)

	_, err = h.Run(context.Background())
	var pe *types.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.PhaseMerge, pe.Phase)
}

func TestRun_CancelledBeforeDispatch(t *testing.T) {
	w := newCounting(4)
	p, calls := steppingProbe(0)

	h, err := New(Options{Workload: w, Workers: 2, Probe: p})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, w.prepared)
	assert.Zero(t, calls.Load())
}

func TestRun_Reusable(t *testing.T) {
	w := newCounting(40)
	p, _ := steppingProbe(0)

	h, err := New(Options{Workload: w, Mode: types.ModeStreaming, Workers: 4, Probe: p})
	require.NoError(t, err)

	first, err := h.Run(context.Background())
	require.NoError(t, err)
	second, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, first.Checkpoints, 3)
	assert.Len(t, second.Checkpoints, 3)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestNew_Validation(t *testing.T) {
	p, _ := steppingProbe(0)

	tests := []struct {
		name string
		opts Options
	}{
		{"no workload", Options{Workers: 1, Probe: p}},
		{"zero workers", Options{Workload: newCounting(1), Probe: p}},
		{"bad mode", Options{Workload: newCounting(1), Workers: 1, Mode: "dynamic", Probe: p}},
		{"reducer cannot stream", Options{Workload: &reducing{n: 1}, Workers: 1, Mode: types.ModeStreaming, Probe: p}},
		{"bad checkpoint", Options{Workload: newCounting(1), Workers: 1, Probe: p, Checkpoints: []progress.Spec{{At: "half"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestReport_Throughput(t *testing.T) {
	r := &Report{Items: 500, Delta: types.Delta{Wall: 2 * time.Second}}
	assert.InDelta(t, 250.0, r.Throughput(), 1e-9)
	assert.Zero(t, (&Report{Items: 5}).Throughput())
}
