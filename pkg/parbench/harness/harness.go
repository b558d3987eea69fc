package harness

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/parbench/pkg/parbench/logging"
	"github.com/jamesainslie/parbench/pkg/parbench/partition"
	"github.com/jamesainslie/parbench/pkg/parbench/pool"
	"github.com/jamesainslie/parbench/pkg/parbench/probe"
	"github.com/jamesainslie/parbench/pkg/parbench/progress"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
	"github.com/jamesainslie/parbench/pkg/parbench/workload"
)

var logger = logging.Get("harness")

// Harness runs a single configured benchmark.
type Harness struct {
	opts Options

	start types.ResourceSample

	samplesMu sync.Mutex
	samples   []CheckpointSample
}

// New validates opts and returns a harness. Without an explicit probe it
// opens one for the running process.
func New(opts Options) (*Harness, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Probe == nil {
		p, err := probe.NewProcess()
		if err != nil {
			return nil, err
		}
		opts.Probe = p
	}
	return &Harness{opts: opts}, nil
}

// Run prepares the workload, dispatches it and blocks until every item has
// completed or a unit has failed. ctx is only consulted before dispatch;
// work already handed to the pool runs to completion.
//
// Any failure aborts the run and is returned as a *types.PhaseError.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	w := h.opts.Workload

	h.samplesMu.Lock()
	h.samples = nil
	h.samplesMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, types.NewPhaseError(types.PhasePrepare, err)
	}
	if err := w.Prepare(ctx, h.opts.Workers); err != nil {
		return nil, types.NewPhaseError(types.PhasePrepare, err)
	}

	n := w.Len()
	checkpoints, skipped, err := progress.Resolve(h.opts.Checkpoints, int64(n))
	if err != nil {
		return nil, types.NewPhaseError(types.PhasePrepare, err)
	}
	for _, s := range skipped {
		logger.Debug("checkpoint outside item range, skipped", "at", s.At, "label", s.Label, "items", n)
	}

	if err := ctx.Err(); err != nil {
		return nil, types.NewPhaseError(types.PhaseDispatch, err)
	}

	logger.Info("run starting", "workload", w.Name(), "mode", h.opts.Mode, "workers", h.opts.Workers, "items", n)

	h.start, err = h.opts.Probe.Sample()
	if err != nil {
		return nil, types.NewPhaseError(types.PhaseProbing, err)
	}

	tracker := progress.NewTracker(int64(n), checkpoints, h.checkpointHook)
	p := pool.New(h.opts.Workers)
	defer p.Close()

	reduced, err := h.dispatch(p, tracker, n)
	if err != nil {
		// Units already queued still run; wait so nothing outlives Run.
		_ = p.Join()
		return nil, types.NewPhaseError(types.PhaseDispatch, err)
	}

	if err := p.Join(); err != nil {
		return nil, types.NewPhaseError(types.PhaseExecution, err)
	}

	var mergeTime time.Duration
	if reduced {
		mergeStart := time.Now()
		if err := w.(workload.Reducer).Merge(); err != nil {
			return nil, types.NewPhaseError(types.PhaseMerge, err)
		}
		mergeTime = time.Since(mergeStart)
	}

	end, err := h.opts.Probe.Sample()
	if err != nil {
		return nil, types.NewPhaseError(types.PhaseProbing, err)
	}

	if count := tracker.Count(); count != int64(n) {
		return nil, types.NewPhaseError(types.PhaseExecution,
			fmt.Errorf("%d of %d items completed", count, n))
	}

	report := &Report{
		RunID:       uuid.NewString(),
		Workload:    w.Name(),
		Mode:        h.opts.Mode,
		Workers:     h.opts.Workers,
		Items:       n,
		Start:       h.start,
		End:         end,
		Delta:       probe.Delta(h.start, end, h.opts.Cores),
		Checkpoints: h.checkpointSamples(),
		Skipped:     skipped,
		Pool:        p.Stats(),
		MergeTime:   mergeTime,
	}

	if h.opts.Verify {
		if v, ok := w.(workload.Verifier); ok {
			if err := v.Verify(); err != nil {
				return nil, types.NewPhaseError(types.PhaseVerify, err)
			}
			report.Verified = true
		}
	}

	logger.Info("run complete", "run_id", report.RunID, "delta", probe.String(report.Delta))
	return report, nil
}

// dispatch submits the units for the configured mode. It reports whether
// the workload's Reducer path was used and so needs a Merge.
func (h *Harness) dispatch(p *pool.Pool, tracker *progress.Tracker, n int) (bool, error) {
	w := h.opts.Workload

	if h.opts.Mode == types.ModeStreaming {
		s := w.(workload.Streamer)
		for i := range partition.Stream(n) {
			err := p.Submit(func() error {
				if err := s.Process(i); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				return tracker.Done()
			})
			if err != nil {
				return false, err
			}
		}
		return false, nil
	}

	parts, err := partition.Split(n, h.opts.Workers)
	if err != nil {
		return false, err
	}
	if err := partition.Validate(parts, n); err != nil {
		return false, err
	}

	if r, ok := w.(workload.Reducer); ok {
		for _, part := range parts {
			err := p.Submit(func() error {
				if err := r.ProcessPartition(part, tracker.Done); err != nil {
					return fmt.Errorf("partition %v: %w", part, err)
				}
				return nil
			})
			if err != nil {
				return false, err
			}
		}
		return true, nil
	}

	s := w.(workload.Streamer)
	for _, part := range parts {
		err := p.Submit(func() error {
			for i := range part.Items() {
				if err := s.Process(i); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				if err := tracker.Done(); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return false, err
		}
	}
	return false, nil
}

// checkpointHook samples resources when a checkpoint fires. A failed
// sample fails the unit that hit the checkpoint.
func (h *Harness) checkpointHook(cp progress.Checkpoint, count int64) error {
	s, err := h.opts.Probe.Sample()
	if err != nil {
		return types.NewPhaseError(types.PhaseProbing, err)
	}

	cs := CheckpointSample{
		Checkpoint: cp,
		Count:      count,
		Sample:     s,
		Delta:      probe.Delta(h.start, s, h.opts.Cores),
	}

	h.samplesMu.Lock()
	h.samples = append(h.samples, cs)
	h.samplesMu.Unlock()

	logger.Info("checkpoint", "label", cp.Label, "threshold", cp.Threshold, "delta", probe.String(cs.Delta))

	if h.opts.OnCheckpoint != nil {
		h.opts.OnCheckpoint(cs)
	}
	return nil
}

func (h *Harness) checkpointSamples() []CheckpointSample {
	h.samplesMu.Lock()
	out := slices.Clone(h.samples)
	h.samplesMu.Unlock()

	slices.SortFunc(out, func(a, b CheckpointSample) int {
		return cmp.Compare(a.Checkpoint.Threshold, b.Checkpoint.Threshold)
	})
	return out
}
