// Package harness runs one benchmark: it samples resources, dispatches a
// workload onto a worker pool, waits for it, merges partial results and
// reports the deltas. It owns no domain logic.
package harness

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/jamesainslie/parbench/pkg/parbench/probe"
	"github.com/jamesainslie/parbench/pkg/parbench/progress"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
	"github.com/jamesainslie/parbench/pkg/parbench/workload"
)

// Options configures a run.
type Options struct {
	// Workload supplies the work items. It must implement workload.Streamer
	// or workload.Reducer.
	Workload workload.Workload

	// Mode selects static partitions or per-item streaming dispatch.
	Mode types.Mode

	// Workers is the pool size.
	Workers int

	// Checkpoints are resolved against the workload's item count after
	// Prepare. Nil means progress.DefaultSpecs; an empty non-nil slice
	// disables checkpoints.
	Checkpoints []progress.Spec

	// Probe takes the resource samples. Nil means a probe.Process for the
	// running process.
	Probe probe.Probe

	// Cores normalizes utilization. Zero means runtime.NumCPU.
	Cores int

	// Verify checks the output after the measured window when the workload
	// implements workload.Verifier.
	Verify bool

	// OnCheckpoint is called after each checkpoint sample is taken. It runs
	// on a worker goroutine and must be safe for concurrent use.
	OnCheckpoint func(CheckpointSample)
}

// Validate applies defaults and rejects unusable options.
func (o *Options) Validate() error {
	if o.Workload == nil {
		return errors.New("no workload configured")
	}
	if o.Mode == "" {
		o.Mode = types.ModeStatic
	}
	if _, err := types.ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", o.Workers)
	}
	if o.Checkpoints == nil {
		o.Checkpoints = progress.DefaultSpecs()
	}
	if err := progress.Validate(o.Checkpoints); err != nil {
		return err
	}
	if o.Cores < 1 {
		o.Cores = runtime.NumCPU()
	}

	_, streamer := o.Workload.(workload.Streamer)
	_, reducer := o.Workload.(workload.Reducer)
	switch {
	case !streamer && !reducer:
		return fmt.Errorf("workload %q implements neither Streamer nor Reducer", o.Workload.Name())
	case o.Mode == types.ModeStreaming && !streamer:
		return fmt.Errorf("workload %q cannot run in %s mode", o.Workload.Name(), o.Mode)
	}
	return nil
}
