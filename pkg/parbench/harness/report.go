package harness

import (
	"time"

	"github.com/jamesainslie/parbench/pkg/parbench/pool"
	"github.com/jamesainslie/parbench/pkg/parbench/progress"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

// CheckpointSample is the resource sample taken when a checkpoint fired.
type CheckpointSample struct {
	Checkpoint progress.Checkpoint `json:"checkpoint" yaml:"checkpoint"`

	// Count is the counter value that fired the checkpoint.
	Count int64 `json:"count" yaml:"count"`

	Sample types.ResourceSample `json:"sample" yaml:"sample"`

	// Delta is measured from the run's start sample.
	Delta types.Delta `json:"delta" yaml:"delta"`
}

// Report is the outcome of one successful run.
type Report struct {
	RunID    string     `json:"run_id" yaml:"run_id"`
	Workload string     `json:"workload" yaml:"workload"`
	Mode     types.Mode `json:"mode" yaml:"mode"`
	Workers  int        `json:"workers" yaml:"workers"`
	Items    int        `json:"items" yaml:"items"`

	Start types.ResourceSample `json:"start" yaml:"start"`
	End   types.ResourceSample `json:"end" yaml:"end"`
	Delta types.Delta          `json:"delta" yaml:"delta"`

	// Checkpoints holds one sample per fired checkpoint, ordered by threshold.
	Checkpoints []CheckpointSample `json:"checkpoints" yaml:"checkpoints"`

	// Skipped lists configured checkpoints outside [1, Items].
	Skipped []progress.Spec `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	Pool pool.Stats `json:"pool" yaml:"pool"`

	// Verified is set when the workload's output was checked and matched.
	Verified bool `json:"verified" yaml:"verified"`

	// MergeTime is how long combining partial results took. It is inside
	// the measured window.
	MergeTime time.Duration `json:"merge_time" yaml:"merge_time"`
}

// Throughput returns completed items per second of wall time.
func (r *Report) Throughput() float64 {
	if r.Delta.Wall <= 0 {
		return 0
	}
	return float64(r.Items) / r.Delta.Wall.Seconds()
}
