// Package workload defines the work units the harness schedules. The
// harness treats them as opaque: it only sees an item count, a per-item or
// per-partition callable, and the error each returns.
package workload

import (
	"context"

	"github.com/jamesainslie/parbench/pkg/parbench/logging"
	"github.com/jamesainslie/parbench/pkg/parbench/partition"
)

var logger = logging.Get("workload")

// Workload is the common surface of every workload.
type Workload interface {
	// Name identifies the workload in reports.
	Name() string

	// Prepare builds inputs before the measured run. workers is the pool
	// size the run will use.
	Prepare(ctx context.Context, workers int) error

	// Len returns the number of work items. Valid after Prepare.
	Len() int
}

// Streamer processes independent items one at a time.
type Streamer interface {
	Workload

	// Process runs item i. It may be called concurrently for distinct items.
	Process(i int) error
}

// Reducer processes whole partitions into worker-private buffers and
// merges them after the pool has joined.
type Reducer interface {
	Workload

	// ProcessPartition runs every item of p, calling onItem after each one.
	// An onItem error stops the partition and is returned.
	ProcessPartition(p partition.Partition, onItem func() error) error

	// Merge combines the partial outputs. Called once after join.
	Merge() error
}

// Verifier checks a finished run's output against a reference computed
// without the pool. It runs outside the measured window.
type Verifier interface {
	Verify() error
}
