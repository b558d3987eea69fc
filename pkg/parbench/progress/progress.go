// Package progress tracks completed work items with a lock-free counter and
// fires labeled checkpoints when the counter reaches configured thresholds.
package progress

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/parbench/pkg/parbench/logging"
)

var logger = logging.Get("progress")

// Hook runs when a checkpoint fires. It runs on the worker whose increment
// hit the threshold. A returned error fails that worker's unit.
type Hook func(cp Checkpoint, count int64) error

// Tracker is the shared completion counter for one run.
type Tracker struct {
	count atomic.Int64
	total int64
	hook  Hook

	checkpoints map[int64]*slot

	firedMu sync.Mutex
	fired   []Checkpoint
}

type slot struct {
	cp    Checkpoint
	fired atomic.Bool
}

// NewTracker returns a tracker for total items with the given checkpoints.
// hook may be nil.
func NewTracker(total int64, checkpoints []Checkpoint, hook Hook) *Tracker {
	t := &Tracker{
		total:       total,
		hook:        hook,
		checkpoints: make(map[int64]*slot, len(checkpoints)),
	}
	for _, cp := range checkpoints {
		if _, dup := t.checkpoints[cp.Threshold]; dup {
			continue
		}
		t.checkpoints[cp.Threshold] = &slot{cp: cp}
	}
	return t
}

// Increment adds one completed item and returns the post-increment count.
func (t *Tracker) Increment() int64 {
	return t.count.Add(1)
}

// Checkpoint fires the checkpoint whose threshold equals value, if any and
// if it has not fired yet. Call it with the value Increment returned; only
// one increment can produce a given value, so each checkpoint fires once.
func (t *Tracker) Checkpoint(value int64) error {
	s, ok := t.checkpoints[value]
	if !ok || !s.fired.CompareAndSwap(false, true) {
		return nil
	}

	t.firedMu.Lock()
	t.fired = append(t.fired, s.cp)
	t.firedMu.Unlock()

	logger.Debug("checkpoint reached", "label", s.cp.Label, "threshold", s.cp.Threshold, "total", t.total)

	if t.hook == nil {
		return nil
	}
	return t.hook(s.cp, value)
}

// Done records one completed item and evaluates checkpoints.
func (t *Tracker) Done() error {
	return t.Checkpoint(t.Increment())
}

// Count returns the current counter value.
func (t *Tracker) Count() int64 {
	return t.count.Load()
}

// Total returns the expected item count.
func (t *Tracker) Total() int64 {
	return t.total
}

// Fired returns the checkpoints that have fired, ordered by threshold.
func (t *Tracker) Fired() []Checkpoint {
	t.firedMu.Lock()
	out := slices.Clone(t.fired)
	t.firedMu.Unlock()

	slices.SortFunc(out, func(a, b Checkpoint) int {
		return cmp.Compare(a.Threshold, b.Threshold)
	})
	return out
}
