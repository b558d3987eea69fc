// Package probe samples process-level resource counters: wall time,
// cumulative CPU time and memory. The OS-specific queries live in
// build-tagged files; callers depend only on the Probe interface.
package probe

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jamesainslie/parbench/pkg/parbench/logging"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
	"github.com/shirou/gopsutil/v4/process"
)

var logger = logging.Get("probe")

// Probe takes resource samples.
type Probe interface {
	Sample() (types.ResourceSample, error)
}

// Func adapts a function to the Probe interface.
type Func func() (types.ResourceSample, error)

// Sample calls f.
func (f Func) Sample() (types.ResourceSample, error) {
	return f()
}

// memoryCounters is what a memory query returns.
type memoryCounters struct {
	WorkingSet uint64
	Private    uint64
	Peak       uint64 // OS high-water mark, zero if unavailable
}

// Process samples the current process.
type Process struct {
	now     func() time.Time
	cpuTime func() (time.Duration, error)
	memory  func() (memoryCounters, error)

	mu   sync.Mutex
	peak uint64

	cpuWarned atomic.Bool
}

// NewProcess returns a probe for the running process.
func NewProcess() (*Process, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, &types.ProbeError{Op: "open process", Err: err}
	}

	return &Process{
		now:     time.Now,
		cpuTime: func() (time.Duration, error) { return processCPUTime(proc) },
		memory: func() (memoryCounters, error) {
			mi, err := proc.MemoryInfo()
			if err != nil {
				return memoryCounters{}, err
			}
			return memoryCounters{
				WorkingSet: mi.RSS,
				Private:    privateBytes(proc, mi),
				Peak:       osPeakWorkingSet(),
			}, nil
		},
	}, nil
}

// Sample captures wall time, CPU time and memory counters.
//
// A failed CPU query degrades to a zero reading with CPUDegraded set. A
// failed memory query returns a *types.ProbeError.
func (p *Process) Sample() (types.ResourceSample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := types.ResourceSample{Wall: p.now()}

	cpu, err := p.cpuTime()
	if err != nil {
		s.CPUDegraded = true
		if p.cpuWarned.CompareAndSwap(false, true) {
			logger.Warn("cpu time query failed, reporting zero", "err", err)
		}
	} else {
		s.CPUTime = cpu
	}

	mem, err := p.memory()
	if err != nil {
		return types.ResourceSample{}, &types.ProbeError{Op: "memory", Err: err}
	}

	p.peak = max(p.peak, mem.Peak, mem.WorkingSet)
	s.WorkingSet = mem.WorkingSet
	s.PrivateUsage = mem.Private
	s.PeakWorkingSet = p.peak

	return s, nil
}

// Delta derives elapsed time, memory change and CPU utilization between
// two samples. cores is the logical core count used for normalization.
func Delta(start, end types.ResourceSample, cores int) types.Delta {
	d := types.Delta{
		Wall:              max(end.Wall.Sub(start.Wall), 0),
		CPUDegraded:       start.CPUDegraded || end.CPUDegraded,
		WorkingSetDelta:   int64(end.WorkingSet) - int64(start.WorkingSet),
		PrivateUsageDelta: int64(end.PrivateUsage) - int64(start.PrivateUsage),
		PeakWorkingSet:    max(start.PeakWorkingSet, end.PeakWorkingSet),
		Cores:             cores,
	}

	if !d.CPUDegraded {
		d.CPU = max(end.CPUTime-start.CPUTime, 0)
	}

	if d.Wall > 0 {
		d.Utilization = d.CPU.Seconds() / d.Wall.Seconds()
	}
	if cores >= 1 {
		d.NormalizedUtilization = d.Utilization / float64(cores)
	}

	return d
}

// String renders d on one line for logs.
func String(d types.Delta) string {
	return fmt.Sprintf("wall=%s cpu=%s util=%s ws=%s private=%s",
		d.Wall.Round(time.Microsecond), d.CPU.Round(time.Microsecond),
		types.FormatPercent(d.Utilization),
		types.FormatSignedSize(d.WorkingSetDelta), types.FormatSignedSize(d.PrivateUsageDelta))
}
