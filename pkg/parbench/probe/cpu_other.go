//go:build !unix

package probe

import (
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// processCPUTime returns user + system time as reported by gopsutil.
func processCPUTime(proc *process.Process) (time.Duration, error) {
	t, err := proc.Times()
	if err != nil {
		return 0, err
	}
	return time.Duration((t.User + t.System) * float64(time.Second)), nil
}

// osPeakWorkingSet is not available here; the probe tracks the largest
// working set it has observed instead.
func osPeakWorkingSet() uint64 {
	return 0
}
