//go:build unix

package probe

import (
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// processCPUTime returns user + system time from getrusage(RUSAGE_SELF).
func processCPUTime(_ *process.Process) (time.Duration, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano()), nil
}

// osPeakWorkingSet returns ru_maxrss in bytes, or zero if unavailable.
func osPeakWorkingSet() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil || ru.Maxrss < 0 {
		return 0
	}
	return uint64(ru.Maxrss) * maxrssUnit
}
