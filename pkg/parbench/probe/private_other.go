//go:build !linux && !windows

package probe

import "github.com/shirou/gopsutil/v4/process"

// privateBytes falls back to the resident set.
func privateBytes(_ *process.Process, mi *process.MemoryInfoStat) uint64 {
	return mi.RSS
}
