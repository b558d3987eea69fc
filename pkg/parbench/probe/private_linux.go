//go:build linux

package probe

import "github.com/shirou/gopsutil/v4/process"

// privateBytes returns the data segment size (data + stack), the closest
// linux analogue to private committed memory. Falls back to RSS.
func privateBytes(proc *process.Process, mi *process.MemoryInfoStat) uint64 {
	ex, err := proc.MemoryInfoEx()
	if err != nil {
		return mi.RSS
	}
	return ex.Data
}
