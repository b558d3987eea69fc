//go:build windows

package probe

import "github.com/shirou/gopsutil/v4/process"

// privateBytes returns the pagefile usage, which windows reports as the
// process private bytes.
func privateBytes(_ *process.Process, mi *process.MemoryInfoStat) uint64 {
	return mi.VMS
}
