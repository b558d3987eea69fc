//go:build !darwin

package tuner

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/mem"
)

// Detect detects available system resources (CPU and RAM).
// Memory comes from gopsutil (/proc/meminfo on linux,
// GlobalMemoryStatusEx on windows).
func Detect() (SystemResources, error) {
	resources := SystemResources{
		CPUCores: runtime.NumCPU(),
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return resources, fmt.Errorf("reading virtual memory stats: %w", err)
	}
	resources.TotalRAM = int64(vm.Total)
	resources.AvailableRAM = int64(vm.Available)

	return resources, nil
}
