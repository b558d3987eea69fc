package tuner

import "github.com/jamesainslie/parbench/pkg/parbench/types"

// maxWorkers caps user overrides. CPU-bound work gains nothing from
// hundreds of goroutines and the matrix workload allocates one buffer each.
const maxWorkers = 256

// ResolveWorkers returns the worker count for a run. A positive override
// wins (capped at maxWorkers); otherwise one worker per logical core.
func ResolveWorkers(resources SystemResources, override int) int {
	if override > 0 {
		return min(override, maxWorkers)
	}
	return max(resources.CPUCores, 1)
}

// EstimateMatrixBytes estimates the heap needed to multiply two size×size
// float64 matrices with the given worker count and mode: two inputs, one
// result, plus one private partial per worker in static mode.
func EstimateMatrixBytes(size, workers int, mode types.Mode) int64 {
	matrices := int64(3)
	if mode == types.ModeStatic {
		matrices += int64(workers)
	}
	return matrices * int64(size) * int64(size) * 8
}

// FitsInMemory reports whether need bytes fit in the available RAM.
// Unknown availability (zero) always fits.
func FitsInMemory(resources SystemResources, need int64) bool {
	return resources.AvailableRAM == 0 || need <= resources.AvailableRAM
}
