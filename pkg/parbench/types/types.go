// Package types provides core data types for the parbench harness.
// It includes resource samples and the deltas derived from them, run modes,
// the error taxonomy shared by every package, and helpers for formatting
// byte counts.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// Mode selects how work items are handed to the worker pool.
type Mode string

const (
	// ModeStatic dispatches whole partitions up front, one unit per worker.
	// Required when a unit writes into a worker-local reduction buffer.
	ModeStatic Mode = "static"

	// ModeStreaming dispatches one unit per item; free workers pull the next.
	ModeStreaming Mode = "streaming"
)

// ParseMode parses a mode name. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStatic:
		return ModeStatic, nil
	case ModeStreaming, "stream":
		return ModeStreaming, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want static or streaming)", s)
	}
}

// ResourceSample is a snapshot of process resource counters taken at one instant.
type ResourceSample struct {
	// Wall is the wall-clock instant the sample was taken.
	Wall time.Time `json:"wall" yaml:"wall"`

	// CPUTime is the cumulative process CPU time (user + kernel).
	CPUTime time.Duration `json:"cpu_time" yaml:"cpu_time"`

	// CPUDegraded is set when the CPU query failed and CPUTime is zero.
	CPUDegraded bool `json:"cpu_degraded,omitempty" yaml:"cpu_degraded,omitempty"`

	// WorkingSet is the resident memory in bytes.
	WorkingSet uint64 `json:"working_set" yaml:"working_set"`

	// PrivateUsage is the process-private memory in bytes.
	PrivateUsage uint64 `json:"private_usage" yaml:"private_usage"`

	// PeakWorkingSet is the largest working set observed so far.
	PeakWorkingSet uint64 `json:"peak_working_set" yaml:"peak_working_set"`
}

// Delta is the difference between two resource samples.
type Delta struct {
	Wall              time.Duration `json:"wall" yaml:"wall"`
	CPU               time.Duration `json:"cpu" yaml:"cpu"`
	CPUDegraded       bool          `json:"cpu_degraded,omitempty" yaml:"cpu_degraded,omitempty"`
	WorkingSetDelta   int64         `json:"working_set_delta" yaml:"working_set_delta"`
	PrivateUsageDelta int64         `json:"private_usage_delta" yaml:"private_usage_delta"`
	PeakWorkingSet    uint64        `json:"peak_working_set" yaml:"peak_working_set"`

	// Utilization is CPU / Wall; 1.0 means one core fully busy.
	Utilization float64 `json:"utilization" yaml:"utilization"`

	// NormalizedUtilization is Utilization divided by the logical core count.
	NormalizedUtilization float64 `json:"normalized_utilization" yaml:"normalized_utilization"`

	// Cores is the logical core count used for normalization.
	Cores int `json:"cores" yaml:"cores"`
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units.
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// FormatSignedSize formats a byte delta with an explicit sign.
//
// Examples:
//   - FormatSignedSize(0) returns "0 B"
//   - FormatSignedSize(2048) returns "+2.0 KiB"
//   - FormatSignedSize(-1536) returns "-1.5 KiB"
func FormatSignedSize(delta int64) string {
	switch {
	case delta > 0:
		return "+" + humanize.IBytes(uint64(delta))
	case delta < 0:
		return "-" + humanize.IBytes(uint64(-delta))
	default:
		return "0 B"
	}
}

// FormatPercent renders a ratio as a percentage with one decimal.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}
