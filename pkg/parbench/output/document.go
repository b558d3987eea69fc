package output

import (
	"time"

	"github.com/jamesainslie/parbench/pkg/parbench/harness"
	"github.com/jamesainslie/parbench/pkg/parbench/pool"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

// document is the serialized shape shared by the json and yaml formatters.
// Durations are strings and sizes carry a human-readable twin.
type document struct {
	Run         runInfo       `json:"run" yaml:"run"`
	Summary     measurement   `json:"summary" yaml:"summary"`
	Checkpoints []measurement `json:"checkpoints" yaml:"checkpoints"`
	Skipped     []string      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Pool        pool.Stats    `json:"pool" yaml:"pool"`
}

type runInfo struct {
	ID         string    `json:"id" yaml:"id"`
	Workload   string    `json:"workload" yaml:"workload"`
	Mode       string    `json:"mode" yaml:"mode"`
	Workers    int       `json:"workers" yaml:"workers"`
	Items      int       `json:"items" yaml:"items"`
	Started    time.Time `json:"started" yaml:"started"`
	Verified   bool      `json:"verified" yaml:"verified"`
	MergeTime  string    `json:"merge_time,omitempty" yaml:"merge_time,omitempty"`
	Throughput float64   `json:"items_per_second" yaml:"items_per_second"`
}

// measurement is one point of the run measured against its start.
type measurement struct {
	Label     string `json:"label" yaml:"label"`
	Threshold int64  `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	Wall                  string  `json:"wall" yaml:"wall"`
	CPU                   string  `json:"cpu" yaml:"cpu"`
	CPUDegraded           bool    `json:"cpu_degraded,omitempty" yaml:"cpu_degraded,omitempty"`
	Utilization           float64 `json:"utilization" yaml:"utilization"`
	NormalizedUtilization float64 `json:"normalized_utilization" yaml:"normalized_utilization"`
	Cores                 int     `json:"cores" yaml:"cores"`

	WorkingSet             uint64 `json:"working_set" yaml:"working_set"`
	WorkingSetHuman        string `json:"working_set_human" yaml:"working_set_human"`
	WorkingSetDelta        int64  `json:"working_set_delta" yaml:"working_set_delta"`
	WorkingSetDeltaHuman   string `json:"working_set_delta_human" yaml:"working_set_delta_human"`
	PrivateUsage           uint64 `json:"private_usage" yaml:"private_usage"`
	PrivateUsageDelta      int64  `json:"private_usage_delta" yaml:"private_usage_delta"`
	PrivateUsageDeltaHuman string `json:"private_usage_delta_human" yaml:"private_usage_delta_human"`
	PeakWorkingSet         uint64 `json:"peak_working_set" yaml:"peak_working_set"`
	PeakWorkingSetHuman    string `json:"peak_working_set_human" yaml:"peak_working_set_human"`
}

func newMeasurement(label string, threshold int64, s types.ResourceSample, d types.Delta) measurement {
	return measurement{
		Label:                  label,
		Threshold:              threshold,
		Wall:                   d.Wall.String(),
		CPU:                    d.CPU.String(),
		CPUDegraded:            d.CPUDegraded,
		Utilization:            d.Utilization,
		NormalizedUtilization:  d.NormalizedUtilization,
		Cores:                  d.Cores,
		WorkingSet:             s.WorkingSet,
		WorkingSetHuman:        types.FormatSize(s.WorkingSet),
		WorkingSetDelta:        d.WorkingSetDelta,
		WorkingSetDeltaHuman:   types.FormatSignedSize(d.WorkingSetDelta),
		PrivateUsage:           s.PrivateUsage,
		PrivateUsageDelta:      d.PrivateUsageDelta,
		PrivateUsageDeltaHuman: types.FormatSignedSize(d.PrivateUsageDelta),
		PeakWorkingSet:         d.PeakWorkingSet,
		PeakWorkingSetHuman:    types.FormatSize(d.PeakWorkingSet),
	}
}

// buildDocument flattens a report. The summary is the end sample measured
// against the start.
func buildDocument(r *harness.Report) document {
	doc := document{
		Run: runInfo{
			ID:         r.RunID,
			Workload:   r.Workload,
			Mode:       string(r.Mode),
			Workers:    r.Workers,
			Items:      r.Items,
			Started:    r.Start.Wall,
			Verified:   r.Verified,
			Throughput: r.Throughput(),
		},
		Summary:     newMeasurement("total", int64(r.Items), r.End, r.Delta),
		Checkpoints: make([]measurement, 0, len(r.Checkpoints)),
		Pool:        r.Pool,
	}
	if r.MergeTime > 0 {
		doc.Run.MergeTime = r.MergeTime.String()
	}

	for _, cs := range r.Checkpoints {
		doc.Checkpoints = append(doc.Checkpoints,
			newMeasurement(cs.Checkpoint.Label, cs.Checkpoint.Threshold, cs.Sample, cs.Delta))
	}
	for _, s := range r.Skipped {
		label := s.Label
		if label == "" {
			label = s.At
		}
		doc.Skipped = append(doc.Skipped, label)
	}
	return doc
}
