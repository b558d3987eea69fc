package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jamesainslie/parbench/pkg/parbench/harness"
	"github.com/jamesainslie/parbench/pkg/parbench/pool"
	"github.com/jamesainslie/parbench/pkg/parbench/progress"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *harness.Report {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sample := func(after time.Duration, mib int64) types.ResourceSample {
		ws := uint64(mib * types.MiB)
		return types.ResourceSample{
			Wall:           start.Add(after),
			CPUTime:        after * 6,
			WorkingSet:     ws,
			PrivateUsage:   ws,
			PeakWorkingSet: ws,
		}
	}
	delta := func(after time.Duration, mib int64) types.Delta {
		ws := uint64(mib * types.MiB)
		return types.Delta{
			Wall:                  after,
			CPU:                   after * 6,
			WorkingSetDelta:       int64(ws) - 10*types.MiB,
			PrivateUsageDelta:     int64(ws) - 10*types.MiB,
			PeakWorkingSet:        ws,
			Utilization:           6,
			NormalizedUtilization: 0.75,
			Cores:                 8,
		}
	}

	return &harness.Report{
		RunID:    "2f1b0d5e-0000-4000-8000-000000000001",
		Workload: "matrix 1000x1000",
		Mode:     types.ModeStatic,
		Workers:  8,
		Items:    1000,
		Start:    sample(0, 10),
		End:      sample(2*time.Second, 90),
		Delta:    delta(2*time.Second, 90),
		Checkpoints: []harness.CheckpointSample{
			{
				Checkpoint: progress.Checkpoint{Threshold: 10, Label: "first 10"},
				Count:      10,
				Sample:     sample(20*time.Millisecond, 80),
				Delta:      delta(20*time.Millisecond, 80),
			},
			{
				Checkpoint: progress.Checkpoint{Threshold: 500, Label: "half"},
				Count:      500,
				Sample:     sample(time.Second, 85),
				Delta:      delta(time.Second, 85),
			},
		},
		Skipped:   []progress.Spec{{At: "2000", Label: "beyond"}},
		Pool:      pool.Stats{Workers: 8, Submitted: 8, Completed: 8},
		Verified:  true,
		MergeTime: 15 * time.Millisecond,
	}
}

func format(t *testing.T, name string, r *harness.Report) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "markdown", "plain", "pretty", "yaml"}, Available())

	_, err := Get("xml")
	assert.Error(t, err)

	reg := NewRegistry()
	reg.Register("plain", func() Formatter { return &PlainFormatter{} })
	f, err := reg.Get("plain")
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, f)
	assert.Equal(t, []string{"plain"}, reg.Available())
}

func TestJSONFormatter(t *testing.T) {
	out := format(t, "json", sampleReport())

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	run := doc["run"].(map[string]any)
	assert.Equal(t, "static", run["mode"])
	assert.InDelta(t, 500.0, run["items_per_second"], 1e-9)
	assert.Equal(t, true, run["verified"])

	checkpoints := doc["checkpoints"].([]any)
	require.Len(t, checkpoints, 2)
	half := checkpoints[1].(map[string]any)
	assert.Equal(t, "half", half["label"])
	assert.Equal(t, "1s", half["wall"])

	summary := doc["summary"].(map[string]any)
	assert.Equal(t, "90 MiB", summary["peak_working_set_human"])
	assert.Equal(t, "+80 MiB", summary["working_set_delta_human"])
	assert.Equal(t, []any{"beyond"}, doc["skipped"])
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, "yaml", sampleReport())

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))

	assert.Contains(t, doc, "run")
	assert.Contains(t, doc, "summary")
	assert.Contains(t, doc, "pool")
	assert.Len(t, doc["checkpoints"], 2)
	assert.Equal(t, 8, doc["pool"].(map[string]any)["workers"])
}

func TestPlainFormatter(t *testing.T) {
	out := format(t, "plain", sampleReport())

	assert.Contains(t, out, "workload: matrix 1000x1000")
	assert.Contains(t, out, "verified: yes")
	assert.Contains(t, out, "POINT")
	assert.Contains(t, out, "first 10")
	assert.Contains(t, out, "600.0%")
	assert.NotContains(t, out, "\x1b[")
}

func TestPlainFormatter_DegradedCPU(t *testing.T) {
	r := sampleReport()
	r.Delta.CPUDegraded = true
	out := format(t, "plain", r)
	assert.Contains(t, out, "n/a")
}

func TestCSVFormatter(t *testing.T) {
	out := format(t, "csv", sampleReport())

	records, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header + two checkpoints + total")
	assert.Equal(t, "point", records[0][3])
	assert.Equal(t, "total", records[3][3])
	assert.Equal(t, "1000", records[3][4])
	assert.Equal(t, "0.7500", records[3][8])
}

func TestMarkdownFormatter(t *testing.T) {
	out := format(t, "markdown", sampleReport())

	assert.Contains(t, out, "## matrix 1000x1000 (static, 8 workers)")
	assert.Contains(t, out, "| Items | 1,000 |")
	assert.Contains(t, out, "| Merge | 15ms |")
	assert.Contains(t, out, "| half | 500 | 1s |")
	assert.Contains(t, out, "| **total** | 1000 |")
	assert.Contains(t, out, "Skipped checkpoints: beyond")
}

func TestPrettyFormatter(t *testing.T) {
	out := format(t, "pretty", sampleReport())

	for _, want := range []string{"matrix 1000x1000", "UTILIZATION", "first 10", "half", "total", "verified", "items/s"} {
		assert.Contains(t, out, want)
	}
}

func TestPrettyFormatter_NoCheckpoints(t *testing.T) {
	r := sampleReport()
	r.Checkpoints = nil
	r.Skipped = nil
	r.Pool.Discarded = 3

	out := format(t, "pretty", r)
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "3 units discarded")
	assert.NotContains(t, out, "Skipped")
}

func TestFormatError(t *testing.T) {
	err := types.NewPhaseError(types.PhaseExecution, fmt.Errorf("item 4: %w", types.ErrIOFailure))

	plain := FormatError(err, false)
	assert.Equal(t, "parbench: execution phase failed: item 4: i/o failure\n", plain)

	assert.Equal(t, "parbench: run failed: boom\n", FormatError(errors.New("boom"), false))
	assert.Contains(t, FormatError(err, true), "execution phase failed")
}
