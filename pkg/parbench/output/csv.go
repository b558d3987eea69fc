package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/jamesainslie/parbench/pkg/parbench/harness"
)

// CSVFormatter writes one RFC 4180 row per measurement point with raw
// numeric values, for loading into a spreadsheet.
type CSVFormatter struct{}

var csvHeader = []string{
	"run_id", "mode", "workers", "point", "items",
	"wall", "cpu", "utilization", "normalized_utilization",
	"working_set", "working_set_delta", "private_usage_delta", "peak_working_set",
}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *harness.Report) error {
	doc := buildDocument(r)
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, m := range append(doc.Checkpoints, doc.Summary) {
		row := []string{
			doc.Run.ID,
			doc.Run.Mode,
			strconv.Itoa(doc.Run.Workers),
			m.Label,
			strconv.FormatInt(m.Threshold, 10),
			m.Wall,
			cpuColumn(m),
			strconv.FormatFloat(m.Utilization, 'f', 4, 64),
			strconv.FormatFloat(m.NormalizedUtilization, 'f', 4, 64),
			strconv.FormatUint(m.WorkingSet, 10),
			strconv.FormatInt(m.WorkingSetDelta, 10),
			strconv.FormatInt(m.PrivateUsageDelta, 10),
			strconv.FormatUint(m.PeakWorkingSet, 10),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)
