package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/parbench/pkg/parbench/harness"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

// PlainFormatter writes an uncolored summary followed by an aligned table
// of measurement points. Suitable for scripting and piping.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *harness.Report) error {
	doc := buildDocument(r)

	fmt.Fprintf(w, "run:      %s\n", doc.Run.ID)
	fmt.Fprintf(w, "workload: %s\n", doc.Run.Workload)
	fmt.Fprintf(w, "mode:     %s\n", doc.Run.Mode)
	fmt.Fprintf(w, "workers:  %d\n", doc.Run.Workers)
	fmt.Fprintf(w, "items:    %d\n", doc.Run.Items)
	if r.Verified {
		w.WriteString("verified: yes\n")
	}
	w.WriteString("\n")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "POINT\tITEMS\tWALL\tCPU\tUTIL\tWORKING SET\tDELTA\tPEAK"); err != nil {
		return err
	}
	for _, m := range append(doc.Checkpoints, doc.Summary) {
		_, err := fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Label, m.Threshold, m.Wall, cpuColumn(m),
			types.FormatPercent(m.Utilization),
			m.WorkingSetHuman, m.WorkingSetDeltaHuman, m.PeakWorkingSetHuman)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

func cpuColumn(m measurement) string {
	if m.CPUDegraded {
		return "n/a"
	}
	return m.CPU
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
