package output

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/parbench/pkg/parbench/harness"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

// barWidth is the width of the utilization bars in cells.
const barWidth = 24

// PrettyFormatter renders a styled report for terminals: a header box, a
// table of measurement points with utilization bars, and a totals footer.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *harness.Report) error {
	doc := buildDocument(r)

	w.WriteString(f.formatHeader(doc))
	w.WriteString("\n")
	w.WriteString(f.formatTable(doc))
	w.WriteString(f.formatFooter(r, doc))
	w.WriteString("\n")

	if len(doc.Skipped) > 0 {
		w.WriteString(WarningStyle.Render("Skipped checkpoints: " + strings.Join(doc.Skipped, ", ")))
		w.WriteString("\n")
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(doc document) string {
	lines := []string{
		TitleStyle.Render(doc.Run.Workload),
		fmt.Sprintf("%s %s  %s %s  %s %s",
			LabelStyle.Render("Mode:"), ValueStyle.Render(doc.Run.Mode),
			LabelStyle.Render("Workers:"), ValueStyle.Render(fmt.Sprintf("%d", doc.Run.Workers)),
			LabelStyle.Render("Items:"), ValueStyle.Render(humanize.Comma(int64(doc.Run.Items)))),
		MutedStyle.Render("run " + doc.Run.ID),
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(doc document) string {
	bar := bprogress.New(
		bprogress.WithDefaultGradient(),
		bprogress.WithWidth(barWidth),
		bprogress.WithoutPercentage(),
	)

	headers := []string{"POINT", "ITEMS", "WALL", "CPU", "WORKING SET", "DELTA", "UTILIZATION"}
	rows := [][]string{}
	for _, m := range append(doc.Checkpoints, doc.Summary) {
		rows = append(rows, []string{
			m.Label,
			humanize.Comma(m.Threshold),
			m.Wall,
			cpuColumn(m),
			m.WorkingSetHuman,
			m.WorkingSetDeltaHuman,
			bar.ViewAs(clamp01(m.NormalizedUtilization)) + " " + types.FormatPercent(m.Utilization),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var sb strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = TableHeaderStyle.Width(widths[i] + 2).Render(h)
	}
	sb.WriteString("  " + lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")

	for n, row := range rows {
		style := TableCellStyle
		if n == len(rows)-1 {
			style = style.Bold(true)
		}
		for i, cell := range row {
			cells[i] = style.Width(widths[i] + 2).Render(cell)
		}
		sb.WriteString("  " + lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *harness.Report, doc document) string {
	parts := []string{
		LabelStyle.Render("Throughput:") + " " + SizeStyle.Render(humanize.FormatFloat("#,###.#", doc.Run.Throughput)+" items/s"),
		LabelStyle.Render("Peak:") + " " + SizeStyle.Render(doc.Summary.PeakWorkingSetHuman),
		LabelStyle.Render("Cores:") + " " + ValueStyle.Render(fmt.Sprintf("%d", doc.Summary.Cores)),
	}

	if r.MergeTime > 0 {
		parts = append(parts, LabelStyle.Render("Merge:")+" "+ValueStyle.Render(doc.Run.MergeTime))
	}
	if r.Verified {
		parts = append(parts, SuccessStyle.Render("verified"))
	}
	if r.Delta.CPUDegraded {
		parts = append(parts, WarningStyle.Render("cpu time unavailable"))
	}
	if r.Pool.Discarded > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d units discarded", r.Pool.Discarded)))
	}

	return FooterBox.Render(strings.Join(parts, "  "))
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)

// FormatError renders a failed run for stderr. The phase is shown
// separately when err carries one.
func FormatError(err error, styled bool) string {
	var pe *types.PhaseError
	msg := err.Error()
	title := "run failed"
	if errors.As(err, &pe) {
		title = string(pe.Phase) + " phase failed"
		msg = pe.Err.Error()
	}

	if !styled {
		return fmt.Sprintf("parbench: %s: %s\n", title, msg)
	}
	return ErrorBox.Render(ErrorStyle.Bold(true).Render(title)+"\n"+msg) + "\n"
}
