package output

import (
	"bytes"
	"sync"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/parbench/pkg/parbench/harness"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

// MarkdownFormatter renders the report as a Markdown section, ready to
// paste into an issue or a results log.
type MarkdownFormatter struct {
	once     sync.Once
	template *template.Template
	err      error
}

// markdownFuncs are the helpers available to the markdown template.
func markdownFuncs() template.FuncMap {
	return template.FuncMap{
		// pct renders a ratio as a percentage.
		"pct": types.FormatPercent,

		// comma groups digits: 100000 -> "100,000".
		"comma": func(v int) string { return humanize.Comma(int64(v)) },

		"ftoa": func(v float64) string { return humanize.FormatFloat("#,###.##", v) },
	}
}

const markdownTemplate = `## {{.Run.Workload}} ({{.Run.Mode}}, {{.Run.Workers}} workers)

| | |
|---|---|
| Run | ` + "`{{.Run.ID}}`" + ` |
| Items | {{comma .Run.Items}} |
| Throughput | {{ftoa .Run.Throughput}} items/s |
{{- if .Run.MergeTime}}
| Merge | {{.Run.MergeTime}} |
{{- end}}
| Verified | {{if .Run.Verified}}yes{{else}}no{{end}} |

| Point | Items | Wall | CPU | Utilization | Working set | Δ working set | Peak |
|---|---:|---:|---:|---:|---:|---:|---:|
{{- range .Checkpoints}}
| {{.Label}} | {{.Threshold}} | {{.Wall}} | {{if .CPUDegraded}}n/a{{else}}{{.CPU}}{{end}} | {{pct .Utilization}} | {{.WorkingSetHuman}} | {{.WorkingSetDeltaHuman}} | {{.PeakWorkingSetHuman}} |
{{- end}}
{{- with .Summary}}
| **{{.Label}}** | {{.Threshold}} | {{.Wall}} | {{if .CPUDegraded}}n/a{{else}}{{.CPU}}{{end}} | {{pct .Utilization}} | {{.WorkingSetHuman}} | {{.WorkingSetDeltaHuman}} | {{.PeakWorkingSetHuman}} |
{{- end}}
{{if .Skipped}}
Skipped checkpoints: {{range $i, $s := .Skipped}}{{if $i}}, {{end}}{{$s}}{{end}}
{{end}}`

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *harness.Report) error {
	f.once.Do(func() {
		f.template, f.err = template.New("markdown").Funcs(markdownFuncs()).Parse(markdownTemplate)
	})
	if f.err != nil {
		return f.err
	}
	return f.template.Execute(w, buildDocument(r))
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
