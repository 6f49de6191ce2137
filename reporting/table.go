// Package reporting renders a completed benchmark report as tabular output:
// an ASCII table for the terminal and an optional CSV file for spreadsheets.
package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/vtbench/vtbench/runner"
)

// TableReporter renders benchmark reports as ASCII tables.
type TableReporter struct {
	title string
}

// NewTableReporter creates a new table reporter
func NewTableReporter(title string) *TableReporter {
	return &TableReporter{
		title: title,
	}
}

// Generate renders the report as an ASCII table and returns it as a string.
// Rows keep the order the driver produced them in: tests in file order,
// parallelism levels in listed order, assets lexicographically.
func (tr *TableReporter) Generate(report *runner.Report) string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(tr.title)

	t.AppendHeader(table.Row{"TEST", "P", "ASSET", "RUNS", "AVERAGE", "TOTAL", "CLIP", "REALTIME", "STATUS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "TEST", AutoMerge: true},
		{Name: "P", Align: text.AlignRight},
		{Name: "ASSET", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "RUNS", Align: text.AlignRight},
		{Name: "AVERAGE", Align: text.AlignRight},
		{Name: "TOTAL", Align: text.AlignRight},
		{Name: "CLIP", Align: text.AlignRight},
		{Name: "REALTIME", Align: text.AlignRight},
	})

	for _, row := range report.Rows {
		for _, cell := range row.Assets {
			t.AppendRow(assetRow(row, cell))
		}
		t.AppendSeparator()
	}

	if report.Failed() {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		"",
		fmt.Sprintf("%d/%d", report.Stats.Succeeded, report.Stats.Invocations),
		"",
		formatDuration(report.Duration),
		"",
		"",
		overallStatus(report),
	})

	t.Render()
	return buf.String()
}

// Print renders the report table to stdout.
func (tr *TableReporter) Print(report *runner.Report) error {
	_, err := fmt.Print(tr.Generate(report))
	return err
}

// assetRow builds one table row for one (test, parallelism, asset) cell.
func assetRow(row runner.ReportRow, cell runner.AssetResult) table.Row {
	if cell.Err != nil {
		return table.Row{
			row.Test,
			row.Parallel,
			cell.Summary.Asset,
			"-",
			"-",
			"-",
			"-",
			"n/a",
			"ERROR",
		}
	}

	s := cell.Summary
	status := "PASS"
	if len(s.Results) < row.Parallel {
		status = "FAIL"
	}

	return table.Row{
		row.Test,
		row.Parallel,
		s.Asset,
		fmt.Sprintf("%d/%d", len(s.Results), row.Parallel),
		formatDuration(s.Average()),
		formatDuration(s.Total()),
		formatReference(s.Reference),
		formatPercentage(s),
		status,
	}
}

// overallStatus is the footer verdict for the whole run.
func overallStatus(report *runner.Report) string {
	if report.Failed() {
		return "FAIL"
	}
	return "PASS"
}

// formatDuration formats a duration for table display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Second).String()
}

// formatReference formats the clip playback length, n/a when unknown.
func formatReference(d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	return formatDuration(d)
}

// formatPercentage formats the total as a share of the clip length.
func formatPercentage(s runner.AssetSummary) string {
	pct, ok := s.Percentage()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", pct)
}
