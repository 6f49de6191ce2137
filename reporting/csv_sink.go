package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vtbench/vtbench/runner"
)

// CSVSink writes one record per (test, parallelism, asset) cell to a CSV
// file. The report is write-once, so the sink writes the whole file in one
// shot rather than streaming.
type CSVSink struct {
	path string
}

// NewCSVSink creates a new CSV sink
func NewCSVSink(path string) (*CSVSink, error) {
	if path == "" {
		return nil, fmt.Errorf("CSV path cannot be empty")
	}
	return &CSVSink{path: path}, nil
}

// Write renders the report to the configured file, header first.
func (s *CSVSink) Write(report *runner.Report) error {
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range report.Rows {
		for _, cell := range row.Assets {
			if err := w.Write(record(report.RunID, row, cell)); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("CSV write error: %w", err)
	}
	return nil
}

// Path returns the output file path.
func (s *CSVSink) Path() string {
	return s.path
}

func header() []string {
	return []string{
		"run_id",
		"test",
		"parallel",
		"asset",
		"launched",
		"succeeded",
		"average_seconds",
		"total_seconds",
		"clip_seconds",
		"realtime_percent",
		"error",
	}
}

func record(runID string, row runner.ReportRow, cell runner.AssetResult) []string {
	s := cell.Summary

	rec := []string{
		runID,
		row.Test,
		strconv.Itoa(row.Parallel),
		s.Asset,
	}

	if cell.Err != nil {
		return append(rec, "0", "0", "", "", "", "", cell.Err.Error())
	}

	pct := ""
	if p, ok := s.Percentage(); ok {
		pct = strconv.Itoa(p)
	}
	clip := ""
	if s.Reference > 0 {
		clip = strconv.FormatInt(int64(s.Reference/time.Second), 10)
	}

	return append(rec,
		strconv.Itoa(row.Parallel),
		strconv.Itoa(len(s.Results)),
		strconv.FormatInt(int64(s.Average()/time.Second), 10),
		strconv.FormatInt(int64(s.Total()/time.Second), 10),
		clip,
		pct,
		"",
	)
}
