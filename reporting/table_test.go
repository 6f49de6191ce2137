package reporting

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vtbench/vtbench/runner"
)

func sampleReport() *runner.Report {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	results := runner.ResultSet{
		{Command: "ffmpeg a", Start: base, End: base.Add(10 * time.Second), Succeeded: true},
		{Command: "ffmpeg b", Start: base, End: base.Add(12 * time.Second), Succeeded: true},
	}
	return &runner.Report{
		RunID: "run1",
		Rows: []runner.ReportRow{
			{
				Test:     "transcode",
				Parallel: 2,
				Assets: []runner.AssetResult{
					{Summary: runner.Summarize("a.mp4", results, base, base.Add(12*time.Second), time.Minute)},
					{
						Summary: runner.AssetSummary{Asset: "b.mp4"},
						Err:     fmt.Errorf("copying b.mp4: no space left on device"),
					},
				},
			},
		},
		Stats:    runner.ResultStats{Batches: 1, Invocations: 2, Succeeded: 2},
		Duration: 14 * time.Second,
	}
}

func TestGenerateTable(t *testing.T) {
	tr := NewTableReporter("Benchmark run1")
	content := tr.Generate(sampleReport())

	assert.Contains(t, content, "Benchmark run1")
	assert.Contains(t, content, "transcode")
	assert.Contains(t, content, "a.mp4")
	assert.Contains(t, content, "2/2")
	assert.Contains(t, content, "11s") // (10+12)/2
	assert.Contains(t, content, "12s") // batch span
	assert.Contains(t, content, "1m0s")
	assert.Contains(t, content, "20%") // 12s of a 60s clip
	assert.Contains(t, content, "PASS")
}

func TestGenerateTableErrorCell(t *testing.T) {
	tr := NewTableReporter("Benchmark run1")
	content := tr.Generate(sampleReport())

	assert.Contains(t, content, "b.mp4")
	assert.Contains(t, content, "ERROR")
	assert.Contains(t, content, "n/a")
}

func TestGenerateTableFooter(t *testing.T) {
	report := sampleReport()
	report.Stats = runner.ResultStats{Batches: 1, Invocations: 3, Succeeded: 2, Failed: 1}

	tr := NewTableReporter("Benchmark run1")
	content := tr.Generate(report)

	assert.Contains(t, content, "TOTAL")
	assert.Contains(t, content, "2/3")
	assert.Contains(t, content, "FAIL")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{
			name:     "instant",
			duration: 0,
			expected: "0ms",
		},
		{
			name:     "sub-second",
			duration: 500 * time.Millisecond,
			expected: "500ms",
		},
		{
			name:     "whole seconds",
			duration: 12 * time.Second,
			expected: "12s",
		},
		{
			name:     "minutes",
			duration: 90 * time.Second,
			expected: "1m30s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	known := runner.Summarize("a.mp4", nil, base, base.Add(30*time.Second), time.Minute)
	assert.Equal(t, "50%", formatPercentage(known))

	unknown := runner.Summarize("a.mp4", nil, base, base.Add(30*time.Second), 0)
	assert.Equal(t, "n/a", formatPercentage(unknown))
}
