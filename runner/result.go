package runner

import (
	"fmt"
	"math"
	"time"
)

// Invocation is one concrete execution of the external command, bound to one
// input file. Immutable: built once just before launch, never modified.
type Invocation struct {
	Command string // Fully resolved command line, executed via the shell
	Label   string // Unique within a batch; names the log artifact and output file
}

// RunResult records one completed invocation. Created exactly once by the
// worker that ran the command, after the process exits.
type RunResult struct {
	Command   string
	Start     time.Time
	End       time.Time
	Succeeded bool
}

// Elapsed is the invocation's wall-clock time rounded to whole seconds,
// half away from zero.
func (r RunResult) Elapsed() time.Duration {
	return r.End.Sub(r.Start).Round(time.Second)
}

// ResultSet holds the results of one (test, parallelism, asset) batch.
// Entry order carries no meaning; failed invocations are absent.
type ResultSet []RunResult

// AssetSummary is the aggregate of one batch. Write-once.
type AssetSummary struct {
	Asset      string // Base name of the source asset
	Results    ResultSet
	BatchStart time.Time
	BatchEnd   time.Time
	Reference  time.Duration // Clip playback length; 0 when unknown
}

// Summarize builds the batch aggregate. Pure function, no I/O.
func Summarize(asset string, results ResultSet, batchStart, batchEnd time.Time, reference time.Duration) AssetSummary {
	return AssetSummary{
		Asset:      asset,
		Results:    results,
		BatchStart: batchStart,
		BatchEnd:   batchEnd,
		Reference:  reference,
	}
}

// Total is the wall-clock span of the whole batch rounded to whole seconds,
// half away from zero. A slow outlier invocation extends the total for the
// batch, not just its own elapsed time.
func (s AssetSummary) Total() time.Duration {
	return s.BatchEnd.Sub(s.BatchStart).Round(time.Second)
}

// Average is the mean elapsed time of the successful runs, integer division
// over whole seconds. 0 when the batch produced no results.
func (s AssetSummary) Average() time.Duration {
	if len(s.Results) == 0 {
		return 0
	}
	var sum int64
	for _, r := range s.Results {
		sum += int64(r.Elapsed() / time.Second)
	}
	return time.Duration(sum/int64(len(s.Results))) * time.Second
}

// Percentage is the batch total as a share of the clip's playback length,
// rounded half away from zero. ok is false when the reference duration is
// unknown or zero.
func (s AssetSummary) Percentage() (int, bool) {
	if s.Reference <= 0 {
		return 0, false
	}
	return int(math.Round(s.Total().Seconds() / s.Reference.Seconds() * 100)), true
}

// AssetResult is one report cell: either a batch summary or the error that
// kept the asset's invocations from being built.
type AssetResult struct {
	Summary AssetSummary
	Err     error
}

// ReportRow groups the asset summaries of one test at one parallelism level.
type ReportRow struct {
	Test     string
	Parallel int
	Assets   []AssetResult
}

// ResultStats tracks invocation counts across the whole run.
type ResultStats struct {
	Batches     int
	Invocations int
	Succeeded   int
	Failed      int
	StartTime   time.Time
	EndTime     time.Time
}

// Report is the write-once result of a whole run, ordered as produced:
// tests in file order, parallelism levels in listed order, assets
// lexicographically.
type Report struct {
	RunID    string
	Rows     []ReportRow
	Stats    ResultStats
	Duration time.Duration
}

// Failed reports whether any invocation in the run failed.
func (r *Report) Failed() bool {
	return r.Stats.Failed > 0
}

// String returns a single-line summary of the run.
func (r *Report) String() string {
	return fmt.Sprintf("run %s: %d batches, %d invocations, %d succeeded, %d failed, took %s",
		r.RunID, r.Stats.Batches, r.Stats.Invocations, r.Stats.Succeeded, r.Stats.Failed,
		r.Duration.Round(time.Second))
}
