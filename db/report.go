package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vtbench/vtbench/runner"
)

// SaveReport persists a completed report in one transaction: the run header
// first, then one batch record per report cell.
func SaveReport(ctx context.Context, conn Connection, report *runner.Report) (err error) {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = tx.InsertRun(ctx, Run{
		ID:          report.RunID,
		StartedAt:   report.Stats.StartTime,
		FinishedAt:  report.Stats.EndTime,
		Batches:     report.Stats.Batches,
		Invocations: report.Stats.Invocations,
		Succeeded:   report.Stats.Succeeded,
		Failed:      report.Stats.Failed,
	}); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, row := range report.Rows {
		for _, cell := range row.Assets {
			if _, err = tx.InsertBatch(ctx, toBatch(report.RunID, row, cell)); err != nil {
				return fmt.Errorf("failed to insert batch: %w", err)
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// toBatch flattens one report cell into its database record.
func toBatch(runID string, row runner.ReportRow, cell runner.AssetResult) Batch {
	s := cell.Summary
	b := Batch{
		RunID:    runID,
		Test:     row.Test,
		Parallel: row.Parallel,
		Asset:    s.Asset,
	}

	if cell.Err != nil {
		b.Error = cell.Err.Error()
		return b
	}

	b.Launched = row.Parallel
	b.Succeeded = len(s.Results)
	b.AverageSeconds = int64(s.Average() / time.Second)
	b.TotalSeconds = int64(s.Total() / time.Second)
	b.ClipSeconds = int64(s.Reference / time.Second)
	if pct, ok := s.Percentage(); ok {
		b.Percent = &pct
	}
	return b
}
