package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vtbench/vtbench/metrics"
	"github.com/vtbench/vtbench/probe"
	"github.com/vtbench/vtbench/registry"
	"github.com/vtbench/vtbench/template"
)

// Prober supplies media metadata for an asset, cached per run.
type Prober interface {
	Inspect(ctx context.Context, path string) (probe.MediaInfo, error)
}

// InputReplicator produces the input paths for a batch: the original asset
// plus enough copies for the parallelism level.
type InputReplicator interface {
	Replicate(path string, count int) ([]string, error)
}

// BatchExecutor runs one batch of invocations to completion.
type BatchExecutor interface {
	Execute(invs []Invocation) ResultSet
}

// OutputNamer names the transcode output destination for a label.
type OutputNamer interface {
	OutputPath(label string) string
}

// Driver walks test definitions, parallelism levels and assets, runs one
// batch per combination, and assembles the report.
type Driver struct {
	registry    *registry.Registry
	assets      []string
	prober      Prober
	replicator  InputReplicator
	executor    BatchExecutor
	outputs     OutputNamer
	targetWidth int
	runID       string
	log         *slog.Logger
	tracer      trace.Tracer

	started atomic.Bool
	seq     int // Batch ordinal across the run, part of every label
}

// Config holds configuration for creating a new driver
type Config struct {
	Registry    *registry.Registry
	Assets      []string
	Prober      Prober
	Replicator  InputReplicator
	Executor    BatchExecutor
	Outputs     OutputNamer
	TargetWidth int
	RunID       string
	Log         *slog.Logger
}

// NewDriver creates a new driver instance
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if len(cfg.Assets) == 0 {
		return nil, fmt.Errorf("no assets to benchmark")
	}
	if cfg.Prober == nil {
		return nil, fmt.Errorf("prober is required")
	}
	if cfg.Replicator == nil {
		return nil, fmt.Errorf("replicator is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Outputs == nil {
		return nil, fmt.Errorf("output namer is required")
	}
	if cfg.TargetWidth <= 0 {
		return nil, fmt.Errorf("target width must be positive, got %d", cfg.TargetWidth)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	// Assets run in lexicographic order regardless of how they were handed in
	assets := make([]string, len(cfg.Assets))
	copy(assets, cfg.Assets)
	sort.Strings(assets)

	return &Driver{
		registry:    cfg.Registry,
		assets:      assets,
		prober:      cfg.Prober,
		replicator:  cfg.Replicator,
		executor:    cfg.Executor,
		outputs:     cfg.Outputs,
		targetWidth: cfg.TargetWidth,
		runID:       cfg.RunID,
		log:         cfg.Log,
		tracer:      otel.Tracer("bench driver"),
	}, nil
}

// RunAll executes every test at every declared parallelism level against
// every asset and returns the assembled report. Levels run strictly in the
// order listed, repeated levels run again. A driver runs once.
func (d *Driver) RunAll(ctx context.Context) (*Report, error) {
	if !d.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("driver already ran")
	}

	start := time.Now()
	d.log.Debug("starting benchmark run", "run_id", d.runID, "assets", len(d.assets))

	report := &Report{
		RunID: d.runID,
		Stats: ResultStats{StartTime: start},
	}

	for _, test := range d.registry.GetTests() {
		d.processTest(ctx, test, report)
	}

	report.Duration = time.Since(start)
	report.Stats.EndTime = time.Now()
	return report, nil
}

// processTest runs every parallelism level of one test definition.
func (d *Driver) processTest(ctx context.Context, test registry.Test, report *Report) {
	ctx, span := d.tracer.Start(ctx, fmt.Sprintf("test %s", test.Name))
	defer span.End()

	for _, level := range test.Processes {
		row := d.processLevel(ctx, test, level, report)
		report.Rows = append(report.Rows, row)
	}
}

// processLevel runs one test at one parallelism level across all assets.
func (d *Driver) processLevel(ctx context.Context, test registry.Test, level int, report *Report) ReportRow {
	ctx, span := d.tracer.Start(ctx, fmt.Sprintf("level %s p%d", test.Name, level))
	defer span.End()

	row := ReportRow{Test: test.Name, Parallel: level}
	for _, asset := range d.assets {
		result := d.processAsset(ctx, test, level, asset)
		row.Assets = append(row.Assets, result)

		if result.Err != nil {
			continue
		}
		report.Stats.Batches++
		launched := level
		succeeded := len(result.Summary.Results)
		report.Stats.Invocations += launched
		report.Stats.Succeeded += succeeded
		report.Stats.Failed += launched - succeeded
	}
	return row
}

// processAsset runs one batch. A failure building the invocations aborts
// only this asset's cell; the run continues.
func (d *Driver) processAsset(ctx context.Context, test registry.Test, level int, asset string) AssetResult {
	assetName := filepath.Base(asset)
	ctx, span := d.tracer.Start(ctx, fmt.Sprintf("batch %s p%d %s", test.Name, level, assetName))
	defer span.End()

	d.seq++

	info, reference := d.inspectAsset(ctx, asset)

	invs, err := d.buildInvocations(test, level, asset, info)
	if err != nil {
		d.log.Error("skipping asset for this batch",
			"test", test.Name,
			"parallel", level,
			"asset", assetName,
			"error", err)
		metrics.RecordBatchError(test.Name, err)
		return AssetResult{Summary: AssetSummary{Asset: assetName}, Err: err}
	}

	batchStart := time.Now()
	results := d.executor.Execute(invs)
	batchEnd := time.Now()

	summary := Summarize(assetName, results, batchStart, batchEnd, reference)
	metrics.RecordBatch(test.Name, level, assetName, len(invs), len(results), batchEnd.Sub(batchStart))
	d.log.Info("batch complete",
		"test", test.Name,
		"parallel", level,
		"asset", assetName,
		"succeeded", len(results),
		"failed", len(invs)-len(results),
		"total", summary.Total())

	return AssetResult{Summary: summary}
}

// inspectAsset probes the asset. When metadata is unavailable the benchmark
// still runs; the percentage column degrades to n/a.
func (d *Driver) inspectAsset(ctx context.Context, asset string) (probe.MediaInfo, time.Duration) {
	info, err := d.prober.Inspect(ctx, asset)
	if err != nil {
		d.log.Warn("metadata unavailable", "asset", asset, "error", err)
		return probe.MediaInfo{}, 0
	}
	return info, time.Duration(info.DurationSeconds * float64(time.Second))
}

// buildInvocations resolves the command template once per parallel copy.
func (d *Driver) buildInvocations(test registry.Test, level int, asset string, info probe.MediaInfo) ([]Invocation, error) {
	inputs, err := d.replicator.Replicate(asset, level)
	if err != nil {
		return nil, fmt.Errorf("replicating input: %w", err)
	}

	base := template.InferOptions(info, d.targetWidth)
	invs := make([]Invocation, 0, len(inputs))
	for i, input := range inputs {
		label := BatchLabel(test.Name, level, d.seq, i, asset)
		subs := template.Merge(base, template.Substitutions{
			"input":  input,
			"output": d.outputs.OutputPath(label),
		})
		invs = append(invs, Invocation{
			Command: template.Resolve(test.Command, subs),
			Label:   label,
		})
	}
	return invs, nil
}

// BatchLabel derives the label of one invocation from the test name,
// parallelism level, run-wide batch ordinal, copy index and asset stem.
// Labels are unique within a batch by the copy index and unique across the
// run by the ordinal, which keeps repeated parallelism levels apart.
func BatchLabel(test string, level, seq, copy int, asset string) string {
	base := filepath.Base(asset)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s-p%d-n%d-c%d-%s", test, level, seq, copy, stem)
}
