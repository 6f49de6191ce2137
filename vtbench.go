package vtbench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vtbench/vtbench/db"
	"github.com/vtbench/vtbench/exitcodes"
	"github.com/vtbench/vtbench/logging"
	"github.com/vtbench/vtbench/media"
	"github.com/vtbench/vtbench/metrics"
	"github.com/vtbench/vtbench/probe"
	"github.com/vtbench/vtbench/registry"
	"github.com/vtbench/vtbench/reporting"
	"github.com/vtbench/vtbench/runner"
)

// BenchDriver runs the full benchmark matrix once and returns the report.
// Implemented by runner.Driver.
type BenchDriver interface {
	RunAll(ctx context.Context) (*runner.Report, error)
}

// Bench drives one benchmark run end to end: scan assets, run every batch,
// render the report, persist it, clean up.
type Bench struct {
	ctx        context.Context
	config     *Config
	version    string
	runID      string
	registry   *registry.Registry
	driver     BenchDriver
	artifacts  *logging.ArtifactStore
	replicator *media.Replicator
	dbConn     db.Connection // nil unless a database URI is configured
	result     *runner.Report

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Bench, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("creating vtbench with config",
		"sourceDir", config.SourceDir,
		"testsFile", config.TestsFile,
		"workDir", config.WorkDir,
		"keepOutputs", config.KeepOutputs,
		"cleanup", config.Cleanup)

	reg, err := registry.NewRegistry(registry.Config{
		Log:       config.Log,
		TestsFile: config.TestsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	assets, err := media.Scan(config.SourceDir, config.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory: %w", err)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("no media assets found under %s", config.SourceDir)
	}

	runID := uuid.New().String()

	artifacts, err := logging.NewArtifactStore(config.WorkDir, runID, config.KeepOutputs, config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}

	replicator, err := media.NewReplicator(filepath.Join(artifacts.RunDir(), "replicas"), config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create replicator: %w", err)
	}

	prober, err := probe.NewInspector(probe.Config{
		Log:         config.Log,
		Binary:      config.FFprobeBinary,
		TargetWidth: config.TargetWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create inspector: %w", err)
	}

	procRunner, err := runner.NewProcessRunner(config.Shell, artifacts, config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create process runner: %w", err)
	}

	executor, err := runner.NewParallelExecutor(procRunner, config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	driver, err := runner.NewDriver(runner.Config{
		Registry:    reg,
		Assets:      assets,
		Prober:      prober,
		Replicator:  replicator,
		Executor:    executor,
		Outputs:     artifacts,
		TargetWidth: config.TargetWidth,
		RunID:       runID,
		Log:         config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	var dbConn db.Connection
	if config.DatabaseURI != "" {
		dbConn, err = db.New(ctx, config.DatabaseURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	config.Log.Info("vtbench.New: created registry and driver",
		"run_id", runID, "tests", len(reg.GetTests()), "assets", len(assets))

	return &Bench{
		ctx:              ctx,
		config:           config,
		version:          version,
		runID:            runID,
		registry:         reg,
		driver:           driver,
		artifacts:        artifacts,
		replicator:       replicator,
		dbConn:           dbConn,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the whole benchmark once and triggers shutdown when done.
func (b *Bench) Start(ctx context.Context) error {
	// Panics are runtime errors, not benchmark failures
	defer func() {
		if r := recover(); r != nil {
			b.config.Log.Error("runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	b.ctx = ctx
	b.running.Store(true)

	b.config.Log.Info("starting vtbench",
		"version", b.version,
		"run_id", b.runID,
		"run_dir", b.artifacts.RunDir())

	if err := b.runBenchmarks(); err != nil {
		b.config.Log.Error("runtime error running benchmarks", "error", err)
		return NewRuntimeError(err)
	}

	if b.result.Failed() {
		b.config.Log.Warn("benchmark run completed with failures, returning exit code 1",
			"failed", b.result.Stats.Failed)
		return NewBenchFailureError(b.result.String())
	}

	go func() {
		b.shutdownCallback(nil)
	}()
	return nil
}

// runBenchmarks executes every batch and hands the report to its consumers.
func (b *Bench) runBenchmarks() error {
	result, err := b.driver.RunAll(b.ctx)
	if err != nil {
		return err
	}
	b.result = result

	b.printResultsTable(result)
	fmt.Println(result.String())

	if b.config.CSVFile != "" {
		if err := b.writeCSV(result); err != nil {
			b.config.Log.Error("failed to write CSV report", "path", b.config.CSVFile, "error", err)
		} else {
			b.config.Log.Info("CSV report written", "path", b.config.CSVFile)
		}
	}

	if b.dbConn != nil {
		if err := db.SaveReport(b.ctx, b.dbConn, result); err != nil {
			b.config.Log.Error("failed to persist report", "error", err)
		} else {
			b.config.Log.Info("report persisted", "run_id", result.RunID)
		}
	}

	status := "pass"
	if result.Failed() {
		status = "fail"
	}
	metrics.RecordRun(result.RunID, status, result.Stats.Failed, result.Duration)

	b.cleanup()

	b.config.Log.Info("benchmark run completed", "run_id", result.RunID, "failed", result.Stats.Failed)
	return nil
}

// printResultsTable renders the report to the console.
func (b *Bench) printResultsTable(result *runner.Report) {
	b.config.Log.Info("printing results...")
	title := fmt.Sprintf("Benchmark Results (%s)", formatDuration(result.Duration))
	if err := reporting.NewTableReporter(title).Print(result); err != nil {
		b.config.Log.Error("failed to print results table", "error", err)
	}
}

// writeCSV writes the report to the configured CSV file location.
func (b *Bench) writeCSV(result *runner.Report) error {
	sink, err := reporting.NewCSVSink(b.config.CSVFile)
	if err != nil {
		return err
	}
	return sink.Write(result)
}

// cleanup applies the configured retention policy to transient files.
func (b *Bench) cleanup() {
	if err := b.artifacts.CleanupOutputs(); err != nil {
		b.config.Log.Warn("failed to clean up transcode outputs", "error", err)
	}
	if b.config.Cleanup {
		if err := b.replicator.Cleanup(); err != nil {
			b.config.Log.Warn("failed to clean up replicas", "error", err)
		}
	}
}

// Stop stops the vtbench service.
func (b *Bench) Stop(ctx context.Context) error {
	b.config.Log.Info("stopping vtbench")

	if !b.running.Load() {
		b.config.Log.Debug("service already stopped, nothing to do")
		return nil
	}

	b.running.Store(false)

	if b.dbConn != nil {
		_ = b.dbConn.Close()
	}

	b.config.Log.Info("vtbench stopped successfully")
	return nil
}

// Stopped returns true if the vtbench service is stopped.
func (b *Bench) Stopped() bool {
	return !b.running.Load()
}

// Result returns the report of the completed run, nil before completion.
func (b *Bench) Result() *runner.Report {
	return b.result
}

// formatDuration formats a duration to seconds with 1 decimal place.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
