package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/vtbench/vtbench"
	"github.com/vtbench/vtbench/exitcodes"
	"github.com/vtbench/vtbench/flags"
	"github.com/vtbench/vtbench/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "vtbench"
	app.Usage = "Video transcoding benchmark harness"
	app.Description = "vtbench drives an external transcoder across media assets under configurable parallelism and reports elapsed-time statistics"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Check for typed runtime errors
			if vtbench.IsRuntimeError(err) {
				// For runtime errors, use exit code 2
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if vtbench.IsBenchFailureError(err) {
				// For invocation failures, use exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.BenchFailure))
			} else {
				// For other unspecified errors, default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.BenchFailure))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up open telemetry: %v\n", err)
		os.Exit(exitcodes.RuntimeErr)
	}
	defer otelShutdown()

	// Start health and metrics servers
	svc := service.New(slog.Default())
	svc.Start(context.Background())
	defer svc.Shutdown()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "application failed: %v\n", err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func run(cliCtx *cli.Context) error {
	log, err := newLogger(cliCtx)
	if err != nil {
		return vtbench.NewRuntimeError(err)
	}

	cfg, err := vtbench.NewConfig(
		cliCtx,
		log,
		cliCtx.String(flags.SourceDir.Name),
		cliCtx.String(flags.TestsFile.Name),
	)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return vtbench.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	appCtx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()

	bench, err := vtbench.New(appCtx, cfg, Version, func(error) { cancel() })
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return vtbench.NewRuntimeError(fmt.Errorf("failed to create vtbench: %w", err))
	}
	defer func() {
		if err := bench.Stop(context.Background()); err != nil {
			cfg.Log.Error("failed to stop vtbench", "error", err)
		}
	}()

	return bench.Start(appCtx)
}

// newLogger builds the application logger from the --log-level flag.
func newLogger(cliCtx *cli.Context) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cliCtx.String(flags.LogLevel.Name))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
