package runner

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// Artifacts is the sink for per-invocation child process output.
// Implemented by logging.ArtifactStore.
type Artifacts interface {
	Create(label string) (*os.File, error)
	CompleteSuccess(f *os.File) error
	CompleteFailure(f *os.File) (string, error)
}

// ProcessRunner executes one external command at a time and records its
// wall-clock timing. One invocation is one attempt; there is no retry and no
// timeout. A child process that never exits blocks its caller indefinitely;
// the operator must kill it out-of-band.
type ProcessRunner struct {
	shell     string
	artifacts Artifacts
	log       *slog.Logger
}

// NewProcessRunner creates a new ProcessRunner
func NewProcessRunner(shell string, artifacts Artifacts, log *slog.Logger) (*ProcessRunner, error) {
	if artifacts == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProcessRunner{
		shell:     shell,
		artifacts: artifacts,
		log:       log,
	}, nil
}

// Run executes the invocation and reports its timing. Start is taken
// immediately before the child launches, End immediately after it exits.
// On failure the log artifact is retained and a diagnostic is emitted; the
// returned error carries the exit status.
func (r *ProcessRunner) Run(inv Invocation) (RunResult, error) {
	logFile, err := r.artifacts.Create(inv.Label)
	if err != nil {
		return RunResult{Command: inv.Command}, fmt.Errorf("invocation %s: %w", inv.Label, err)
	}

	cmd := exec.Command(r.shell, "-c", inv.Command)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	start := time.Now()
	runErr := cmd.Run()
	end := time.Now()

	result := RunResult{
		Command:   inv.Command,
		Start:     start,
		End:       end,
		Succeeded: runErr == nil,
	}

	if runErr != nil {
		retained, artErr := r.artifacts.CompleteFailure(logFile)
		if artErr != nil {
			r.log.Warn("could not retain log artifact", "label", inv.Label, "error", artErr)
			retained = logFile.Name()
		}
		r.log.Error("invocation failed",
			"label", inv.Label,
			"command", inv.Command,
			"error", runErr,
			"log", retained)
		return result, fmt.Errorf("invocation %s: %w", inv.Label, runErr)
	}

	if artErr := r.artifacts.CompleteSuccess(logFile); artErr != nil {
		r.log.Warn("could not finalize log artifact", "label", inv.Label, "error", artErr)
	}

	r.log.Debug("invocation succeeded",
		"label", inv.Label,
		"elapsed", result.Elapsed())

	return result, nil
}
