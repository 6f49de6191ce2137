package runner

import (
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"
)

// CommandRunner runs a single invocation to completion.
type CommandRunner interface {
	Run(inv Invocation) (RunResult, error)
}

// ParallelExecutor launches every invocation of a batch simultaneously and
// waits for all of them. Throughput under contention is the quantity being
// measured, so there is no worker pool cap: a batch of parallelism P puts
// exactly P child processes on the machine at once.
type ParallelExecutor struct {
	runner CommandRunner
	log    *slog.Logger
}

// NewParallelExecutor creates a new ParallelExecutor
func NewParallelExecutor(runner CommandRunner, log *slog.Logger) (*ParallelExecutor, error) {
	if runner == nil {
		return nil, fmt.Errorf("command runner is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ParallelExecutor{
		runner: runner,
		log:    log,
	}, nil
}

// Execute runs one goroutine per invocation and blocks until every one has
// settled. The pool joins exactly the goroutines it spawned and merges their
// results after the barrier, so no result is lost and no lock is shared with
// the workers. Failed invocations contribute no result, only the diagnostics
// already emitted by the runner. There is no cancellation or timeout: an
// invocation that never exits blocks the whole batch.
func (e *ParallelExecutor) Execute(invs []Invocation) ResultSet {
	p := pool.NewWithResults[RunResult]().WithErrors()

	for _, inv := range invs {
		p.Go(func() (RunResult, error) {
			return e.runner.Run(inv)
		})
	}

	results, err := p.Wait()
	if err != nil {
		e.log.Debug("batch completed with failures",
			"launched", len(invs),
			"succeeded", len(results))
	}

	return ResultSet(results)
}
