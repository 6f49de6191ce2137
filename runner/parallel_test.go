package runner

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner runs invocations in-process. Commands containing "fail" error
// out; everything else succeeds after an optional delay.
type fakeRunner struct {
	delay    time.Duration
	started  atomic.Int32
	finished atomic.Int32
	barrier  chan struct{}
}

func (f *fakeRunner) Run(inv Invocation) (RunResult, error) {
	f.started.Add(1)
	if f.barrier != nil {
		<-f.barrier
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	defer f.finished.Add(1)

	start := time.Now()
	if strings.Contains(inv.Command, "fail") {
		return RunResult{Command: inv.Command, Start: start, End: time.Now()},
			fmt.Errorf("invocation %s: exit status 1", inv.Label)
	}
	return RunResult{Command: inv.Command, Start: start, End: time.Now(), Succeeded: true}, nil
}

func makeInvocations(n int) []Invocation {
	invs := make([]Invocation, n)
	for i := range invs {
		invs[i] = Invocation{
			Command: fmt.Sprintf("transcode input %d", i),
			Label:   fmt.Sprintf("test-p%d-n1-c%d-clip", n, i),
		}
	}
	return invs
}

func TestNewParallelExecutorValidation(t *testing.T) {
	_, err := NewParallelExecutor(nil, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command runner is required")
}

func TestExecuteCollectsEveryResult(t *testing.T) {
	runner := &fakeRunner{}
	e, err := NewParallelExecutor(runner, slog.Default())
	require.NoError(t, err)

	results := e.Execute(makeInvocations(16))

	require.Len(t, results, 16)
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		assert.True(t, r.Succeeded)
		seen[r.Command] = true
	}
	// Every command shows up exactly once, none lost in the merge
	assert.Len(t, seen, 16)
}

func TestExecuteDropsFailedInvocations(t *testing.T) {
	runner := &fakeRunner{}
	e, err := NewParallelExecutor(runner, slog.Default())
	require.NoError(t, err)

	invs := makeInvocations(5)
	invs[1].Command = "fail 1"
	invs[3].Command = "fail 3"

	results := e.Execute(invs)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Succeeded)
		assert.NotContains(t, r.Command, "fail")
	}
}

func TestExecuteLaunchesSimultaneously(t *testing.T) {
	// Every invocation blocks on the barrier until the test has observed
	// all of them running. A capped pool would deadlock here.
	const n = 8
	runner := &fakeRunner{barrier: make(chan struct{})}
	e, err := NewParallelExecutor(runner, slog.Default())
	require.NoError(t, err)

	done := make(chan ResultSet, 1)
	go func() {
		done <- e.Execute(makeInvocations(n))
	}()

	require.Eventually(t, func() bool {
		return runner.started.Load() == n
	}, 5*time.Second, time.Millisecond)

	close(runner.barrier)
	results := <-done
	assert.Len(t, results, n)
}

func TestExecuteWaitsForStragglers(t *testing.T) {
	runner := &fakeRunner{delay: 50 * time.Millisecond}
	e, err := NewParallelExecutor(runner, slog.Default())
	require.NoError(t, err)

	results := e.Execute(makeInvocations(4))

	// Execute returned, so every worker must have finished
	assert.Equal(t, int32(4), runner.finished.Load())
	assert.Len(t, results, 4)
}

func TestExecuteEmptyBatch(t *testing.T) {
	e, err := NewParallelExecutor(&fakeRunner{}, slog.Default())
	require.NoError(t, err)

	results := e.Execute(nil)
	assert.Empty(t, results)
}
