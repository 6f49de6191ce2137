package runner

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtbench/vtbench/logging"
)

func newTestStore(t *testing.T, keepOutputs bool) *logging.ArtifactStore {
	t.Helper()
	store, err := logging.NewArtifactStore(t.TempDir(), "test-run", keepOutputs, slog.Default())
	require.NoError(t, err)
	return store
}

func TestNewProcessRunnerValidation(t *testing.T) {
	_, err := NewProcessRunner("/bin/sh", nil, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact store is required")
}

func TestProcessRunnerSuccess(t *testing.T) {
	store := newTestStore(t, false)
	r, err := NewProcessRunner("/bin/sh", store, slog.Default())
	require.NoError(t, err)

	result, err := r.Run(Invocation{Command: "exit 0", Label: "ok"})
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	assert.Equal(t, "exit 0", result.Command)
	assert.False(t, result.End.Before(result.Start))

	// Successful run leaves nothing behind
	_, statErr := os.Stat(filepath.Join(store.RunDir(), "logs", "ok.log"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessRunnerFailure(t *testing.T) {
	store := newTestStore(t, false)
	r, err := NewProcessRunner("/bin/sh", store, slog.Default())
	require.NoError(t, err)

	result, err := r.Run(Invocation{Command: "echo broken >&2; exit 3", Label: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	assert.False(t, result.Succeeded)
	assert.False(t, result.End.Before(result.Start))

	// Failed run retains its log for diagnosis
	data, readErr := os.ReadFile(filepath.Join(store.FailedDir(), "bad.log"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "broken")
}

func TestProcessRunnerCapturesBothStreams(t *testing.T) {
	store := newTestStore(t, true)
	r, err := NewProcessRunner("/bin/sh", store, slog.Default())
	require.NoError(t, err)

	_, err = r.Run(Invocation{Command: "echo out; echo err >&2", Label: "streams"})
	require.NoError(t, err)

	data, readErr := os.ReadFile(filepath.Join(store.RunDir(), "logs", "streams.log"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "out")
	assert.Contains(t, string(data), "err")
}

func TestProcessRunnerDefaultShell(t *testing.T) {
	store := newTestStore(t, false)
	r, err := NewProcessRunner("", store, slog.Default())
	require.NoError(t, err)

	result, err := r.Run(Invocation{Command: "exit 0", Label: "default-shell"})
	require.NoError(t, err)
	assert.True(t, result.Succeeded)
}
