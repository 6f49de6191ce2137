// Package logging manages the per-invocation log artifacts of a benchmark
// run. Every invocation writes its child process output to its own file named
// after the invocation label; successful runs discard the file unless the
// operator asked to keep outputs, failed runs retain it for diagnosis.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/acarl005/stripansi"
)

// RunDirectoryPrefix is the standardized prefix for run directories.
const RunDirectoryPrefix = "benchrun-"

// ArtifactStore manages the artifact files of one run.
type ArtifactStore struct {
	baseDir     string // Transient storage root
	runDir      string // Per-run directory under baseDir
	logDir      string // Live invocation logs
	failedDir   string // Retained logs of failed invocations
	outputDir   string // Transcode output files
	keepOutputs bool
	log         *slog.Logger
	mu          sync.Mutex // Protects concurrent file operations
}

// NewArtifactStore creates the run directory tree under baseDir.
func NewArtifactStore(baseDir string, runID string, keepOutputs bool, log *slog.Logger) (*ArtifactStore, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	runDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	logDir := filepath.Join(runDir, "logs")
	failedDir := filepath.Join(runDir, "failed")
	outputDir := filepath.Join(runDir, "outputs")

	for _, dir := range []string{baseDir, runDir, logDir, failedDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &ArtifactStore{
		baseDir:     baseDir,
		runDir:      runDir,
		logDir:      logDir,
		failedDir:   failedDir,
		outputDir:   outputDir,
		keepOutputs: keepOutputs,
		log:         log,
	}, nil
}

// Create opens the log artifact for an invocation label. Labels are unique
// across the run, so no two invocations share a file.
func (s *ArtifactStore) Create(label string) (*os.File, error) {
	path := filepath.Join(s.logDir, label+".log")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log artifact %s: %w", path, err)
	}
	return f, nil
}

// CompleteSuccess closes the artifact and removes it unless the store keeps
// outputs.
func (s *ArtifactStore) CompleteSuccess(f *os.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log artifact %s: %w", f.Name(), err)
	}
	if s.keepOutputs {
		return nil
	}
	if err := os.Remove(f.Name()); err != nil {
		return fmt.Errorf("failed to remove log artifact %s: %w", f.Name(), err)
	}
	return nil
}

// CompleteFailure closes the artifact, strips ANSI escape sequences so the
// retained log greps cleanly, and moves it into the failed directory.
// Returns the retained path.
func (s *ArtifactStore) CompleteFailure(f *os.File) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close log artifact %s: %w", f.Name(), err)
	}

	if err := scrubArtifact(f.Name()); err != nil {
		s.log.Warn("could not scrub log artifact", "path", f.Name(), "error", err)
	}

	retained := filepath.Join(s.failedDir, filepath.Base(f.Name()))
	if err := os.Rename(f.Name(), retained); err != nil {
		return "", fmt.Errorf("failed to retain log artifact %s: %w", f.Name(), err)
	}
	return retained, nil
}

// OutputPath returns the transcode output path for an invocation label.
// Command templates append their own container extension.
func (s *ArtifactStore) OutputPath(label string) string {
	return filepath.Join(s.outputDir, label)
}

// CleanupOutputs removes the transcode output directory. No-op when the
// store keeps outputs.
func (s *ArtifactStore) CleanupOutputs() error {
	if s.keepOutputs {
		return nil
	}
	if err := os.RemoveAll(s.outputDir); err != nil {
		return fmt.Errorf("failed to remove output directory %s: %w", s.outputDir, err)
	}
	return nil
}

// RunDir returns the per-run directory.
func (s *ArtifactStore) RunDir() string {
	return s.runDir
}

// FailedDir returns the directory holding retained logs.
func (s *ArtifactStore) FailedDir() string {
	return s.failedDir
}

// scrubArtifact rewrites path with ANSI escape sequences removed.
func scrubArtifact(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	clean := stripansi.Strip(string(data))
	if clean == string(data) {
		return nil
	}
	return os.WriteFile(path, []byte(clean), 0644)
}
