package main_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vtbench/vtbench/exitcodes"
)

// TestExitCodeBehavior verifies that vtbench returns the correct exit codes:
// - Exit code 0 when every invocation succeeds
// - Exit code 1 when any invocation fails
// - Exit code 2 when there's a configuration error
func TestExitCodeBehavior(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI integration test in short mode")
	}

	// Find the binary path
	projectRoot, err := os.Getwd()
	require.NoError(t, err, "Failed to get current directory")
	projectRoot = filepath.Dir(filepath.Dir(projectRoot)) // Go up two directories to project root
	vtbenchBin := filepath.Join(projectRoot, "bin", "vtbench")

	ensureBinaryExists(t, projectRoot, vtbenchBin)

	testCases := []struct {
		name           string
		command        string
		breakTestsFile bool
		expectedStatus int
	}{
		{
			name:           "Passing invocations should exit with code 0",
			command:        "cat {input} > {output}",
			expectedStatus: exitcodes.Success,
		},
		{
			name:           "Failing invocations should exit with code 1",
			command:        "exit 3",
			expectedStatus: exitcodes.BenchFailure,
		},
		{
			name:           "Invalid test definitions should exit with code 2",
			command:        "cat {input} > {output}",
			breakTestsFile: true,
			expectedStatus: exitcodes.RuntimeErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tempDir := t.TempDir()

			sourceDir := filepath.Join(tempDir, "media")
			require.NoError(t, os.MkdirAll(sourceDir, 0755))
			require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "clip.mp4"), []byte("not really video"), 0644))

			testsFile := filepath.Join(tempDir, "tests.yaml")
			testsContent := "tests:\n  - name: smoke\n    command: " + tc.command + "\n    processes: [1, 2]\n"
			if tc.breakTestsFile {
				testsContent = "tests: []\n"
			}
			require.NoError(t, os.WriteFile(testsFile, []byte(testsContent), 0644))

			exitCode := runVTBench(t, vtbenchBin, sourceDir, testsFile, tempDir)
			require.Equal(t, tc.expectedStatus, exitCode, "Unexpected exit code")
		})
	}
}

// ensureBinaryExists builds the vtbench binary if it doesn't exist
func ensureBinaryExists(t *testing.T, projectRoot, binaryPath string) {
	if _, err := os.Stat(binaryPath); err == nil {
		return
	}

	t.Logf("Building vtbench binary...")
	require.NoError(t, os.MkdirAll(filepath.Dir(binaryPath), 0755), "Failed to create directory for binary")

	buildCmd := exec.Command("go", "build", "-o", binaryPath, filepath.Join(projectRoot, "cmd", "vtbench"))
	var buildOutput bytes.Buffer
	buildCmd.Stdout = &buildOutput
	buildCmd.Stderr = &buildOutput

	if err := buildCmd.Run(); err != nil {
		t.Logf("Build output:\n%s", buildOutput.String())
		t.Fatalf("Failed to build vtbench binary: %v", err)
	}

	require.FileExists(t, binaryPath, "vtbench binary not found")
}

// fakeFFprobe writes an executable stand-in for ffprobe reporting a 60s clip.
func fakeFFprobe(t *testing.T, dir string) string {
	t.Helper()
	script := `#!/bin/sh
cat <<'EOF'
{
  "streams": [
    {"codec_type": "video", "width": 1280, "height": 720, "field_order": "progressive"}
  ],
  "format": {"duration": "60.0"}
}
EOF
`
	path := filepath.Join(dir, "ffprobe")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

// runVTBench runs the binary against the given fixture and returns the exit code.
func runVTBench(t *testing.T, binary, sourceDir, testsFile, tempDir string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	execCmd := exec.CommandContext(ctx, binary,
		"--source-dir="+sourceDir,
		"--tests="+testsFile,
		"--work-dir="+filepath.Join(tempDir, "work"),
		"--ffprobe-binary="+fakeFFprobe(t, tempDir),
	)

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()

	if stdout.Len() > 0 {
		t.Logf("stdout:\n%s", stdout.String())
	}
	if stderr.Len() > 0 {
		t.Logf("stderr:\n%s", stderr.String())
	}

	if ctx.Err() == context.DeadlineExceeded {
		t.Fatalf("Command timed out")
	}

	if err == nil {
		return exitcodes.Success
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return exitcodes.RuntimeErr
}
