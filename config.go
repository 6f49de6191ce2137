package vtbench

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/vtbench/vtbench/flags"
)

// Config holds the application configuration
type Config struct {
	SourceDir string // Directory scanned for media assets
	TestsFile string // Path to the YAML test definitions
	WorkDir   string // Transient storage for replicas and invocation logs
	CSVFile   string // Optional CSV report destination

	Shell         string   // Shell used to execute resolved command lines
	FFprobeBinary string   // Media inspection binary
	TargetWidth   int      // Width above which assets need a downscale option
	Extensions    []string // Media file extensions considered during the scan

	KeepOutputs bool // Retain invocation logs even on success
	Cleanup     bool // Remove replicated inputs after the run

	DatabaseURI string // Optional Postgres sink

	Log *slog.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log *slog.Logger, sourceDir string, testsFile string) (*Config, error) {
	// Parse flags
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if sourceDir == "" {
		return nil, errors.New("source directory is required")
	}
	if testsFile == "" {
		return nil, errors.New("test definitions file is required")
	}

	// Resolve the absolute paths
	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for source directory '%s': %w", sourceDir, err)
	}
	absTestsFile, err := filepath.Abs(testsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for test definitions '%s': %w", testsFile, err)
	}

	// Transient storage defaults to the system temp directory
	workDir := ctx.String(flags.WorkDir.Name)
	if workDir == "" {
		workDir = os.TempDir()
	}
	workDir, err = filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for work directory '%s': %w", workDir, err)
	}

	targetWidth := ctx.Int(flags.TargetWidth.Name)
	if targetWidth <= 0 {
		return nil, fmt.Errorf("target width must be positive, got %d", targetWidth)
	}

	// Normalize extensions to lowercase without a leading dot
	var exts []string
	for _, ext := range ctx.StringSlice(flags.Extensions.Name) {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		return nil, errors.New("at least one media extension is required")
	}

	return &Config{
		SourceDir:     absSourceDir,
		TestsFile:     absTestsFile,
		WorkDir:       workDir,
		CSVFile:       ctx.String(flags.CSVFile.Name),
		Shell:         ctx.String(flags.Shell.Name),
		FFprobeBinary: ctx.String(flags.FFprobeBinary.Name),
		TargetWidth:   targetWidth,
		Extensions:    exts,
		KeepOutputs:   ctx.Bool(flags.KeepOutputs.Name),
		Cleanup:       ctx.Bool(flags.Cleanup.Name),
		DatabaseURI:   ctx.String(flags.DatabaseURI.Name),
		Log:           log,
	}, nil
}
