package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "VTBENCH"

// prefixEnvVars returns the environment variable names for a flag.
func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	SourceDir = &cli.StringFlag{
		Name:     "source-dir",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("SOURCE_DIR"),
		Usage:    "Directory containing the media files to benchmark",
	}
	TestsFile = &cli.StringFlag{
		Name:     "tests",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("TESTS"),
		Usage:    "Path to the test definitions file (eg. 'tests.yaml')",
	}
	WorkDir = &cli.StringFlag{
		Name:    "work-dir",
		Value:   "",
		EnvVars: prefixEnvVars("WORK_DIR"),
		Usage:   "Directory for transient outputs, replicas and invocation logs (defaults to the system temp directory)",
	}
	CSVFile = &cli.StringFlag{
		Name:    "csv",
		Value:   "",
		EnvVars: prefixEnvVars("CSV"),
		Usage:   "Write the report as CSV to this file in addition to the console table",
	}
	KeepOutputs = &cli.BoolFlag{
		Name:    "keep-outputs",
		Value:   false,
		EnvVars: prefixEnvVars("KEEP_OUTPUTS"),
		Usage:   "Retain per-invocation log artifacts even when the invocation succeeds",
	}
	Cleanup = &cli.BoolFlag{
		Name:    "cleanup",
		Value:   true,
		EnvVars: prefixEnvVars("CLEANUP"),
		Usage:   "Remove replicated input copies once the run completes",
	}
	Shell = &cli.StringFlag{
		Name:    "shell",
		Value:   "/bin/sh",
		EnvVars: prefixEnvVars("SHELL"),
		Usage:   "Shell used to execute resolved command lines",
	}
	FFprobeBinary = &cli.StringFlag{
		Name:    "ffprobe-binary",
		Value:   "ffprobe",
		EnvVars: prefixEnvVars("FFPROBE_BINARY"),
		Usage:   "Path to the ffprobe binary used for media inspection",
	}
	TargetWidth = &cli.IntFlag{
		Name:    "target-width",
		Value:   1920,
		EnvVars: prefixEnvVars("TARGET_WIDTH"),
		Usage:   "Assets wider than this are marked as needing a downscale option",
	}
	Extensions = &cli.StringSliceFlag{
		Name:    "extensions",
		Value:   cli.NewStringSlice("mp4", "mkv", "mov", "ts", "m2ts", "avi", "mxf"),
		EnvVars: prefixEnvVars("EXTENSIONS"),
		Usage:   "Media file extensions considered when scanning the source directory",
	}
	DatabaseURI = &cli.StringFlag{
		Name:    "database-uri",
		Value:   "",
		EnvVars: prefixEnvVars("DATABASE_URI"),
		Usage:   "Optional Postgres URI; when set, report rows are persisted after the run",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level (debug, info, warn, error)",
	}
)

var requiredFlags = []cli.Flag{
	SourceDir,
	TestsFile,
}

var optionalFlags = []cli.Flag{
	WorkDir,
	CSVFile,
	KeepOutputs,
	Cleanup,
	Shell,
	FFprobeBinary,
	TargetWidth,
	Extensions,
	DatabaseURI,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
