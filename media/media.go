// Package media handles the filesystem side of a benchmark run: scanning the
// source directory for assets, replicating inputs for parallel fan-out, and
// cleaning replicas up afterwards.
package media

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// replicaPattern matches the stem suffix given to replicated inputs.
var replicaPattern = regexp.MustCompile(`-copy\d+$`)

// Scan walks dir, collects files whose extension is in exts (lowercase,
// without leading dot), and returns the paths sorted lexicographically for a
// deterministic processing order. Replicas from earlier runs are skipped.
func Scan(dir string, exts []string) ([]string, error) {
	wanted := make(map[string]bool, len(exts))
	for _, ext := range exts {
		wanted["."+strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !wanted[ext] {
			return nil
		}
		if isReplica(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %q: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// isReplica reports whether path carries the replica stem suffix.
func isReplica(path string) bool {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return replicaPattern.MatchString(stem)
}

// Replicator copies assets into a dedicated directory so parallel
// invocations each read their own input file.
type Replicator struct {
	dir string
	log *slog.Logger
}

// NewReplicator creates the replica directory if needed.
func NewReplicator(dir string, log *slog.Logger) (*Replicator, error) {
	if dir == "" {
		return nil, fmt.Errorf("replica directory is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create replica directory %s: %w", dir, err)
	}
	return &Replicator{dir: dir, log: log}, nil
}

// Replicate returns count input paths for the asset: the original followed by
// count-1 copies named <stem>-copy<i><ext>. Copies whose destination already
// exists are skipped, making repeat calls idempotent.
func (r *Replicator) Replicate(path string, count int) ([]string, error) {
	if count < 1 {
		return nil, fmt.Errorf("replica count must be at least 1, got %d", count)
	}

	paths := make([]string, 0, count)
	paths = append(paths, path)

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 1; i < count; i++ {
		dst := filepath.Join(r.dir, fmt.Sprintf("%s-copy%d%s", stem, i, ext))
		if _, err := os.Stat(dst); err == nil {
			r.log.Debug("replica exists, skipping copy", "path", dst)
			paths = append(paths, dst)
			continue
		}
		if err := copyFile(path, dst); err != nil {
			return nil, fmt.Errorf("failed to replicate %s: %w", path, err)
		}
		r.log.Debug("replicated input", "src", path, "dst", dst)
		paths = append(paths, dst)
	}

	return paths, nil
}

// Cleanup removes the replica directory and everything in it.
func (r *Replicator) Cleanup() error {
	if err := os.RemoveAll(r.dir); err != nil {
		return fmt.Errorf("failed to remove replica directory %s: %w", r.dir, err)
	}
	return nil
}

// Dir returns the replica directory.
func (r *Replicator) Dir() string {
	return r.dir
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
