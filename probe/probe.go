// Package probe inspects media files with ffprobe. One JSON call per asset;
// results are cached for the lifetime of the inspector, so each source file
// is probed at most once per run.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

// MediaInfo is the inspection result consumed by the harness.
type MediaInfo struct {
	DurationSeconds float64 // Clip playback length; 0 when ffprobe could not determine it
	Width           int
	Height          int
	Interlaced      bool
	NeedsScaling    bool // Width exceeds the configured target width
}

// Config contains inspector configuration
type Config struct {
	Log         *slog.Logger
	Binary      string // ffprobe binary, defaults to "ffprobe"
	TargetWidth int    // Width above which assets need scaling
	CacheSize   int    // Probe cache entries, defaults to 1024
}

// Inspector shells out to ffprobe and caches results per absolute path.
type Inspector struct {
	config Config
	cache  *lru.Cache[string, MediaInfo]
}

// NewInspector creates a new Inspector
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "ffprobe"
	}
	if cfg.TargetWidth <= 0 {
		return nil, fmt.Errorf("target width must be positive, got %d", cfg.TargetWidth)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}

	cache, err := lru.New[string, MediaInfo](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe cache: %w", err)
	}

	return &Inspector{
		config: cfg,
		cache:  cache,
	}, nil
}

// Inspect returns the media info for path, probing at most once per path.
func (i *Inspector) Inspect(ctx context.Context, path string) (MediaInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return MediaInfo{}, fmt.Errorf("failed to resolve %q: %w", path, err)
	}

	if info, ok := i.cache.Get(abs); ok {
		return info, nil
	}

	info, err := i.probe(ctx, abs)
	if err != nil {
		return MediaInfo{}, err
	}

	i.cache.Add(abs, info)
	i.config.Log.Debug("probed asset",
		"path", abs,
		"duration", info.DurationSeconds,
		"width", info.Width,
		"interlaced", info.Interlaced,
		"needsScaling", info.NeedsScaling)

	return info, nil
}

// probe runs a single ffprobe JSON call against path.
func (i *Inspector) probe(ctx context.Context, path string) (MediaInfo, error) {
	cmd := exec.CommandContext(ctx, i.config.Binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	return ParseJSON(out, i.config.TargetWidth)
}

// ParseJSON converts raw ffprobe JSON output into MediaInfo.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte, targetWidth int) (MediaInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return MediaInfo{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildInfo(&raw, targetWidth), nil
}

// ffprobe JSON wire types. Numbers arrive as strings.

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	Index       int            `json:"index"`
	CodecName   string         `json:"codec_name"`
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	FieldOrder  string         `json:"field_order"`
	Disposition map[string]int `json:"disposition"`
}

func buildInfo(raw *ffprobeOutput, targetWidth int) MediaInfo {
	info := MediaInfo{
		DurationSeconds: parseFloat(raw.Format.Duration),
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType != "video" || s.Disposition["attached_pic"] == 1 {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.Interlaced = isInterlaced(s.FieldOrder)
		info.NeedsScaling = s.Width > targetWidth
		break
	}

	return info
}

// isInterlaced reports whether a field_order value indicates interlaced
// content (tt, bb, tb, bt).
func isInterlaced(fieldOrder string) bool {
	switch strings.ToLower(strings.TrimSpace(fieldOrder)) {
	case "tt", "bb", "tb", "bt":
		return true
	}
	return false
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
