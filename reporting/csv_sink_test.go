package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVSinkValidation(t *testing.T) {
	_, err := NewCSVSink("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path cannot be empty")
}

func TestCSVSinkWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "bench.csv")
	sink, err := NewCSVSink(path)
	require.NoError(t, err)
	assert.Equal(t, path, sink.Path())

	require.NoError(t, sink.Write(sampleReport()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 cells

	assert.Equal(t, []string{
		"run_id", "test", "parallel", "asset",
		"launched", "succeeded", "average_seconds", "total_seconds",
		"clip_seconds", "realtime_percent", "error",
	}, records[0])

	assert.Equal(t, []string{
		"run1", "transcode", "2", "a.mp4",
		"2", "2", "11", "12", "60", "20", "",
	}, records[1])

	// The failed cell zeroes the counters, blanks the stats, and
	// carries the error in the last column
	assert.Equal(t, []string{
		"run1", "transcode", "2", "b.mp4",
		"0", "0", "", "", "", "", "copying b.mp4: no space left on device",
	}, records[2])
}

func TestCSVSinkOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale data\n"), 0644))

	sink, err := NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale data")
	assert.Contains(t, string(data), "run_id")
}
