package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("probe failed"),
		},
		{
			name: "error with special chars",
			err:  errors.New("exec: \"ffmpeg\": executable file not found in $PATH"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("exit   status   1"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("bad__batch"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errToLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordError(t *testing.T) {
	// just test that it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordError panic'd")
		}
	}()

	RecordError("test_error")
}

func TestRecordErrorDetails(t *testing.T) {
	// Test with nil error
	RecordErrorDetails("probe", nil)

	// Test with actual error
	RecordErrorDetails("probe", errors.New("sample error"))
}

func TestRecordBatch(t *testing.T) {
	RecordBatch("transcode-1080p", 2, "clip.mp4", 2, 2, 10*time.Second)
	RecordBatch("transcode-1080p", 4, "clip.mp4", 4, 3, 30*time.Second)
}

func TestRecordBatchError(t *testing.T) {
	RecordBatchError("transcode-1080p", errors.New("replicate failed"))
}

func TestRecordRun(t *testing.T) {
	RecordRun("run1", "pass", 0, time.Minute)
	RecordRun("run2", "fail", 3, 2*time.Minute)
}
