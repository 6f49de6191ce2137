package metrics

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "vtbench"

	// Debug logs a breadcrumb for every metric update.
	Debug = true
)

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "invocations_total",
		Help:      "Count of external command invocations",
	}, []string{
		"test",
		"result",
	})

	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "batches_total",
		Help:      "Count of executed batches",
	}, []string{
		"test",
	})

	batchDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_duration_seconds",
		Help:      "Wall-clock span of the last batch per test, parallelism and asset",
	}, []string{
		"test",
		"parallel",
		"asset",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of benchmark runs",
	}, []string{
		"run_id",
		"result",
	})

	runInvocationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_invocations_failed",
		Help:      "Number of failed invocations per run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of benchmark runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		slog.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordBatch records the outcome of one executed batch.
func RecordBatch(test string, parallel int, asset string, launched int, succeeded int, duration time.Duration) {
	if Debug {
		slog.Debug("metric inc",
			"m", "batches_total",
			"test", test,
			"parallel", parallel,
			"asset", asset,
			"launched", launched,
			"succeeded", succeeded)
	}
	batchesTotal.WithLabelValues(test).Inc()
	invocationsTotal.WithLabelValues(test, "success").Add(float64(succeeded))
	invocationsTotal.WithLabelValues(test, "failure").Add(float64(launched - succeeded))
	batchDuration.WithLabelValues(test, strconv.Itoa(parallel), asset).Set(duration.Seconds())
}

// RecordBatchError records a batch whose invocations could not be built.
func RecordBatchError(test string, err error) {
	RecordErrorDetails("batch."+test, err)
}

// RecordRun records the outcome of a whole benchmark run.
func RecordRun(
	runID string,
	result string,
	failed int,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, result).Set(1)
	runInvocationsFailed.WithLabelValues(runID).Add(float64(failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}
