package bench

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	roundsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hysteriad",
		Subsystem: "bench",
		Name:      "rounds_total",
		Help:      "Completed evaluation rounds",
	})

	roundCandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hysteriad",
		Subsystem: "bench",
		Name:      "candidates_total",
		Help:      "Candidates benchmarked across all rounds",
	})

	probeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hysteriad",
		Subsystem: "bench",
		Name:      "probe_latency_seconds",
		Help:      "Measured probe latency of successful benchmarks",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	benchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hysteriad",
		Subsystem: "bench",
		Name:      "failures_total",
		Help:      "Benchmark failures by reason",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(roundsTotal, roundCandidatesTotal, probeLatency, benchFailures)
}

// failureReason collapses result detail strings into low-cardinality
// metric labels.
func failureReason(detail string) string {
	switch {
	case detail == "timeout":
		return "timeout"
	case detail == "connection error":
		return "connection"
	case detail == "config creation failed":
		return "config"
	case detail == "process exited prematurely":
		return "process_exit"
	case strings.HasPrefix(detail, "process error"):
		return "launch"
	case strings.HasPrefix(detail, "HTTP "):
		return "http"
	default:
		return "other"
	}
}
