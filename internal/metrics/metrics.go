package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the ledger's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method", "path"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "gateway",
			Name:      "submissions_total",
			Help:      "Actions submitted through the gateway by kind and result.",
		},
		[]string{"kind", "result"},
	)

	pendingActions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Subsystem: "queue",
			Name:      "pending_actions",
			Help:      "Actions waiting for the next settlement epoch.",
		},
	)

	epochs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "settlement",
			Name:      "epochs_total",
			Help:      "Completed settlement epochs.",
		},
	)

	settledActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "settlement",
			Name:      "actions_total",
			Help:      "Settled actions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	epochDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "settlement",
			Name:      "epoch_duration_seconds",
			Help:      "Time spent draining and applying one epoch.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	epochSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "settlement",
			Name:      "epoch_actions",
			Help:      "Number of actions drained per epoch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	accounts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Subsystem: "store",
			Name:      "accounts",
			Help:      "Number of accounts in the store.",
		},
	)

	publishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Settlement event batches that could not be published.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		submissions,
		pendingActions,
		epochs,
		settledActions,
		epochDuration,
		epochSize,
		accounts,
		publishFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordSubmission counts a gateway submission. result is accepted, invalid,
// queue-full or rate-limited.
func RecordSubmission(kind, result string) {
	submissions.WithLabelValues(kind, result).Inc()
}

// SetPending reports the current queue depth.
func SetPending(n int) {
	pendingActions.Set(float64(n))
}

// RecordEpoch records one finished settlement epoch. outcomes is keyed by
// kind then outcome.
func RecordEpoch(duration time.Duration, drained int, outcomes map[string]map[string]int, accountCount int) {
	epochs.Inc()
	epochDuration.Observe(duration.Seconds())
	epochSize.Observe(float64(drained))
	for kind, byOutcome := range outcomes {
		for outcome, n := range byOutcome {
			settledActions.WithLabelValues(kind, outcome).Add(float64(n))
		}
	}
	accounts.Set(float64(accountCount))
}

// RecordPublishFailure counts an event batch that failed to publish.
func RecordPublishFailure() {
	publishFailures.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func canonicalPath(raw string) string {
	switch raw {
	case "/create-account", "/transfer", "/balance", "/health":
		return raw
	default:
		return "other"
	}
}
