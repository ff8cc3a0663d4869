// Package observability registers the Prometheus metrics exported by runlog.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncRunsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Number of sync runs grouped by outcome.",
	}, []string{"result"})

	fetchedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "sync",
		Name:      "activities_fetched_total",
		Help:      "Number of running activities returned by the Strava API.",
	})

	insertedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "sync",
		Name:      "activities_inserted_total",
		Help:      "Number of run rows written to Postgres by sync.",
	})

	syncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "runlog",
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of successful sync runs.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	lastRunGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "runlog",
		Subsystem: "persistence",
		Name:      "last_run_started_timestamp_seconds",
		Help:      "Unix timestamp of the start of the most recent run persisted by sync.",
	})

	tokenRefreshCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "credentials",
		Name:      "token_refresh_total",
		Help:      "Number of access token refresh attempts grouped by outcome.",
	}, []string{"result"})

	stravaRequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runlog",
		Subsystem: "strava",
		Name:      "requests_total",
		Help:      "Number of Strava API page requests grouped by HTTP status class.",
	}, []string{"status"})

	breakerStateGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "runlog",
		Subsystem: "strava",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	}, []string{"name"})
)

func init() {
	prometheus.MustRegister(
		syncRunsCounter,
		fetchedCounter,
		insertedCounter,
		syncDuration,
		lastRunGauge,
		tokenRefreshCounter,
		stravaRequestCounter,
		breakerStateGauge,
	)
}

// RecordSyncSuccess updates counters after a completed sync. A zero latest leaves the
// watermark gauge untouched.
func RecordSyncSuccess(fetched, inserted int, elapsed time.Duration, latest time.Time) {
	syncRunsCounter.WithLabelValues("success").Inc()
	fetchedCounter.Add(float64(fetched))
	insertedCounter.Add(float64(inserted))
	syncDuration.Observe(elapsed.Seconds())
	if !latest.IsZero() {
		lastRunGauge.Set(float64(latest.Unix()))
	}
}

// RecordSyncFailure counts a failed sync run.
func RecordSyncFailure() {
	syncRunsCounter.WithLabelValues("failure").Inc()
}

// RecordTokenRefresh counts a refresh attempt.
func RecordTokenRefresh(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	tokenRefreshCounter.WithLabelValues(result).Inc()
}

// RecordStravaRequest counts one API page request by status class ("2xx", "4xx", "error", ...).
func RecordStravaRequest(status string) {
	stravaRequestCounter.WithLabelValues(status).Inc()
}

// SetBreakerState publishes the numeric state of a named circuit breaker.
func SetBreakerState(name string, state float64) {
	breakerStateGauge.WithLabelValues(name).Set(state)
}
