// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsSubmitted counts submitted posts by publication outcome.
	PostsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famefeed_posts_submitted_total",
		Help: "Total number of submitted posts by outcome",
	}, []string{"outcome"})

	// LedgerAdjustments counts reputation ledger changes by kind
	// (created, demoted, banned).
	LedgerAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famefeed_ledger_adjustments_total",
		Help: "Total number of fame ledger adjustments by kind",
	}, []string{"kind"})

	// CommunityEvictions counts memberships removed by the eviction rule.
	CommunityEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "famefeed_community_evictions_total",
		Help: "Total number of community memberships removed after a demotion",
	})

	// ConfigurationErrors counts operations aborted by a missing catalog entry.
	ConfigurationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famefeed_configuration_errors_total",
		Help: "Total number of operations aborted by a catalog configuration defect",
	}, []string{"entry"})

	// CacheLookups counts cache-aside lookups by cache name and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famefeed_cache_lookups_total",
		Help: "Total number of cache lookups by cache and result",
	}, []string{"cache", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "famefeed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordSubmission counts a post submission.
func RecordSubmission(published bool) {
	outcome := "suppressed"
	if published {
		outcome = "published"
	}
	PostsSubmitted.WithLabelValues(outcome).Inc()
}
