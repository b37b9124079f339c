package metrics

import "github.com/prometheus/client_golang/prometheus"

// Discovery Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "searches_total",
			Help:      "Completed discovery searches by terminal outcome",
		},
		[]string{"mode", "outcome"}, // outcome: success / empty / failed
	)

	SupersededTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "superseded_total",
			Help:      "Searches whose results were discarded because a newer search started",
		},
		[]string{"mode"},
	)

	IndexRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discovery",
			Name:      "index_request_duration_seconds",
			Help:      "Search index request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend"},
	)

	IndexErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "index_errors_total",
			Help:      "Search index failures by kind",
		},
		[]string{"backend", "kind"}, // kind: network / index
	)

	TierCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "tier_cache_total",
			Help:      "Subscription tier cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "discovery",
			Name:      "active_sessions",
			Help:      "Open discovery sessions",
		},
	)

	IndexedProfilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "indexed_profiles_total",
			Help:      "Profiles written to the search index",
		},
		[]string{"status"}, // "ok" / "skipped" / "error"
	)
)

var discoveryMetricsRegistered bool

// RegisterDiscoveryMetrics registers Prometheus discovery metrics. Must be called once from main.
func RegisterDiscoveryMetrics() {
	if discoveryMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SupersededTotal)
	prometheus.MustRegister(IndexRequestDuration)
	prometheus.MustRegister(IndexErrorsTotal)
	prometheus.MustRegister(TierCacheTotal)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(IndexedProfilesTotal)
	discoveryMetricsRegistered = true
}
