package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
)

var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tansaku",
			Name:      "searches_total",
			Help:      "Total number of searches by backend, strategy and outcome",
		},
		[]string{"backend", "strategy", "outcome"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tansaku",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, expansion included",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend", "strategy"},
	)

	ExpandedTerms = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tansaku",
			Name:      "expanded_terms",
			Help:      "Number of terms in the expanded query",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"strategy"},
	)

	ComparisonsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tansaku",
			Name:      "comparisons_total",
			Help:      "Total number of hit-count comparisons",
		},
	)
)

func init() {
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(ExpandedTerms)
	prometheus.MustRegister(ComparisonsTotal)
}

// ObserveSearch records one search.
func ObserveSearch(backend, strategy, outcome string, d time.Duration) {
	SearchesTotal.WithLabelValues(backend, strategy, outcome).Inc()
	SearchDuration.WithLabelValues(backend, strategy).Observe(d.Seconds())
}

// ObserveExpansion records the size of an expanded term list.
func ObserveExpansion(strategy string, terms int) {
	ExpandedTerms.WithLabelValues(strategy).Observe(float64(terms))
}
