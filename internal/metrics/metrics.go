// Package metrics holds the process-wide Prometheus collectors
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalogarr"

var (
	Searches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Channel searches performed.",
	})

	SearchHits = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_hits",
		Help:      "Hits returned per search.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	ChannelErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "channel_errors_total",
		Help:      "Per-channel search failures and timeouts.",
	})

	// FinalizedItems counts finalize outcomes by result (saved, failed, unavailable)
	FinalizedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalized_items_total",
		Help:      "Catalog items processed at finalize.",
	}, []string{"result"})

	// Publishes counts publish attempts by result (published, failed, skipped)
	Publishes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publishes_total",
		Help:      "Publish attempts.",
	}, []string{"result"})

	IndexedPosts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "indexed_channel_posts_total",
		Help:      "Channel posts added to the search index.",
	})
)

// RegisterActiveSessions exposes the live session count. Calling it twice
// with the same registry returns the registration error.
func RegisterActiveSessions(reg prometheus.Registerer, count func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Operator sessions currently held in memory.",
	}, func() float64 { return float64(count()) }))
}
