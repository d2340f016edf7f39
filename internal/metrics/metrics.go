package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScrapeFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powderline_scrape_fetches_total",
			Help: "Total resort page fetches against the scrape target",
		},
		[]string{"page", "status"},
	)

	ScrapeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "powderline_scrape_latency_seconds",
			Help:    "Resort page fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"page"},
	)

	ModelFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powderline_model_fetches_total",
			Help: "Total weather model API fetches",
		},
		[]string{"model", "status"},
	)

	ConditionsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powderline_conditions_stored_total",
			Help: "Total condition rows successfully stored",
		},
		[]string{"outcome"},
	)

	SnapshotCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powderline_snapshot_cache_total",
			Help: "Snapshot cache lookups by result",
		},
		[]string{"source", "result"},
	)
)
