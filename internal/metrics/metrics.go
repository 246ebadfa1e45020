package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_fetch_attempts_total",
			Help: "Total number of trending page fetch attempts.",
		},
		[]string{"window", "outcome"}, // outcome: success, failure
	)

	FetchesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_fetches_failed_total",
			Help: "Targets whose fetch failed after all retries.",
		},
		[]string{"window"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trending_fetch_duration_seconds",
			Help:    "Duration of single fetch attempts.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"window"},
	)

	EntriesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_entries_skipped_total",
			Help: "Repository entries dropped during extraction.",
		},
		[]string{"reason"}, // reason: missing_link, bad_href, panic
	)

	SnapshotsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_snapshots_written_total",
			Help: "Snapshots persisted to the data directory.",
		},
		[]string{"window"},
	)
)
