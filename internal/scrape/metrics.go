package scrape

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricRunsTotal tracks scrape runs per league and outcome
	metricRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixturewatch_scrape_runs_total",
			Help: "Total number of scrape runs",
		},
		[]string{"league", "result"},
	)

	// metricRowsScraped tracks rows per league and disposition
	metricRowsScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixturewatch_rows_scraped_total",
			Help: "Total number of scraped rows by disposition",
		},
		[]string{"league", "disposition"},
	)

	// metricQualityScore exposes the latest snapshot quality per league
	metricQualityScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fixturewatch_snapshot_quality_score",
			Help: "Quality score of the latest snapshot (0-100)",
		},
		[]string{"league"},
	)

	// metricFailedRowsReplayed tracks replay worker outcomes
	metricFailedRowsReplayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixturewatch_failed_rows_replayed_total",
			Help: "Total number of failed-row replay attempts",
		},
		[]string{"league", "result"},
	)
)
