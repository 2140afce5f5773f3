package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scrapeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snout_scrape_runs_total",
		Help: "Shelter sync runs by result.",
	}, []string{"shelter_id", "result"})

	scrapeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snout_scrape_duration_seconds",
		Help:    "Wall time of one shelter sync.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"shelter_id"})

	dogsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snout_dogs_processed_total",
		Help: "Per-dog outcomes of shelter syncs.",
	}, []string{"shelter_id", "outcome"})
)

func observeScrapeRun(shelterID string, elapsed time.Duration, outcome Outcome, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	scrapeRuns.WithLabelValues(shelterID, result).Inc()
	scrapeDuration.WithLabelValues(shelterID).Observe(elapsed.Seconds())

	dogsProcessed.WithLabelValues(shelterID, "added").Add(float64(outcome.Added))
	dogsProcessed.WithLabelValues(shelterID, "updated").Add(float64(outcome.Updated))
	dogsProcessed.WithLabelValues(shelterID, "unchanged").Add(float64(outcome.Unchanged))
	dogsProcessed.WithLabelValues(shelterID, "removed").Add(float64(outcome.Removed))
	dogsProcessed.WithLabelValues(shelterID, "dropped").Add(float64(len(outcome.Errors)))
}
