// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admission outcomes as recorded in the outcome label.
const (
	OutcomeAccepted            = "accepted"
	OutcomeAlreadyMember       = "already_member"
	OutcomeRateLimited         = "rate_limited"
	OutcomeMetadataUnavailable = "metadata_unavailable"
	OutcomeInvalid             = "invalid"
	OutcomeError               = "error"
)

// MediaKindUnknown labels admissions whose media kind did not parse.
const MediaKindUnknown = "unknown"

var (
	// Admission Metrics
	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_admissions_total",
			Help: "Total number of add-to-hive requests by outcome",
		},
		[]string{"outcome", "media_kind"},
	)

	AdmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hive_admission_duration_seconds",
			Help:    "Duration of add-to-hive requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// Title Store Metrics
	TitlesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_titles_created_total",
			Help: "Total number of titles created from the catalog",
		},
		[]string{"media_kind"},
	)

	TitleRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_title_refreshes_total",
			Help: "Total number of stale title refresh attempts by result",
		},
		[]string{"result"}, // "updated", "failed"
	)

	// Season Metrics
	SeasonChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_season_changes_total",
			Help: "Total number of season rows written by reconciliation",
		},
		[]string{"operation"}, // "insert", "update"
	)

	SeasonReconcileDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hive_season_reconcile_degraded_total",
			Help: "Total number of admissions that continued without complete season data",
		},
	)
)

// RecordAdmission records one add-to-hive request.
func RecordAdmission(outcome, mediaKind string, duration time.Duration) {
	AdmissionsTotal.WithLabelValues(outcome, mediaKind).Inc()
	AdmissionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
