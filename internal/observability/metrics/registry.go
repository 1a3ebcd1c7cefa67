package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics track the orchestrator.
var (
	// JobsTotal counts finished jobs by kind and terminal status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_jobs_total",
			Help: "Total number of finished extraction jobs",
		},
		[]string{"kind", "status"},
	)

	// JobDuration measures job run time from start to finalization.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extraction_job_duration_seconds",
			Help:    "Extraction job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"kind", "status"},
	)

	// JobsInFlight is the number of jobs holding a scope lock.
	JobsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "extraction_jobs_in_flight",
			Help: "Number of extraction jobs currently pending or running",
		},
		[]string{"kind"},
	)

	// TriggersRejectedTotal counts triggers that did not start a job.
	TriggersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_triggers_rejected_total",
			Help: "Total number of rejected extraction triggers",
		},
		[]string{"kind", "reason"}, // reason: already_in_progress, queue_full, invalid
	)

	// JobsReconciledTotal counts jobs failed at startup because the process restarted.
	JobsReconciledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "extraction_jobs_reconciled_total",
			Help: "Total number of jobs marked InterruptedByRestart",
		},
	)
)

// Source metrics track the external fetch fan-out.
var (
	// SourceFetchTotal counts per-source fetch outcomes ("ok" or a failure code).
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_total",
			Help: "Total number of external source fetches by outcome",
		},
		[]string{"source_id", "outcome"},
	)

	// SourceFetchDuration measures one source fetch including storage.
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Time taken to fetch and store one external source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source_id"},
	)

	// SourcesTotal tracks the number of registered sources.
	SourcesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sources_total",
			Help: "Total number of registered external sources",
		},
	)

	// SummaryEnrichTotal counts readability enrichment attempts by result.
	SummaryEnrichTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_enrich_total",
			Help: "Total number of summary enrichment attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)
)

// Content metrics track writes to the content store.
var (
	// ContentItemsTotal counts insert outcomes by item type (article, image) and result (created, skipped).
	ContentItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_items_total",
			Help: "Total number of content inserts by type and result",
		},
		[]string{"type", "result"},
	)

	// ContentDeletedTotal counts rows removed by content deletion.
	ContentDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_deleted_total",
			Help: "Total number of content rows deleted",
		},
		[]string{"type"},
	)

	// DigestDownloadsTotal counts digest download attempts by result.
	DigestDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_downloads_total",
			Help: "Total number of digest downloads",
		},
		[]string{"result"},
	)

	// DigestSize measures downloaded digest sizes.
	DigestSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_size_bytes",
			Help:    "Downloaded digest PDF size in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 12),
		},
	)
)
