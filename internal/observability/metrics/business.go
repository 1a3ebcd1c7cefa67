package metrics

import (
	"strconv"
	"time"
)

// RecordJob records a finished job.
func RecordJob(kind, status string, duration time.Duration) {
	JobsTotal.WithLabelValues(kind, status).Inc()
	JobDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
}

// JobStarted and JobDone bracket the lifetime of a scope lock.
func JobStarted(kind string) { JobsInFlight.WithLabelValues(kind).Inc() }

func JobDone(kind string) { JobsInFlight.WithLabelValues(kind).Dec() }

func RecordTriggerRejected(kind, reason string) {
	TriggersRejectedTotal.WithLabelValues(kind, reason).Inc()
}

func RecordReconciled(n int) {
	JobsReconciledTotal.Add(float64(n))
}

// RecordSourceFetch records one source fetch. Outcome is "ok" or a failure code.
func RecordSourceFetch(sourceID int64, outcome string, duration time.Duration) {
	id := strconv.FormatInt(sourceID, 10)
	SourceFetchTotal.WithLabelValues(id, outcome).Inc()
	SourceFetchDuration.WithLabelValues(id).Observe(duration.Seconds())
}

func UpdateSourcesTotal(count int) {
	SourcesTotal.Set(float64(count))
}

// RecordSummaryEnrich records an enrichment attempt; result is success, failure or skipped.
func RecordSummaryEnrich(result string) {
	SummaryEnrichTotal.WithLabelValues(result).Inc()
}

// RecordContent adds created and skipped counts for an item type.
func RecordContent(itemType string, created, skipped int) {
	if created > 0 {
		ContentItemsTotal.WithLabelValues(itemType, "created").Add(float64(created))
	}
	if skipped > 0 {
		ContentItemsTotal.WithLabelValues(itemType, "skipped").Add(float64(skipped))
	}
}

func RecordContentDeleted(articles, images int64) {
	ContentDeletedTotal.WithLabelValues("article").Add(float64(articles))
	ContentDeletedTotal.WithLabelValues("image").Add(float64(images))
}

// RecordDigestDownload records a download attempt and, on success, its size.
func RecordDigestDownload(success bool, size int) {
	if !success {
		DigestDownloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	DigestDownloadsTotal.WithLabelValues("success").Inc()
	DigestSize.Observe(float64(size))
}
