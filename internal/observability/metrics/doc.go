// Package metrics holds the Prometheus business metrics of the extraction service.
//
// Metrics are registered with the default registry through promauto and
// exposed on /metrics. HTTP request metrics live with the HTTP middleware.
//
// Example usage:
//
//	start := time.Now()
//	res, err := pipeline.Run(ctx)
//	metrics.RecordJob("pdf_ingestion", "completed", time.Since(start))
//	metrics.RecordContent("article", res.ArticlesCreated, res.ArticlesSkippedDuplicate)
package metrics
