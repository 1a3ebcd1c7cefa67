// Package entity defines the core domain entities and validation logic for the extractor.
// It contains the content records produced by the pipelines (Article, Image), the external
// source registry entry (Source), extraction job bookkeeping and the operation log.
package entity

import "time"

// Origin identifies which pipeline produced a piece of content.
type Origin string

const (
	OriginPDF      Origin = "pdf"
	OriginExternal Origin = "external"
)

// Article represents a single news item extracted from the daily digest
// or fetched from an external source.
type Article struct {
	ID        int64
	DedupeKey string
	Origin    Origin
	// SourceID is set only for externally fetched articles.
	SourceID        *int64
	SourceLabel     string
	SourceURL       string
	Section         string
	Title           string
	Summary         string
	URL             string
	PublicationDate time.Time
	// IngestionDate is the calendar day (YYYY-MM-DD) the article is filed under.
	// Content deletion by date matches on this value.
	IngestionDate string
	CreatedAt     time.Time
}

// Image is an embedded digest image. The bytes live in the blob store; only the
// reference is persisted here.
type Image struct {
	ID            int64
	DedupeKey     string
	IngestionDate string
	Page          int
	Index         int
	BlobRef       string
	ContentType   string
	SizeBytes     int64
	CreatedAt     time.Time
}
