package ingest

import (
	"context"
	"time"
)

// Block is one article-shaped chunk of the digest text.
type Block struct {
	Section string
	Title   string
	Summary string
}

// DigestImage is an image embedded in the digest.
type DigestImage struct {
	Page        int
	Index       int
	Data        []byte
	ContentType string
	// Ext is the file extension without a dot, e.g. "png".
	Ext string
}

// ParsedDigest is the structured content of one digest PDF.
type ParsedDigest struct {
	Blocks []Block
	Images []DigestImage
}

// Parser turns PDF bytes into a ParsedDigest. Implementations wrap ErrParseFailed.
type Parser interface {
	Parse(ctx context.Context, data []byte) (*ParsedDigest, error)
}

// Downloader fetches the published digest of a date.
type Downloader interface {
	Download(ctx context.Context, date time.Time) ([]byte, error)
}

// Archive keeps raw digest PDFs by YYYY-MM-DD date.
type Archive interface {
	Exists(ctx context.Context, date string) (bool, error)
	Load(ctx context.Context, date string) ([]byte, error)
	Save(ctx context.Context, date string, data []byte) error
	ListDates(ctx context.Context) ([]string, error)
}

// BlobStore keeps image bytes. Put must not overwrite an existing blob.
type BlobStore interface {
	Put(ctx context.Context, ref string, data []byte) (bool, error)
}
