package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/observability/metrics"
	"digest-extractor/internal/observability/tracing"
	"digest-extractor/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultSourceLabel is the SourceLabel of digest articles when none is configured.
const DefaultSourceLabel = "Daily Digest"

// Config holds the digest pipeline settings.
type Config struct {
	// SourceLabel is stored on every digest article.
	SourceLabel string
	// Location decides which calendar day "today" is.
	Location *time.Location
}

// Service ingests digest PDFs into the content store.
type Service struct {
	Archive     Archive
	Downloader  Downloader
	Parser      Parser
	Blobs       BlobStore
	ContentRepo repository.ContentRepository

	cfg Config
	now func() time.Time
}

// NewService creates an ingest Service. Empty config fields take their defaults.
func NewService(
	archive Archive,
	downloader Downloader,
	parser Parser,
	blobs BlobStore,
	contentRepo repository.ContentRepository,
	cfg Config,
) *Service {
	if cfg.SourceLabel == "" {
		cfg.SourceLabel = DefaultSourceLabel
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		Archive:     archive,
		Downloader:  downloader,
		Parser:      parser,
		Blobs:       blobs,
		ContentRepo: contentRepo,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Ingest processes the digest of targetDate, or downloads and archives today's
// digest when targetDate is nil. A historical date is only read from the archive.
//
// Content is written item by item. When a write fails the counters gathered so
// far are returned together with the error; stored rows stay.
func (s *Service) Ingest(ctx context.Context, targetDate *time.Time) (res entity.JobResult, err error) {
	var date string
	if targetDate != nil {
		date = entity.FormatDate(*targetDate)
	} else {
		date = entity.Today(s.now(), s.cfg.Location)
	}

	ctx, span := tracing.StartSpan(ctx, "ingest.Ingest",
		attribute.String("date", date),
		attribute.Bool("download", targetDate == nil))
	defer func() { tracing.End(span, err) }()

	logger := slog.Default().With(slog.String("date", date))

	data, err := s.obtain(ctx, date, targetDate == nil)
	if err != nil {
		return res, err
	}

	digest, err := s.Parser.Parse(ctx, data)
	if err != nil {
		return res, fmt.Errorf("Ingest: %w", err)
	}
	logger.Info("digest parsed",
		slog.Int("blocks", len(digest.Blocks)),
		slog.Int("images", len(digest.Images)))

	published, err := entity.ParseDate(date)
	if err != nil {
		return res, fmt.Errorf("Ingest: %w", err)
	}
	now := s.now()

	for _, b := range digest.Blocks {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("Ingest: %w", err)
		}
		created, err := s.ContentRepo.InsertArticle(ctx, &entity.Article{
			DedupeKey:       entity.PdfArticleKey(date, b.Section, b.Title),
			Origin:          entity.OriginPDF,
			SourceLabel:     s.cfg.SourceLabel,
			Section:         b.Section,
			Title:           b.Title,
			Summary:         b.Summary,
			PublicationDate: published,
			IngestionDate:   date,
			CreatedAt:       now,
		})
		if err != nil {
			return res, fmt.Errorf("Ingest: insert article: %w", err)
		}
		if created {
			res.ArticlesCreated++
		} else {
			res.ArticlesSkippedDuplicate++
		}
	}
	metrics.RecordContent("article", res.ArticlesCreated, res.ArticlesSkippedDuplicate)

	for _, img := range digest.Images {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("Ingest: %w", err)
		}
		created, err := s.storeImage(ctx, date, img, now)
		if err != nil {
			return res, fmt.Errorf("Ingest: %w", err)
		}
		if created {
			res.ImagesCreated++
		} else {
			res.ImagesSkippedDuplicate++
		}
	}
	metrics.RecordContent("image", res.ImagesCreated, res.ImagesSkippedDuplicate)

	logger.Info("digest ingested",
		slog.Int("articles_created", res.ArticlesCreated),
		slog.Int("articles_skipped", res.ArticlesSkippedDuplicate),
		slog.Int("images_created", res.ImagesCreated),
		slog.Int("images_skipped", res.ImagesSkippedDuplicate))
	return res, nil
}

// obtain returns the PDF bytes of date, downloading and archiving them first
// when download is set.
func (s *Service) obtain(ctx context.Context, date string, download bool) ([]byte, error) {
	if !download {
		ok, err := s.Archive.Exists(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("Ingest: archive: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("Ingest: %s: %w", date, ErrPdfNotFound)
		}
		data, err := s.Archive.Load(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("Ingest: archive: %w", err)
		}
		return data, nil
	}

	day, err := entity.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("Ingest: %w", err)
	}
	data, err := s.Downloader.Download(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("Ingest: %w", err)
	}
	if err := s.Archive.Save(ctx, date, data); err != nil {
		return nil, fmt.Errorf("Ingest: archive: %w", err)
	}
	return data, nil
}

// BlobRef returns the blob reference of a digest image.
func BlobRef(date string, img DigestImage) string {
	return fmt.Sprintf("%s/p%d-%d.%s", date, img.Page, img.Index, img.Ext)
}

func (s *Service) storeImage(ctx context.Context, date string, img DigestImage, now time.Time) (bool, error) {
	ref := BlobRef(date, img)
	if _, err := s.Blobs.Put(ctx, ref, img.Data); err != nil {
		return false, fmt.Errorf("store blob: %w", err)
	}
	created, err := s.ContentRepo.InsertImage(ctx, &entity.Image{
		DedupeKey:     entity.PdfImageKey(date, img.Page, img.Index),
		IngestionDate: date,
		Page:          img.Page,
		Index:         img.Index,
		BlobRef:       ref,
		ContentType:   img.ContentType,
		SizeBytes:     int64(len(img.Data)),
		CreatedAt:     now,
	})
	if err != nil {
		return false, fmt.Errorf("insert image: %w", err)
	}
	return created, nil
}
