package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"digest-extractor/internal/common/pagination"
	appcfg "digest-extractor/internal/config"
	hhttp "digest-extractor/internal/handler/http"
	"digest-extractor/internal/handler/http/auth"
	hext "digest-extractor/internal/handler/http/extraction"
	"digest-extractor/internal/handler/http/requestid"
	hsrc "digest-extractor/internal/handler/http/source"
	pgRepo "digest-extractor/internal/infra/adapter/persistence/postgres"
	sqliteRepo "digest-extractor/internal/infra/adapter/persistence/sqlite"
	"digest-extractor/internal/infra/db"
	"digest-extractor/internal/infra/fetcher"
	"digest-extractor/internal/infra/pdf"
	"digest-extractor/internal/infra/scheduler"
	"digest-extractor/internal/infra/scraper"
	"digest-extractor/internal/infra/storage"
	"digest-extractor/internal/observability/logging"
	"digest-extractor/internal/observability/tracing"
	"digest-extractor/internal/pkg/config"
	"digest-extractor/internal/repository"
	"digest-extractor/internal/usecase/extraction"
	fetchUC "digest-extractor/internal/usecase/fetch"
	"digest-extractor/internal/usecase/ingest"
	srcUC "digest-extractor/internal/usecase/source"
)

func main() {
	logger := initLogger()
	shutdownTracing := tracing.InitProvider(traceRatio(logger))

	ctx := context.Background()
	database, dialect := initDatabase(ctx, logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := getVersion()
	components := setupServer(ctx, logger, database, dialect, version)

	runServer(logger, components, version)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Error("tracer shutdown failed", slog.Any("error", err))
	}
}

// initLogger builds the process logger and installs it as the slog default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// traceRatio reads TRACE_SAMPLE_RATIO (0..1, default 0.1).
func traceRatio(logger *slog.Logger) float64 {
	const def = 0.1
	raw := os.Getenv("TRACE_SAMPLE_RATIO")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		logger.Warn("invalid TRACE_SAMPLE_RATIO, using default",
			slog.String("value", raw), slog.Float64("default", def))
		return def
	}
	return v
}

// initDatabase opens the configured database and runs migrations.
func initDatabase(ctx context.Context, logger *slog.Logger) (*sql.DB, db.Dialect) {
	dialect, err := db.ParseDialect(config.LoadEnvString("DB_DRIVER", string(db.Postgres)))
	if err != nil {
		logger.Error("invalid DB_DRIVER", slog.Any("error", err))
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dialect == db.SQLite {
		dsn = config.LoadEnvString("SQLITE_PATH", "data/extractor.db")
	}

	database, err := db.Open(ctx, dialect, dsn)
	if err != nil {
		logger.Error("failed to open database", slog.String("driver", string(dialect)), slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, database, dialect); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready", slog.String("driver", string(dialect)))
	return database, dialect
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// repositories groups the adapters of one dialect.
type repositories struct {
	Sources repository.SourceRepository
	Content repository.ContentRepository
	Jobs    repository.JobRepository
	Logs    repository.LogRepository
}

func newRepositories(database *sql.DB, dialect db.Dialect) repositories {
	if dialect == db.SQLite {
		return repositories{
			Sources: sqliteRepo.NewSourceRepo(database),
			Content: sqliteRepo.NewContentRepo(database),
			Jobs:    sqliteRepo.NewJobRepo(database),
			Logs:    sqliteRepo.NewLogRepo(database),
		}
	}
	return repositories{
		Sources: pgRepo.NewSourceRepo(database),
		Content: pgRepo.NewContentRepo(database),
		Jobs:    pgRepo.NewJobRepo(database),
		Logs:    pgRepo.NewLogRepo(database),
	}
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler      http.Handler
	Addr         string
	Orchestrator *extraction.Orchestrator
	Scheduler    *scheduler.Scheduler
}

// setupServer wires the pipelines, the orchestrator and the scheduler, and
// returns the HTTP handler with all routes and middleware.
func setupServer(ctx context.Context, logger *slog.Logger, database *sql.DB, dialect db.Dialect, version string) *ServerComponents {
	cfgMetrics := config.NewConfigMetrics("extractor")
	repos := newRepositories(database, dialect)
	srcSvc := &srcUC.Service{Repo: repos.Sources}

	extCfg := extraction.LoadConfig(logger, cfgMetrics)
	schedCfg := scheduler.LoadConfigFromEnv(logger, cfgMetrics)
	digestCfg := fetcher.LoadDigestConfig(logger, cfgMetrics)
	enrichCfg := fetcher.LoadEnrichConfig(logger, cfgMetrics)
	if digestCfg.URLTemplate == "" {
		logger.Warn("DIGEST_URL_TEMPLATE is not set, only archived digests can be ingested")
	}

	archive := storage.NewArchive(config.LoadEnvString("PDF_ARCHIVE_DIR", "data/pdfs"))
	blobs := storage.NewBlobStore(config.LoadEnvString("BLOB_DIR", "data/blobs"))

	ingestSvc := ingest.NewService(
		archive,
		fetcher.NewDigestDownloader(&http.Client{Timeout: digestCfg.Timeout}, digestCfg),
		pdf.NewExtractor(logger),
		blobs,
		repos.Content,
		ingest.Config{
			SourceLabel: config.LoadEnvString("DIGEST_SOURCE_LABEL", ingest.DefaultSourceLabel),
			Location:    extCfg.Location,
		},
	)

	var contentFetcher fetchUC.ContentFetcher
	if enrichCfg.Enabled {
		if err := enrichCfg.Validate(); err != nil {
			logger.Warn("summary enrichment disabled", slog.Any("error", err))
		} else {
			contentFetcher = fetcher.NewReadabilityFetcher(enrichCfg)
			logger.Info("summary enrichment enabled",
				slog.Int("threshold", enrichCfg.Threshold),
				slog.Duration("timeout", enrichCfg.Timeout))
		}
	}

	fetchSvc := fetchUC.NewService(
		repos.Sources,
		repos.Content,
		scraper.NewRSSFetcher(nil, scraper.DefaultConfig()),
		contentFetcher,
		fetchUC.Config{
			Workers:         extCfg.FetchConcurrency,
			SourceTimeout:   extCfg.SourceTimeout,
			Location:        extCfg.Location,
			EnrichThreshold: enrichCfg.Threshold,
		},
	)

	orch := extraction.NewOrchestrator(extraction.Deps{
		Jobs:       repos.Jobs,
		Logs:       repos.Logs,
		Content:    repos.Content,
		Sources:    repos.Sources,
		Archive:    archive,
		Pdf:        ingestSvc,
		Fetch:      fetchSvc,
		Pagination: pagination.LoadFromEnv(),
		Logger:     logger,
	}, extCfg)

	if n, err := orch.Reconcile(ctx); err != nil {
		logger.Error("failed to reconcile interrupted jobs", slog.Any("error", err))
	} else if n > 0 {
		logger.Warn("interrupted jobs marked as failed", slog.Int("count", n))
	}

	seedSources(ctx, logger, srcSvc)

	sched, err := scheduler.New(schedCfg, orch, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	sched.Start()

	secCfg, err := appcfg.LoadSecurityConfig()
	if err != nil {
		logger.Error("security configuration invalid", slog.Any("error", err))
		os.Exit(1)
	}
	authn := auth.NewAuthenticator(secCfg)

	mux := setupRoutes(database, version, srcSvc, orch, sched, authn)
	return &ServerComponents{
		Handler:      applyMiddleware(logger, mux),
		Addr:         config.LoadEnvString("HTTP_ADDR", ":8080"),
		Orchestrator: orch,
		Scheduler:    sched,
	}
}

// seedSources upserts the sources listed in SOURCES_FILE, if set.
func seedSources(ctx context.Context, logger *slog.Logger, svc *srcUC.Service) {
	path := os.Getenv("SOURCES_FILE")
	if path == "" {
		return
	}
	seeds, err := appcfg.LoadSourceSeeds(path)
	if err != nil {
		logger.Error("failed to load source seeds", slog.String("path", path), slog.Any("error", err))
		return
	}
	created, updated, err := appcfg.SeedSources(ctx, svc, seeds, logger)
	if err != nil {
		logger.Error("source seeding incomplete", slog.Any("error", err))
	}
	logger.Info("sources seeded",
		slog.String("path", path),
		slog.Int("created", created),
		slog.Int("updated", updated))
}

// setupRoutes registers the public probes and the authenticated API.
func setupRoutes(
	database *sql.DB,
	version string,
	srcSvc *srcUC.Service,
	orch *extraction.Orchestrator,
	sched *scheduler.Scheduler,
	authn *auth.Authenticator,
) *http.ServeMux {
	// 手動トリガ: 1分間に10リクエストまで
	triggerLimiter := hhttp.NewRateLimiter(10, time.Minute)

	mux := http.NewServeMux()
	mux.Handle("GET /health", &hhttp.HealthHandler{DB: database, Version: version, Scheduler: sched, Jobs: orch})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	hext.Register(mux, orch, sched, authn.Require, triggerLimiter.Limit)
	hsrc.Register(mux, srcSvc, authn.Require)
	return mux
}

// applyMiddleware wraps the handler with the middleware chain.
// Order: Request ID → Recovery → Logging → Tracing → Body Limit → Metrics
func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	chain := handler

	// Apply in reverse order (innermost to outermost)
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain)
	chain = tracing.Middleware(hhttp.RouteLabel)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = requestid.Middleware(chain)

	return chain
}

// runServer serves until SIGINT/SIGTERM, then stops the scheduler, drains the
// HTTP server and interrupts running jobs.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              components.Addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", components.Addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := components.Scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler stop failed", slog.Any("error", err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	if err := components.Orchestrator.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
