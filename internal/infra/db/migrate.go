package db

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`
CREATE TABLE IF NOT EXISTS sources (
    id                      BIGSERIAL PRIMARY KEY,
    name                    TEXT NOT NULL,
    base_url                TEXT NOT NULL DEFAULT '',
    rss_url                 TEXT NOT NULL UNIQUE,
    logo_url                TEXT NOT NULL DEFAULT '',
    fetch_frequency_minutes INTEGER NOT NULL DEFAULT 60 CHECK (fetch_frequency_minutes >= 15),
    is_active               BOOLEAN NOT NULL DEFAULT TRUE,
    last_fetch              TIMESTAMPTZ,
    created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`
CREATE TABLE IF NOT EXISTS articles (
    id               BIGSERIAL PRIMARY KEY,
    dedupe_key       TEXT NOT NULL UNIQUE,
    origin           TEXT NOT NULL,
    source_id        BIGINT REFERENCES sources(id) ON DELETE SET NULL,
    source_label     TEXT NOT NULL DEFAULT '',
    source_url       TEXT NOT NULL DEFAULT '',
    section          TEXT NOT NULL DEFAULT '',
    title            TEXT NOT NULL,
    summary          TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    publication_date TIMESTAMPTZ NOT NULL,
    ingestion_date   TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`
CREATE TABLE IF NOT EXISTS images (
    id             BIGSERIAL PRIMARY KEY,
    dedupe_key     TEXT NOT NULL UNIQUE,
    ingestion_date TEXT NOT NULL,
    page           INTEGER NOT NULL,
    idx            INTEGER NOT NULL,
    blob_ref       TEXT NOT NULL,
    content_type   TEXT NOT NULL DEFAULT '',
    size_bytes     BIGINT NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`
CREATE TABLE IF NOT EXISTS extraction_jobs (
    id            TEXT PRIMARY KEY,
    kind          TEXT NOT NULL,
    scope         TEXT NOT NULL,
    status        TEXT NOT NULL,
    target_date   TEXT,
    source_id     BIGINT,
    requested_by  TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    started_at    TIMESTAMPTZ,
    completed_at  TIMESTAMPTZ,
    error_code    TEXT,
    error_message TEXT,
    result        JSONB
)`,
	`
CREATE TABLE IF NOT EXISTS extraction_logs (
    id      BIGSERIAL PRIMARY KEY,
    ts      TIMESTAMPTZ NOT NULL,
    level   TEXT NOT NULL,
    module  TEXT NOT NULL,
    message TEXT NOT NULL,
    job_id  TEXT NOT NULL DEFAULT '',
    details JSONB
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_ingestion_date ON articles(ingestion_date)`,
	`CREATE INDEX IF NOT EXISTS idx_images_ingestion_date ON images(ingestion_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(is_active) WHERE is_active = TRUE`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_jobs_kind_created ON extraction_jobs(kind, created_at DESC)`,
	// single-flight backstop: one non-terminal job per scope
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_extraction_jobs_active_scope ON extraction_jobs(scope) WHERE status IN ('pending', 'in_progress')`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_logs_ts ON extraction_logs(ts DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_logs_module ON extraction_logs(module)`,
}

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS sources (
    id                      INTEGER PRIMARY KEY AUTOINCREMENT,
    name                    TEXT NOT NULL,
    base_url                TEXT NOT NULL DEFAULT '',
    rss_url                 TEXT NOT NULL UNIQUE,
    logo_url                TEXT NOT NULL DEFAULT '',
    fetch_frequency_minutes INTEGER NOT NULL DEFAULT 60 CHECK (fetch_frequency_minutes >= 15),
    is_active               INTEGER NOT NULL DEFAULT 1,
    last_fetch              TEXT,
    created_at              TEXT NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS articles (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    dedupe_key       TEXT NOT NULL UNIQUE,
    origin           TEXT NOT NULL,
    source_id        INTEGER REFERENCES sources(id) ON DELETE SET NULL,
    source_label     TEXT NOT NULL DEFAULT '',
    source_url       TEXT NOT NULL DEFAULT '',
    section          TEXT NOT NULL DEFAULT '',
    title            TEXT NOT NULL,
    summary          TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    publication_date TEXT NOT NULL,
    ingestion_date   TEXT NOT NULL,
    created_at       TEXT NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS images (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    dedupe_key     TEXT NOT NULL UNIQUE,
    ingestion_date TEXT NOT NULL,
    page           INTEGER NOT NULL,
    idx            INTEGER NOT NULL,
    blob_ref       TEXT NOT NULL,
    content_type   TEXT NOT NULL DEFAULT '',
    size_bytes     INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS extraction_jobs (
    id            TEXT PRIMARY KEY,
    kind          TEXT NOT NULL,
    scope         TEXT NOT NULL,
    status        TEXT NOT NULL,
    target_date   TEXT,
    source_id     INTEGER,
    requested_by  TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL,
    started_at    TEXT,
    completed_at  TEXT,
    error_code    TEXT,
    error_message TEXT,
    result        TEXT
)`,
	`
CREATE TABLE IF NOT EXISTS extraction_logs (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    ts      TEXT NOT NULL,
    level   TEXT NOT NULL,
    module  TEXT NOT NULL,
    message TEXT NOT NULL,
    job_id  TEXT NOT NULL DEFAULT '',
    details TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_ingestion_date ON articles(ingestion_date)`,
	`CREATE INDEX IF NOT EXISTS idx_images_ingestion_date ON images(ingestion_date)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_jobs_kind_created ON extraction_jobs(kind, created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_extraction_jobs_active_scope ON extraction_jobs(scope) WHERE status IN ('pending', 'in_progress')`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_logs_ts ON extraction_logs(ts DESC)`,
}

// MigrateUp creates every table and index of the dialect if missing.
// Statements are idempotent so it runs on every start.
func MigrateUp(ctx context.Context, db *sql.DB, dialect Dialect) error {
	var stmts []string
	switch dialect {
	case Postgres:
		stmts = postgresSchema
	case SQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", dialect)
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s statement %d: %w", dialect, i, err)
		}
	}
	return nil
}
