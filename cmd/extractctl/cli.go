package main

import (
	"context"
	"io"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Client *Client
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Server string `help:"Extractor API base URL" env:"EXTRACTOR_URL" default:"http://localhost:8080"`
	Token  string `help:"Bearer token sent with every request" env:"EXTRACTOR_TOKEN"`

	Run    RunCmd    `cmd:"" help:"Trigger a digest ingestion"`
	Status StatusCmd `cmd:"" help:"Show the last and next run of a job kind"`
	Logs   LogsCmd   `cmd:"" help:"Search the extraction log"`
	Pdfs   PdfsCmd   `cmd:"" help:"List archived digest dates"`
	Fetch  FetchCmd  `cmd:"" help:"Trigger a fetch of the external sources"`
	Delete DeleteCmd `cmd:"" help:"Count, then with --force delete, the content ingested for a date"`
	Jobs   JobsCmd   `cmd:"" help:"List recent jobs"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Date string `help:"Re-process the archived digest of this date (YYYY-MM-DD)"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct {
	Kind string `default:"pdf_ingestion" enum:"pdf_ingestion,external_fetch" help:"Job kind (${enum})"`
}

// LogsCmd is the "logs" subcommand.
type LogsCmd struct {
	Level  string `help:"Only entries of this level"`
	Module string `help:"Only entries of this module"`
	Job    string `help:"Only entries of this job id"`
	Search string `help:"Substring to look for in messages"`
	Page   int    `default:"1" help:"Page number"`
	Limit  int    `default:"50" help:"Entries per page"`
}

// PdfsCmd is the "pdfs" subcommand.
type PdfsCmd struct{}

// FetchCmd is the "fetch" subcommand.
type FetchCmd struct {
	Source int64 `help:"Fetch only this source id"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	Date  string `arg:"" help:"Ingestion date (YYYY-MM-DD)"`
	Force bool   `help:"Confirm deletion"`
}

// JobsCmd is the "jobs" subcommand.
type JobsCmd struct {
	Kind   string `help:"Only jobs of this kind (pdf_ingestion or external_fetch)"`
	Status string `help:"Only jobs in this status"`
	Limit  int    `default:"20" help:"Maximum number of jobs"`
}
