package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	hext "digest-extractor/internal/handler/http/extraction"
)

// Run executes the logs command.
func (c *LogsCmd) Run(deps *Dependencies) error {
	q := url.Values{}
	setIf(q, "level", c.Level)
	setIf(q, "module", c.Module)
	setIf(q, "jobId", c.Job)
	setIf(q, "search", c.Search)
	q.Set("page", strconv.Itoa(c.Page))
	q.Set("limit", strconv.Itoa(c.Limit))

	var resp hext.LogsResponse
	if err := deps.Client.Do(deps.Ctx, http.MethodGet, "/extraction/logs", q, nil, &resp); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLEVEL\tMODULE\tJOB\tMESSAGE")
	for _, l := range resp.Logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			l.Timestamp.Format(time.RFC3339), l.Level, l.Module, l.JobID, l.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "page %d of %d, %d entries\n", resp.Page, resp.TotalPages, resp.Total)
	return nil
}

// Run executes the pdfs command.
func (c *PdfsCmd) Run(deps *Dependencies) error {
	var dates []string
	if err := deps.Client.Do(deps.Ctx, http.MethodGet, "/extraction/available-pdfs", nil, nil, &dates); err != nil {
		return err
	}
	if len(dates) == 0 {
		fmt.Fprintln(deps.Stdout, "no archived digests")
		return nil
	}
	for _, d := range dates {
		fmt.Fprintln(deps.Stdout, d)
	}
	return nil
}

// Run executes the jobs command.
func (c *JobsCmd) Run(deps *Dependencies) error {
	q := url.Values{}
	setIf(q, "kind", c.Kind)
	setIf(q, "status", c.Status)
	if c.Limit > 0 {
		q.Set("limit", strconv.Itoa(c.Limit))
	}

	var jobs []hext.JobDTO
	if err := deps.Client.Do(deps.Ctx, http.MethodGet, "/extraction/jobs", q, nil, &jobs); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSCOPE\tSTATUS\tCREATED\tBY")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.JobID, j.Kind, j.Scope, j.Status, j.CreatedAt.Format(time.RFC3339), j.RequestedBy)
	}
	return tw.Flush()
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
