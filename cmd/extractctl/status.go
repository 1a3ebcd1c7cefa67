package main

import (
	"fmt"
	"net/http"
	"net/url"
	"text/tabwriter"
	"time"

	hext "digest-extractor/internal/handler/http/extraction"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	var resp hext.StatusResponse
	q := url.Values{"kind": {c.Kind}}
	if err := deps.Client.Do(deps.Ctx, http.MethodGet, "/extraction/status", q, nil, &resp); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "kind:\t%s\n", c.Kind)
	if last := resp.LastExtraction; last != nil {
		fmt.Fprintf(tw, "last job:\t%s\n", last.JobID)
		fmt.Fprintf(tw, "status:\t%s\n", last.Status)
		fmt.Fprintf(tw, "at:\t%s\n", last.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(tw, "by:\t%s\n", last.User)
		if last.Error != nil {
			fmt.Fprintf(tw, "error:\t%s\n", last.Error.Error())
		}
		if r := last.Result; r != nil {
			fmt.Fprintf(tw, "articles:\t%d created, %d duplicate\n", r.ArticlesCreated, r.ArticlesSkippedDuplicate)
			fmt.Fprintf(tw, "images:\t%d created, %d duplicate\n", r.ImagesCreated, r.ImagesSkippedDuplicate)
			if r.SourcesFetched > 0 || len(r.SourceFailures) > 0 {
				fmt.Fprintf(tw, "sources:\t%d fetched, %d failed\n", r.SourcesFetched, len(r.SourceFailures))
			}
		}
	} else {
		fmt.Fprintf(tw, "last job:\tnone\n")
	}
	if resp.NextExtraction != nil {
		fmt.Fprintf(tw, "next run:\t%s\n", resp.NextExtraction.Format(time.RFC3339))
	} else {
		fmt.Fprintf(tw, "next run:\tnot scheduled\n")
	}
	return tw.Flush()
}
