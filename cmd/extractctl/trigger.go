package main

import (
	"fmt"
	"net/http"
	"strconv"

	hext "digest-extractor/internal/handler/http/extraction"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	var body any
	if c.Date != "" {
		body = map[string]string{"date": c.Date}
	}
	var resp hext.TriggerResponse
	if err := deps.Client.Do(deps.Ctx, http.MethodPost, "/extraction/run", nil, body, &resp); err != nil {
		return err
	}
	printTrigger(deps, resp)
	return nil
}

// Run executes the fetch command.
func (c *FetchCmd) Run(deps *Dependencies) error {
	path := "/external-sources/fetch"
	if c.Source != 0 {
		path = "/external-sources/" + strconv.FormatInt(c.Source, 10) + "/fetch"
	}
	var resp hext.TriggerResponse
	if err := deps.Client.Do(deps.Ctx, http.MethodPost, path, nil, nil, &resp); err != nil {
		return err
	}
	printTrigger(deps, resp)
	return nil
}

func printTrigger(deps *Dependencies, resp hext.TriggerResponse) {
	fmt.Fprintln(deps.Stdout, resp.Message)
	if resp.JobID != "" {
		fmt.Fprintf(deps.Stdout, "job %s (%s)\n", resp.JobID, resp.Status)
	}
}
