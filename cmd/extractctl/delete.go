package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	extUC "digest-extractor/internal/usecase/extraction"
)

// Run executes the delete command. Without --force it only reports what
// would be deleted.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	path := "/extraction/content/" + url.PathEscape(c.Date)

	if !c.Force {
		var stored extUC.ContentSummary
		if err := deps.Client.Do(deps.Ctx, http.MethodGet, path, nil, nil, &stored); err != nil {
			return err
		}
		fmt.Fprintf(deps.Stdout, "Would delete %d articles and %d images for %s\n", stored.Articles, stored.Images, c.Date)
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return errors.New("use --force to confirm deletion")
	}

	var res extUC.DeleteResult
	if err := deps.Client.Do(deps.Ctx, http.MethodDelete, path, nil, nil, &res); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Deleted %d articles and %d images for %s\n", res.ArticlesDeleted, res.ImagesDeleted, c.Date)
	return nil
}
