package pagination

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params are the page and limit of a request.
type Params struct {
	Page  int // 1-based
	Limit int
}

// ParseQuery reads page and limit from q. Missing values take the defaults of
// cfg; malformed or out-of-range values are an error.
func ParseQuery(q url.Values, cfg Config) (Params, error) {
	params := Params{
		Page:  cfg.DefaultPage,
		Limit: cfg.DefaultLimit,
	}

	if pageStr := q.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid query parameter: page must be a positive integer")
		}
		params.Page = page
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > cfg.MaxLimit {
			return params, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", cfg.MaxLimit)
		}
		params.Limit = limit
	}

	return params, nil
}
