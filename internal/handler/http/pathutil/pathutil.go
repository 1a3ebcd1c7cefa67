// Package pathutil parses path parameters and maps request paths to route
// templates so metric labels stay low-cardinality.
package pathutil

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidID is returned for a source id that is not a positive integer.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a positive int64 path parameter.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

type pathPattern struct {
	pattern  *regexp.Regexp
	template string
}

var pathPatterns = []pathPattern{
	{regexp.MustCompile(`^/external-sources/\d+$`), "/external-sources/:id"},
	{regexp.MustCompile(`^/external-sources/\d+/fetch$`), "/external-sources/:id/fetch"},
	{regexp.MustCompile(`^/extraction/jobs/[^/]+$`), "/extraction/jobs/:id"},
	{regexp.MustCompile(`^/extraction/content/[^/]+$`), "/extraction/content/:date"},
}

// NormalizePath strips the query and trailing slash and replaces ids and
// dates with placeholders.
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	for _, p := range pathPatterns {
		if p.pattern.MatchString(path) {
			return p.template
		}
	}
	return path
}
