package entity

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// PdfArticleKey returns the dedupe key of a digest article.
func PdfArticleKey(date, section, title string) string {
	return "pdf:" + hashParts(date, NormalizeTitle(section), NormalizeTitle(title))
}

// PdfImageKey returns the dedupe key of a digest image.
func PdfImageKey(date string, page, index int) string {
	return "img:" + hashParts(date, strconv.Itoa(page), strconv.Itoa(index))
}

// ExternalArticleKey returns the dedupe key of an externally fetched article.
// Unparseable links fall back to the trimmed raw string.
func ExternalArticleKey(sourceID int64, link string) string {
	canonical, err := CanonicalURL(link)
	if err != nil {
		canonical = strings.TrimSpace(link)
	}
	return fmt.Sprintf("ext:%d:%s", sourceID, canonical)
}

func hashParts(parts ...string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(parts, "|")))
}

// NormalizeTitle lowercases s, collapses internal whitespace and strips
// punctuation from both ends so cosmetic differences do not change identity.
func NormalizeTitle(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

var trackingParams = map[string]bool{"fbclid": true, "gclid": true}

// CanonicalURL normalizes an article link: lowercase scheme and host, no fragment,
// no tracking parameters, sorted query and no trailing slash.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("canonical url: missing host in %q", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") || trackingParams[strings.ToLower(k)] {
			q.Del(k)
		}
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		vals := q[k]
		sort.Strings(vals)
		for j, v := range vals {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	u.RawQuery = b.String()

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	} else if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), nil
}
