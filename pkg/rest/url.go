package rest

import (
	"fmt"
	"net/url"
	"strings"
)

// CombineURL joins a base URL and path segments with exactly one slash between
// each part. A query string on the last part is kept.
func CombineURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		out += "/" + p
	}
	return out
}

// WithQuery returns href with the given query values merged into its query
// string. Keys are sorted and values keep their order, so identical logical
// queries produce identical hrefs.
func WithQuery(href string, values url.Values) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	q := u.Query()
	for k, vs := range values {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	// url.Values.Encode sorts by key.
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Canonical re-encodes the query of href in sorted order.
func Canonical(href string) (string, error) {
	return WithQuery(href, nil)
}
