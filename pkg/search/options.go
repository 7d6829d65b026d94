package search

import (
	"net/url"
	"sort"

	"github.com/illmade-knight/go-remotedata/pkg/data"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// Options is a discovery query.
type Options struct {
	Query   string
	Scope   string
	DSOType string
	// Filters maps a filter parameter such as "f.author" to its values, each in
	// the "value,operator" form the API expects.
	Filters    map[string][]string
	Pagination data.FindListOptions
}

// DefaultOptions matches the defaults of the search page: 10 results sorted by
// descending relevance.
func DefaultOptions() Options {
	return Options{
		Pagination: data.FindListOptions{
			CurrentPage:     1,
			ElementsPerPage: 10,
			Sort:            &data.SortOptions{Field: "score", Direction: data.Descending},
		},
	}
}

// queryArgs returns the arguments of the query, with or without pagination.
func (o Options) queryArgs(withPagination bool) url.Values {
	q := url.Values{}
	if withPagination {
		q = o.Pagination.Query()
	}
	if o.Query != "" {
		q.Set("query", o.Query)
	}
	if o.Scope != "" {
		q.Set("scope", o.Scope)
	}
	if o.DSOType != "" {
		q.Set("dsoType", o.DSOType)
	}
	for param, values := range o.Filters {
		// value order does not change the query, so it must not change the href
		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		for _, v := range sorted {
			q.Add(param, v)
		}
	}
	return q
}

// ToRestURL returns href with the query, and extra arguments, applied in
// canonical order.
func (o Options) ToRestURL(href string, extra url.Values) (string, error) {
	q := o.queryArgs(true)
	for k, vs := range extra {
		q[k] = append(q[k], vs...)
	}
	return rest.WithQuery(href, q)
}
