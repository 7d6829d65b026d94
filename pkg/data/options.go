package data

import (
	"net/url"
	"strconv"
)

// SortDirection orders a list.
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// SortOptions sorts a list by one field.
type SortOptions struct {
	Field     string
	Direction SortDirection
}

// FindListOptions selects one page of a list. CurrentPage is 1-based.
type FindListOptions struct {
	CurrentPage     int
	ElementsPerPage int
	Sort            *SortOptions
}

// Query returns the page, size and sort query arguments. The API counts pages
// from 0.
func (o FindListOptions) Query() url.Values {
	q := url.Values{}
	if o.CurrentPage > 0 {
		q.Set("page", strconv.Itoa(o.CurrentPage-1))
	}
	if o.ElementsPerPage > 0 {
		q.Set("size", strconv.Itoa(o.ElementsPerPage))
	}
	if o.Sort != nil && o.Sort.Field != "" {
		dir := o.Sort.Direction
		if dir == "" {
			dir = Ascending
		}
		q.Set("sort", o.Sort.Field+","+string(dir))
	}
	return q
}
