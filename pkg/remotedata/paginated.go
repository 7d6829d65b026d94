package remotedata

import "fmt"

// PageInfo carries the pagination metadata the REST API reports for a list.
// CurrentPage is 1-based on this side; the API is 0-based.
type PageInfo struct {
	ElementsPerPage int `json:"elementsPerPage"`
	TotalElements   int `json:"totalElements"`
	TotalPages      int `json:"totalPages"`
	CurrentPage     int `json:"currentPage"`
}

// PaginatedList is one page of a larger list.
type PaginatedList[T any] struct {
	PageInfo PageInfo `json:"pageInfo"`
	Page     []T      `json:"page"`
}

// NewPaginatedList validates page against info and returns the list.
func NewPaginatedList[T any](info PageInfo, page []T) (PaginatedList[T], error) {
	if info.ElementsPerPage > 0 && len(page) > info.ElementsPerPage {
		return PaginatedList[T]{}, fmt.Errorf("page holds %d elements but page size is %d", len(page), info.ElementsPerPage)
	}
	if info.TotalElements == 0 && len(page) > 0 {
		return PaginatedList[T]{}, fmt.Errorf("page holds %d elements but total is 0", len(page))
	}
	if page == nil {
		page = []T{}
	}
	return PaginatedList[T]{PageInfo: info, Page: page}, nil
}

// Len returns the number of elements on this page.
func (l PaginatedList[T]) Len() int { return len(l.Page) }

// HasNext reports whether a later page exists.
func (l PaginatedList[T]) HasNext() bool {
	return l.PageInfo.CurrentPage < l.PageInfo.TotalPages
}
