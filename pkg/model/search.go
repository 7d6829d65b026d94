package model

// SearchResult pairs a matched object with the highlighted fragments of the hit.
type SearchResult struct {
	HitHighlights map[string][]string `json:"hitHighlights,omitempty"`
	Object        *DSpaceObject       `json:"indexableObject"`
}

// SearchFilterConfig describes one facet the discovery endpoint offers.
type SearchFilterConfig struct {
	Name            string `json:"name"`
	FilterType      string `json:"filterType"`
	HasFacets       bool   `json:"hasFacets"`
	PageSize        int    `json:"pageSize"`
	IsOpenByDefault bool   `json:"openByDefault"`
}

// ParamName is the query parameter that filters on this facet.
func (c SearchFilterConfig) ParamName() string {
	return "f." + c.Name
}

// FacetValue is one value of a facet with its hit count.
type FacetValue struct {
	Label        string `json:"label"`
	Count        int    `json:"count"`
	AuthorityKey string `json:"authorityKey,omitempty"`
	Search       string `json:"search,omitempty"`
}

// FilterLabel is an active filter value as shown to a user.
type FilterLabel struct {
	Value string `json:"value"`
	Field string `json:"field"`
}
