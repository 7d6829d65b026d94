package parsing

import (
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/model"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// FacetConfigParser handles discover/facets responses. The payload is a JSON
// array of model.SearchFilterConfig.
type FacetConfigParser struct{}

type wireFacetConfig struct {
	Name          string `json:"name"`
	FacetType     string `json:"facetType"`
	FilterType    string `json:"filterType"`
	FacetLimit    int    `json:"facetLimit"`
	PageSize      int    `json:"pageSize"`
	HasFacets     *bool  `json:"hasFacets"`
	OpenByDefault bool   `json:"openByDefault"`
}

// Parse implements request.Parser.
func (FacetConfigParser) Parse(_ *request.Request, raw *rest.Response) (*request.Parsed, error) {
	embedded, err := hal.Embedded(raw.Body)
	if err != nil {
		return nil, err
	}
	rawFacets, ok := embedded["facets"]
	if !ok {
		// search configuration responses list them as "filters"
		var doc struct {
			Filters json.RawMessage `json:"filters"`
		}
		if err := json.Unmarshal(raw.Body, &doc); err != nil {
			return nil, err
		}
		rawFacets = doc.Filters
	}

	var wire []wireFacetConfig
	if len(rawFacets) > 0 {
		if err := json.Unmarshal(rawFacets, &wire); err != nil {
			return nil, fmt.Errorf("facet configuration is not an array: %w", err)
		}
	}

	configs := make([]model.SearchFilterConfig, 0, len(wire))
	for _, w := range wire {
		c := model.SearchFilterConfig{
			Name:            w.Name,
			FilterType:      w.FilterType,
			PageSize:        w.PageSize,
			HasFacets:       true,
			IsOpenByDefault: w.OpenByDefault,
		}
		if c.FilterType == "" {
			c.FilterType = w.FacetType
		}
		if c.PageSize == 0 {
			c.PageSize = w.FacetLimit
		}
		if w.HasFacets != nil {
			c.HasFacets = *w.HasFacets
		}
		configs = append(configs, c)
	}

	payload, err := json.Marshal(configs)
	if err != nil {
		return nil, err
	}
	return &request.Parsed{Response: &cache.Response{
		IsSuccessful: true,
		StatusCode:   raw.StatusCode,
		StatusText:   raw.StatusText,
		Payload:      payload,
	}}, nil
}

// FacetValueParser handles discover/facets/{name} responses. The payload is a
// JSON array of model.FacetValue.
type FacetValueParser struct{}

type wireFacetValue struct {
	Label        string              `json:"label"`
	Count        int                 `json:"count"`
	AuthorityKey string              `json:"authorityKey"`
	Links        map[string]hal.Link `json:"_links"`
}

// Parse implements request.Parser.
func (FacetValueParser) Parse(_ *request.Request, raw *rest.Response) (*request.Parsed, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw.Body, &doc); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	page, err := pageInfo(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid page section: %w", err)
	}
	embedded, err := hal.Embedded(raw.Body)
	if err != nil {
		return nil, err
	}

	var wire []wireFacetValue
	if rawValues, ok := embedded["values"]; ok {
		if err := json.Unmarshal(rawValues, &wire); err != nil {
			return nil, fmt.Errorf("facet values are not an array: %w", err)
		}
	}
	values := make([]model.FacetValue, 0, len(wire))
	for _, w := range wire {
		values = append(values, model.FacetValue{
			Label:        w.Label,
			Count:        w.Count,
			AuthorityKey: w.AuthorityKey,
			Search:       w.Links["search"].Href,
		})
	}

	payload, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return &request.Parsed{Response: &cache.Response{
		IsSuccessful: true,
		StatusCode:   raw.StatusCode,
		StatusText:   raw.StatusText,
		PageInfo:     page,
		Payload:      payload,
	}}, nil
}
