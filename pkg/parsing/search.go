package parsing

import (
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// SearchHit is what the search response keeps per result; the object itself is
// in the object cache under Self.
type SearchHit struct {
	Self          string              `json:"self"`
	HitHighlights map[string][]string `json:"hitHighlights,omitempty"`
}

// SearchParser handles discover/search/objects responses.
type SearchParser struct{}

type wireSearchObject struct {
	HitHighlights map[string][]string        `json:"hitHighlights"`
	Embedded      map[string]json.RawMessage `json:"_embedded"`
	Links         map[string]hal.Link        `json:"_links"`
}

// Parse implements request.Parser.
func (SearchParser) Parse(_ *request.Request, raw *rest.Response) (*request.Parsed, error) {
	// Results sit under _embedded.searchResult; older servers put them at the root.
	results := json.RawMessage(raw.Body)
	if embedded, err := hal.Embedded(raw.Body); err == nil {
		if sr, ok := embedded["searchResult"]; ok {
			results = sr
		}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(results, &doc); err != nil {
		return nil, fmt.Errorf("search result is not a JSON object: %w", err)
	}
	page, err := pageInfo(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid page section: %w", err)
	}
	embedded, err := hal.Embedded(results)
	if err != nil {
		return nil, err
	}

	var objects []wireSearchObject
	if rawObjects, ok := embedded["objects"]; ok {
		if err := json.Unmarshal(rawObjects, &objects); err != nil {
			return nil, fmt.Errorf("search objects are not an array: %w", err)
		}
	}

	parsed := &request.Parsed{}
	hits := make([]SearchHit, 0, len(objects))
	selfs := make([]string, 0, len(objects))
	for i, o := range objects {
		indexable, ok := o.Embedded["indexableObject"]
		if !ok {
			indexable, ok = o.Embedded["dspaceObject"]
		}
		if !ok {
			return nil, fmt.Errorf("search result %d has no embedded object", i)
		}
		r, err := hal.ParseResource(indexable)
		if err != nil {
			return nil, fmt.Errorf("search result %d: %w", i, err)
		}
		parsed.Objects = append(parsed.Objects, r)
		selfs = append(selfs, r.Self)
		hits = append(hits, SearchHit{Self: r.Self, HitHighlights: o.HitHighlights})
	}

	payload, err := json.Marshal(hits)
	if err != nil {
		return nil, err
	}
	parsed.Response = &cache.Response{
		IsSuccessful:      true,
		StatusCode:        raw.StatusCode,
		StatusText:        raw.StatusText,
		ResourceSelfLinks: selfs,
		PageInfo:          page,
		Payload:           payload,
	}
	return parsed, nil
}
