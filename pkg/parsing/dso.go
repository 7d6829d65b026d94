package parsing

import (
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// DSOParser handles endpoints that return either a single repository object or
// a page of them under _embedded.
type DSOParser struct{}

// Parse implements request.Parser.
func (DSOParser) Parse(_ *request.Request, raw *rest.Response) (*request.Parsed, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw.Body, &doc); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	page, err := pageInfo(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid page section: %w", err)
	}

	resp := &cache.Response{IsSuccessful: true, StatusCode: raw.StatusCode, StatusText: raw.StatusText, PageInfo: page}
	parsed := &request.Parsed{Response: resp}

	if page == nil {
		r, err := hal.ParseResource(raw.Body)
		if err != nil {
			return nil, err
		}
		resp.ResourceSelfLinks = []string{r.Self}
		parsed.Objects = append(parsed.Objects, r)
		parsed.Objects = append(parsed.Objects, embeddedObjects(raw.Body)...)
		return parsed, nil
	}

	members, err := listMembers(raw.Body)
	if err != nil {
		return nil, err
	}
	resp.ResourceSelfLinks = make([]string, 0, len(members))
	for _, m := range members {
		r, err := hal.ParseResource(m)
		if err != nil {
			return nil, err
		}
		resp.ResourceSelfLinks = append(resp.ResourceSelfLinks, r.Self)
		parsed.Objects = append(parsed.Objects, r)
	}
	return parsed, nil
}

// listMembers returns the array under the single _embedded key of a list.
func listMembers(doc json.RawMessage) ([]json.RawMessage, error) {
	embedded, err := hal.Embedded(doc)
	if err != nil {
		return nil, err
	}
	if len(embedded) == 0 {
		return nil, nil
	}
	if len(embedded) > 1 {
		return nil, fmt.Errorf("list has %d embedded members, expected one", len(embedded))
	}
	for _, v := range embedded {
		var members []json.RawMessage
		if err := json.Unmarshal(v, &members); err != nil {
			return nil, fmt.Errorf("embedded list is not an array: %w", err)
		}
		return members, nil
	}
	return nil, nil
}

// embeddedObjects collects the single objects embedded in a resource, e.g. a
// logo, so they converge in the object cache too. Embedded lists are skipped.
func embeddedObjects(doc json.RawMessage) []hal.Resource {
	embedded, err := hal.Embedded(doc)
	if err != nil {
		return nil
	}
	var out []hal.Resource
	for _, v := range embedded {
		r, err := hal.ParseResource(v)
		if err != nil || r.Type == "" || r.UUID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
