// Package hal decodes HAL+JSON documents into normalized resources and typed values.
package hal

import (
	"encoding/json"
	"fmt"
)

// Link is a hypermedia reference to a related resource.
type Link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated,omitempty"`
}

// Resource is the normalized form of a single HAL object: identity, links and the
// raw document it was read from. It is what the object cache stores.
type Resource struct {
	Type     string          `json:"type"`
	UUID     string          `json:"uuid,omitempty"`
	ID       string          `json:"id,omitempty"`
	Self     string          `json:"self"`
	Links    map[string]Link `json:"links,omitempty"`
	Document json.RawMessage `json:"document"`
}

// Link returns the named link and whether it exists.
func (r Resource) Link(name string) (Link, bool) {
	l, ok := r.Links[name]
	return l, ok
}

type envelope struct {
	ID    json.RawMessage            `json:"id"`
	UUID  string                     `json:"uuid"`
	Type  string                     `json:"type"`
	Links map[string]json.RawMessage `json:"_links"`
}

// ParseResource normalizes a HAL object.
// A resource without a self link cannot be cached and is rejected.
func ParseResource(doc json.RawMessage) (Resource, error) {
	var env envelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return Resource{}, fmt.Errorf("failed to decode HAL object: %w", err)
	}
	links, err := parseLinks(env.Links)
	if err != nil {
		return Resource{}, err
	}
	self, ok := links["self"]
	if !ok || self.Href == "" {
		return Resource{}, fmt.Errorf("HAL object of type %q has no self link", env.Type)
	}
	return Resource{
		Type:     env.Type,
		UUID:     env.UUID,
		ID:       idString(env.ID),
		Self:     self.Href,
		Links:    links,
		Document: doc,
	}, nil
}

// ParseLinks reads the _links section of any HAL document.
func ParseLinks(doc json.RawMessage) (map[string]Link, error) {
	var env struct {
		Links map[string]json.RawMessage `json:"_links"`
	}
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, fmt.Errorf("failed to decode HAL links: %w", err)
	}
	return parseLinks(env.Links)
}

// parseLinks accepts both single links and link arrays; for arrays the first
// entry wins.
func parseLinks(raw map[string]json.RawMessage) (map[string]Link, error) {
	links := make(map[string]Link, len(raw))
	for name, value := range raw {
		var l Link
		if err := json.Unmarshal(value, &l); err == nil {
			links[name] = l
			continue
		}
		var many []Link
		if err := json.Unmarshal(value, &many); err != nil {
			return nil, fmt.Errorf("link %q is neither an object nor an array: %w", name, err)
		}
		if len(many) > 0 {
			links[name] = many[0]
		}
	}
	return links, nil
}

// Embedded returns the raw _embedded members of a HAL document.
func Embedded(doc json.RawMessage) (map[string]json.RawMessage, error) {
	var env struct {
		Embedded map[string]json.RawMessage `json:"_embedded"`
	}
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, fmt.Errorf("failed to decode HAL embedded section: %w", err)
	}
	return env.Embedded, nil
}

func idString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// numeric ids, e.g. on facet configs
	return string(raw)
}
