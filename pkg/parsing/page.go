// Package parsing turns raw REST responses into cacheable responses and
// normalized objects, one parser per endpoint shape.
package parsing

import (
	"encoding/json"

	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
)

type wirePage struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

// pageInfo reads the "page" member of a list document, if any.
func pageInfo(doc map[string]json.RawMessage) (*remotedata.PageInfo, error) {
	raw, ok := doc["page"]
	if !ok {
		return nil, nil
	}
	var p wirePage
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &remotedata.PageInfo{
		ElementsPerPage: p.Size,
		TotalElements:   p.TotalElements,
		TotalPages:      p.TotalPages,
		CurrentPage:     p.Number + 1,
	}, nil
}
