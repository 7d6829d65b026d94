package model

import (
	"encoding/json"
	"fmt"

	"github.com/wI2L/jsondiff"
)

// Operation is a single RFC 6902 JSON patch operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// DiffMetadata returns the patch that turns the metadata of before into the
// metadata of after, with paths rooted at /metadata.
func DiffMetadata(before, after *DSpaceObject) ([]Operation, error) {
	src := before.Metadata
	if src == nil {
		src = MetadataMap{}
	}
	dst := after.Metadata
	if dst == nil {
		dst = MetadataMap{}
	}
	patch, err := jsondiff.Compare(src, dst)
	if err != nil {
		return nil, fmt.Errorf("failed to compare metadata: %w", err)
	}

	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata patch: %w", err)
	}
	var ops []Operation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("failed to decode metadata patch: %w", err)
	}
	for i := range ops {
		ops[i].Path = "/metadata" + ops[i].Path
		if ops[i].From != "" {
			ops[i].From = "/metadata" + ops[i].From
		}
	}
	return ops, nil
}
