// Package model holds the DSpace domain types and the schemas that decode them
// from HAL resources.
package model

import (
	"github.com/illmade-knight/go-remotedata/pkg/hal"
)

// Resource types as reported in the "type" member of HAL objects.
const (
	TypeCommunity  = "community"
	TypeCollection = "collection"
	TypeItem       = "item"
	TypeBitstream  = "bitstream"
)

// MetadataValue is one value of a metadata field such as dc.title.
type MetadataValue struct {
	Value      string `json:"value"`
	Language   string `json:"language,omitempty"`
	Authority  string `json:"authority,omitempty"`
	Confidence int    `json:"confidence"`
	Place      int    `json:"place"`
}

// MetadataMap maps a field key to its ordered values.
type MetadataMap map[string][]MetadataValue

// DSpaceObject is the part every repository object shares.
type DSpaceObject struct {
	UUID     string      `json:"uuid"`
	ID       string      `json:"id"`
	Handle   string      `json:"handle,omitempty"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Self     string      `json:"self"`
	Metadata MetadataMap `json:"metadata"`
}

// FirstMetadataValue returns the first value for key, or "" if there is none.
func (o *DSpaceObject) FirstMetadataValue(key string) string {
	values := o.Metadata[key]
	if len(values) == 0 {
		return ""
	}
	return values[0].Value
}

// AllMetadataValues returns every value for key in order.
func (o *DSpaceObject) AllMetadataValues(key string) []string {
	values := o.Metadata[key]
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Value)
	}
	return out
}

// dsoFields returns the fields shared by all repository objects for a type
// that embeds DSpaceObject.
func dsoFields[T any](dso func(*T) *DSpaceObject) []hal.Field[T] {
	return []hal.Field[T]{
		hal.StringField("uuid", func(t *T) *string { return &dso(t).UUID }),
		hal.TransformField("id", func(t *T) *string { return &dso(t).ID }, func(v any) (string, error) {
			return idValue(v), nil
		}),
		hal.StringField("handle", func(t *T) *string { return &dso(t).Handle }),
		hal.StringField("name", func(t *T) *string { return &dso(t).Name }),
		hal.JSONField("metadata", func(t *T) *MetadataMap { return &dso(t).Metadata }),
	}
}

func dsoFinish[T any](dso func(*T) *DSpaceObject) func(*T, hal.Resource) {
	return func(t *T, r hal.Resource) {
		o := dso(t)
		o.Self = r.Self
		o.Type = r.Type
		if o.Metadata == nil {
			o.Metadata = MetadataMap{}
		}
	}
}

// DSpaceObjectSchema decodes any repository object into its shared part.
var DSpaceObjectSchema = hal.Schema[DSpaceObject]{
	Types:  []string{TypeCommunity, TypeCollection, TypeItem, TypeBitstream},
	Fields: dsoFields(func(o *DSpaceObject) *DSpaceObject { return o }),
	Finish: dsoFinish(func(o *DSpaceObject) *DSpaceObject { return o }),
}
