package hal

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Field maps one wire key of a HAL document onto a destination value.
type Field[T any] struct {
	WireKey string
	Decode  func(dst *T, raw json.RawMessage) error
}

// RelationField receives the href of a named link so the destination can hold an
// unresolved relation.
type RelationField[T any] struct {
	Name string
	Set  func(dst *T, link Link)
}

// Schema is an explicit descriptor of how a resource type is decoded.
type Schema[T any] struct {
	// Types lists the HAL types this schema accepts. Empty accepts any type.
	Types     []string
	Fields    []Field[T]
	Relations []RelationField[T]
	// Finish, if set, runs after all fields are decoded.
	Finish func(dst *T, r Resource)
}

// Accepts reports whether a resource of the given type can be decoded.
func (s Schema[T]) Accepts(resourceType string) bool {
	return len(s.Types) == 0 || slices.Contains(s.Types, resourceType)
}

// Decode builds a T from a normalized resource.
func (s Schema[T]) Decode(r Resource) (*T, error) {
	if !s.Accepts(r.Type) {
		return nil, fmt.Errorf("resource %s has type %q, expected one of %v", r.Self, r.Type, s.Types)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(r.Document, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document for %s: %w", r.Self, err)
	}

	dst := new(T)
	for _, f := range s.Fields {
		raw, ok := doc[f.WireKey]
		if !ok || string(raw) == "null" {
			continue
		}
		if err := f.Decode(dst, raw); err != nil {
			return nil, fmt.Errorf("field %q of %s: %w", f.WireKey, r.Self, err)
		}
	}
	for _, rel := range s.Relations {
		if l, ok := r.Links[rel.Name]; ok {
			rel.Set(dst, l)
		}
	}
	if s.Finish != nil {
		s.Finish(dst, r)
	}
	return dst, nil
}

// JSONField decodes the wire value straight into the field returned by get.
func JSONField[T, V any](wireKey string, get func(*T) *V) Field[T] {
	return Field[T]{
		WireKey: wireKey,
		Decode: func(dst *T, raw json.RawMessage) error {
			return json.Unmarshal(raw, get(dst))
		},
	}
}

// TransformField decodes the wire value as W and stores transform(w).
func TransformField[T, W, V any](wireKey string, get func(*T) *V, transform func(W) (V, error)) Field[T] {
	return Field[T]{
		WireKey: wireKey,
		Decode: func(dst *T, raw json.RawMessage) error {
			var w W
			if err := json.Unmarshal(raw, &w); err != nil {
				return err
			}
			v, err := transform(w)
			if err != nil {
				return err
			}
			*get(dst) = v
			return nil
		},
	}
}

// StringField is JSONField for strings.
func StringField[T any](wireKey string, get func(*T) *string) Field[T] {
	return JSONField[T, string](wireKey, get)
}

// IntField is JSONField for ints.
func IntField[T any](wireKey string, get func(*T) *int) Field[T] {
	return JSONField[T, int](wireKey, get)
}

// BoolField is JSONField for bools.
func BoolField[T any](wireKey string, get func(*T) *bool) Field[T] {
	return JSONField[T, bool](wireKey, get)
}

// Relation declares a link-backed relation.
func Relation[T any](name string, set func(*T, Link)) RelationField[T] {
	return RelationField[T]{Name: name, Set: set}
}
