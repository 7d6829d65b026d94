package model

import (
	"context"

	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
)

// Resolver fetches the value a relation points at.
type Resolver[X any] interface {
	Resolve(ctx context.Context, href string) remotedata.RemoteData[X]
}

// Relation is a lazily resolved HAL link. It is Unresolved while only Href is
// known and Resolved once Resolve has produced a terminal value.
type Relation[X any] struct {
	Href     string                   `json:"href"`
	Resolved *remotedata.RemoteData[X] `json:"resolved,omitempty"`
}

// Unresolved returns a relation that only knows its link.
func Unresolved[X any](href string) Relation[X] {
	return Relation[X]{Href: href}
}

// IsResolved reports whether Resolve has stored a terminal value.
func (r *Relation[X]) IsResolved() bool {
	return r.Resolved != nil
}

// IsEmpty reports whether the object carried no link for this relation.
func (r *Relation[X]) IsEmpty() bool {
	return r.Href == ""
}

// Resolve fetches the relation through res. A successful result is kept so
// later calls do not fetch again; failures are returned but not kept.
func (r *Relation[X]) Resolve(ctx context.Context, res Resolver[X]) remotedata.RemoteData[X] {
	if r.Resolved != nil {
		return *r.Resolved
	}
	if r.Href == "" {
		return remotedata.Failed[X]("relation has no link", 0)
	}
	rd := res.Resolve(ctx, r.Href)
	if rd.HasSucceeded() {
		r.Resolved = &rd
	}
	return rd
}
