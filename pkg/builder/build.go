package builder

import (
	"context"
	"fmt"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/parsing"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
	"github.com/illmade-knight/go-remotedata/pkg/request"
)

// BuildSingle returns the object at href. A fresh copy in the object cache is
// used without a request; otherwise the href is fetched through the request
// service.
func BuildSingle[T any](ctx context.Context, b *Builder, href string, schema hal.Schema[T]) remotedata.RemoteData[*T] {
	if entry, ok := b.objects.GetByHref(ctx, href); ok && !entry.IsStale(b.now()) {
		obj, err := schema.Decode(entry.Resource)
		if err != nil {
			return remotedata.Failed[*T](err.Error(), 0)
		}
		return remotedata.Succeeded(obj, 200)
	}

	// The object at href is not cached under that link. If an earlier read of
	// href settled but the object it pointed at has since been evicted, the
	// response must go too or Configure would treat it as fresh.
	if e, ok := b.requests.GetByHref(href); ok {
		select {
		case <-e.Done():
			b.dropOrphanedResponse(ctx, href)
		default:
		}
	}

	e := b.requests.Configure(ctx, request.NewGetRequest(b.requests.GenerateRequestID(), href, parsing.DSOParser{}))
	return ToRemoteData(ctx, b, e, singlePayload(b, schema))
}

func (b *Builder) dropOrphanedResponse(ctx context.Context, href string) {
	re, ok := b.responses.Get(ctx, href)
	if !ok || len(re.Response.ResourceSelfLinks) == 0 {
		return
	}
	if _, ok := b.objects.GetByHref(ctx, re.Response.ResourceSelfLinks[0]); ok {
		return
	}
	if err := b.responses.Remove(ctx, href); err != nil {
		b.logger.Error().Err(err).Str("href", href).Msg("Failed to evict response of an evicted object.")
	}
}

func singlePayload[T any](b *Builder, schema hal.Schema[T]) PayloadFunc[*T] {
	return func(ctx context.Context, entry cache.ResponseEntry) (*T, error) {
		links := entry.Response.ResourceSelfLinks
		if len(links) == 0 {
			return nil, nil
		}
		obj, ok := b.objects.GetByHref(ctx, links[0])
		if !ok {
			return nil, fmt.Errorf("object %s is missing from the object cache", links[0])
		}
		return schema.Decode(obj.Resource)
	}
}

// BuildList returns the page of objects at href. Each member is resolved like
// BuildSingle, so members evicted from the object cache are fetched again.
func BuildList[T any](ctx context.Context, b *Builder, href string, schema hal.Schema[T]) remotedata.RemoteData[remotedata.PaginatedList[*T]] {
	e := b.requests.Configure(ctx, request.NewGetRequest(b.requests.GenerateRequestID(), href, parsing.DSOParser{}))
	return ToRemoteData(ctx, b, e, ListPayload(b, schema))
}

// ListPayload resolves the self links of a list response into a paginated list.
func ListPayload[T any](b *Builder, schema hal.Schema[T]) PayloadFunc[remotedata.PaginatedList[*T]] {
	return func(ctx context.Context, entry cache.ResponseEntry) (remotedata.PaginatedList[*T], error) {
		links := entry.Response.ResourceSelfLinks
		members := AggregateSingles(ctx, b, links, schema)
		if !members.HasSucceeded() {
			return remotedata.PaginatedList[*T]{}, fmt.Errorf("failed to resolve list members of %s: %s", entry.Href, members.ErrorMessage)
		}
		info := remotedata.PageInfo{
			ElementsPerPage: len(links),
			TotalElements:   len(links),
			TotalPages:      1,
			CurrentPage:     1,
		}
		if entry.Response.PageInfo != nil {
			info = *entry.Response.PageInfo
		}
		return remotedata.NewPaginatedList(info, members.Payload)
	}
}

// AggregateSingles builds every href concurrently and joins the results. The
// first failure is returned without waiting for the rest.
func AggregateSingles[T any](ctx context.Context, b *Builder, hrefs []string, schema hal.Schema[T]) remotedata.RemoteData[[]*T] {
	sources := make([]remotedata.Source[*T], len(hrefs))
	for i, href := range hrefs {
		sources[i] = func(ctx context.Context) remotedata.RemoteData[*T] {
			return BuildSingle(ctx, b, href, schema)
		}
	}
	return remotedata.Aggregate(ctx, sources)
}
