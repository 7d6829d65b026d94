package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/builder"
	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/model"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// DataService finds and changes resources of one type.
type DataService[T any] struct {
	linkPath  string
	schema    hal.Schema[T]
	b         *builder.Builder
	endpoints *EndpointService
	logger    zerolog.Logger
}

// NewDataService creates a service for the resources under linkPath.
func NewDataService[T any](
	linkPath string,
	schema hal.Schema[T],
	b *builder.Builder,
	endpoints *EndpointService,
	logger zerolog.Logger,
) *DataService[T] {
	return &DataService[T]{
		linkPath:  linkPath,
		schema:    schema,
		b:         b,
		endpoints: endpoints,
		logger:    logger.With().Str("component", "DataService").Str("link_path", linkPath).Logger(),
	}
}

// GetEndpoint returns the collection URL of this resource type.
func (s *DataService[T]) GetEndpoint(ctx context.Context) (string, error) {
	return s.endpoints.GetEndpoint(ctx, s.linkPath)
}

// FindAll returns one page of all resources.
func (s *DataService[T]) FindAll(ctx context.Context, opts FindListOptions) remotedata.RemoteData[remotedata.PaginatedList[*T]] {
	endpoint, err := s.GetEndpoint(ctx)
	if err != nil {
		return remotedata.Failed[remotedata.PaginatedList[*T]](err.Error(), 0)
	}
	return s.FindListByHref(ctx, endpoint, opts)
}

// FindListByHref returns one page of the list at href.
func (s *DataService[T]) FindListByHref(ctx context.Context, href string, opts FindListOptions) remotedata.RemoteData[remotedata.PaginatedList[*T]] {
	href, err := rest.WithQuery(href, opts.Query())
	if err != nil {
		return remotedata.Failed[remotedata.PaginatedList[*T]](err.Error(), 0)
	}
	return builder.BuildList(ctx, s.b, href, s.schema)
}

// FindByID returns the resource with the given id.
func (s *DataService[T]) FindByID(ctx context.Context, id string) remotedata.RemoteData[*T] {
	href, err := s.hrefFor(ctx, id)
	if err != nil {
		return remotedata.Failed[*T](err.Error(), 0)
	}
	return s.FindByHref(ctx, href)
}

// FindByHref returns the resource at href.
func (s *DataService[T]) FindByHref(ctx context.Context, href string) remotedata.RemoteData[*T] {
	return builder.BuildSingle(ctx, s.b, href, s.schema)
}

// Resolve lets relations to this type be resolved through the service.
func (s *DataService[T]) Resolve(ctx context.Context, href string) remotedata.RemoteData[*T] {
	return s.FindByHref(ctx, href)
}

// ListResolver resolves relations to lists of this type.
func (s *DataService[T]) ListResolver() model.Resolver[remotedata.PaginatedList[*T]] {
	return listResolver[T]{s: s}
}

type listResolver[T any] struct {
	s *DataService[T]
}

func (r listResolver[T]) Resolve(ctx context.Context, href string) remotedata.RemoteData[remotedata.PaginatedList[*T]] {
	return r.s.FindListByHref(ctx, href, FindListOptions{})
}

// Delete removes the resource with the given id. On success the cached
// response and object are evicted, together with every cached request under
// the endpoint so that lists no longer reference the deleted member.
func (s *DataService[T]) Delete(ctx context.Context, id string) remotedata.RemoteData[bool] {
	endpoint, err := s.GetEndpoint(ctx)
	if err != nil {
		return remotedata.Failed[bool](err.Error(), 0)
	}
	requests := s.b.Requests()
	href := rest.CombineURL(endpoint, id)
	e := requests.Configure(ctx, request.NewDeleteRequest(requests.GenerateRequestID(), href))
	rd := builder.ToRemoteData(ctx, s.b, e, acknowledged)
	if rd.HasSucceeded() {
		requests.RemoveByHrefSubstring(ctx, endpoint)
	}
	return rd
}

// Patch sends a JSON patch to href and evicts what was cached for it.
func (s *DataService[T]) Patch(ctx context.Context, href string, ops []model.Operation) remotedata.RemoteData[bool] {
	body, err := json.Marshal(ops)
	if err != nil {
		return remotedata.Failed[bool](fmt.Sprintf("failed to encode patch: %v", err), 0)
	}
	requests := s.b.Requests()
	e := requests.Configure(ctx, request.NewPatchRequest(requests.GenerateRequestID(), href, body))
	return builder.ToRemoteData(ctx, s.b, e, acknowledged)
}

// Update patches the metadata of before so that it matches after. Nothing is
// sent when the metadata is equal.
func (s *DataService[T]) Update(ctx context.Context, before, after *model.DSpaceObject) remotedata.RemoteData[bool] {
	ops, err := model.DiffMetadata(before, after)
	if err != nil {
		return remotedata.Failed[bool](err.Error(), 0)
	}
	if len(ops) == 0 {
		return remotedata.Succeeded(false, 200)
	}
	s.logger.Debug().Str("self", before.Self).Int("operations", len(ops)).Msg("Patching metadata.")
	return s.Patch(ctx, before.Self, ops)
}

func (s *DataService[T]) hrefFor(ctx context.Context, id string) (string, error) {
	endpoint, err := s.GetEndpoint(ctx)
	if err != nil {
		return "", err
	}
	return rest.CombineURL(endpoint, id), nil
}

func acknowledged(_ context.Context, _ cache.ResponseEntry) (bool, error) {
	return true, nil
}
