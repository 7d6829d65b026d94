// Package search runs discovery queries and facet lookups against the REST API.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/builder"
	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/data"
	"github.com/illmade-knight/go-remotedata/pkg/model"
	"github.com/illmade-knight/go-remotedata/pkg/parsing"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

const (
	searchLinkPath           = "discover/search/objects"
	facetValueLinkPathPrefix = "discover/facets/"
	facetConfigLinkPath      = "discover/facets"
)

// topScopeLimit is the page size used when listing every top-level community.
const topScopeLimit = 9999

// Service runs searches. It holds no cache state of its own.
type Service struct {
	b           *builder.Builder
	endpoints   *data.EndpointService
	communities *data.CommunityService
	collections *data.CollectionService
	logger      zerolog.Logger
}

// NewService creates a search service.
func NewService(b *builder.Builder, services *data.Services, logger zerolog.Logger) *Service {
	return &Service{
		b:           b,
		endpoints:   services.Endpoints,
		communities: services.Communities,
		collections: services.Collections,
		logger:      logger.With().Str("component", "SearchService").Logger(),
	}
}

func (s *Service) configure(ctx context.Context, href string, parser request.Parser) *request.Entry {
	requests := s.b.Requests()
	return requests.Configure(ctx, request.NewGetRequest(requests.GenerateRequestID(), href, parser))
}

// Search returns one page of results. Each result's object is resolved through
// the object cache, so it converges with direct lookups of the same object.
func (s *Service) Search(ctx context.Context, opts Options) remotedata.RemoteData[remotedata.PaginatedList[model.SearchResult]] {
	endpoint, err := s.endpoints.GetEndpoint(ctx, searchLinkPath)
	if err != nil {
		return remotedata.Failed[remotedata.PaginatedList[model.SearchResult]](err.Error(), 0)
	}
	href, err := opts.ToRestURL(endpoint, nil)
	if err != nil {
		return remotedata.Failed[remotedata.PaginatedList[model.SearchResult]](err.Error(), 0)
	}

	e := s.configure(ctx, href, parsing.SearchParser{})
	return builder.ToRemoteData(ctx, s.b, e, s.searchPayload)
}

func (s *Service) searchPayload(ctx context.Context, entry cache.ResponseEntry) (remotedata.PaginatedList[model.SearchResult], error) {
	hits, err := builder.JSONPayload[[]parsing.SearchHit]()(ctx, entry)
	if err != nil {
		return remotedata.PaginatedList[model.SearchResult]{}, err
	}
	selfs := make([]string, len(hits))
	for i, h := range hits {
		selfs[i] = h.Self
	}

	objects := builder.AggregateSingles(ctx, s.b, selfs, model.DSpaceObjectSchema)
	if !objects.HasSucceeded() {
		return remotedata.PaginatedList[model.SearchResult]{}, fmt.Errorf("failed to resolve search results: %s", objects.ErrorMessage)
	}

	results := make([]model.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = model.SearchResult{HitHighlights: h.HitHighlights, Object: objects.Payload[i]}
	}
	info := remotedata.PageInfo{ElementsPerPage: len(results), TotalElements: len(results), TotalPages: 1, CurrentPage: 1}
	if entry.Response.PageInfo != nil {
		info = *entry.Response.PageInfo
	}
	return remotedata.NewPaginatedList(info, results)
}

// GetConfig returns the facets available in scope, or everywhere when scope is
// empty.
func (s *Service) GetConfig(ctx context.Context, scope string) remotedata.RemoteData[[]model.SearchFilterConfig] {
	endpoint, err := s.endpoints.GetEndpoint(ctx, facetConfigLinkPath)
	if err != nil {
		return remotedata.Failed[[]model.SearchFilterConfig](err.Error(), 0)
	}
	args := url.Values{}
	if scope != "" {
		args.Set("scope", scope)
	}
	href, err := rest.WithQuery(endpoint, args)
	if err != nil {
		return remotedata.Failed[[]model.SearchFilterConfig](err.Error(), 0)
	}

	e := s.configure(ctx, href, parsing.FacetConfigParser{})
	return builder.ToRemoteData(ctx, s.b, e, builder.JSONPayload[[]model.SearchFilterConfig]())
}

// GetFacetValuesFor returns page valuePage (1-based) of the values of a facet,
// narrowed by opts and, if prefix is not empty, by a value prefix.
func (s *Service) GetFacetValuesFor(
	ctx context.Context,
	filter model.SearchFilterConfig,
	valuePage int,
	opts *Options,
	prefix string,
) remotedata.RemoteData[remotedata.PaginatedList[model.FacetValue]] {
	type result = remotedata.PaginatedList[model.FacetValue]

	endpoint, err := s.endpoints.GetEndpoint(ctx, facetValueLinkPathPrefix+filter.Name)
	if err != nil {
		return remotedata.Failed[result](err.Error(), 0)
	}
	args := url.Values{}
	if opts != nil {
		args = opts.queryArgs(false)
	}
	args.Set("page", strconv.Itoa(valuePage-1))
	args.Set("size", strconv.Itoa(filter.PageSize))
	if prefix != "" {
		args.Set("prefix", prefix)
	}
	href, err := rest.WithQuery(endpoint, args)
	if err != nil {
		return remotedata.Failed[result](err.Error(), 0)
	}

	e := s.configure(ctx, href, parsing.FacetValueParser{})
	return builder.ToRemoteData(ctx, s.b, e, func(ctx context.Context, entry cache.ResponseEntry) (result, error) {
		values, err := builder.JSONPayload[[]model.FacetValue]()(ctx, entry)
		if err != nil {
			return result{}, err
		}
		info := remotedata.PageInfo{ElementsPerPage: filter.PageSize, TotalElements: len(values), TotalPages: 1, CurrentPage: valuePage}
		if entry.Response.PageInfo != nil {
			info = *entry.Response.PageInfo
		}
		return remotedata.NewPaginatedList(info, values)
	})
}

// GetScopes lists what a search can be scoped to under scopeID: every top-level
// community when scopeID is empty, a community with its direct children, or a
// single collection.
func (s *Service) GetScopes(ctx context.Context, scopeID string) remotedata.RemoteData[[]*model.DSpaceObject] {
	type result = []*model.DSpaceObject

	if scopeID == "" {
		top := s.communities.FindTop(ctx, data.FindListOptions{ElementsPerPage: topScopeLimit})
		return remotedata.MapPayload(top, func(l remotedata.PaginatedList[*model.Community]) result {
			out := make(result, 0, len(l.Page))
			for _, c := range l.Page {
				out = append(out, &c.DSpaceObject)
			}
			return out
		})
	}

	communityRD := s.communities.FindByID(ctx, scopeID)
	if communityRD.HasSucceeded() && communityRD.Payload != nil {
		community := communityRD.Payload
		subs := s.communities.Subcommunities(ctx, community)
		if !subs.HasSucceeded() {
			return remotedata.Retype[result](subs)
		}
		cols := s.communities.Collections(ctx, community)
		if !cols.HasSucceeded() {
			return remotedata.Retype[result](cols)
		}
		out := result{&community.DSpaceObject}
		for _, c := range subs.Payload.Page {
			out = append(out, &c.DSpaceObject)
		}
		for _, c := range cols.Payload.Page {
			out = append(out, &c.DSpaceObject)
		}
		return remotedata.Succeeded(out, 200)
	}

	collectionRD := s.collections.FindByID(ctx, scopeID)
	return remotedata.MapPayload(collectionRD, func(c *model.Collection) result {
		if c == nil {
			return result{}
		}
		return result{&c.DSpaceObject}
	})
}

// GetFilterLabels returns the active filter values in params for every facet the
// API offers.
func (s *Service) GetFilterLabels(ctx context.Context, params url.Values) remotedata.RemoteData[[]model.FilterLabel] {
	configs := s.GetConfig(ctx, "")
	return remotedata.MapPayload(configs, func(cs []model.SearchFilterConfig) []model.FilterLabel {
		var labels []model.FilterLabel
		for _, c := range cs {
			for _, v := range params[c.ParamName()] {
				if v == "" {
					continue
				}
				labels = append(labels, model.FilterLabel{Value: v, Field: c.ParamName()})
			}
		}
		return labels
	})
}
