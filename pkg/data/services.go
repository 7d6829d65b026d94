package data

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/builder"
	"github.com/illmade-knight/go-remotedata/pkg/model"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// CommunityService finds communities and resolves their relations.
type CommunityService struct {
	*DataService[model.Community]
	collections *DataService[model.Collection]
	bitstreams  *DataService[model.Bitstream]
}

// FindTop returns the communities that have no parent.
func (s *CommunityService) FindTop(ctx context.Context, opts FindListOptions) remotedata.RemoteData[remotedata.PaginatedList[*model.Community]] {
	endpoint, err := s.GetEndpoint(ctx)
	if err != nil {
		return remotedata.Failed[remotedata.PaginatedList[*model.Community]](err.Error(), 0)
	}
	return s.FindListByHref(ctx, rest.CombineURL(endpoint, "search/top"), opts)
}

// Subcommunities resolves the direct child communities of c.
func (s *CommunityService) Subcommunities(ctx context.Context, c *model.Community) remotedata.RemoteData[remotedata.PaginatedList[*model.Community]] {
	return c.Subcommunities.Resolve(ctx, s.ListResolver())
}

// Collections resolves the direct child collections of c.
func (s *CommunityService) Collections(ctx context.Context, c *model.Community) remotedata.RemoteData[remotedata.PaginatedList[*model.Collection]] {
	return c.Collections.Resolve(ctx, s.collections.ListResolver())
}

// Logo resolves the logo of c.
func (s *CommunityService) Logo(ctx context.Context, c *model.Community) remotedata.RemoteData[*model.Bitstream] {
	return c.Logo.Resolve(ctx, s.bitstreams)
}

// CollectionService finds collections and resolves their relations.
type CollectionService struct {
	*DataService[model.Collection]
	communities *DataService[model.Community]
	bitstreams  *DataService[model.Bitstream]
}

// ParentCommunity resolves the community that owns c.
func (s *CollectionService) ParentCommunity(ctx context.Context, c *model.Collection) remotedata.RemoteData[*model.Community] {
	return c.ParentCommunity.Resolve(ctx, s.communities)
}

// Logo resolves the logo of c.
func (s *CollectionService) Logo(ctx context.Context, c *model.Collection) remotedata.RemoteData[*model.Bitstream] {
	return c.Logo.Resolve(ctx, s.bitstreams)
}

// ItemService finds items and resolves their relations.
type ItemService struct {
	*DataService[model.Item]
	collections *DataService[model.Collection]
	bitstreams  *DataService[model.Bitstream]
}

// OwningCollection resolves the collection that owns i.
func (s *ItemService) OwningCollection(ctx context.Context, i *model.Item) remotedata.RemoteData[*model.Collection] {
	return i.OwningCollection.Resolve(ctx, s.collections)
}

// Thumbnail resolves the thumbnail of i.
func (s *ItemService) Thumbnail(ctx context.Context, i *model.Item) remotedata.RemoteData[*model.Bitstream] {
	return i.Thumbnail.Resolve(ctx, s.bitstreams)
}

// Services bundles the domain services over one builder.
type Services struct {
	Endpoints   *EndpointService
	Communities *CommunityService
	Collections *CollectionService
	Items       *ItemService
	Bitstreams  *DataService[model.Bitstream]
}

// NewServices wires every domain service for the API rooted at rootHref.
func NewServices(rootHref string, b *builder.Builder, logger zerolog.Logger) *Services {
	endpoints := NewEndpointService(rootHref, b, logger)
	communities := NewDataService("communities", model.CommunitySchema, b, endpoints, logger)
	collections := NewDataService("collections", model.CollectionSchema, b, endpoints, logger)
	items := NewDataService("items", model.ItemSchema, b, endpoints, logger)
	bitstreams := NewDataService("bitstreams", model.BitstreamSchema, b, endpoints, logger)

	return &Services{
		Endpoints:   endpoints,
		Communities: &CommunityService{DataService: communities, collections: collections, bitstreams: bitstreams},
		Collections: &CollectionService{DataService: collections, communities: communities, bitstreams: bitstreams},
		Items:       &ItemService{DataService: items, collections: collections, bitstreams: bitstreams},
		Bitstreams:  bitstreams,
	}
}
