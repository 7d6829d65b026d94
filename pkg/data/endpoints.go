// Package data holds the stateless domain services that translate repository
// queries into cached RemoteData values.
package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/illmade-knight/go-remotedata/pkg/builder"
	"github.com/illmade-knight/go-remotedata/pkg/parsing"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// ErrEndpointNotFound is returned when the API root does not advertise a link.
var ErrEndpointNotFound = errors.New("endpoint not advertised by the API root")

// EndpointService resolves endpoint URLs from the _links of the API root.
type EndpointService struct {
	rootHref string
	b        *builder.Builder
	sf       singleflight.Group
	logger   zerolog.Logger
}

// NewEndpointService creates an endpoint service for the API rooted at rootHref.
func NewEndpointService(rootHref string, b *builder.Builder, logger zerolog.Logger) *EndpointService {
	return &EndpointService{
		rootHref: rootHref,
		b:        b,
		logger:   logger.With().Str("component", "EndpointService").Logger(),
	}
}

// GetEndpointMap returns every link of the API root. Concurrent callers share
// one lookup; the root document itself is cached like any other response.
func (s *EndpointService) GetEndpointMap(ctx context.Context) (map[string]string, error) {
	v, err, _ := s.sf.Do(s.rootHref, func() (any, error) {
		requests := s.b.Requests()
		e := requests.Configure(ctx, request.NewGetRequest(requests.GenerateRequestID(), s.rootHref, parsing.EndpointMapParser{}))
		rd := builder.ToRemoteData(ctx, s.b, e, builder.JSONPayload[map[string]string]())
		if !rd.HasSucceeded() {
			if rd.HasFailed() {
				return nil, fmt.Errorf("failed to load API root %s: %s", s.rootHref, rd.ErrorMessage)
			}
			return nil, fmt.Errorf("API root %s did not load: %w", s.rootHref, ctx.Err())
		}
		return rd.Payload, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Endpoint map unavailable.")
		return nil, err
	}
	return v.(map[string]string), nil
}

// GetEndpoint resolves a path such as "discover/search/objects": the first
// segment names a root link and the rest is appended to it.
func (s *EndpointService) GetEndpoint(ctx context.Context, linkPath string) (string, error) {
	endpoints, err := s.GetEndpointMap(ctx)
	if err != nil {
		return "", err
	}
	name, remainder, _ := strings.Cut(strings.Trim(linkPath, "/"), "/")
	href, ok := endpoints[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrEndpointNotFound)
	}
	return rest.CombineURL(href, remainder), nil
}
