package data_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-remotedata/pkg/builder"
	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/data"
	"github.com/illmade-knight/go-remotedata/pkg/dspacetest"
	"github.com/illmade-knight/go-remotedata/pkg/model"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

func setup(t *testing.T) (*dspacetest.Server, *data.Services, *builder.Builder) {
	t.Helper()
	srv := dspacetest.NewServer(t)
	responses := cache.NewResponseCache(cache.NewInMemoryCache[string, cache.ResponseEntry](), zerolog.Nop())
	objects := cache.NewObjectCache(
		cache.NewInMemoryCache[string, cache.ObjectEntry](),
		cache.NewInMemoryCache[string, string](),
		zerolog.Nop(),
	)
	transport := rest.NewHTTPTransportWithClient(srv.Client(), zerolog.Nop())
	requests := request.NewService(&request.Config{DefaultTTL: time.Minute}, transport, responses, objects, zerolog.Nop())
	b := builder.New(requests, responses, objects, zerolog.Nop())
	return srv, data.NewServices(srv.RootURL(), b, zerolog.Nop()), b
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEndpointService(t *testing.T) {
	t.Run("Concurrent lookups share one root request", func(t *testing.T) {
		// Arrange
		ctx := testContext(t)
		srv, services, _ := setup(t)

		// Act
		var wg sync.WaitGroup
		hrefs := make([]string, 20)
		for i := range hrefs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				hrefs[i], _ = services.Endpoints.GetEndpoint(ctx, "discover/search/objects")
			}()
		}
		wg.Wait()

		// Assert
		for _, href := range hrefs {
			assert.Equal(t, srv.Href("/discover/search/objects"), href)
		}
		assert.Equal(t, 1, srv.Calls(http.MethodGet, ""))
	})

	t.Run("Unknown link", func(t *testing.T) {
		ctx := testContext(t)
		_, services, _ := setup(t)

		_, err := services.Endpoints.GetEndpoint(ctx, "workflowitems")

		assert.ErrorIs(t, err, data.ErrEndpointNotFound)
	})

	t.Run("Root unavailable", func(t *testing.T) {
		ctx := testContext(t)
		srv, services, _ := setup(t)
		srv.FailWith("", http.StatusServiceUnavailable)

		_, err := services.Endpoints.GetEndpointMap(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "503 Service Unavailable")
	})
}

func TestFindListOptions_Query(t *testing.T) {
	opts := data.FindListOptions{
		CurrentPage:     2,
		ElementsPerPage: 5,
		Sort:            &data.SortOptions{Field: "dc.title", Direction: data.Descending},
	}

	q := opts.Query()

	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "5", q.Get("size"))
	assert.Equal(t, "dc.title,DESC", q.Get("sort"))
	assert.Empty(t, data.FindListOptions{}.Query())
}

func TestDataService_Find(t *testing.T) {
	t.Run("FindByID", func(t *testing.T) {
		// Arrange
		ctx := testContext(t)
		srv, services, _ := setup(t)

		// Act
		rd := services.Items.FindByID(ctx, dspacetest.ItemID)

		// Assert
		require.True(t, rd.HasSucceeded(), rd.ErrorMessage)
		assert.Equal(t, "Test item", rd.Payload.Name)
		assert.True(t, rd.Payload.InArchive)
		assert.Equal(t, 2024, rd.Payload.LastModified.Year())
		assert.Equal(t, srv.Href("/core/items/"+dspacetest.ItemID), rd.Payload.Self)
	})

	t.Run("FindByID not found", func(t *testing.T) {
		ctx := testContext(t)
		_, services, _ := setup(t)

		rd := services.Items.FindByID(ctx, "missing")

		require.True(t, rd.HasFailed())
		assert.Equal(t, http.StatusNotFound, rd.StatusCode)
	})

	t.Run("FindAll with pagination", func(t *testing.T) {
		// Arrange
		ctx := testContext(t)
		srv, services, _ := setup(t)

		// Act
		rd := services.Communities.FindAll(ctx, data.FindListOptions{CurrentPage: 1, ElementsPerPage: 20})
		again := services.Communities.FindAll(ctx, data.FindListOptions{CurrentPage: 1, ElementsPerPage: 20})

		// Assert
		require.True(t, rd.HasSucceeded(), rd.ErrorMessage)
		assert.Len(t, rd.Payload.Page, 2)
		assert.Equal(t, 2, rd.Payload.PageInfo.TotalElements)
		assert.Equal(t, rd.Payload, again.Payload)
		assert.Equal(t, 1, srv.Calls(http.MethodGet, "/core/communities"))
	})

	t.Run("Listed objects need no further requests", func(t *testing.T) {
		ctx := testContext(t)
		srv, services, _ := setup(t)
		require.True(t, services.Communities.FindTop(ctx, data.FindListOptions{}).HasSucceeded())

		rd := services.Communities.FindByID(ctx, dspacetest.TopCommunityID)

		require.True(t, rd.HasSucceeded())
		assert.Equal(t, 0, srv.Calls(http.MethodGet, "/core/communities/"+dspacetest.TopCommunityID))
	})
}

func TestCommunityService_Relations(t *testing.T) {
	// Arrange
	ctx := testContext(t)
	_, services, _ := setup(t)
	top := services.Communities.FindTop(ctx, data.FindListOptions{CurrentPage: 1, ElementsPerPage: 10})
	require.True(t, top.HasSucceeded(), top.ErrorMessage)
	require.Len(t, top.Payload.Page, 1)
	community := top.Payload.Page[0]

	// Act
	subs := services.Communities.Subcommunities(ctx, community)
	cols := services.Communities.Collections(ctx, community)
	logo := services.Communities.Logo(ctx, community)

	// Assert
	require.True(t, subs.HasSucceeded(), subs.ErrorMessage)
	require.Len(t, subs.Payload.Page, 1)
	assert.Equal(t, "Theses", subs.Payload.Page[0].Name)
	assert.True(t, community.Subcommunities.IsResolved())

	require.True(t, cols.HasSucceeded(), cols.ErrorMessage)
	require.Len(t, cols.Payload.Page, 1)
	assert.Equal(t, "Articles", cols.Payload.Page[0].Name)

	assert.True(t, logo.HasFailed())
	assert.False(t, community.Logo.IsResolved())
}

func TestItemService_OwningCollection(t *testing.T) {
	// Arrange
	ctx := testContext(t)
	_, services, _ := setup(t)
	item := services.Items.FindByID(ctx, dspacetest.ItemID)
	require.True(t, item.HasSucceeded())

	// Act
	owner := services.Items.OwningCollection(ctx, item.Payload)
	parent := services.Collections.ParentCommunity(ctx, owner.Payload)

	// Assert
	require.True(t, owner.HasSucceeded(), owner.ErrorMessage)
	assert.Equal(t, dspacetest.CollectionID, owner.Payload.UUID)
	require.True(t, parent.HasSucceeded(), parent.ErrorMessage)
	assert.Equal(t, dspacetest.TopCommunityID, parent.Payload.UUID)
}

func TestDataService_Mutations(t *testing.T) {
	t.Run("Delete evicts the cached object", func(t *testing.T) {
		// Arrange
		ctx := testContext(t)
		srv, services, b := setup(t)
		require.True(t, services.Items.FindByID(ctx, dspacetest.ItemID).HasSucceeded())
		itemHref := srv.Href("/core/items/" + dspacetest.ItemID)

		// Act
		rd := services.Items.Delete(ctx, dspacetest.ItemID)

		// Assert
		require.True(t, rd.HasSucceeded(), rd.ErrorMessage)
		assert.True(t, rd.Payload)
		assert.Equal(t, 1, srv.Calls(http.MethodDelete, "/core/items/"+dspacetest.ItemID))
		assert.False(t, b.Objects().Has(ctx, itemHref))
	})

	t.Run("Delete refetches cached lists of the endpoint", func(t *testing.T) {
		// Arrange
		ctx := testContext(t)
		srv, services, _ := setup(t)
		opts := data.FindListOptions{CurrentPage: 1, ElementsPerPage: 20}
		require.True(t, services.Communities.FindAll(ctx, opts).HasSucceeded())

		// Act
		deleted := services.Communities.Delete(ctx, dspacetest.SubCommunityID)
		srv.FailWith("/core/communities/"+dspacetest.SubCommunityID, http.StatusNotFound)
		rd := services.Communities.FindAll(ctx, opts)

		// Assert
		require.True(t, deleted.HasSucceeded(), deleted.ErrorMessage)
		require.True(t, rd.HasSucceeded(), rd.ErrorMessage)
		assert.Equal(t, 2, srv.Calls(http.MethodGet, "/core/communities"))
	})

	t.Run("Update sends the metadata diff and refetches", func(t *testing.T) {
		// Arrange
		ctx := testContext(t)
		srv, services, _ := setup(t)
		before := services.Items.FindByID(ctx, dspacetest.ItemID)
		require.True(t, before.HasSucceeded())
		after := before.Payload.DSpaceObject
		after.Metadata = model.MetadataMap{"dc.title": {{Value: "Renamed", Confidence: -1}}}

		// Act
		rd := services.Items.Update(ctx, &before.Payload.DSpaceObject, &after)
		refetched := services.Items.FindByID(ctx, dspacetest.ItemID)

		// Assert
		require.True(t, rd.HasSucceeded(), rd.ErrorMessage)
		assert.True(t, rd.Payload)
		var ops []model.Operation
		require.NoError(t, json.Unmarshal(srv.LastBody(http.MethodPatch, "/core/items/"+dspacetest.ItemID), &ops))
		require.Len(t, ops, 1)
		assert.Equal(t, "/metadata/dc.title/0/value", ops[0].Path)
		require.True(t, refetched.HasSucceeded())
		assert.Equal(t, 2, srv.Calls(http.MethodGet, "/core/items/"+dspacetest.ItemID))
	})

	t.Run("Update without changes sends nothing", func(t *testing.T) {
		ctx := testContext(t)
		srv, services, _ := setup(t)
		item := services.Items.FindByID(ctx, dspacetest.ItemID)
		require.True(t, item.HasSucceeded())

		rd := services.Items.Update(ctx, &item.Payload.DSpaceObject, &item.Payload.DSpaceObject)

		require.True(t, rd.HasSucceeded())
		assert.False(t, rd.Payload)
		assert.Equal(t, 0, srv.Calls(http.MethodPatch, "/core/items/"+dspacetest.ItemID))
	})

	t.Run("Failed patch", func(t *testing.T) {
		ctx := testContext(t)
		srv, services, _ := setup(t)
		srv.FailWith("/core/items/"+dspacetest.ItemID, http.StatusForbidden)

		rd := services.Items.Patch(ctx, srv.Href("/core/items/"+dspacetest.ItemID), []model.Operation{{Op: "remove", Path: "/metadata/dc.title"}})

		require.True(t, rd.HasFailed())
		assert.Equal(t, http.StatusForbidden, rd.StatusCode)
	})

	t.Run("Endpoint failure", func(t *testing.T) {
		ctx := testContext(t)
		srv, services, _ := setup(t)
		srv.FailWith("", http.StatusInternalServerError)

		rd := services.Items.Delete(ctx, dspacetest.ItemID)

		require.True(t, rd.HasFailed())
		assert.Contains(t, rd.ErrorMessage, "500 Internal Server Error")
	})
}
