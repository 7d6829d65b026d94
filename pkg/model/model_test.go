package model_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/model"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
)

const communityDoc = `{
  "id": "7669c72a-3f2a-451f-a3b9-9210e7a4c02f",
  "uuid": "7669c72a-3f2a-451f-a3b9-9210e7a4c02f",
  "name": "Publications",
  "handle": "10673/1",
  "type": "community",
  "metadata": {
    "dc.description": [{"value": "<p>Intro</p>", "language": null, "authority": null, "confidence": -1, "place": 0}],
    "dc.description.abstract": [{"value": "Short", "confidence": -1, "place": 0}],
    "dc.title": [{"value": "Publications", "confidence": -1, "place": 0}]
  },
  "_links": {
    "self": {"href": "https://rest.api/core/communities/7669c72a-3f2a-451f-a3b9-9210e7a4c02f"},
    "logo": {"href": "https://rest.api/core/communities/7669c72a-3f2a-451f-a3b9-9210e7a4c02f/logo"},
    "collections": {"href": "https://rest.api/core/communities/7669c72a-3f2a-451f-a3b9-9210e7a4c02f/collections"},
    "subcommunities": {"href": "https://rest.api/core/communities/7669c72a-3f2a-451f-a3b9-9210e7a4c02f/subcommunities"}
  }
}`

func decodeCommunity(t *testing.T) *model.Community {
	t.Helper()
	r, err := hal.ParseResource(json.RawMessage(communityDoc))
	require.NoError(t, err)
	c, err := model.CommunitySchema.Decode(r)
	require.NoError(t, err)
	return c
}

func TestCommunitySchema(t *testing.T) {
	// Act
	c := decodeCommunity(t)

	// Assert
	assert.Equal(t, "7669c72a-3f2a-451f-a3b9-9210e7a4c02f", c.UUID)
	assert.Equal(t, "10673/1", c.Handle)
	assert.Equal(t, model.TypeCommunity, c.Type)
	assert.Equal(t, "https://rest.api/core/communities/7669c72a-3f2a-451f-a3b9-9210e7a4c02f", c.Self)
	assert.Equal(t, "<p>Intro</p>", c.IntroductoryText())
	assert.Equal(t, "Short", c.ShortDescription())
	assert.Empty(t, c.CopyrightText())
	assert.False(t, c.Logo.IsResolved())
	assert.Equal(t, "https://rest.api/core/communities/7669c72a-3f2a-451f-a3b9-9210e7a4c02f/subcommunities", c.Subcommunities.Href)
}

func TestItemSchema_RejectsOtherTypes(t *testing.T) {
	r, err := hal.ParseResource(json.RawMessage(communityDoc))
	require.NoError(t, err)

	_, err = model.ItemSchema.Decode(r)

	assert.Error(t, err)
}

func TestDSpaceObjectSchema_NumericID(t *testing.T) {
	r, err := hal.ParseResource(json.RawMessage(`{"id": 42, "type": "item", "_links": {"self": {"href": "h"}}}`))
	require.NoError(t, err)

	o, err := model.DSpaceObjectSchema.Decode(r)

	require.NoError(t, err)
	assert.Equal(t, "42", o.ID)
	assert.NotNil(t, o.Metadata)
}

func TestSearchFilterConfig_ParamName(t *testing.T) {
	assert.Equal(t, "f.author", model.SearchFilterConfig{Name: "author"}.ParamName())
}

type countingResolver struct {
	calls  atomic.Int32
	result remotedata.RemoteData[string]
}

func (r *countingResolver) Resolve(_ context.Context, _ string) remotedata.RemoteData[string] {
	r.calls.Add(1)
	return r.result
}

func TestRelation_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Success is kept", func(t *testing.T) {
		// Arrange
		rel := model.Unresolved[string]("https://rest.api/x")
		res := &countingResolver{result: remotedata.Succeeded("x", 200)}

		// Act
		first := rel.Resolve(ctx, res)
		second := rel.Resolve(ctx, res)

		// Assert
		assert.Equal(t, "x", first.Payload)
		assert.Equal(t, first, second)
		assert.True(t, rel.IsResolved())
		assert.Equal(t, int32(1), res.calls.Load())
	})

	t.Run("Failure is not kept", func(t *testing.T) {
		rel := model.Unresolved[string]("https://rest.api/x")
		res := &countingResolver{result: remotedata.Failed[string]("500", 500)}

		rel.Resolve(ctx, res)
		rel.Resolve(ctx, res)

		assert.False(t, rel.IsResolved())
		assert.Equal(t, int32(2), res.calls.Load())
	})

	t.Run("Empty relation", func(t *testing.T) {
		var rel model.Relation[string]

		rd := rel.Resolve(ctx, &countingResolver{})

		assert.True(t, rel.IsEmpty())
		assert.True(t, rd.HasFailed())
	})
}

func TestDiffMetadata(t *testing.T) {
	before := &model.DSpaceObject{Metadata: model.MetadataMap{
		"dc.title":       {{Value: "Old title"}},
		"dc.contributor": {{Value: "Smith, J."}},
	}}

	t.Run("Replace a value", func(t *testing.T) {
		// Arrange
		after := &model.DSpaceObject{Metadata: model.MetadataMap{
			"dc.title":       {{Value: "New title"}},
			"dc.contributor": {{Value: "Smith, J."}},
		}}

		// Act
		ops, err := model.DiffMetadata(before, after)

		// Assert
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, "replace", ops[0].Op)
		assert.Equal(t, "/metadata/dc.title/0/value", ops[0].Path)
		assert.Equal(t, "New title", ops[0].Value)
	})

	t.Run("Remove a field", func(t *testing.T) {
		after := &model.DSpaceObject{Metadata: model.MetadataMap{
			"dc.title": {{Value: "Old title"}},
		}}

		ops, err := model.DiffMetadata(before, after)

		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, "remove", ops[0].Op)
		assert.Equal(t, "/metadata/dc.contributor", ops[0].Path)
	})

	t.Run("No change", func(t *testing.T) {
		ops, err := model.DiffMetadata(before, before)

		require.NoError(t, err)
		assert.Empty(t, ops)
	})

	t.Run("Nil metadata", func(t *testing.T) {
		ops, err := model.DiffMetadata(&model.DSpaceObject{}, &model.DSpaceObject{})

		require.NoError(t, err)
		assert.Empty(t, ops)
	})
}
