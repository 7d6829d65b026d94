package hal_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-remotedata/pkg/hal"
)

const itemDoc = `{
  "id": "1507ba5e",
  "uuid": "1507ba5e",
  "name": "An item",
  "type": "item",
  "sizeBytes": 42,
  "inArchive": true,
  "_links": {
    "self": {"href": "https://rest.api/core/items/1507ba5e"},
    "owningCollection": {"href": "https://rest.api/core/items/1507ba5e/owningCollection"},
    "bundles": [{"href": "https://rest.api/core/items/1507ba5e/bundles"}, {"href": "ignored"}]
  }
}`

type testItem struct {
	Name      string
	Size      int
	InArchive bool
	Upper     string
	Owner     string
	Self      string
}

var testSchema = hal.Schema[testItem]{
	Types: []string{"item"},
	Fields: []hal.Field[testItem]{
		hal.StringField("name", func(i *testItem) *string { return &i.Name }),
		hal.IntField("sizeBytes", func(i *testItem) *int { return &i.Size }),
		hal.BoolField("inArchive", func(i *testItem) *bool { return &i.InArchive }),
		hal.TransformField("name", func(i *testItem) *string { return &i.Upper }, func(s string) (string, error) {
			return strings.ToUpper(s), nil
		}),
	},
	Relations: []hal.RelationField[testItem]{
		hal.Relation("owningCollection", func(i *testItem, l hal.Link) { i.Owner = l.Href }),
	},
	Finish: func(i *testItem, r hal.Resource) { i.Self = r.Self },
}

func TestParseResource(t *testing.T) {
	t.Run("Normalizes identity and links", func(t *testing.T) {
		// Act
		r, err := hal.ParseResource(json.RawMessage(itemDoc))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "item", r.Type)
		assert.Equal(t, "1507ba5e", r.UUID)
		assert.Equal(t, "https://rest.api/core/items/1507ba5e", r.Self)
		l, ok := r.Link("bundles")
		require.True(t, ok)
		assert.Equal(t, "https://rest.api/core/items/1507ba5e/bundles", l.Href)
	})

	t.Run("Numeric id", func(t *testing.T) {
		r, err := hal.ParseResource(json.RawMessage(`{"id": 12, "type": "x", "_links": {"self": {"href": "h"}}}`))

		require.NoError(t, err)
		assert.Equal(t, "12", r.ID)
	})

	t.Run("Missing self link", func(t *testing.T) {
		_, err := hal.ParseResource(json.RawMessage(`{"type": "item", "_links": {}}`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no self link")
	})

	t.Run("Malformed link", func(t *testing.T) {
		_, err := hal.ParseResource(json.RawMessage(`{"type": "item", "_links": {"self": "nope"}}`))

		assert.Error(t, err)
	})
}

func TestEmbedded(t *testing.T) {
	embedded, err := hal.Embedded(json.RawMessage(`{"_embedded": {"items": [{"a": 1}]}}`))

	require.NoError(t, err)
	assert.JSONEq(t, `[{"a": 1}]`, string(embedded["items"]))
}

func TestSchema_Decode(t *testing.T) {
	r, err := hal.ParseResource(json.RawMessage(itemDoc))
	require.NoError(t, err)

	t.Run("Fields, relations and finish", func(t *testing.T) {
		// Act
		item, err := testSchema.Decode(r)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "An item", item.Name)
		assert.Equal(t, "AN ITEM", item.Upper)
		assert.Equal(t, 42, item.Size)
		assert.True(t, item.InArchive)
		assert.Equal(t, "https://rest.api/core/items/1507ba5e/owningCollection", item.Owner)
		assert.Equal(t, r.Self, item.Self)
	})

	t.Run("Wrong type", func(t *testing.T) {
		other := r
		other.Type = "community"

		_, err := testSchema.Decode(other)

		assert.Error(t, err)
	})

	t.Run("Null and absent fields are skipped", func(t *testing.T) {
		sparse, err := hal.ParseResource(json.RawMessage(`{"type": "item", "name": null, "_links": {"self": {"href": "h"}}}`))
		require.NoError(t, err)

		item, err := testSchema.Decode(sparse)

		require.NoError(t, err)
		assert.Empty(t, item.Name)
		assert.Empty(t, item.Owner)
	})

	t.Run("Transform error is reported with the key", func(t *testing.T) {
		schema := hal.Schema[testItem]{
			Fields: []hal.Field[testItem]{
				hal.TransformField("name", func(i *testItem) *string { return &i.Name }, func(string) (string, error) {
					return "", errors.New("bad name")
				}),
			},
		}

		_, err := schema.Decode(r)

		require.Error(t, err)
		assert.Contains(t, err.Error(), `field "name"`)
	})
}
