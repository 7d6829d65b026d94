package objectupdates_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-remotedata/pkg/objectupdates"
)

const itemURL = "https://rest.api/core/items/1507ba5e"

func initialized(t *testing.T) *objectupdates.Service {
	t.Helper()
	s := objectupdates.NewService(zerolog.Nop())
	s.Initialize(itemURL, []objectupdates.Field{
		{UUID: "title", Value: "Test item"},
		{UUID: "author", Value: "Smith, J."},
	}, time.Unix(100, 0))
	return s
}

func TestFieldUpdates(t *testing.T) {
	t.Run("Initial fields carry no change", func(t *testing.T) {
		s := initialized(t)

		updates := s.GetFieldUpdates(itemURL)

		require.Len(t, updates, 2)
		assert.Equal(t, objectupdates.NoChange, updates["title"].ChangeType)
		assert.False(t, s.HasUpdates(itemURL))
	})

	t.Run("Add, change and remove", func(t *testing.T) {
		// Arrange
		s := initialized(t)

		// Act
		s.SaveAddFieldUpdate(itemURL, objectupdates.Field{UUID: "subject", Value: "Physics"})
		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "title", Value: "Renamed"})
		s.SaveRemoveFieldUpdate(itemURL, objectupdates.Field{UUID: "author", Value: "Smith, J."})
		updates := s.GetFieldUpdates(itemURL)

		// Assert
		require.Len(t, updates, 3)
		assert.Equal(t, objectupdates.Add, updates["subject"].ChangeType)
		assert.Equal(t, objectupdates.Update, updates["title"].ChangeType)
		assert.Equal(t, "Renamed", updates["title"].Field.Value)
		assert.Equal(t, objectupdates.Remove, updates["author"].ChangeType)
		assert.True(t, s.HasUpdates(itemURL))
	})

	t.Run("Changing an added field keeps it added", func(t *testing.T) {
		s := initialized(t)
		s.SaveAddFieldUpdate(itemURL, objectupdates.Field{UUID: "subject", Value: "Physics"})

		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "subject", Value: "Chemistry"})

		u := s.GetFieldUpdates(itemURL)["subject"]
		assert.Equal(t, objectupdates.Add, u.ChangeType)
		assert.Equal(t, "Chemistry", u.Field.Value)
	})

	t.Run("Removing an added field drops it", func(t *testing.T) {
		s := initialized(t)
		s.SaveAddFieldUpdate(itemURL, objectupdates.Field{UUID: "subject", Value: "Physics"})

		s.SaveRemoveFieldUpdate(itemURL, objectupdates.Field{UUID: "subject"})

		assert.NotContains(t, s.GetFieldUpdates(itemURL), "subject")
		assert.False(t, s.HasUpdates(itemURL))
	})

	t.Run("Single update removed", func(t *testing.T) {
		s := initialized(t)
		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "title", Value: "Renamed"})

		s.RemoveSingleFieldUpdate(itemURL, "title")

		assert.Equal(t, "Test item", s.GetFieldUpdates(itemURL)["title"].Field.Value)
	})

	t.Run("Unknown url", func(t *testing.T) {
		s := objectupdates.NewService(zerolog.Nop())

		assert.Empty(t, s.GetFieldUpdates("nope"))
		assert.False(t, s.HasUpdates("nope"))
	})
}

func TestInitialize(t *testing.T) {
	t.Run("Older or equal version keeps pending updates", func(t *testing.T) {
		s := initialized(t)
		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "title", Value: "Renamed"})

		s.Initialize(itemURL, []objectupdates.Field{{UUID: "title", Value: "Other"}}, time.Unix(100, 0))

		assert.True(t, s.HasUpdates(itemURL))
		assert.Len(t, s.GetFieldUpdates(itemURL), 2)
	})

	t.Run("Newer version resets", func(t *testing.T) {
		s := initialized(t)
		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "title", Value: "Renamed"})

		s.Initialize(itemURL, []objectupdates.Field{{UUID: "title", Value: "Saved"}}, time.Unix(200, 0))

		updates := s.GetFieldUpdates(itemURL)
		assert.False(t, s.HasUpdates(itemURL))
		require.Len(t, updates, 1)
		assert.Equal(t, "Saved", updates["title"].Field.Value)
	})
}

func TestDiscardAndReinstate(t *testing.T) {
	t.Run("Discarded changes can be reinstated once", func(t *testing.T) {
		// Arrange
		s := initialized(t)
		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "title", Value: "Renamed"})

		// Act
		s.DiscardFieldUpdates(itemURL)
		discarded := s.HasUpdates(itemURL)
		reinstatable := s.IsReinstatable(itemURL)
		ok := s.ReinstateFieldUpdates(itemURL)

		// Assert
		assert.False(t, discarded)
		assert.True(t, reinstatable)
		assert.True(t, ok)
		assert.Equal(t, "Renamed", s.GetFieldUpdates(itemURL)["title"].Field.Value)
		assert.False(t, s.IsReinstatable(itemURL))
		assert.False(t, s.ReinstateFieldUpdates(itemURL))
	})

	t.Run("Reinstated state is independent of later edits", func(t *testing.T) {
		s := initialized(t)
		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "title", Value: "Renamed"})
		s.DiscardFieldUpdates(itemURL)

		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "author", Value: "Doe, A."})
		s.ReinstateFieldUpdates(itemURL)

		updates := s.GetFieldUpdates(itemURL)
		assert.Equal(t, objectupdates.Update, updates["title"].ChangeType)
		assert.Equal(t, objectupdates.NoChange, updates["author"].ChangeType)
	})

	t.Run("Nothing to discard", func(t *testing.T) {
		s := initialized(t)

		s.DiscardFieldUpdates(itemURL)

		assert.False(t, s.IsReinstatable(itemURL))
	})

	t.Run("Discard all by prefix", func(t *testing.T) {
		s := initialized(t)
		other := "https://rest.api/core/collections/282164f5"
		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "title", Value: "Renamed"})
		s.SaveAddFieldUpdate(other, objectupdates.Field{UUID: "name", Value: "Articles"})

		s.DiscardAllFieldUpdates("https://rest.api/core/items/")

		assert.False(t, s.HasUpdates(itemURL))
		assert.True(t, s.HasUpdates(other))
	})

	t.Run("Remove forgets everything", func(t *testing.T) {
		s := initialized(t)
		s.SaveChangeFieldUpdate(itemURL, objectupdates.Field{UUID: "title", Value: "Renamed"})
		s.DiscardFieldUpdates(itemURL)

		s.RemoveFieldUpdates(itemURL)

		assert.Empty(t, s.GetFieldUpdates(itemURL))
		assert.False(t, s.IsReinstatable(itemURL))
	})
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "ADD", objectupdates.Add.String())
	assert.Equal(t, "UPDATE", objectupdates.Update.String())
	assert.Equal(t, "REMOVE", objectupdates.Remove.String())
	assert.Equal(t, "NONE", objectupdates.NoChange.String())
}
