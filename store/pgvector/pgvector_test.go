package pgvector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

const testEmbeddingDim = 4

func TestNewIndex(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewIndex", func(t *testing.T) {
		index, err := NewIndex(database, testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewIndex to not return an error")
		require.NotNil(t, index, "Expected NewIndex to return a non-nil instance")
		require.NotNil(t, index.db, "Expected NewIndex to have a non-nil database instance")
	})

	t.Run("Invalid call NewIndex with nil database", func(t *testing.T) {
		_, err := NewIndex(nil, testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating Index with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	database := initDB(t)

	index, err := NewIndex(database, testEmbeddingDim, true)
	require.NoError(t, err)

	t.Run("Upsert inserts a new entry", func(t *testing.T) {
		item := store.VectorItem{
			ID:        "up-1",
			Embedding: []float32{0.1, 0.2, 0.3, 0.4},
			Metadata:  model.Metadata{"title": "Push day", "category": "strength"},
		}

		err := index.Upsert(ctx, item)
		assert.NoError(t, err)

		fetched, err := index.Fetch(ctx, "up-1")
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, "Push day", fetched.Metadata["title"])
		assert.Equal(t, item.Embedding, fetched.Embedding)
	})

	t.Run("Upsert replaces an existing entry", func(t *testing.T) {
		item := store.VectorItem{
			ID:        "up-2",
			Embedding: []float32{0.1, 0.1, 0.1, 0.1},
			Metadata:  model.Metadata{"title": "Old"},
		}
		require.NoError(t, index.Upsert(ctx, item))

		item.Embedding = []float32{0.9, 0.9, 0.9, 0.9}
		item.Metadata = model.Metadata{"title": "New"}
		require.NoError(t, index.Upsert(ctx, item))

		fetched, err := index.Fetch(ctx, "up-2")
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, "New", fetched.Metadata["title"])
		assert.Equal(t, item.Embedding, fetched.Embedding)
	})

	t.Run("UpsertBatch writes all entries", func(t *testing.T) {
		items := []store.VectorItem{
			{ID: "batch-1", Embedding: []float32{0.1, 0, 0, 0}, Metadata: model.Metadata{}},
			{ID: "batch-2", Embedding: []float32{0, 0.1, 0, 0}, Metadata: model.Metadata{}},
		}

		err := index.UpsertBatch(ctx, items)
		assert.NoError(t, err)

		for _, item := range items {
			fetched, err := index.Fetch(ctx, item.ID)
			require.NoError(t, err)
			assert.NotNil(t, fetched)
		}
	})

	t.Run("UpsertBatch with no items is a no-op", func(t *testing.T) {
		err := index.UpsertBatch(ctx, nil)
		assert.NoError(t, err)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	database := initDB(t)

	index, err := NewIndex(database, testEmbeddingDim, true)
	require.NoError(t, err)

	seed := []store.VectorItem{
		{ID: "s-strength", Embedding: []float32{1, 0, 0, 0}, Metadata: model.Metadata{"title": "Deadlift", "category": "strength"}},
		{ID: "s-cardio", Embedding: []float32{0.9, 0.1, 0, 0}, Metadata: model.Metadata{"title": "Sprints", "category": "cardio"}},
		{ID: "s-far", Embedding: []float32{0, 0, 0, 1}, Metadata: model.Metadata{"title": "Stretching", "category": "mobility"}},
	}
	require.NoError(t, index.UpsertBatch(ctx, seed))

	t.Run("Search orders by similarity", func(t *testing.T) {
		hits, err := index.Search(ctx, []float32{1, 0, 0, 0}, nil, 10)

		require.NoError(t, err)
		require.GreaterOrEqual(t, len(hits), 3)
		assert.Equal(t, "s-strength", hits[0].ID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
		assert.Greater(t, hits[0].Score, hits[1].Score)
	})

	t.Run("Search respects the limit", func(t *testing.T) {
		hits, err := index.Search(ctx, []float32{1, 0, 0, 0}, nil, 1)

		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("Category filter narrows the result", func(t *testing.T) {
		hits, err := index.Search(ctx, []float32{1, 0, 0, 0}, store.Filter{"category": "cardio"}, 10)

		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "s-cardio", hits[0].ID)
	})

	t.Run("Search returns metadata", func(t *testing.T) {
		hits, err := index.Search(ctx, []float32{1, 0, 0, 0}, store.Filter{"category": "strength"}, 10)

		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Deadlift", hits[0].Metadata["title"])
	})
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	database := initDB(t)

	index, err := NewIndex(database, testEmbeddingDim, true)
	require.NoError(t, err)

	t.Run("Fetch of unknown id returns nil without error", func(t *testing.T) {
		item, err := index.Fetch(ctx, "nope")
		assert.NoError(t, err)
		assert.Nil(t, item)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	database := initDB(t)

	index, err := NewIndex(database, testEmbeddingDim, true)
	require.NoError(t, err)

	t.Run("Delete removes the entry", func(t *testing.T) {
		item := store.VectorItem{
			ID:        "del-1",
			Embedding: []float32{0.2, 0.2, 0.2, 0.2},
			Metadata:  model.Metadata{},
		}
		require.NoError(t, index.Upsert(ctx, item))

		err := index.Delete(ctx, "del-1")
		assert.NoError(t, err)

		fetched, err := index.Fetch(ctx, "del-1")
		require.NoError(t, err)
		assert.Nil(t, fetched)
	})

	t.Run("Delete of unknown id is not an error", func(t *testing.T) {
		err := index.Delete(ctx, "nope")
		assert.NoError(t, err)
	})
}

func TestPatchMetadata(t *testing.T) {
	ctx := context.Background()
	database := initDB(t)

	index, err := NewIndex(database, testEmbeddingDim, true)
	require.NoError(t, err)

	t.Run("Patch merges keys and keeps the rest", func(t *testing.T) {
		item := store.VectorItem{
			ID:        "patch-1",
			Embedding: []float32{0.3, 0.3, 0.3, 0.3},
			Metadata:  model.Metadata{"title": "Rows", "category": "strength"},
		}
		require.NoError(t, index.Upsert(ctx, item))

		err := index.PatchMetadata(ctx, "patch-1", model.Metadata{"implemented": true})
		assert.NoError(t, err)

		fetched, err := index.Fetch(ctx, "patch-1")
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, "Rows", fetched.Metadata["title"])
		assert.Equal(t, true, fetched.Metadata["implemented"])
		assert.Equal(t, item.Embedding, fetched.Embedding)
	})
}

func TestFilterToJSON(t *testing.T) {
	t.Run("Empty filter renders as empty object", func(t *testing.T) {
		out, err := filterToJSON(nil)
		require.NoError(t, err)
		assert.Equal(t, "{}", out)
	})

	t.Run("Keys render as containment object", func(t *testing.T) {
		out, err := filterToJSON(store.Filter{"category": "strength"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"category": "strength"}`, out)
	})
}
