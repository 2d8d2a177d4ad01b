package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
	"github.com/vijayakrishna12345/fitness-tracker/store/storetest"
)

func newTestOrchestrator() (*Orchestrator, *storetest.FakeEmbedder, *storetest.FakeVectorIndex, *storetest.FakeGraphStore) {
	embedder := storetest.NewFakeEmbedder(8)
	vector := storetest.NewFakeVectorIndex()
	graph := storetest.NewFakeGraphStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orchestrator := NewOrchestrator(embedder, vector, graph, model.DefaultEngineConfig(), log)
	return orchestrator, embedder, vector, graph
}

func testItem(id string) *model.Recommendation {
	return &model.Recommendation{
		ID:       id,
		Title:    "Progressive overload",
		Content:  "Increase load weekly",
		Category: "strength",
		Tags:     []string{"barbell", "beginner"},
	}
}

func TestEmbeddableText(t *testing.T) {
	t.Run("All fields in fixed order", func(t *testing.T) {
		text := EmbeddableText("Deadlift", "Hinge at hips", "strength", []string{"barbell", "posterior"})

		assert.Equal(t, "Title: Deadlift | Content: Hinge at hips | Category: strength | Tags: barbell, posterior", text)
	})

	t.Run("Empty fields are skipped", func(t *testing.T) {
		text := EmbeddableText("Deadlift", "", "strength", nil)

		assert.Equal(t, "Title: Deadlift | Category: strength", text)
	})

	t.Run("Deterministic for equal input", func(t *testing.T) {
		a := EmbeddableText("a", "b", "c", []string{"x", "y"})
		b := EmbeddableText("a", "b", "c", []string{"x", "y"})

		assert.Equal(t, a, b)
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("Committed item is present in both stores", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()

		id, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)

		require.NoError(t, err)
		assert.Equal(t, "rec-1", id)
		assert.True(t, vector.Has("rec-1"))
		assert.True(t, graph.HasNode("rec-1"))
	})

	t.Run("Missing id is generated", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()

		id, err := orchestrator.Ingest(ctx, testItem(""), nil)

		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.True(t, vector.Has(id))
		assert.True(t, graph.HasNode(id))
	})

	t.Run("Embedding failure persists nothing", func(t *testing.T) {
		orchestrator, embedder, vector, graph := newTestOrchestrator()
		embedder.FailEmbed = errors.New("provider down")

		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)

		require.Error(t, err)
		assert.False(t, vector.Has("rec-1"))
		assert.False(t, graph.HasNode("rec-1"))
	})

	t.Run("Vector failure persists nothing", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()
		vector.FailUpsert = errors.New("index down")

		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)

		require.Error(t, err)
		var opErr *store.OpError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, store.KindVector, opErr.Store)
		assert.False(t, graph.HasNode("rec-1"))
	})

	t.Run("Graph failure compensates the vector write", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()
		graph.FailCreateNode = errors.New("graph down")

		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)

		require.Error(t, err)
		var partialErr *PartialWriteError
		require.ErrorAs(t, err, &partialErr)
		assert.Equal(t, "rec-1", partialErr.ID)
		assert.NoError(t, partialErr.CompensateErr)
		assert.False(t, vector.Has("rec-1"), "compensation must remove the vector entry")
		assert.Contains(t, vector.DeleteCalls, "rec-1")
	})

	t.Run("Failed compensation is reported", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()
		graph.FailCreateNode = errors.New("graph down")
		vector.FailDelete = errors.New("index down too")

		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)

		var partialErr *PartialWriteError
		require.ErrorAs(t, err, &partialErr)
		assert.Error(t, partialErr.CompensateErr)
	})

	t.Run("Relationship failures are best-effort", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()
		graph.FailCreateEdge = errors.New("edge down")

		id, err := orchestrator.Ingest(ctx, testItem("rec-1"), []model.RelationshipInput{
			{TargetID: "rec-2", Type: "similar_to", Weight: 0.8},
		})

		require.NoError(t, err, "a failed edge must not fail the ingestion")
		assert.Equal(t, "rec-1", id)
		assert.True(t, vector.Has("rec-1"))
		assert.True(t, graph.HasNode("rec-1"))
	})

	t.Run("Relationship weight is defaulted and clamped", func(t *testing.T) {
		orchestrator, _, _, graph := newTestOrchestrator()

		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), []model.RelationshipInput{
			{TargetID: "rec-2", Type: "similar_to"},
			{TargetID: "rec-3", Type: "similar_to", Weight: 2.5},
		})

		require.NoError(t, err)
		assert.Equal(t, 1.0, graph.EdgeWeight("rec-1", "rec-2"))
		assert.Equal(t, 1.0, graph.EdgeWeight("rec-1", "rec-3"))
	})

	t.Run("Re-ingesting the same id does not duplicate the node", func(t *testing.T) {
		orchestrator, _, _, graph := newTestOrchestrator()

		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)
		_, err = orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)

		assert.Len(t, graph.Nodes, 1)
		assert.Equal(t, 2, graph.CreateNodeCalls)
	})
}

func TestIngestMany(t *testing.T) {
	ctx := context.Background()

	t.Run("All items committed", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()
		items := []*model.Recommendation{testItem("a"), testItem("b"), testItem("c")}

		ids, err := orchestrator.IngestMany(ctx, items)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids)
		for _, id := range ids {
			assert.True(t, vector.Has(id))
			assert.True(t, graph.HasNode(id))
		}
	})

	t.Run("Embedding failure aborts the whole batch", func(t *testing.T) {
		orchestrator, embedder, vector, _ := newTestOrchestrator()
		embedder.FailEmbed = errors.New("provider down")

		ids, err := orchestrator.IngestMany(ctx, []*model.Recommendation{testItem("a"), testItem("b")})

		require.Error(t, err)
		assert.Nil(t, ids)
		assert.Empty(t, vector.UpsertCalls, "no store write may happen without embeddings")
	})

	t.Run("Chunk failure aborts later chunks", func(t *testing.T) {
		orchestrator, embedder, vector, _ := newTestOrchestrator()
		orchestrator.config.EmbedBatchSize = 1
		embedder.FailAtChunk = 1

		ids, err := orchestrator.IngestMany(ctx, []*model.Recommendation{testItem("a"), testItem("b"), testItem("c")})

		require.Error(t, err)
		assert.Nil(t, ids)
		assert.Empty(t, vector.UpsertCalls)
	})

	t.Run("Store failures skip only the failing item", func(t *testing.T) {
		orchestrator, _, _, graph := newTestOrchestrator()
		graph.FailCreateNode = errors.New("graph down")

		ids, err := orchestrator.IngestMany(ctx, []*model.Recommendation{testItem("a"), testItem("b")})

		require.NoError(t, err)
		assert.Empty(t, ids, "returned ids are the source of truth for the batch")

		graph.FailCreateNode = nil
		ids, err = orchestrator.IngestMany(ctx, []*model.Recommendation{testItem("c"), testItem("d")})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "d"}, ids)
	})

	t.Run("Empty batch is a no-op", func(t *testing.T) {
		orchestrator, _, _, _ := newTestOrchestrator()

		ids, err := orchestrator.IngestMany(ctx, nil)

		require.NoError(t, err)
		assert.Nil(t, ids)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Metadata-only update patches the index", func(t *testing.T) {
		orchestrator, _, vector, _ := newTestOrchestrator()
		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)

		category := "recovery"
		err = orchestrator.Update(ctx, "rec-1", &model.RecommendationUpdate{Category: &category}, false)

		require.NoError(t, err)
		assert.Contains(t, vector.PatchCalls, "rec-1")
		assert.Equal(t, "recovery", vector.Items["rec-1"].Metadata["category"])
	})

	t.Run("Content change with regenerate re-embeds", func(t *testing.T) {
		orchestrator, embedder, vector, _ := newTestOrchestrator()
		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)
		callsBefore := embedder.EmbedCalls

		content := "Deload every fourth week"
		err = orchestrator.Update(ctx, "rec-1", &model.RecommendationUpdate{Content: &content}, true)

		require.NoError(t, err)
		assert.Equal(t, callsBefore+1, embedder.EmbedCalls)
		assert.Equal(t, []string{"rec-1", "rec-1"}, vector.UpsertCalls)
	})

	t.Run("Regenerate without content change only patches", func(t *testing.T) {
		orchestrator, embedder, vector, _ := newTestOrchestrator()
		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)
		callsBefore := embedder.EmbedCalls

		category := "recovery"
		err = orchestrator.Update(ctx, "rec-1", &model.RecommendationUpdate{Category: &category}, true)

		require.NoError(t, err)
		assert.Equal(t, callsBefore, embedder.EmbedCalls)
		assert.Contains(t, vector.PatchCalls, "rec-1")
	})

	t.Run("Graph node update failure is best-effort", func(t *testing.T) {
		orchestrator, _, _, graph := newTestOrchestrator()
		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)
		graph.FailUpdateNode = errors.New("graph down")

		title := "New title"
		err = orchestrator.Update(ctx, "rec-1", &model.RecommendationUpdate{Title: &title}, false)

		assert.NoError(t, err)
	})

	t.Run("Update can add relationships", func(t *testing.T) {
		orchestrator, _, _, graph := newTestOrchestrator()
		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)

		err = orchestrator.Update(ctx, "rec-1", &model.RecommendationUpdate{
			Relationships: []model.RelationshipInput{{TargetID: "rec-9", Type: "similar_to", Weight: 0.4}},
		}, false)

		require.NoError(t, err)
		assert.Equal(t, 0.4, graph.EdgeWeight("rec-1", "rec-9"))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Removes the item from both stores", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()
		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)

		err = orchestrator.Delete(ctx, "rec-1")

		require.NoError(t, err)
		assert.False(t, vector.Has("rec-1"))
		assert.False(t, graph.HasNode("rec-1"))
	})

	t.Run("One-sided failure is reported even though the other side is gone", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()
		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)
		graph.FailDeleteNode = errors.New("graph down")

		err = orchestrator.Delete(ctx, "rec-1")

		require.Error(t, err)
		assert.False(t, vector.Has("rec-1"), "the vector deletion still ran")
	})

	t.Run("Both deletions are attempted when the first fails", func(t *testing.T) {
		orchestrator, _, vector, graph := newTestOrchestrator()
		_, err := orchestrator.Ingest(ctx, testItem("rec-1"), nil)
		require.NoError(t, err)
		vector.FailDelete = errors.New("index down")

		err = orchestrator.Delete(ctx, "rec-1")

		require.Error(t, err)
		assert.Contains(t, graph.DeleteNodeCalls, "rec-1")
	})
}
