// Package ingest implements the dual-store write path. A recommendation
// is written as a saga across the vector index and the relationship
// graph: the identity-defining steps (embed, vector upsert, graph node)
// are fatal with compensation, relationship edges are best-effort
// enrichment.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vijayakrishna12345/fitness-tracker/embed"
	"github.com/vijayakrishna12345/fitness-tracker/helper"
	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

// state is the saga position of an in-flight ingestion.
type state string

const (
	statePending             state = "pending"
	stateEmbedded            state = "embedded"
	stateVectorStored        state = "vector_stored"
	stateGraphStored         state = "graph_stored"
	stateRelationshipsLinked state = "relationships_linked"
	stateCommitted           state = "committed"
	stateFailed              state = "failed"
	stateRolledBack          state = "rolled_back"
)

// PartialWriteError reports that the graph write failed after the vector
// write succeeded and the compensating vector delete ran. When
// CompensateErr is nil the caller is guaranteed the net persisted state
// for the id is absent.
type PartialWriteError struct {
	ID            string
	Cause         error
	CompensateErr error
}

// Error implements the error interface
func (e *PartialWriteError) Error() string {
	if e.CompensateErr != nil {
		return fmt.Sprintf("partial write for %s: %v (compensation failed: %v)", e.ID, e.Cause, e.CompensateErr)
	}
	return fmt.Sprintf("partial write for %s rolled back: %v", e.ID, e.Cause)
}

// Unwrap returns the underlying cause
func (e *PartialWriteError) Unwrap() error {
	return e.Cause
}

// Orchestrator coordinates writes across the embedding provider, the
// vector index and the relationship graph.
type Orchestrator struct {
	embedder embed.Provider
	vector   store.VectorIndex
	graph    store.GraphStore
	config   model.EngineConfig
	log      *slog.Logger
}

// NewOrchestrator creates a new ingestion orchestrator.
func NewOrchestrator(embedder embed.Provider, vector store.VectorIndex, graph store.GraphStore, config model.EngineConfig, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		embedder: embedder,
		vector:   vector,
		graph:    graph,
		config:   config,
		log:      log,
	}
}

// EmbeddableText derives the canonical text representation of an item:
// labeled segments for title, content, category and joined tags, in that
// fixed order, skipping empty fields. The same rule is used for initial
// embedding and any later re-embedding.
func EmbeddableText(title, content, category string, tags []string) string {
	var fields []string
	if title != "" {
		fields = append(fields, "Title: "+title)
	}
	if content != "" {
		fields = append(fields, "Content: "+content)
	}
	if category != "" {
		fields = append(fields, "Category: "+category)
	}
	if len(tags) > 0 {
		fields = append(fields, "Tags: "+strings.Join(tags, ", "))
	}
	return strings.Join(fields, " | ")
}

// Ingest writes a single recommendation to both stores and links its
// relationships. It returns the id of the committed item. On a graph
// failure the vector entry is deleted again; the stores never keep a
// vector-only record past a completed call.
func (o *Orchestrator) Ingest(ctx context.Context, item *model.Recommendation, relationships []model.RelationshipInput) (string, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	o.logState(item.ID, statePending)

	text := EmbeddableText(item.Title, item.Content, item.Category, item.Tags)
	vector, err := o.embedder.Embed(ctx, text)
	if err != nil {
		o.logState(item.ID, stateFailed)
		return "", helper.NewError("generate embedding", err)
	}
	item.Embedding = vector
	o.logState(item.ID, stateEmbedded)

	return o.commit(ctx, item, relationships)
}

// IngestMany fans Ingest out over a batch. Embedding generation is
// all-or-nothing; afterwards each item's store writes succeed or fail
// independently. The returned ids are the items that fully committed,
// which may be fewer than the inputs.
func (o *Orchestrator) IngestMany(ctx context.Context, items []*model.Recommendation) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now().UTC()
		}
		texts[i] = EmbeddableText(item.Title, item.Content, item.Category, item.Tags)
	}

	vectors, err := o.embedder.EmbedBatch(ctx, texts, o.config.EmbedBatchSize)
	if err != nil {
		return nil, helper.NewError("generate batch embeddings", err)
	}
	if len(vectors) != len(items) {
		return nil, helper.NewError("generate batch embeddings", fmt.Errorf("got %d embeddings for %d items", len(vectors), len(items)))
	}

	var committed []string
	for i, item := range items {
		item.Embedding = vectors[i]
		id, err := o.commit(ctx, item, nil)
		if err != nil {
			o.log.Warn("Skipping item in batch ingestion",
				slog.String("id", item.ID),
				slog.String("error", err.Error()))
			continue
		}
		committed = append(committed, id)
	}
	return committed, nil
}

// commit runs the store half of the saga for an item whose embedding
// already exists.
func (o *Orchestrator) commit(ctx context.Context, item *model.Recommendation, relationships []model.RelationshipInput) (string, error) {
	err := o.vector.Upsert(ctx, store.VectorItem{
		ID:        item.ID,
		Embedding: item.Embedding,
		Metadata:  o.vectorMetadata(item),
	})
	if err != nil {
		o.logState(item.ID, stateFailed)
		return "", helper.NewError("store vector entry", err)
	}
	o.logState(item.ID, stateVectorStored)

	err = o.graph.CreateNode(ctx, item.ID, model.Metadata{
		"title":    item.Title,
		"category": item.Category,
	})
	if err != nil {
		compensateErr := o.vector.Delete(ctx, item.ID)
		if compensateErr != nil {
			o.log.Error("Compensating vector delete failed",
				slog.String("id", item.ID),
				slog.String("error", compensateErr.Error()))
		}
		o.logState(item.ID, stateRolledBack)
		return "", &PartialWriteError{ID: item.ID, Cause: err, CompensateErr: compensateErr}
	}
	o.logState(item.ID, stateGraphStored)

	o.linkRelationships(ctx, item.ID, relationships)
	o.logState(item.ID, stateRelationshipsLinked)

	o.logState(item.ID, stateCommitted)
	return item.ID, nil
}

// linkRelationships creates the supplied edges best-effort: a failed
// edge is logged and skipped, it never rolls back the node or earlier
// edges.
func (o *Orchestrator) linkRelationships(ctx context.Context, sourceID string, relationships []model.RelationshipInput) {
	for _, input := range relationships {
		input = input.Normalized()
		err := o.graph.CreateEdge(ctx, model.Relationship{
			SourceID: sourceID,
			TargetID: input.TargetID,
			Type:     input.Type,
			Weight:   input.Weight,
		})
		if err != nil {
			o.log.Warn("Skipping relationship",
				slog.String("source_id", sourceID),
				slog.String("target_id", input.TargetID),
				slog.String("error", err.Error()))
		}
	}
}

// Update patches vector metadata and graph node properties, re-embedding
// when content-bearing fields changed and regenerate is set. Graph-side
// updates and relationship creation are best-effort.
func (o *Orchestrator) Update(ctx context.Context, id string, update *model.RecommendationUpdate, regenerate bool) error {
	metadata := model.Metadata{}
	graphProperties := model.Metadata{}
	if update.Title != nil {
		metadata["title"] = *update.Title
		graphProperties["title"] = *update.Title
	}
	if update.Category != nil {
		metadata["category"] = *update.Category
		graphProperties["category"] = *update.Category
	}
	if update.Tags != nil {
		metadata["tags"] = update.Tags
	}
	for k, v := range update.Metadata {
		metadata[k] = v
	}

	if regenerate && update.HasContentChange() {
		var title, content, category string
		var tags []string
		if update.Title != nil {
			title = *update.Title
		}
		if update.Content != nil {
			content = *update.Content
		}
		if update.Category != nil {
			category = *update.Category
		}
		tags = update.Tags

		vector, err := o.embedder.Embed(ctx, EmbeddableText(title, content, category, tags))
		if err != nil {
			return helper.NewError("regenerate embedding", err)
		}
		err = o.vector.Upsert(ctx, store.VectorItem{ID: id, Embedding: vector, Metadata: metadata})
		if err != nil {
			return helper.NewError("store re-embedded entry", err)
		}
	} else if len(metadata) > 0 {
		if err := o.vector.PatchMetadata(ctx, id, metadata); err != nil {
			return helper.NewError("patch vector metadata", err)
		}
	}

	if len(graphProperties) > 0 {
		if err := o.graph.UpdateNode(ctx, id, graphProperties); err != nil {
			o.log.Warn("Skipping graph node update",
				slog.String("id", id),
				slog.String("error", err.Error()))
		}
	}

	o.linkRelationships(ctx, id, update.Relationships)

	return nil
}

// Delete removes the item from both stores. Both deletions are always
// attempted; the call fails if either side fails, even though the other
// side is already gone. No compensation is attempted, delete is the end
// of the lifecycle.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	vectorErr := o.vector.Delete(ctx, id)
	graphErr := o.graph.DeleteNode(ctx, id)

	if vectorErr != nil || graphErr != nil {
		return helper.NewError("delete recommendation", errors.Join(vectorErr, graphErr))
	}
	return nil
}

// vectorMetadata builds the index payload for an item.
func (o *Orchestrator) vectorMetadata(item *model.Recommendation) model.Metadata {
	metadata := model.Metadata{
		"title":      item.Title,
		"category":   item.Category,
		"tags":       item.Tags,
		"created_at": item.CreatedAt.Format(time.RFC3339),
	}
	for k, v := range item.Metadata {
		metadata[k] = v
	}
	return metadata
}

func (o *Orchestrator) logState(id string, s state) {
	o.log.Debug("Ingestion state",
		slog.String("id", id),
		slog.String("state", string(s)))
}
