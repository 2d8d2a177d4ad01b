// Package recommender ties the dual-store recommendation system
// together: embeddings feed a vector index, curated and learned
// relationships live in a graph, and the read path fuses both signals
// into one ranking.
package recommender

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/vijayakrishna12345/fitness-tracker/core/feedback"
	"github.com/vijayakrishna12345/fitness-tracker/core/ingest"
	"github.com/vijayakrishna12345/fitness-tracker/core/retrieval"
	"github.com/vijayakrishna12345/fitness-tracker/embed"
	"github.com/vijayakrishna12345/fitness-tracker/embed/openai"
	"github.com/vijayakrishna12345/fitness-tracker/helper"
	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
	neo4jstore "github.com/vijayakrishna12345/fitness-tracker/store/neo4j"
	qdrantstore "github.com/vijayakrishna12345/fitness-tracker/store/qdrant"
)

// Recommender provides a unified interface to ingestion, retrieval,
// cluster discovery and feedback reinforcement.
type Recommender struct {
	Vector   store.VectorIndex
	Graph    store.GraphStore
	Embedder embed.Provider

	orchestrator *ingest.Orchestrator
	engine       *retrieval.Engine
	feedback     *feedback.Engine
	config       model.EngineConfig

	// Logging
	log *slog.Logger

	closers []func(ctx context.Context) error
}

// New creates a Recommender over the given stores and embedding
// provider. Pass model.DefaultEngineConfig() unless tests need
// alternate weightings.
func New(vector store.VectorIndex, graph store.GraphStore, embedder embed.Provider, config model.EngineConfig) *Recommender {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	return &Recommender{
		Vector:       vector,
		Graph:        graph,
		Embedder:     embedder,
		orchestrator: ingest.NewOrchestrator(embedder, vector, graph, config, logger),
		engine:       retrieval.NewEngine(vector, graph, config, logger),
		feedback:     feedback.NewEngine(vector, graph, config, logger),
		config:       config,
		log:          logger,
	}
}

// NewFromEnv wires the production backends from the environment:
// Qdrant for the vector index, Neo4j for the relationship graph and
// OpenAI for embeddings.
func NewFromEnv(ctx context.Context) (*Recommender, error) {
	qdrantConfig, err := helper.NewQdrantConfiguration()
	if err != nil {
		return nil, err
	}
	neo4jConfig, err := helper.NewNeo4jConfiguration()
	if err != nil {
		return nil, err
	}

	vector, err := qdrantstore.NewIndex(ctx, *qdrantConfig)
	if err != nil {
		return nil, err
	}
	graph, err := neo4jstore.NewGraph(ctx, *neo4jConfig)
	if err != nil {
		return nil, err
	}
	embedder, err := openai.NewProviderFromEnv()
	if err != nil {
		return nil, err
	}

	r := New(vector, graph, embedder, model.DefaultEngineConfig())
	r.closers = append(r.closers,
		func(context.Context) error { return vector.Close() },
		graph.Close,
	)
	return r, nil
}

// Ingest writes one recommendation to both stores and links its
// relationships. The returned id is the item's identity in both stores.
func (r *Recommender) Ingest(ctx context.Context, item *model.Recommendation, relationships []model.RelationshipInput) (string, error) {
	return r.orchestrator.Ingest(ctx, item, relationships)
}

// IngestMany writes a batch of recommendations and returns the ids that
// were actually committed.
func (r *Recommender) IngestMany(ctx context.Context, items []*model.Recommendation) ([]string, error) {
	return r.orchestrator.IngestMany(ctx, items)
}

// Update applies a partial update. With regenerate set, content-bearing
// changes refresh the stored embedding.
func (r *Recommender) Update(ctx context.Context, id string, update *model.RecommendationUpdate, regenerate bool) error {
	return r.orchestrator.Update(ctx, id, update, regenerate)
}

// Delete removes the recommendation from both stores.
func (r *Recommender) Delete(ctx context.Context, id string) error {
	return r.orchestrator.Delete(ctx, id)
}

// Recommend embeds the query text and returns up to limit ranked
// recommendations, optionally restricted to one category.
func (r *Recommender) Recommend(ctx context.Context, query, category string, userContext model.Metadata, limit int) ([]model.RankedResult, error) {
	queryEmbedding, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}
	return r.engine.Recommend(ctx, queryEmbedding, category, userContext, limit)
}

// RecommendByEmbedding ranks against an already computed embedding.
func (r *Recommender) RecommendByEmbedding(ctx context.Context, queryEmbedding []float32, category string, userContext model.Metadata, limit int) ([]model.RankedResult, error) {
	return r.engine.Recommend(ctx, queryEmbedding, category, userContext, limit)
}

// Cluster returns the recommendations related to root through strong
// graph paths and vector similarity.
func (r *Recommender) Cluster(ctx context.Context, rootID string, minSimilarity, minWeight float64, maxDepth int) ([]model.ClusterMember, error) {
	return r.engine.Cluster(ctx, rootID, minSimilarity, minWeight, maxDepth)
}

// CreateRelationship links two existing recommendations directly.
func (r *Recommender) CreateRelationship(ctx context.Context, sourceID string, input model.RelationshipInput) error {
	input = input.Normalized()
	err := r.Graph.CreateEdge(ctx, model.Relationship{
		SourceID: sourceID,
		TargetID: input.TargetID,
		Type:     input.Type,
		Weight:   input.Weight,
	})
	if err != nil {
		return helper.NewError("create relationship", err)
	}
	r.log.Info("Created relationship",
		slog.String("source_id", sourceID),
		slog.String("target_id", input.TargetID),
		slog.String("type", input.Type))
	return nil
}

// RecordFeedback stores user feedback and reinforces the graph around
// implemented recommendations.
func (r *Recommender) RecordFeedback(ctx context.Context, id string, isImplemented bool, note string) error {
	return r.feedback.RecordFeedback(ctx, id, isImplemented, note)
}

// Close releases the store connections opened by NewFromEnv. A
// Recommender built with New owns no connections and Close is a no-op.
func (r *Recommender) Close(ctx context.Context) error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c(ctx))
	}
	return errors.Join(errs...)
}
