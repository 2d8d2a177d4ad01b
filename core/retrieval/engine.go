// Package retrieval implements the read path: hybrid recommendation
// ranking (vector similarity fused with direct graph neighbors) and
// cluster discovery (bounded weighted traversal fused with vector
// neighbors of the root). Both share one generic fusion function and
// never mutate the graph.
package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/vijayakrishna12345/fitness-tracker/helper"
	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

// Engine answers recommendation and cluster queries over the two stores.
type Engine struct {
	vector store.VectorIndex
	graph  store.GraphStore
	config model.EngineConfig
	log    *slog.Logger
}

// NewEngine creates a new retrieval engine.
func NewEngine(vector store.VectorIndex, graph store.GraphStore, config model.EngineConfig, log *slog.Logger) *Engine {
	return &Engine{
		vector: vector,
		graph:  graph,
		config: config,
		log:    log,
	}
}

// Recommend returns up to limit recommendations for a query embedding.
// The index is over-fetched (SearchOverfetch x limit, filtered by
// category when set) to give fusion room to reorder; the top limit hits
// are expanded to at most NeighborLimit direct graph neighbors each,
// weight-ordered, and the two signals are fused.
func (e *Engine) Recommend(ctx context.Context, queryEmbedding []float32, category string, userContext model.Metadata, limit int) ([]model.RankedResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	filter := store.Filter{}
	if category != "" {
		filter["category"] = category
	}

	hits, err := e.vector.Search(ctx, queryEmbedding, filter, limit*e.config.SearchOverfetch)
	if err != nil {
		return nil, helper.NewError("similarity search", err)
	}

	seeds := topByScore(hits, limit)

	var signals []GraphSignal
	for _, seed := range seeds {
		neighbors, err := e.graph.Neighbors(ctx, seed.ID, nil, e.config.NeighborLimit)
		if err != nil {
			return nil, helper.NewError("expand graph neighbors", err)
		}
		for _, neighbor := range neighbors {
			signals = append(signals, GraphSignal{
				ID:    neighbor.ID,
				Title: neighbor.Title,
				Score: neighbor.Weight,
			})
		}
	}

	e.log.Debug("Fusing recommendation signals",
		slog.Int("vector_hits", len(hits)),
		slog.Int("graph_signals", len(signals)),
		slog.Any("user_context", userContext))

	results := fuse(hits, signals, e.config)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Cluster returns the recommendations related to root, combining
// admissible graph paths (every edge weight >= minWeight, scored by the
// product of edge weights, best path per node) with vector neighbors of
// the root. minSimilarity is descriptive only; low-similarity vector
// hits are not rejected. An empty result is a valid outcome.
func (e *Engine) Cluster(ctx context.Context, rootID string, minSimilarity, minWeight float64, maxDepth int) ([]model.ClusterMember, error) {
	if maxDepth <= 0 {
		maxDepth = e.config.MaxDepth
	}

	root, err := e.vector.Fetch(ctx, rootID)
	if err != nil {
		return nil, helper.NewError("fetch cluster root", err)
	}
	if root == nil {
		return nil, nil
	}

	hits, err := e.vector.Search(ctx, root.Embedding, nil, e.config.ClusterSearchLimit)
	if err != nil {
		return nil, helper.NewError("similarity search", err)
	}
	vectorHits := make([]store.SearchHit, 0, len(hits))
	for _, hit := range hits {
		if hit.ID != rootID {
			vectorHits = append(vectorHits, hit)
		}
	}

	paths, err := e.graph.Traverse(ctx, rootID, maxDepth, minWeight)
	if err != nil {
		return nil, helper.NewError("traverse cluster", err)
	}
	clustered := scorePaths(rootID, paths, minWeight, maxDepth)

	signals := make([]GraphSignal, 0, len(clustered))
	for _, member := range clustered {
		signals = append(signals, GraphSignal{
			ID:    member.ID,
			Title: member.Title,
			Score: member.ClusterScore,
		})
	}

	e.log.Debug("Fusing cluster signals",
		slog.String("root_id", rootID),
		slog.Float64("min_similarity", minSimilarity),
		slog.Float64("min_weight", minWeight),
		slog.Int("vector_hits", len(vectorHits)),
		slog.Int("graph_signals", len(signals)))

	ranked := fuse(vectorHits, signals, e.config)

	members := make([]model.ClusterMember, 0, len(ranked))
	for _, result := range ranked {
		member := model.ClusterMember{
			ID:           result.ID,
			Title:        result.Title,
			VectorScore:  result.VectorScore,
			ClusterScore: result.GraphScore,
			FinalScore:   result.FinalScore,
		}
		if fromGraph, ok := clustered[result.ID]; ok {
			member.Path = fromGraph.Path
		}
		members = append(members, member)
	}
	return members, nil
}

// scorePaths reduces raw traversal paths to at most one cluster member
// per node. A path is admissible only if every edge on it carries at
// least minWeight; one weak link disqualifies the whole path. The score
// of an admissible path is the product of its edge weights, and a node
// reached by several admissible paths keeps only its best score.
func scorePaths(rootID string, paths []store.TraversalPath, minWeight float64, maxDepth int) map[string]model.ClusterMember {
	members := make(map[string]model.ClusterMember)

	for _, path := range paths {
		if len(path) == 0 || len(path) > maxDepth {
			continue
		}

		admissible := true
		score := 1.0
		ids := make([]string, 0, len(path)+1)
		ids = append(ids, rootID)
		for _, step := range path {
			if step.Weight < minWeight {
				admissible = false
				break
			}
			score *= step.Weight
			ids = append(ids, step.ID)
		}
		if !admissible {
			continue
		}

		terminal := path[len(path)-1]
		if terminal.ID == rootID {
			continue // cycles back to the root are not cluster members
		}
		if existing, ok := members[terminal.ID]; ok && existing.ClusterScore >= score {
			continue
		}
		members[terminal.ID] = model.ClusterMember{
			ID:           terminal.ID,
			Title:        terminal.Title,
			ClusterScore: score,
			Path:         ids,
		}
	}

	return members
}

// topByScore returns up to limit hits ordered by score descending with
// an id tie-break, leaving the input untouched.
func topByScore(hits []store.SearchHit, limit int) []store.SearchHit {
	sorted := make([]store.SearchHit, len(hits))
	copy(sorted, hits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
