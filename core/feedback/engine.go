// Package feedback implements reinforcement of the relationship graph
// from user acceptance of recommendations. The vector-metadata write is
// the success basis; edge-weight updates are best-effort and asymmetric
// (rejection never weakens an edge).
package feedback

import (
	"context"
	"log/slog"
	"time"

	"github.com/vijayakrishna12345/fitness-tracker/helper"
	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

// Engine records feedback against the vector index and reinforces
// outbound edges of implemented recommendations.
type Engine struct {
	vector store.VectorIndex
	graph  store.GraphStore
	config model.EngineConfig
	log    *slog.Logger
}

// NewEngine creates a new feedback engine.
func NewEngine(vector store.VectorIndex, graph store.GraphStore, config model.EngineConfig, log *slog.Logger) *Engine {
	return &Engine{
		vector: vector,
		graph:  graph,
		config: config,
		log:    log,
	}
}

// RecordFeedback stores feedback metadata on the recommendation and, if
// the recommendation was implemented, raises the weight of each direct
// outbound edge by the reinforcement delta. Only the metadata write can
// fail the call; graph updates are logged and swallowed. Reverse edges
// and edges further than one hop are never touched.
func (e *Engine) RecordFeedback(ctx context.Context, id string, isImplemented bool, note string) error {
	partial := model.Metadata{
		"last_feedback_at":     time.Now().Format(time.RFC3339),
		"implemented":          isImplemented,
		"implementation_count": 1,
	}
	if note != "" {
		partial["feedback_note"] = note
	}

	if err := e.vector.PatchMetadata(ctx, id, partial); err != nil {
		return helper.NewError("record feedback", err)
	}

	if !isImplemented {
		return nil
	}

	neighbors, err := e.graph.Neighbors(ctx, id, nil, e.config.ReinforcementLimit)
	if err != nil {
		e.log.Warn("Skipping reinforcement, neighbor lookup failed",
			slog.String("id", id),
			slog.Any("error", err))
		return nil
	}

	for _, neighbor := range neighbors {
		if err := e.graph.UpdateEdgeWeight(ctx, id, neighbor.ID, e.config.ReinforcementDelta); err != nil {
			e.log.Warn("Skipping edge reinforcement",
				slog.String("source_id", id),
				slog.String("target_id", neighbor.ID),
				slog.Any("error", err))
			continue
		}
		e.log.Debug("Reinforced relationship",
			slog.String("source_id", id),
			slog.String("target_id", neighbor.ID),
			slog.Float64("delta", e.config.ReinforcementDelta))
	}
	return nil
}
