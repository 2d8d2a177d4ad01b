// Package store defines the narrow interfaces through which the engines
// talk to the external vector index and relationship graph services, plus
// the shared types both sides exchange. The adapters under store/... are
// thin shims; all orchestration logic lives in core/.
package store

import (
	"context"

	"github.com/vijayakrishna12345/fitness-tracker/model"
)

// VectorItem is one entry of the vector index.
type VectorItem struct {
	ID        string
	Embedding []float32
	Metadata  model.Metadata
}

// SearchHit is one nearest-neighbor search result.
type SearchHit struct {
	ID       string
	Score    float64
	Metadata model.Metadata
}

// Filter restricts a similarity search by exact metadata match.
type Filter map[string]string

// VectorIndex is the similarity index over recommendation embeddings.
// Upsert is idempotent by id.
type VectorIndex interface {
	Upsert(ctx context.Context, item VectorItem) error
	UpsertBatch(ctx context.Context, items []VectorItem) error
	Search(ctx context.Context, vector []float32, filter Filter, limit int) ([]SearchHit, error)
	Fetch(ctx context.Context, id string) (*VectorItem, error)
	Delete(ctx context.Context, id string) error
	PatchMetadata(ctx context.Context, id string, partial model.Metadata) error
}

// Neighbor is a directly related recommendation reached over one edge.
type Neighbor struct {
	ID     string
	Title  string
	Type   string
	Weight float64
}

// TraversalStep is one hop of a traversal path. The step carries the id
// and title of the node it arrives at and the weight of the edge taken.
type TraversalStep struct {
	ID     string
	Title  string
	Weight float64
}

// TraversalPath is an ordered outbound path from the traversal root,
// root excluded.
type TraversalPath []TraversalStep

// GraphStore is the weighted relationship graph between recommendations.
// CreateNode carries upsert semantics keyed by id: repeated creation of
// the same id must never produce duplicate nodes. UpdateEdgeWeight clamps
// the resulting weight into [0,1].
type GraphStore interface {
	CreateNode(ctx context.Context, id string, properties model.Metadata) error
	UpdateNode(ctx context.Context, id string, properties model.Metadata) error
	CreateEdge(ctx context.Context, rel model.Relationship) error
	Neighbors(ctx context.Context, id string, relType *string, limit int) ([]Neighbor, error)
	Traverse(ctx context.Context, root string, maxDepth int, minWeight float64) ([]TraversalPath, error)
	UpdateEdgeWeight(ctx context.Context, sourceID, targetID string, delta float64) error
	DeleteNode(ctx context.Context, id string) error
}
