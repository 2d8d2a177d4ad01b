// Package storetest provides in-memory store implementations for engine
// tests. Failures are injectable per operation so saga compensation and
// best-effort paths can be exercised without a live backend.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

// FakeVectorIndex is an in-memory store.VectorIndex.
type FakeVectorIndex struct {
	mu sync.Mutex

	Items map[string]store.VectorItem

	// Hits, when set, is returned by Search (truncated to the limit)
	// instead of scanning Items.
	Hits []store.SearchHit

	FailUpsert error
	FailSearch error
	FailFetch  error
	FailDelete error
	FailPatch  error

	UpsertCalls      []string
	DeleteCalls      []string
	PatchCalls       []string
	LastSearchLimit  int
	LastSearchFilter store.Filter
}

// NewFakeVectorIndex creates an empty fake index.
func NewFakeVectorIndex() *FakeVectorIndex {
	return &FakeVectorIndex{Items: map[string]store.VectorItem{}}
}

func (f *FakeVectorIndex) Upsert(ctx context.Context, item store.VectorItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpsertCalls = append(f.UpsertCalls, item.ID)
	if f.FailUpsert != nil {
		return store.NewVectorError("upsert", f.FailUpsert)
	}
	f.Items[item.ID] = item
	return nil
}

func (f *FakeVectorIndex) UpsertBatch(ctx context.Context, items []store.VectorItem) error {
	for _, item := range items {
		if err := f.Upsert(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeVectorIndex) Search(ctx context.Context, vector []float32, filter store.Filter, limit int) ([]store.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastSearchLimit = limit
	f.LastSearchFilter = filter
	if f.FailSearch != nil {
		return nil, store.NewVectorError("search", f.FailSearch)
	}
	hits := f.Hits
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *FakeVectorIndex) Fetch(ctx context.Context, id string) (*store.VectorItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailFetch != nil {
		return nil, store.NewVectorError("fetch", f.FailFetch)
	}
	item, ok := f.Items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *FakeVectorIndex) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls = append(f.DeleteCalls, id)
	if f.FailDelete != nil {
		return store.NewVectorError("delete", f.FailDelete)
	}
	delete(f.Items, id)
	return nil
}

func (f *FakeVectorIndex) PatchMetadata(ctx context.Context, id string, partial model.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PatchCalls = append(f.PatchCalls, id)
	if f.FailPatch != nil {
		return store.NewVectorError("patch metadata", f.FailPatch)
	}
	item, ok := f.Items[id]
	if !ok {
		item = store.VectorItem{ID: id, Metadata: model.Metadata{}}
	}
	item.Metadata = item.Metadata.Merged(partial)
	f.Items[id] = item
	return nil
}

// Has reports whether the index currently holds the id.
func (f *FakeVectorIndex) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Items[id]
	return ok
}

// FakeGraphStore is an in-memory store.GraphStore. Node creation follows
// the upsert-by-id contract. Traverse is deliberately permissive: it
// returns the scripted paths regardless of minWeight, so tests exercise
// the engine-side admissibility checks.
type FakeGraphStore struct {
	mu sync.Mutex

	Nodes map[string]model.Metadata
	Edges []model.Relationship

	// NeighborsByID, when set, overrides neighbor derivation from Edges.
	NeighborsByID map[string][]store.Neighbor

	// Paths, when set, is returned by Traverse as scripted. When nil,
	// Traverse enumerates outbound paths from Edges instead.
	Paths []store.TraversalPath

	FailCreateNode   error
	FailUpdateNode   error
	FailCreateEdge   error
	FailNeighbors    error
	FailTraverse     error
	FailUpdateWeight error
	FailDeleteNode   error

	CreateNodeCalls int
	DeleteNodeCalls []string
}

// NewFakeGraphStore creates an empty fake graph.
func NewFakeGraphStore() *FakeGraphStore {
	return &FakeGraphStore{Nodes: map[string]model.Metadata{}}
}

func (f *FakeGraphStore) CreateNode(ctx context.Context, id string, properties model.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateNodeCalls++
	if f.FailCreateNode != nil {
		return store.NewGraphError("create node", f.FailCreateNode)
	}
	f.Nodes[id] = properties
	return nil
}

func (f *FakeGraphStore) UpdateNode(ctx context.Context, id string, properties model.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailUpdateNode != nil {
		return store.NewGraphError("update node", f.FailUpdateNode)
	}
	f.Nodes[id] = f.Nodes[id].Merged(properties)
	return nil
}

func (f *FakeGraphStore) CreateEdge(ctx context.Context, rel model.Relationship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreateEdge != nil {
		return store.NewGraphError("create edge", f.FailCreateEdge)
	}
	rel.CreatedAt = time.Now()
	rel.UpdatedAt = rel.CreatedAt
	f.Edges = append(f.Edges, rel)
	return nil
}

func (f *FakeGraphStore) Neighbors(ctx context.Context, id string, relType *string, limit int) ([]store.Neighbor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNeighbors != nil {
		return nil, store.NewGraphError("neighbors", f.FailNeighbors)
	}
	if f.NeighborsByID != nil {
		neighbors := f.NeighborsByID[id]
		if len(neighbors) > limit {
			neighbors = neighbors[:limit]
		}
		return neighbors, nil
	}

	var neighbors []store.Neighbor
	for _, edge := range f.Edges {
		if edge.SourceID != id {
			continue
		}
		if relType != nil && edge.Type != *relType {
			continue
		}
		title, _ := f.Nodes[edge.TargetID]["title"].(string)
		neighbors = append(neighbors, store.Neighbor{
			ID:     edge.TargetID,
			Title:  title,
			Type:   edge.Type,
			Weight: edge.Weight,
		})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].Weight > neighbors[j].Weight
	})
	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}

func (f *FakeGraphStore) Traverse(ctx context.Context, root string, maxDepth int, minWeight float64) ([]store.TraversalPath, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailTraverse != nil {
		return nil, store.NewGraphError("traverse", f.FailTraverse)
	}
	if f.Paths != nil {
		return f.Paths, nil
	}
	return f.walk(root, maxDepth, map[string]bool{root: true}, nil), nil
}

// walk enumerates outbound paths from id up to the remaining depth.
// Weights are not filtered here either; callers prune.
func (f *FakeGraphStore) walk(id string, depth int, seen map[string]bool, prefix store.TraversalPath) []store.TraversalPath {
	if depth == 0 {
		return nil
	}
	var paths []store.TraversalPath
	for _, edge := range f.Edges {
		if edge.SourceID != id || seen[edge.TargetID] {
			continue
		}
		title, _ := f.Nodes[edge.TargetID]["title"].(string)
		path := append(append(store.TraversalPath{}, prefix...), store.TraversalStep{
			ID:     edge.TargetID,
			Title:  title,
			Weight: edge.Weight,
		})
		paths = append(paths, path)

		seen[edge.TargetID] = true
		paths = append(paths, f.walk(edge.TargetID, depth-1, seen, path)...)
		delete(seen, edge.TargetID)
	}
	return paths
}

func (f *FakeGraphStore) UpdateEdgeWeight(ctx context.Context, sourceID, targetID string, delta float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailUpdateWeight != nil {
		return store.NewGraphError("update edge weight", f.FailUpdateWeight)
	}
	for i := range f.Edges {
		if f.Edges[i].SourceID == sourceID && f.Edges[i].TargetID == targetID {
			f.Edges[i].Weight = model.ClampWeight(f.Edges[i].Weight + delta)
			f.Edges[i].UpdatedAt = time.Now()
		}
	}
	return nil
}

func (f *FakeGraphStore) DeleteNode(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteNodeCalls = append(f.DeleteNodeCalls, id)
	if f.FailDeleteNode != nil {
		return store.NewGraphError("delete node", f.FailDeleteNode)
	}
	delete(f.Nodes, id)
	kept := f.Edges[:0]
	for _, edge := range f.Edges {
		if edge.SourceID != id && edge.TargetID != id {
			kept = append(kept, edge)
		}
	}
	f.Edges = kept
	return nil
}

// HasNode reports whether the graph currently holds the id.
func (f *FakeGraphStore) HasNode(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Nodes[id]
	return ok
}

// EdgeWeight returns the weight of the first edge source->target, or -1
// when no such edge exists.
func (f *FakeGraphStore) EdgeWeight(sourceID, targetID string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, edge := range f.Edges {
		if edge.SourceID == sourceID && edge.TargetID == targetID {
			return edge.Weight
		}
	}
	return -1
}

// FakeEmbedder is a deterministic embed.Provider for tests.
type FakeEmbedder struct {
	mu sync.Mutex

	Dimensions int
	FailEmbed  error

	// FailAtChunk makes EmbedBatch fail on the given zero-based chunk
	// index. -1 disables the failure.
	FailAtChunk int

	EmbedCalls int
	BatchTexts [][]string
}

// NewFakeEmbedder creates a fake provider emitting vectors of the given
// dimensionality.
func NewFakeEmbedder(dimensions int) *FakeEmbedder {
	return &FakeEmbedder{Dimensions: dimensions, FailAtChunk: -1}
}

func (f *FakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EmbedCalls++
	if f.FailEmbed != nil {
		return nil, f.FailEmbed
	}
	return f.vectorFor(text), nil
}

func (f *FakeEmbedder) EmbedBatch(ctx context.Context, texts []string, chunkSize int) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailEmbed != nil {
		return nil, f.FailEmbed
	}
	if chunkSize <= 0 {
		chunkSize = len(texts)
	}
	var out [][]float32
	for chunk := 0; chunk*chunkSize < len(texts); chunk++ {
		if chunk == f.FailAtChunk {
			return nil, context.DeadlineExceeded
		}
		start := chunk * chunkSize
		end := start + chunkSize
		if end > len(texts) {
			end = len(texts)
		}
		f.BatchTexts = append(f.BatchTexts, texts[start:end])
		for _, text := range texts[start:end] {
			out = append(out, f.vectorFor(text))
		}
	}
	return out, nil
}

// vectorFor derives a stable pseudo-embedding from the text length so
// identical inputs always produce identical vectors.
func (f *FakeEmbedder) vectorFor(text string) []float32 {
	v := make([]float32, f.Dimensions)
	for i := range v {
		v[i] = float32(len(text)%7) / 7.0
	}
	return v
}
