// Package qdrant implements store.VectorIndex on a Qdrant collection
// over the official gRPC client. Recommendation ids map to point UUIDs
// and metadata maps to the point payload.
package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/vijayakrishna12345/fitness-tracker/helper"
	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

// Index is a store.VectorIndex backed by one Qdrant collection.
type Index struct {
	client     *qdrant.Client
	collection string
}

// NewIndex connects to Qdrant and ensures the collection exists with a
// cosine-distance vector space of the configured size.
func NewIndex(ctx context.Context, config helper.QdrantConfiguration) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
		UseTLS: config.UseTLS,
	})
	if err != nil {
		return nil, helper.NewError("connect qdrant", err)
	}

	index := &Index{client: client, collection: config.Collection}
	if err := index.ensureCollection(ctx, config.VectorSize); err != nil {
		return nil, err
	}
	return index, nil
}

func (i *Index) ensureCollection(ctx context.Context, vectorSize int) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return helper.NewError("check collection", err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return helper.NewError("create collection", err)
	}
	return nil
}

// Upsert writes one point, replacing any previous point with the id.
func (i *Index) Upsert(ctx context.Context, item store.VectorItem) error {
	return i.UpsertBatch(ctx, []store.VectorItem{item})
}

// UpsertBatch writes all points in one request.
func (i *Index) UpsertBatch(ctx context.Context, items []store.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(items))
	for _, item := range items {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(item.ID),
			Vectors: qdrant.NewVectors(item.Embedding...),
			Payload: metadataToPayload(item.Metadata),
		})
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return store.NewVectorError("upsert", err)
	}
	return nil
}

// Search returns the nearest points to the vector, most similar first.
func (i *Index) Search(ctx context.Context, vector []float32, filter store.Filter, limit int) ([]store.SearchHit, error) {
	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         searchFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, store.NewVectorError("search", err)
	}

	hits := make([]store.SearchHit, 0, len(points))
	for _, point := range points {
		hits = append(hits, store.SearchHit{
			ID:       point.GetId().GetUuid(),
			Score:    float64(point.GetScore()),
			Metadata: payloadToMetadata(point.GetPayload()),
		})
	}
	return hits, nil
}

// Fetch returns the stored point with its vector, or nil when the id is
// unknown.
func (i *Index) Fetch(ctx context.Context, id string) (*store.VectorItem, error) {
	points, err := i.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: i.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, store.NewVectorError("fetch", err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	point := points[0]
	return &store.VectorItem{
		ID:        point.GetId().GetUuid(),
		Embedding: point.GetVectors().GetVector().GetData(),
		Metadata:  payloadToMetadata(point.GetPayload()),
	}, nil
}

// Delete removes the point. Deleting an unknown id is not an error.
func (i *Index) Delete(ctx context.Context, id string) error {
	_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: i.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	if err != nil {
		return store.NewVectorError("delete", err)
	}
	return nil
}

// PatchMetadata merges the partial metadata into the point payload,
// leaving the vector and unrelated payload keys untouched.
func (i *Index) PatchMetadata(ctx context.Context, id string, partial model.Metadata) error {
	_, err := i.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: i.collection,
		Payload:        metadataToPayload(partial),
		PointsSelector: qdrant.NewPointsSelector(qdrant.NewID(id)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return store.NewVectorError("patch metadata", err)
	}
	return nil
}

// searchFilter converts the flat key/value filter to a conjunction of
// payload match conditions. An empty filter means no filtering.
func searchFilter(filter store.Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		must = append(must, qdrant.NewMatch(key, value))
	}
	return &qdrant.Filter{Must: must}
}

// metadataToPayload converts metadata to a point payload. Typed slices
// are widened to []any first; the client's value constructor only
// understands the JSON-shaped types.
func metadataToPayload(metadata model.Metadata) map[string]*qdrant.Value {
	plain := make(map[string]any, len(metadata))
	for key, value := range metadata {
		plain[key] = widen(value)
	}
	return qdrant.NewValueMap(plain)
}

func widen(value any) any {
	switch v := value.(type) {
	case []string:
		out := make([]any, 0, len(v))
		for _, s := range v {
			out = append(out, s)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			out = append(out, widen(e))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = widen(e)
		}
		return out
	default:
		return v
	}
}

// payloadToMetadata converts a point payload back to plain Go values.
func payloadToMetadata(payload map[string]*qdrant.Value) model.Metadata {
	metadata := make(model.Metadata, len(payload))
	for key, value := range payload {
		metadata[key] = valueToAny(value)
	}
	return metadata
}

func valueToAny(value *qdrant.Value) any {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]any, 0, len(values))
		for _, v := range values {
			out = append(out, valueToAny(v))
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, v := range fields {
			out[k] = valueToAny(v)
		}
		return out
	default:
		return nil
	}
}

// Close releases the underlying gRPC connection.
func (i *Index) Close() error {
	return i.client.Close()
}
