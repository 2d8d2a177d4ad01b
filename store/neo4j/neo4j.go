// Package neo4j implements store.GraphStore on a Neo4j database.
// Recommendations are (:Recommendation) nodes keyed by id and all
// relationships share one RELATED type with the free-form label kept as
// a `type` property, since Cypher cannot parameterize relationship
// types.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vijayakrishna12345/fitness-tracker/helper"
	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

// Graph is a store.GraphStore backed by a Neo4j database.
type Graph struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewGraph connects to Neo4j and verifies the connection.
func NewGraph(ctx context.Context, config helper.Neo4jConfiguration) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, helper.NewError("connect neo4j", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, helper.NewError("verify neo4j connectivity", err)
	}
	return &Graph{driver: driver, database: config.Database}, nil
}

func (g *Graph) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: g.database,
	})
}

// CreateNode creates or updates the node with the id. Properties are
// merged so a re-ingestion never produces a second node.
func (g *Graph) CreateNode(ctx context.Context, id string, properties model.Metadata) error {
	session := g.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MERGE (r:Recommendation {id: $id})
		ON CREATE SET r += $properties, r.created_at = datetime()
		ON MATCH SET r += $properties, r.updated_at = datetime()
	`
	_, err := session.Run(ctx, query, map[string]any{
		"id":         id,
		"properties": map[string]any(properties),
	})
	if err != nil {
		return store.NewGraphError("create node", err)
	}
	return nil
}

// UpdateNode merges properties into an existing node. Unknown ids are a
// no-op.
func (g *Graph) UpdateNode(ctx context.Context, id string, properties model.Metadata) error {
	session := g.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (r:Recommendation {id: $id})
		SET r += $properties, r.updated_at = datetime()
	`
	_, err := session.Run(ctx, query, map[string]any{
		"id":         id,
		"properties": map[string]any(properties),
	})
	if err != nil {
		return store.NewGraphError("update node", err)
	}
	return nil
}

// CreateEdge creates a directed relationship from source to target.
// Both endpoints must already exist.
func (g *Graph) CreateEdge(ctx context.Context, rel model.Relationship) error {
	session := g.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (s:Recommendation {id: $source})
		MATCH (t:Recommendation {id: $target})
		CREATE (s)-[rel:RELATED {
			type: $type,
			weight: $weight,
			created_at: datetime(),
			updated_at: datetime()
		}]->(t)
	`
	result, err := session.Run(ctx, query, map[string]any{
		"source": rel.SourceID,
		"target": rel.TargetID,
		"type":   rel.Type,
		"weight": rel.Weight,
	})
	if err != nil {
		return store.NewGraphError("create edge", err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return store.NewGraphError("create edge", err)
	}
	if summary.Counters().RelationshipsCreated() == 0 {
		return store.NewGraphError("create edge",
			fmt.Errorf("source %s or target %s does not exist", rel.SourceID, rel.TargetID))
	}
	return nil
}

// Neighbors returns the outbound neighbors of the id ordered by edge
// weight descending, optionally restricted to one relationship label.
func (g *Graph) Neighbors(ctx context.Context, id string, relType *string, limit int) ([]store.Neighbor, error) {
	session := g.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := `
		MATCH (s:Recommendation {id: $id})-[rel:RELATED]->(t:Recommendation)
		WHERE $type IS NULL OR rel.type = $type
		RETURN t.id AS id, t.title AS title, rel.type AS type, rel.weight AS weight
		ORDER BY rel.weight DESC
		LIMIT $limit
	`
	var typeParam any
	if relType != nil {
		typeParam = *relType
	}
	result, err := session.Run(ctx, query, map[string]any{
		"id":    id,
		"type":  typeParam,
		"limit": limit,
	})
	if err != nil {
		return nil, store.NewGraphError("neighbors", err)
	}

	var neighbors []store.Neighbor
	for result.Next(ctx) {
		record := result.Record()
		neighbors = append(neighbors, store.Neighbor{
			ID:     recordString(record, "id"),
			Title:  recordString(record, "title"),
			Type:   recordString(record, "type"),
			Weight: recordFloat(record, "weight"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, store.NewGraphError("neighbors", err)
	}
	return neighbors, nil
}

// Traverse returns all outbound paths from root up to maxDepth hops
// whose edges all carry at least minWeight. The root itself is not part
// of the returned paths.
func (g *Graph) Traverse(ctx context.Context, root string, maxDepth int, minWeight float64) ([]store.TraversalPath, error) {
	session := g.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, traverseQuery(maxDepth), map[string]any{
		"root":      root,
		"minWeight": minWeight,
	})
	if err != nil {
		return nil, store.NewGraphError("traverse", err)
	}

	var paths []store.TraversalPath
	for result.Next(ctx) {
		record := result.Record()
		path := zipPath(recordList(record, "steps"), recordList(record, "weights"))
		if len(path) > 0 {
			paths = append(paths, path)
		}
	}
	if err := result.Err(); err != nil {
		return nil, store.NewGraphError("traverse", err)
	}
	return paths, nil
}

// UpdateEdgeWeight adds delta to every edge from source to target,
// clamped to [0,1]. Unknown edges are a no-op.
func (g *Graph) UpdateEdgeWeight(ctx context.Context, sourceID, targetID string, delta float64) error {
	session := g.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (s:Recommendation {id: $source})-[rel:RELATED]->(t:Recommendation {id: $target})
		SET rel.weight = CASE
			WHEN rel.weight + $delta > 1.0 THEN 1.0
			WHEN rel.weight + $delta < 0.0 THEN 0.0
			ELSE rel.weight + $delta
		END,
		rel.updated_at = datetime()
	`
	_, err := session.Run(ctx, query, map[string]any{
		"source": sourceID,
		"target": targetID,
		"delta":  delta,
	})
	if err != nil {
		return store.NewGraphError("update edge weight", err)
	}
	return nil
}

// DeleteNode removes the node together with all its relationships.
func (g *Graph) DeleteNode(ctx context.Context, id string) error {
	session := g.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (r:Recommendation {id: $id})
		DETACH DELETE r
	`
	_, err := session.Run(ctx, query, map[string]any{"id": id})
	if err != nil {
		return store.NewGraphError("delete node", err)
	}
	return nil
}

// Close releases the underlying driver.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// traverseQuery builds the variable-length path query. The depth bound
// cannot be a Cypher parameter, so it is baked into the query text. The
// weight predicate is pushed down so inadmissible branches are pruned
// on the server instead of shipping every path back.
func traverseQuery(maxDepth int) string {
	return fmt.Sprintf(`
		MATCH path = (root:Recommendation {id: $root})-[:RELATED*1..%d]->(n:Recommendation)
		WHERE ALL(rel IN relationships(path) WHERE rel.weight >= $minWeight)
		RETURN [node IN nodes(path)[1..] | {id: node.id, title: node.title}] AS steps,
		       [rel IN relationships(path) | rel.weight] AS weights
	`, maxDepth)
}

// zipPath combines the per-hop node maps with the parallel weight list
// returned by the traversal query. Hops missing either half are
// dropped.
func zipPath(steps, weights []any) store.TraversalPath {
	n := len(steps)
	if len(weights) < n {
		n = len(weights)
	}
	path := make(store.TraversalPath, 0, n)
	for i := 0; i < n; i++ {
		node, ok := steps[i].(map[string]any)
		if !ok {
			continue
		}
		id, _ := node["id"].(string)
		title, _ := node["title"].(string)
		path = append(path, store.TraversalStep{
			ID:     id,
			Title:  title,
			Weight: toFloat(weights[i]),
		})
	}
	return path
}

func recordString(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return ""
	}
	s, _ := value.(string)
	return s
}

func recordFloat(record *neo4j.Record, key string) float64 {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return 0
	}
	return toFloat(value)
}

func recordList(record *neo4j.Record, key string) []any {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return nil
	}
	list, _ := value.([]any)
	return list
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}
