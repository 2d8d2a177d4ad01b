// Package pgvector implements store.VectorIndex on Postgres with the
// pgvector extension. It is the self-hosted alternative to the Qdrant
// backend; both satisfy the same interface.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	pgv "github.com/pgvector/pgvector-go"

	"github.com/vijayakrishna12345/fitness-tracker/helper"
	"github.com/vijayakrishna12345/fitness-tracker/model"
	loadSql "github.com/vijayakrishna12345/fitness-tracker/sql"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

// Index is a store.VectorIndex backed by a Postgres table.
type Index struct {
	db *helper.Database
}

// NewIndex creates a new pgvector index handler.
// It loads the recommendation SQL functions and creates the table for
// the given embedding dimension. If force is true, the SQL functions
// are reloaded even if they already exist.
func NewIndex(db *helper.Database, embeddingDim int, force bool) (*Index, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	index := &Index{db: db}

	err := loadSql.LoadRecommendationsSql(index.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load recommendations sql", err)
	}

	err = index.createTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized pgvector index")

	return index, nil
}

func (i *Index) createTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := i.db.Instance.ExecContext(ctx, `SELECT init_recommendations($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("initialize recommendations table", err)
	}

	i.db.Logger.Info("Checked/created table recommendations")

	return nil
}

// Upsert writes one entry, replacing any previous entry with the id.
func (i *Index) Upsert(ctx context.Context, item store.VectorItem) error {
	_, err := i.db.Instance.ExecContext(
		ctx,
		`SELECT upsert_recommendation($1, $2, $3)`,
		item.ID,
		pgv.NewVector(item.Embedding),
		item.Metadata,
	)
	if err != nil {
		return store.NewVectorError("upsert", err)
	}
	return nil
}

// UpsertBatch writes all entries in one transaction.
func (i *Index) UpsertBatch(ctx context.Context, items []store.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := i.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return store.NewVectorError("upsert batch", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.ExecContext(
			ctx,
			`SELECT upsert_recommendation($1, $2, $3)`,
			item.ID,
			pgv.NewVector(item.Embedding),
			item.Metadata,
		)
		if err != nil {
			return store.NewVectorError("upsert batch", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.NewVectorError("upsert batch", err)
	}
	return nil
}

// Search returns the nearest entries by cosine similarity, most similar
// first. Filter keys match against top-level metadata keys.
func (i *Index) Search(ctx context.Context, vector []float32, filter store.Filter, limit int) ([]store.SearchHit, error) {
	filterJSON, err := filterToJSON(filter)
	if err != nil {
		return nil, store.NewVectorError("search", err)
	}

	rows, err := i.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_recommendations_by_similarity($1, $2, $3)`,
		pgv.NewVector(vector),
		filterJSON,
		limit,
	)
	if err != nil {
		return nil, store.NewVectorError("search", err)
	}
	defer rows.Close()

	var hits []store.SearchHit
	for rows.Next() {
		var hit store.SearchHit
		if err := rows.Scan(&hit.ID, &hit.Score, &hit.Metadata); err != nil {
			return nil, store.NewVectorError("search scan", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewVectorError("search", err)
	}
	return hits, nil
}

// Fetch returns the stored entry with its vector, or nil when the id is
// unknown.
func (i *Index) Fetch(ctx context.Context, id string) (*store.VectorItem, error) {
	row := i.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_recommendation($1)`,
		id,
	)

	var item store.VectorItem
	var embedding pgv.Vector
	err := row.Scan(&item.ID, &embedding, &item.Metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewVectorError("fetch", err)
	}
	item.Embedding = embedding.Slice()
	return &item, nil
}

// Delete removes the entry. Deleting an unknown id is not an error.
func (i *Index) Delete(ctx context.Context, id string) error {
	_, err := i.db.Instance.ExecContext(ctx, `SELECT delete_recommendation($1)`, id)
	if err != nil {
		return store.NewVectorError("delete", err)
	}
	return nil
}

// PatchMetadata merges the partial metadata into the stored metadata,
// leaving the vector and unrelated keys untouched.
func (i *Index) PatchMetadata(ctx context.Context, id string, partial model.Metadata) error {
	_, err := i.db.Instance.ExecContext(
		ctx,
		`SELECT patch_recommendation_metadata($1, $2)`,
		id,
		partial,
	)
	if err != nil {
		return store.NewVectorError("patch metadata", err)
	}
	return nil
}

// filterToJSON renders the flat filter as a jsonb containment object.
// Nil and empty filters both render as the empty object, which the SQL
// side treats as match-all.
func filterToJSON(filter store.Filter) (string, error) {
	if len(filter) == 0 {
		return "{}", nil
	}
	out, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
