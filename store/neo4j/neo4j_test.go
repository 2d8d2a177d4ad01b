package neo4j

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijayakrishna12345/fitness-tracker/store"
)

func TestTraverseQuery(t *testing.T) {
	t.Run("Depth bound is baked into the pattern", func(t *testing.T) {
		query := traverseQuery(2)

		assert.Contains(t, query, "[:RELATED*1..2]")
	})

	t.Run("Weight predicate covers every hop", func(t *testing.T) {
		query := traverseQuery(3)

		assert.Contains(t, query, "ALL(rel IN relationships(path) WHERE rel.weight >= $minWeight)")
	})
}

func TestZipPath(t *testing.T) {
	t.Run("Steps and weights are combined pairwise", func(t *testing.T) {
		steps := []any{
			map[string]any{"id": "a", "title": "A"},
			map[string]any{"id": "b", "title": "B"},
		}
		weights := []any{0.9, 0.8}

		path := zipPath(steps, weights)

		require.Len(t, path, 2)
		assert.Equal(t, store.TraversalStep{ID: "a", Title: "A", Weight: 0.9}, path[0])
		assert.Equal(t, store.TraversalStep{ID: "b", Title: "B", Weight: 0.8}, path[1])
	})

	t.Run("Integer weights are widened", func(t *testing.T) {
		path := zipPath([]any{map[string]any{"id": "a"}}, []any{int64(1)})

		require.Len(t, path, 1)
		assert.Equal(t, 1.0, path[0].Weight)
	})

	t.Run("Length mismatch keeps the shorter half", func(t *testing.T) {
		steps := []any{
			map[string]any{"id": "a"},
			map[string]any{"id": "b"},
		}

		path := zipPath(steps, []any{0.5})

		require.Len(t, path, 1)
		assert.Equal(t, "a", path[0].ID)
	})

	t.Run("Empty input yields an empty path", func(t *testing.T) {
		assert.Empty(t, zipPath(nil, nil))
	})
}
