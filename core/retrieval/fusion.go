package retrieval

import (
	"sort"

	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/store"
)

// GraphSignal is a graph-derived relevance signal for one id. For
// Recommend the score is a direct edge weight, for Cluster it is a
// path-product cluster score; fusion does not care which.
type GraphSignal struct {
	ID    string
	Title string
	Score float64
}

// fuse combines vector hits and graph signals into one ranked list.
// Every vector hit seeds an entry; a graph signal either sets the graph
// score of an existing entry (last value wins, scores are not summed
// across signals) or creates a graph-only entry. Missing legs score 0.
// The result is ordered by final score descending with a deterministic
// id-ascending tie-break, independent of map iteration order.
func fuse(vectorHits []store.SearchHit, graphSignals []GraphSignal, config model.EngineConfig) []model.RankedResult {
	combined := make(map[string]*model.RankedResult, len(vectorHits)+len(graphSignals))

	for _, hit := range vectorHits {
		title, _ := hit.Metadata["title"].(string)
		combined[hit.ID] = &model.RankedResult{
			ID:          hit.ID,
			Title:       title,
			VectorScore: hit.Score,
			Metadata:    hit.Metadata,
		}
	}

	for _, signal := range graphSignals {
		if existing, ok := combined[signal.ID]; ok {
			existing.GraphScore = signal.Score
			if existing.Title == "" {
				existing.Title = signal.Title
			}
			continue
		}
		combined[signal.ID] = &model.RankedResult{
			ID:         signal.ID,
			Title:      signal.Title,
			GraphScore: signal.Score,
			Metadata:   model.Metadata{},
		}
	}

	results := make([]model.RankedResult, 0, len(combined))
	for _, result := range combined {
		result.FinalScore = config.VectorWeight*result.VectorScore + config.GraphWeight*result.GraphScore
		results = append(results, *result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].ID < results[j].ID
	})

	return results
}
