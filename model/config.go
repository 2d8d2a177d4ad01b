package model

// EngineConfig holds the tunables shared by the ingestion, retrieval and
// feedback engines. The defaults are the design constants of the system;
// tests substitute alternate weightings through this struct instead of
// patching package-level state.
type EngineConfig struct {
	// Rank fusion
	VectorWeight float64 `json:"vector_weight"` // weight of the similarity signal
	GraphWeight  float64 `json:"graph_weight"`  // weight of the graph signal

	// Retrieval shape
	SearchOverfetch    int `json:"search_overfetch"`     // candidate multiplier before fusion
	NeighborLimit      int `json:"neighbor_limit"`       // graph neighbors expanded per seed
	MaxDepth           int `json:"max_depth"`            // cluster traversal bound
	ClusterSearchLimit int `json:"cluster_search_limit"` // vector neighbors of a cluster root

	// Feedback reinforcement
	ReinforcementDelta float64 `json:"reinforcement_delta"`
	ReinforcementLimit int     `json:"reinforcement_limit"` // outbound edges adjusted per feedback

	// Embedding
	EmbedBatchSize int `json:"embed_batch_size"` // chunk size for batch embedding calls
}

// DefaultEngineConfig returns the standard configuration. Fusion favors
// semantic relevance (0.7) while curated structure breaks ties (0.3).
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		VectorWeight:       0.7,
		GraphWeight:        0.3,
		SearchOverfetch:    2,
		NeighborLimit:      3,
		MaxDepth:           2,
		ClusterSearchLimit: 10,
		ReinforcementDelta: 0.1,
		ReinforcementLimit: 5,
		EmbedBatchSize:     100,
	}
}
