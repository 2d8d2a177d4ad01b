package model

// RankedResult is a single fused result from hybrid retrieval.
// FinalScore = VectorWeight*VectorScore + GraphWeight*GraphScore.
type RankedResult struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	VectorScore float64  `json:"vector_score"`
	GraphScore  float64  `json:"graph_score"`
	FinalScore  float64  `json:"final_score"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// ClusterMember is a recommendation reached from a cluster root, either
// through admissible graph paths, vector similarity, or both.
type ClusterMember struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	VectorScore  float64  `json:"vector_score"`
	ClusterScore float64  `json:"cluster_score"` // product of edge weights on the best path
	FinalScore   float64  `json:"final_score"`
	Path         []string `json:"path,omitempty"` // ids from root to member, best path
}
