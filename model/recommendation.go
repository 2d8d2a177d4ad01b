package model

import (
	"time"
)

// Recommendation is the unit of content served by the engine. It lives in
// both the vector index (embedding + metadata) and the relationship graph
// (node + weighted edges), never in only one of them after a completed call.
type Recommendation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecommendationUpdate carries a partial update. Nil fields are left as-is.
type RecommendationUpdate struct {
	Title         *string             `json:"title,omitempty"`
	Content       *string             `json:"content,omitempty"`
	Category      *string             `json:"category,omitempty"`
	Tags          []string            `json:"tags,omitempty"`
	Metadata      Metadata            `json:"metadata,omitempty"`
	Relationships []RelationshipInput `json:"relationships,omitempty"`
}

// HasContentChange reports whether the update touches an embedded field,
// meaning a re-embedding pass would produce a different vector.
func (u *RecommendationUpdate) HasContentChange() bool {
	return u.Title != nil || u.Content != nil
}
