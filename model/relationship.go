package model

import (
	"time"
)

// Relationship is a directed, weighted edge between two recommendations.
// Multiple edges of different types may exist between the same pair.
type Relationship struct {
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Type      string    `json:"type"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RelationshipInput is a relationship supplied alongside an ingested item.
// The source is implied by the item being ingested.
type RelationshipInput struct {
	TargetID string  `json:"target_id"`
	Type     string  `json:"type"`
	Weight   float64 `json:"weight"`
}

// Normalized returns the input with a defaulted and clamped weight.
// A zero-valued weight means "not set" and defaults to 1.0.
func (r RelationshipInput) Normalized() RelationshipInput {
	if r.Weight == 0 {
		r.Weight = 1.0
	}
	r.Weight = ClampWeight(r.Weight)
	return r
}

// ClampWeight clamps an edge weight into its [0,1] domain.
func ClampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
