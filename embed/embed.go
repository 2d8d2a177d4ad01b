// Package embed defines the embedding provider consumed by the ingestion
// and retrieval paths: text in, fixed-length vector out. Batch calls are
// order-preserving and chunked; a failing chunk aborts every later chunk
// so a partial embedding list is never used for storage.
package embed

import (
	"context"
	"fmt"
)

// Provider turns text into fixed-length embeddings.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, in input order.
	// chunkSize bounds the number of texts per provider call; values
	// <= 0 send everything in one call.
	EmbedBatch(ctx context.Context, texts []string, chunkSize int) ([][]float32, error)
}

// ProviderError reports a failed embedding call. Nothing is persisted
// when it is returned.
type ProviderError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ChunkBounds yields the [start, end) slice bounds for splitting n texts
// into chunks of at most chunkSize, in order.
func ChunkBounds(n, chunkSize int) [][2]int {
	if n == 0 {
		return nil
	}
	if chunkSize <= 0 || chunkSize > n {
		chunkSize = n
	}
	var bounds [][2]int
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}
