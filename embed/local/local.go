// Package local provides an embedding provider backed by a local
// sentence-transformer model through hugot. Useful for development and
// offline runs; the remote provider stays the production default.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/vijayakrishna12345/fitness-tracker/embed"
	"github.com/vijayakrishna12345/fitness-tracker/helper"
)

var _ embed.Provider = (*Provider)(nil)

// DefaultModel is the all-MiniLM-L6-v2 sentence transformer, producing
// 384-dimensional embeddings.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Provider generates embeddings with a local ONNX model.
type Provider struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewProvider downloads the model if needed and initializes a hugot
// session with the Go backend.
func NewProvider(modelName string) (*Provider, error) {
	if modelName == "" {
		modelName = DefaultModel
	}

	modelPath, err := prepareModel(modelName)
	if err != nil {
		return nil, helper.NewError("prepare model", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.NewError("create hugot session", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "recommender-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, helper.NewError("create feature extraction pipeline", fmt.Errorf("%w (cleanup error: %v)", err, destroyErr))
		}
		return nil, helper.NewError("create feature extraction pipeline", err)
	}

	return &Provider{session: session, pipeline: pipeline}, nil
}

// Embed generates the embedding for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := p.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, &embed.ProviderError{Op: "embed", Err: err}
	}
	if len(result.Embeddings) == 0 {
		return nil, &embed.ProviderError{Op: "embed", Err: fmt.Errorf("no embedding generated")}
	}
	return result.Embeddings[0], nil
}

// EmbedBatch generates embeddings for all texts, chunkSize texts per
// pipeline run, in order. A failing chunk aborts all later chunks.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, chunkSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for _, bounds := range embed.ChunkBounds(len(texts), chunkSize) {
		chunk := texts[bounds[0]:bounds[1]]
		result, err := p.pipeline.RunPipeline(chunk)
		if err != nil {
			return nil, &embed.ProviderError{Op: "embed batch", Err: err}
		}
		if len(result.Embeddings) != len(chunk) {
			return nil, &embed.ProviderError{Op: "embed batch", Err: fmt.Errorf("got %d embeddings for %d texts", len(result.Embeddings), len(chunk))}
		}
		out = append(out, result.Embeddings...)
	}
	return out, nil
}

// Close destroys the hugot session.
func (p *Provider) Close() error {
	if p.session != nil {
		return p.session.Destroy()
	}
	return nil
}

// prepareModel downloads the model if it is not cached yet and returns
// the local model path.
func prepareModel(modelName string) (string, error) {
	modelDir := "./models"
	cached := filepath.Join(modelDir, "sentence-transformers_all-MiniLM-L6-v2")

	if _, err := os.Stat(cached); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		downloadOptions.OnnxFilePath = "onnx/model.onnx"
		downloaded, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("failed to download model: %w", err)
		}
		return downloaded, nil
	}

	return cached, nil
}
