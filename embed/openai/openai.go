// Package openai provides an embedding provider backed by the OpenAI
// embeddings API (or any compatible endpoint).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vijayakrishna12345/fitness-tracker/embed"
	"github.com/vijayakrishna12345/fitness-tracker/helper"
)

var _ embed.Provider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// Dimensions of the supported OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds the settings for the OpenAI provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider generates embeddings through the OpenAI HTTP API.
type Provider struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewProvider creates a new OpenAI embedding provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, helper.NewError("create openai provider", fmt.Errorf("API key is required"))
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	dimensions, ok := modelDimensions[config.Model]
	if !ok {
		dimensions = 1536
	}

	return &Provider{
		client:     &http.Client{Timeout: config.Timeout},
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		model:      config.Model,
		dimensions: dimensions,
	}, nil
}

// NewProviderFromEnv creates a provider from the OPENAI_* environment.
func NewProviderFromEnv() (*Provider, error) {
	envConfig, err := helper.NewOpenAIConfiguration()
	if err != nil {
		return nil, err
	}
	return NewProvider(Config{
		APIKey:  envConfig.APIKey,
		BaseURL: envConfig.BaseURL,
		Model:   envConfig.Model,
	})
}

// Embed generates the embedding for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, &embed.ProviderError{Op: "embed", Err: fmt.Errorf("no embedding returned")}
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for all texts, chunked to chunkSize
// texts per API call. Chunks are requested in order and a chunk failure
// aborts all later chunks.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, chunkSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for _, bounds := range embed.ChunkBounds(len(texts), chunkSize) {
		vectors, err := p.request(ctx, texts[bounds[0]:bounds[1]])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// Dimensions returns the embedding vector size of the configured model.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

func (p *Provider) request(ctx context.Context, input []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: p.model, Input: input})
	if err != nil {
		return nil, &embed.ProviderError{Op: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, &embed.ProviderError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &embed.ProviderError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &embed.ProviderError{Op: "read response", Err: err}
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, &embed.ProviderError{Op: "decode response", Err: err}
	}
	if embedResp.Error != nil {
		return nil, &embed.ProviderError{Op: "embed", Err: fmt.Errorf("%s", embedResp.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &embed.ProviderError{Op: "embed", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))}
	}

	// The API may return data out of order; reassemble by index.
	vectors := make([][]float32, len(input))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(input) {
			return nil, &embed.ProviderError{Op: "embed", Err: fmt.Errorf("embedding index %d out of range", data.Index)}
		}
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		vectors[data.Index] = vector
	}
	for i, vector := range vectors {
		if vector == nil {
			return nil, &embed.ProviderError{Op: "embed", Err: fmt.Errorf("missing embedding for input %d", i)}
		}
	}
	return vectors, nil
}
