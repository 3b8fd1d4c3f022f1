package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaEmbedder generates embeddings through a local Ollama server.
type OllamaEmbedder struct {
	client  *api.Client
	model   string
	dims    int
	timeout time.Duration
}

// NewOllamaEmbedder creates a client for the Ollama server at host
// (e.g. "http://localhost:11434"). The model and dims must match the
// collection the vectors are written to.
func NewOllamaEmbedder(host, model string, dims int, timeout time.Duration) (*OllamaEmbedder, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama host URL %q: %w", host, err)
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	return &OllamaEmbedder{
		client:  api.NewClient(base, httpClient),
		model:   model,
		dims:    dims,
		timeout: timeout,
	}, nil
}

// Embed requests an embedding for text from the Ollama server.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings(reqCtx, &api.EmbeddingRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		if isUnknownModel(err) {
			return nil, fmt.Errorf("model %q: %v: %w", e.model, err, ErrPermanent)
		}
		return nil, fmt.Errorf("ollama embedding request: %w", err)
	}

	vector := make([]float32, len(resp.Embedding))
	for i, val := range resp.Embedding {
		vector[i] = float32(val)
	}
	return checkDimensions(vector, e.dims)
}

// Dimensions returns the configured output dimensionality.
func (e *OllamaEmbedder) Dimensions() int { return e.dims }

// ModelName returns the Ollama model identifier.
func (e *OllamaEmbedder) ModelName() string { return e.model }

// Available reports whether the Ollama server responds to a heartbeat.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return e.client.Heartbeat(reqCtx) == nil
}

// CheckModel verifies the configured model is present on the server, so a
// missing pull is reported before indexing starts rather than per chunk.
func (e *OllamaEmbedder) CheckModel(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	list, err := e.client.List(reqCtx)
	if err != nil {
		return fmt.Errorf("listing Ollama models: %w", err)
	}
	for _, m := range list.Models {
		if m.Name == e.model || strings.TrimSuffix(m.Name, ":latest") == e.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found on Ollama server, pull it first: %w", e.model, ErrPermanent)
}

// Close releases client resources. The underlying HTTP client needs none.
func (e *OllamaEmbedder) Close() error { return nil }

func isUnknownModel(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no such model")
}
