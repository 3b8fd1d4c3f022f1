package embed

import (
	"context"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder generates embeddings through the OpenAI API. It is the
// alternative to the default local Ollama provider for machines without a
// local model runtime.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder. The API key comes from
// the caller (usually the OPENAI_API_KEY environment variable).
func NewOpenAIEmbedder(apiKey, model string, dims int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set: %w", ErrPermanent)
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
		dims:   dims,
	}, nil
}

// Embed requests an embedding for text from the OpenAI API.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return nil, fmt.Errorf("cannot embed empty text: %w", ErrPermanent)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned from API")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	copy(vector, resp.Data[0].Embedding)
	l2normalize(vector)

	return checkDimensions(vector, e.dims)
}

// Dimensions returns the configured output dimensionality.
func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

// ModelName returns the OpenAI model identifier.
func (e *OpenAIEmbedder) ModelName() string { return e.model }

// Available reports whether the API is reachable by listing models.
func (e *OpenAIEmbedder) Available(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := e.client.ListModels(reqCtx)
	return err == nil
}

// Close releases client resources.
func (e *OpenAIEmbedder) Close() error { return nil }

// l2normalize scales v to unit length in place. Cosine scores are unaffected,
// but normalized vectors keep stored magnitudes comparable across providers.
func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
