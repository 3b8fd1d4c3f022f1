package embed

import (
	"fmt"
	"os"

	"github.com/thalvik/semdex/pkg/config"
)

// New creates the embedder selected by cfg.Provider, wrapped with an LRU
// cache when cfg.CacheSize > 0.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	var embedder Embedder
	var err error

	switch cfg.Provider {
	case "ollama":
		embedder, err = NewOllamaEmbedder(cfg.OllamaHost, cfg.Model, cfg.Dimensions, cfg.RequestTimeout())
	case "openai":
		embedder, err = NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), cfg.Model, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		embedder = NewCachedEmbedder(embedder, cfg.CacheSize)
	}
	return embedder, nil
}
