package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete semdex configuration. Values come from, in order of
// precedence: environment variables (SEMDEX_*), the YAML config file, and the
// built-in defaults.
type Config struct {
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Search    SearchConfig    `yaml:"search"`
}

// QdrantConfig configures the vector store connection and target collection.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"` // gRPC port
	Collection string `yaml:"collection"`
}

// EmbeddingConfig configures the embedding provider. Model and Dimensions are
// one atomic decision: the collection is created with Dimensions and every
// vector is validated against it, so changing the model requires changing the
// dimensions (and re-indexing) together.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "ollama" (default) or "openai"
	Model          string `yaml:"model"`
	Dimensions     int    `yaml:"dimensions"`
	OllamaHost     string `yaml:"ollama_host"`
	CacheSize      int    `yaml:"cache_size"` // LRU entries, 0 disables caching
	MaxRetries     int    `yaml:"max_retries"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // per-request timeout
}

// IndexingConfig configures the chunking policy and file filtering.
type IndexingConfig struct {
	ChunkSize         int      `yaml:"chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	MaxFileBytes      int64    `yaml:"max_file_bytes"` // larger files are skipped, not truncated
	Workers           int      `yaml:"workers"`
	BatchSize         int      `yaml:"batch_size"` // points per upsert request
	IncludeExtensions []string `yaml:"include_extensions"`
	ExcludePatterns   []string `yaml:"exclude_patterns"`
}

// SearchConfig configures query-time defaults.
type SearchConfig struct {
	Limit            int     `yaml:"limit"`
	ScoreThreshold   float32 `yaml:"score_threshold"`
	MaxContentLength int     `yaml:"max_content_length"` // result content truncation for display
}

// DefaultIncludeExtensions is the set of text/source/doc formats worth
// embedding. Everything else is treated as binary and skipped.
var DefaultIncludeExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".cpp", ".c", ".h", ".hpp",
	".cs", ".php", ".rb", ".go", ".rs", ".swift", ".kt", ".scala", ".clj",
	".hs", ".ml", ".fs", ".elm", ".dart", ".lua", ".pl", ".r", ".sh", ".bash",
	".zsh", ".fish", ".ps1", ".sql", ".xml", ".html", ".css", ".scss", ".sass",
	".less", ".json", ".yaml", ".yml", ".toml", ".ini", ".cfg", ".conf",
	".md", ".txt", ".rst",
}

// DefaultExcludePatterns rejects VCS metadata, dependency trees and caches.
// A pattern starting with "*" matches a filename suffix, anything else matches
// as a path substring.
var DefaultExcludePatterns = []string{
	".git", "node_modules", "__pycache__", "vendor", ".venv", "dist",
	".DS_Store", "*.min.js", "*.lock", "*.log", "*.tmp",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "semdex_codebase",
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			Model:          "nomic-embed-text",
			Dimensions:     768,
			OllamaHost:     "http://localhost:11434",
			CacheSize:      1024,
			MaxRetries:     3,
			TimeoutSeconds: 30,
		},
		Indexing: IndexingConfig{
			ChunkSize:         1000,
			ChunkOverlap:      200,
			MaxFileBytes:      1 << 20, // 1 MiB
			Workers:           4,
			BatchSize:         100,
			IncludeExtensions: DefaultIncludeExtensions,
			ExcludePatterns:   DefaultExcludePatterns,
		},
		Search: SearchConfig{
			Limit:            5,
			ScoreThreshold:   0.3,
			MaxContentLength: 300,
		},
	}
}

// Load reads the config file at path (if path is non-empty), applies
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides config values from SEMDEX_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SEMDEX_QDRANT_HOST"); v != "" {
		cfg.Qdrant.Host = v
	}
	if v := os.Getenv("SEMDEX_QDRANT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Qdrant.Port = p
		}
	}
	if v := os.Getenv("SEMDEX_COLLECTION"); v != "" {
		cfg.Qdrant.Collection = v
	}
	if v := os.Getenv("SEMDEX_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("SEMDEX_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("SEMDEX_EMBEDDING_DIMENSIONS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimensions = d
		}
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Embedding.OllamaHost = v
	}
}

// Validate checks the configuration invariants. Violations are configuration
// errors: fatal, reported before any work is attempted.
func (c Config) Validate() error {
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("config: collection name must not be empty")
	}
	if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("config: invalid qdrant port %d", c.Qdrant.Port)
	}
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("config: embedding dimensions must be > 0, got %d", c.Embedding.Dimensions)
	}
	if c.Indexing.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk_size must be > 0, got %d", c.Indexing.ChunkSize)
	}
	if c.Indexing.ChunkOverlap < 0 || c.Indexing.ChunkOverlap >= c.Indexing.ChunkSize {
		return fmt.Errorf("config: chunk_overlap must be in [0, chunk_size), got %d with chunk_size %d",
			c.Indexing.ChunkOverlap, c.Indexing.ChunkSize)
	}
	if c.Indexing.Workers <= 0 {
		return fmt.Errorf("config: workers must be > 0, got %d", c.Indexing.Workers)
	}
	if c.Indexing.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be > 0, got %d", c.Indexing.BatchSize)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("config: search limit must be > 0, got %d", c.Search.Limit)
	}
	if c.Search.ScoreThreshold < 0 || c.Search.ScoreThreshold > 1 {
		return fmt.Errorf("config: score_threshold must be in [0, 1], got %g", c.Search.ScoreThreshold)
	}
	return nil
}

// RequestTimeout returns the per-request timeout for embedding calls.
func (c EmbeddingConfig) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
