package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Indexing.ChunkSize)
	assert.Equal(t, 200, cfg.Indexing.ChunkOverlap)
	assert.Equal(t, "semdex_codebase", cfg.Qdrant.Collection)
	assert.Equal(t, float32(0.3), cfg.Search.ScoreThreshold)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semdex.yaml")
	yaml := `
qdrant:
  host: qdrant.internal
  port: 7001
  collection: myproject
embedding:
  provider: openai
  model: text-embedding-3-small
  dimensions: 1536
indexing:
  chunk_size: 400
  chunk_overlap: 50
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, 7001, cfg.Qdrant.Port)
	assert.Equal(t, "myproject", cfg.Qdrant.Collection)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, 400, cfg.Indexing.ChunkSize)
	assert.Equal(t, 50, cfg.Indexing.ChunkOverlap)
	// untouched sections keep their defaults
	assert.Equal(t, 5, cfg.Search.Limit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("SEMDEX_COLLECTION", "from_env")
	t.Setenv("SEMDEX_QDRANT_PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Qdrant.Collection)
	assert.Equal(t, 9999, cfg.Qdrant.Port)
}

func TestLoadUnparseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("qdrant: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty collection", func(c *Config) { c.Qdrant.Collection = "" }},
		{"bad port", func(c *Config) { c.Qdrant.Port = 0 }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "carrier-pigeon" }},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }},
		{"zero chunk size", func(c *Config) { c.Indexing.ChunkSize = 0 }},
		{"negative overlap", func(c *Config) { c.Indexing.ChunkOverlap = -1 }},
		{"overlap equals chunk size", func(c *Config) { c.Indexing.ChunkOverlap = c.Indexing.ChunkSize }},
		{"zero workers", func(c *Config) { c.Indexing.Workers = 0 }},
		{"zero batch size", func(c *Config) { c.Indexing.BatchSize = 0 }},
		{"zero search limit", func(c *Config) { c.Search.Limit = 0 }},
		{"threshold above one", func(c *Config) { c.Search.ScoreThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.Search.ScoreThreshold = -0.1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
