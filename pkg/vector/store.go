// Package vector provides the vector-store client used for indexing and
// retrieval. The store exclusively owns persisted records; callers only issue
// create/overwrite/delete/search operations.
package vector

import (
	"context"
	"errors"

	"github.com/thalvik/semdex/pkg/models"
)

// ErrUnavailable reports that the vector store could not be reached. Callers
// must be able to tell this apart from an empty result set.
var ErrUnavailable = errors.New("vector store unavailable")

// ErrCollectionMissing reports a query against a collection that does not
// exist. It is guidance to run the indexer, not a transport failure.
var ErrCollectionMissing = errors.New("collection missing")

// ErrConfigMismatch reports that an existing collection's vector size or
// distance metric differs from the configuration. Writing would corrupt the
// collection, so this aborts before any write.
var ErrConfigMismatch = errors.New("collection config mismatch")

// SearchParams restricts and ranks a similarity search.
type SearchParams struct {
	Limit          int
	ScoreThreshold float32
	PathFilter     string // substring of the relative file path, empty for no filter
	LanguageFilter string // exact language tag, empty for no filter
}

// Store defines the vector database operations the indexer and retriever
// need. Upserts are idempotent by point id: re-writing an unchanged chunk
// produces an identical record, never a duplicate.
type Store interface {
	// EnsureCollection creates the collection if absent, and verifies the
	// vector size and distance metric if present. A mismatch returns
	// ErrConfigMismatch before anything is written.
	EnsureCollection(ctx context.Context) error

	// DropCollection deletes the collection. Destructive; callers gate it
	// behind explicit confirmation.
	DropCollection(ctx context.Context) error

	// Upsert writes one record per chunk, overwriting by deterministic
	// point id. chunks and vectors correspond by position.
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error

	// DeleteStale removes every record for relPath whose chunk index is
	// >= keepCount, so a shrunk file leaves no orphaned chunks behind.
	DeleteStale(ctx context.Context, relPath string, keepCount int) error

	// Search returns at most params.Limit records above the score
	// threshold, ordered by descending similarity.
	Search(ctx context.Context, vector []float32, params SearchParams) ([]models.SearchResult, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context) (uint64, error)

	// Stats scans collection payloads and aggregates per-file and
	// per-language chunk counts. Diagnostic call, not a query hot path.
	Stats(ctx context.Context) (models.CollectionStats, error)

	// HealthCheck reports whether the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the connection.
	Close() error
}
