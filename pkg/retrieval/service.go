// Package retrieval translates natural-language queries into ranked matches
// against the indexed collection.
package retrieval

import (
	"context"
	"fmt"

	"github.com/thalvik/semdex/pkg/embed"
	"github.com/thalvik/semdex/pkg/models"
	"github.com/thalvik/semdex/pkg/vector"
)

// Options restricts one search call. Zero values fall back to the
// service defaults given at construction.
type Options struct {
	Limit          int
	ScoreThreshold float32
	PathFilter     string
	LanguageFilter string
}

// Service retrieves relevant chunks for free-text queries. The embedder must
// use the same model the collection was indexed with; a different model
// degrades relevance silently rather than failing.
type Service struct {
	embedder  embed.Embedder
	store     vector.Store
	defaults  Options
	retryConf embed.RetryConfig
}

// New creates a retrieval service with the given default limit and threshold.
func New(embedder embed.Embedder, store vector.Store, defaults Options) *Service {
	return &Service{
		embedder:  embedder,
		store:     store,
		defaults:  defaults,
		retryConf: embed.DefaultRetryConfig(),
	}
}

// Search embeds query and returns at most limit matches above the score
// threshold, ordered by descending score with (path, chunk index) tie-break.
// An empty result list is success, not an error; unreachable services and a
// missing collection surface as vector.ErrUnavailable and
// vector.ErrCollectionMissing respectively.
func (s *Service) Search(ctx context.Context, query string, opts Options) ([]models.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaults.Limit
	}
	threshold := opts.ScoreThreshold
	if threshold == 0 {
		threshold = s.defaults.ScoreThreshold
	}

	var queryVector []float32
	err := embed.WithRetry(ctx, s.retryConf, func() error {
		var embedErr error
		queryVector, embedErr = s.embedder.Embed(ctx, query)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.store.Search(ctx, queryVector, vector.SearchParams{
		Limit:          limit,
		ScoreThreshold: threshold,
		PathFilter:     opts.PathFilter,
		LanguageFilter: opts.LanguageFilter,
	})
	if err != nil {
		return nil, err
	}

	vector.SortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Statistics aggregates collection-wide counts and health. Health covers
// both collaborators: an unreachable embedding service makes future queries
// fail even when the store itself is fine.
func (s *Service) Statistics(ctx context.Context) (models.CollectionStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return stats, err
	}
	stats.Healthy = s.embedder.Available(ctx) && s.store.HealthCheck(ctx) == nil
	return stats, nil
}
