// Package indexer walks a file tree, chunks file contents, embeds each chunk
// and upserts the records into the vector store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/thalvik/semdex/pkg/chunker"
	"github.com/thalvik/semdex/pkg/config"
	"github.com/thalvik/semdex/pkg/embed"
	"github.com/thalvik/semdex/pkg/models"
	"github.com/thalvik/semdex/pkg/scanner"
	"github.com/thalvik/semdex/pkg/vector"
)

// Progress is called after each file completes, for CLI progress output.
// done and total count files; nil disables reporting.
type Progress func(done, total int, relPath string)

// Indexer runs the indexing pipeline against one embedding service and one
// vector store. Both are injected, so tests substitute in-memory fakes.
type Indexer struct {
	embedder embed.Embedder
	store    vector.Store
	cfg      config.Config
	retry    embed.RetryConfig
	progress Progress
}

// New creates an Indexer. cfg must already be validated.
func New(embedder embed.Embedder, store vector.Store, cfg config.Config) *Indexer {
	retry := embed.DefaultRetryConfig()
	if cfg.Embedding.MaxRetries > 0 {
		retry.MaxRetries = cfg.Embedding.MaxRetries
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		retry:    retry,
	}
}

// SetProgress installs a per-file progress callback.
func (ix *Indexer) SetProgress(p Progress) { ix.progress = p }

// Run indexes the tree rooted at root and returns the run summary.
//
// Preconditions (unreachable services, collection config mismatch) abort
// before any write. Per-file and per-chunk failures are recorded in the
// summary and never abort the run; a dimension mismatch discovered mid-run
// does abort, because it means every further write would be wrong too.
func (ix *Indexer) Run(ctx context.Context, root string) (*models.IndexSummary, error) {
	start := time.Now()

	if !ix.embedder.Available(ctx) {
		return nil, fmt.Errorf("embedding service (%s) unreachable", ix.embedder.ModelName())
	}
	if err := ix.store.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("vector store unreachable: %w", err)
	}
	if err := ix.store.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	files, skipped, err := scanner.Scan(root, scanner.Options{
		IncludeExtensions: ix.cfg.Indexing.IncludeExtensions,
		ExcludePatterns:   ix.cfg.Indexing.ExcludePatterns,
		MaxFileBytes:      ix.cfg.Indexing.MaxFileBytes,
	})
	if err != nil {
		return nil, err
	}

	summary := &models.IndexSummary{
		FilesScanned: len(files),
		FilesSkipped: skipped,
	}
	var mu sync.Mutex
	var done int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Indexing.Workers)

	for _, file := range files {
		file := file
		g.Go(func() error {
			written, failed, skipReason, err := ix.indexFile(gctx, file)
			if err != nil {
				// Only configuration bugs propagate; they cancel
				// the group and abort the run.
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if skipReason != "" {
				summary.FilesSkipped = append(summary.FilesSkipped, models.SkippedFile{
					Path:   file.RelPath,
					Reason: skipReason,
				})
			} else {
				summary.FilesIndexed++
			}
			// A skipped file may still have chunks persisted before the
			// failure; count everything that actually reached the store.
			summary.ChunksWritten += written
			summary.ChunksFailed = append(summary.ChunksFailed, failed...)
			if ix.progress != nil {
				ix.progress(done, len(files), file.RelPath)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}

// indexFile processes one file end to end: read, chunk, embed, upsert, then
// reconcile stale chunk indices. The returned error is reserved for fatal
// configuration problems; everything else degrades to a skip reason or
// per-chunk failure records.
func (ix *Indexer) indexFile(ctx context.Context, file scanner.File) (written int, failed []models.FailedChunk, skipReason string, err error) {
	data, readErr := os.ReadFile(file.Path)
	if readErr != nil {
		return 0, nil, fmt.Sprintf("read failed: %v", readErr), nil
	}
	if !utf8.Valid(data) {
		return 0, nil, "not valid UTF-8", nil
	}
	content := string(data)
	if len(content) == 0 {
		return 0, nil, "empty file", nil
	}

	pieces, chunkErr := chunker.Split(content, ix.cfg.Indexing.ChunkSize, ix.cfg.Indexing.ChunkOverlap)
	if chunkErr != nil {
		// Split only fails on invalid size/overlap, which Validate
		// already rejected; reaching this is a programming error.
		return 0, nil, "", chunkErr
	}

	language := scanner.Language(file.RelPath)
	chunks := make([]models.Chunk, 0, len(pieces))
	vectors := make([][]float32, 0, len(pieces))

	for i, piece := range pieces {
		var vec []float32
		embedErr := embed.WithRetry(ctx, ix.retry, func() error {
			var attemptErr error
			vec, attemptErr = ix.embedder.Embed(ctx, piece.Text)
			return attemptErr
		})
		if embedErr != nil {
			if errors.Is(embedErr, embed.ErrDimensionMismatch) {
				return 0, nil, "", embedErr
			}
			failed = append(failed, models.FailedChunk{
				FilePath: file.RelPath,
				Index:    i,
				Reason:   embedErr.Error(),
			})
			continue
		}

		chunks = append(chunks, models.Chunk{
			FilePath: file.RelPath,
			Index:    i,
			Content:  piece.Text,
			Language: language,
			Offset:   piece.Offset,
		})
		vectors = append(vectors, vec)
	}

	for start := 0; start < len(chunks); start += ix.cfg.Indexing.BatchSize {
		end := start + ix.cfg.Indexing.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if upsertErr := ix.store.Upsert(ctx, chunks[start:end], vectors[start:end]); upsertErr != nil {
			if errors.Is(upsertErr, vector.ErrConfigMismatch) {
				return 0, nil, "", upsertErr
			}
			// Earlier batches are already live in the collection, so their
			// count must survive into the summary.
			return written, failed, fmt.Sprintf("upsert failed: %v", upsertErr), nil
		}
		written += end - start
	}

	// Reconcile after all of this file's chunks are written: a shrunk file
	// must leave no records beyond its new chunk count.
	if staleErr := ix.store.DeleteStale(ctx, file.RelPath, len(pieces)); staleErr != nil {
		return written, failed, fmt.Sprintf("stale chunk cleanup failed: %v", staleErr), nil
	}

	return written, failed, "", nil
}
