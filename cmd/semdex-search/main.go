package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"

	"github.com/thalvik/semdex/pkg/config"
	"github.com/thalvik/semdex/pkg/embed"
	"github.com/thalvik/semdex/pkg/retrieval"
	"github.com/thalvik/semdex/pkg/vector"
)

// logError logs an error with file and line information
func logError(err error) {
	_, file, line, _ := runtime.Caller(1)
	log.Fatalf("😡 %s:%d - %v", file, line, err)
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config file")
	qdrantHost := flag.String("qdrant-host", "", "Qdrant server host (overrides config)")
	qdrantPort := flag.Int("qdrant-port", 0, "Qdrant server gRPC port (overrides config)")
	collection := flag.String("collection", "", "Collection name (overrides config)")
	limit := flag.Int("limit", 0, "Maximum number of results (overrides config)")
	threshold := flag.Float64("threshold", -1, "Minimum similarity score in [0,1] (overrides config)")
	pathFilter := flag.String("file", "", "Only return chunks whose file path contains this substring")
	langFilter := flag.String("lang", "", "Only return chunks with this language tag (e.g. go, py)")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: semdex-search [flags] <query>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logError(err)
	}
	if *qdrantHost != "" {
		cfg.Qdrant.Host = *qdrantHost
	}
	if *qdrantPort != 0 {
		cfg.Qdrant.Port = *qdrantPort
	}
	if *collection != "" {
		cfg.Qdrant.Collection = *collection
	}
	if *limit > 0 {
		cfg.Search.Limit = *limit
	}
	if *threshold >= 0 {
		cfg.Search.ScoreThreshold = float32(*threshold)
	}
	if err := cfg.Validate(); err != nil {
		logError(err)
	}

	ctx := context.Background()

	embedder, err := embed.New(cfg.Embedding)
	if err != nil {
		logError(err)
	}
	defer embedder.Close()

	store, err := vector.NewQdrantStore(cfg.Qdrant.Host, cfg.Qdrant.Port,
		cfg.Qdrant.Collection, cfg.Embedding.Dimensions, cfg.Embedding.RequestTimeout())
	if err != nil {
		logError(err)
	}
	defer store.Close()

	service := retrieval.New(embedder, store, retrieval.Options{
		Limit:          cfg.Search.Limit,
		ScoreThreshold: cfg.Search.ScoreThreshold,
	})

	count, err := store.Count(ctx)
	if err != nil {
		if errors.Is(err, vector.ErrCollectionMissing) {
			fmt.Printf("📭 Collection %q does not exist. Run semdex-indexer first.\n", cfg.Qdrant.Collection)
			os.Exit(1)
		}
		if errors.Is(err, vector.ErrUnavailable) {
			logError(fmt.Errorf("Qdrant not reachable at %s:%d: %w", cfg.Qdrant.Host, cfg.Qdrant.Port, err))
		}
		logError(err)
	}
	if count == 0 {
		fmt.Printf("📭 Collection %q is empty. Run semdex-indexer first.\n", cfg.Qdrant.Collection)
		os.Exit(1)
	}

	results, err := service.Search(ctx, query, retrieval.Options{
		PathFilter:     *pathFilter,
		LanguageFilter: *langFilter,
	})
	if err != nil {
		if errors.Is(err, vector.ErrUnavailable) {
			logError(fmt.Errorf("service unavailable: %w", err))
		}
		logError(err)
	}

	fmt.Printf("🦄 Query: %s\n", query)
	fmt.Printf("📊 Collection: %s (%d indexed chunks)\n\n", cfg.Qdrant.Collection, count)
	fmt.Println(retrieval.FormatResults(results, cfg.Search.MaxContentLength))
}
