package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

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
	flag.Parse()

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

	stats, err := service.Statistics(ctx)
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

	fmt.Println(retrieval.FormatStats(stats))
}
