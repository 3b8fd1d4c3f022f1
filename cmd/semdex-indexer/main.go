package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/thalvik/semdex/pkg/config"
	"github.com/thalvik/semdex/pkg/embed"
	"github.com/thalvik/semdex/pkg/indexer"
	"github.com/thalvik/semdex/pkg/vector"
)

// logError logs an error with file and line information
func logError(err error) {
	_, file, line, _ := runtime.Caller(1)
	log.Fatalf("😡 %s:%d - %v", file, line, err)
}

// logDebug prints debug information only when debug mode is enabled
func logDebug(format string, args ...interface{}) {
	if debugMode {
		fmt.Printf(format+"\n", args...)
	}
}

var (
	debugMode = false // Global debug flag
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	debug := flag.Bool("debug", false, "Enable debug output")
	configPath := flag.String("config", "", "Path to YAML config file")
	root := flag.String("root", ".", "Root directory to index")
	qdrantHost := flag.String("qdrant-host", "", "Qdrant server host (overrides config)")
	qdrantPort := flag.Int("qdrant-port", 0, "Qdrant server gRPC port (overrides config)")
	collection := flag.String("collection", "", "Collection name (overrides config)")
	workers := flag.Int("workers", 0, "Indexing workers (overrides config)")
	recreate := flag.Bool("recreate", false, "Drop and recreate the collection before indexing")
	yes := flag.Bool("yes", false, "Skip the -recreate confirmation prompt")
	flag.Parse()

	debugMode = *debug

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
	if *workers != 0 {
		cfg.Indexing.Workers = *workers
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

	// Preflight both services before touching anything
	fmt.Println("🔍 Checking services...")
	if !embedder.Available(ctx) {
		logError(fmt.Errorf("embedding service not reachable (provider %s)", cfg.Embedding.Provider))
	}
	fmt.Printf("✅ Embedding service is running (model %s, %d dims)\n",
		cfg.Embedding.Model, cfg.Embedding.Dimensions)

	if ollama, ok := embedder.(interface{ CheckModel(context.Context) error }); ok {
		if err := ollama.CheckModel(ctx); err != nil {
			logError(err)
		}
	}

	if err := store.HealthCheck(ctx); err != nil {
		logError(fmt.Errorf("Qdrant not reachable at %s:%d: %w", cfg.Qdrant.Host, cfg.Qdrant.Port, err))
	}
	fmt.Printf("✅ Qdrant is running at %s:%d\n", cfg.Qdrant.Host, cfg.Qdrant.Port)

	if *recreate {
		if !*yes && !confirm(fmt.Sprintf("Drop collection %q and re-index from scratch?", cfg.Qdrant.Collection)) {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
		logDebug("🗑️ Deleting existing collection: %s", cfg.Qdrant.Collection)
		if err := store.DropCollection(ctx); err != nil {
			logError(err)
		}
	}

	fmt.Printf("\n🚀 Indexing %s into collection %q\n", *root, cfg.Qdrant.Collection)

	ix := indexer.New(embedder, store, cfg)
	ix.SetProgress(func(done, total int, relPath string) {
		logDebug("📄 [%d/%d] %s", done, total, relPath)
	})

	summary, err := ix.Run(ctx, *root)
	if err != nil {
		logError(err)
	}

	fmt.Printf("\n✅ Indexing complete in %s\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("📚 Files scanned: %d, indexed: %d, skipped: %d\n",
		summary.FilesScanned, summary.FilesIndexed, len(summary.FilesSkipped))
	fmt.Printf("🧩 Chunks written: %d, failed: %d\n",
		summary.ChunksWritten, len(summary.ChunksFailed))

	for _, skip := range summary.FilesSkipped {
		logDebug("⚠️ skipped %s: %s", skip.Path, skip.Reason)
	}
	for _, fail := range summary.ChunksFailed {
		fmt.Printf("⚠️ failed chunk %s#%d: %s\n", fail.FilePath, fail.Index, fail.Reason)
	}

	if len(summary.ChunksFailed) > 0 {
		os.Exit(1)
	}
}

// confirm asks the user a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
