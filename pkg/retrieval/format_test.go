package retrieval

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/thalvik/semdex/pkg/models"
)

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestFormatResultsEmpty(t *testing.T) {
	disableColor(t)
	assert.Equal(t, "No results found.", FormatResults(nil, 300))
}

func TestFormatResults(t *testing.T) {
	disableColor(t)
	out := FormatResults([]models.SearchResult{
		{FilePath: "pkg/auth/token.go", ChunkIndex: 2, Language: "go", Score: 0.9137, Content: "func Refresh() {}"},
	}, 300)

	assert.Contains(t, out, "[1] pkg/auth/token.go#2 (score 0.9137)")
	assert.Contains(t, out, "language: go")
	assert.Contains(t, out, "    func Refresh() {}")
}

func TestFormatResultsTruncatesContent(t *testing.T) {
	disableColor(t)
	out := FormatResults([]models.SearchResult{
		{FilePath: "a.go", Content: strings.Repeat("x", 500)},
	}, 100)

	assert.Contains(t, out, strings.Repeat("x", 100)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 101))
}

func TestFormatStats(t *testing.T) {
	disableColor(t)
	out := FormatStats(models.CollectionStats{
		CollectionName: "semdex_codebase",
		TotalChunks:    100,
		TotalFiles:     12,
		Languages:      map[string]int{"go": 75, "md": 25},
		VectorSize:     768,
		Distance:       "Cosine",
		Healthy:        true,
	})

	assert.Contains(t, out, "Collection:      semdex_codebase")
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "768 dimensions")
	assert.Contains(t, out, "Total chunks:    100")

	// languages listed by descending chunk count with percentages
	goIdx := strings.Index(out, "go ")
	mdIdx := strings.Index(out, "md ")
	assert.Greater(t, mdIdx, goIdx)
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "25.0%")
}

func TestFormatStatsUnhealthy(t *testing.T) {
	disableColor(t)
	out := FormatStats(models.CollectionStats{CollectionName: "c"})
	assert.Contains(t, out, "unreachable")
	assert.Contains(t, out, "no language data")
}
