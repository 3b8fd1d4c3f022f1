package vector

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalvik/semdex/pkg/models"
)

func TestPointIDDeterministic(t *testing.T) {
	a := PointID("pkg/scanner/scanner.go", 3)
	b := PointID("pkg/scanner/scanner.go", 3)
	assert.Equal(t, a, b, "same (path, index) must always map to the same id")

	_, err := uuid.Parse(a)
	require.NoError(t, err, "point ids must be valid UUIDs")
}

func TestPointIDDistinguishesPathAndIndex(t *testing.T) {
	ids := map[string]bool{
		PointID("a.go", 0):   true,
		PointID("a.go", 1):   true,
		PointID("a.go", 10):  true,
		PointID("b.go", 0):   true,
		PointID("a.go#1", 0): true, // separator must not let crafted paths collide
	}
	assert.Len(t, ids, 5)
}

func TestSortResultsOrdering(t *testing.T) {
	results := []models.SearchResult{
		{FilePath: "b.go", ChunkIndex: 2, Score: 0.5},
		{FilePath: "a.go", ChunkIndex: 1, Score: 0.9},
		{FilePath: "b.go", ChunkIndex: 0, Score: 0.5},
		{FilePath: "a.go", ChunkIndex: 7, Score: 0.5},
	}

	SortResults(results)

	assert.Equal(t, "a.go", results[0].FilePath)
	assert.Equal(t, float32(0.9), results[0].Score)
	// ties resolved by path, then chunk index
	assert.Equal(t, models.SearchResult{FilePath: "a.go", ChunkIndex: 7, Score: 0.5}, results[1])
	assert.Equal(t, models.SearchResult{FilePath: "b.go", ChunkIndex: 0, Score: 0.5}, results[2])
	assert.Equal(t, models.SearchResult{FilePath: "b.go", ChunkIndex: 2, Score: 0.5}, results[3])
}
