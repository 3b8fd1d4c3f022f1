package models

import "time"

// Chunk is a contiguous slice of one source file's text content. Chunks are
// the unit of embedding: each chunk becomes exactly one record in the vector
// store, keyed by (FilePath, Index).
type Chunk struct {
	FilePath string `json:"file_path"` // relative to the indexed root, slash-separated
	Index    int    `json:"chunk_index"`
	Content  string `json:"content"`
	Language string `json:"language"` // file extension without the dot, "text" if none
	Offset   int    `json:"offset"`   // byte offset of the chunk start in the source file
}

// SearchResult is one ranked match returned by a similarity search.
type SearchResult struct {
	FilePath   string  `json:"file_path"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Language   string  `json:"language"`
	Score      float32 `json:"score"`
	IndexedAt  string  `json:"indexed_at,omitempty"`
}

// SkippedFile records a file the indexer rejected and why.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// FailedChunk records a chunk whose embedding or write failed after retries.
type FailedChunk struct {
	FilePath string `json:"file_path"`
	Index    int    `json:"chunk_index"`
	Reason   string `json:"reason"`
}

// IndexSummary is the result of one indexing run.
type IndexSummary struct {
	FilesScanned  int           `json:"files_scanned"`
	FilesIndexed  int           `json:"files_indexed"`
	FilesSkipped  []SkippedFile `json:"files_skipped,omitempty"`
	ChunksWritten int           `json:"chunks_written"`
	ChunksFailed  []FailedChunk `json:"chunks_failed,omitempty"`
	Elapsed       time.Duration `json:"elapsed"`
}

// CollectionStats describes the indexed collection, computed by scanning
// payloads rather than maintained incrementally.
type CollectionStats struct {
	CollectionName string         `json:"collection_name"`
	TotalChunks    int            `json:"total_chunks"`
	TotalFiles     int            `json:"total_files"`
	Languages      map[string]int `json:"languages"`
	VectorSize     uint64         `json:"vector_size"`
	Distance       string         `json:"distance"`
	Healthy        bool           `json:"healthy"`
}
