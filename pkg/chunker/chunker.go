// Package chunker splits file contents into overlapping fixed-size chunks.
package chunker

import (
	"fmt"
	"unicode/utf8"
)

// Chunk is one window of the input text together with the byte offset of its
// start in the original string.
type Chunk struct {
	Text   string
	Offset int
}

// Split cuts text into chunks of at most size characters, each window
// advancing by size-overlap characters. Windows are measured in runes, never
// bytes, so a boundary can never bisect a multi-byte character: every chunk is
// valid UTF-8 whenever the input is. Any non-empty text yields at least one
// chunk; the final chunk may be shorter than size and is never padded.
// Concatenating the chunks in order, dropping each chunk's leading overlap
// characters, reconstructs the input.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be > 0, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d with chunk size %d", overlap, size)
	}

	if len(text) == 0 {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []Chunk{{Text: text, Offset: 0}}, nil
	}

	step := size - overlap
	chunks := make([]Chunk, 0, len(runes)/step+1)
	offset := 0 // byte offset of the current window start
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{Text: string(runes[start:end]), Offset: offset})

		stepEnd := start + step
		if stepEnd > len(runes) {
			stepEnd = len(runes)
		}
		for _, r := range runes[start:stepEnd] {
			offset += utf8.RuneLen(r)
		}
	}
	return chunks, nil
}
