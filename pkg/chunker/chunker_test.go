package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitWindowing(t *testing.T) {
	// 2500 chars with chunk size 1000 / overlap 200 must produce windows
	// at 0, 800, 1600, 2400 with the final chunk holding the last 100.
	text := strings.Repeat("a", 2500)

	chunks, err := Split(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	assert.Equal(t, 0, chunks[0].Offset)
	assert.Equal(t, 800, chunks[1].Offset)
	assert.Equal(t, 1600, chunks[2].Offset)
	assert.Equal(t, 2400, chunks[3].Offset)

	assert.Len(t, chunks[0].Text, 1000)
	assert.Len(t, chunks[1].Text, 1000)
	assert.Len(t, chunks[2].Text, 900)
	assert.Len(t, chunks[3].Text, 100)
}

func TestSplitShortText(t *testing.T) {
	chunks, err := Split("hello", 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Offset)
}

func TestSplitExactChunkSize(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunks, err := Split(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
}

func TestSplitEmptyText(t *testing.T) {
	chunks, err := Split("", 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitNoOverlap(t *testing.T) {
	text := "abcdefghij"
	chunks, err := Split(text, 4, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcd", chunks[0].Text)
	assert.Equal(t, "efgh", chunks[1].Text)
	assert.Equal(t, "ij", chunks[2].Text)
}

// TestSplitReconstruction checks that joining chunks in index order, dropping
// each chunk's leading overlap characters, yields the original content exactly.
func TestSplitReconstruction(t *testing.T) {
	alphabet := []rune("abcdefghijklmnopqrstuvwxyz")
	kana := []rune("あいうえおかきくけこ")

	cases := []struct {
		name    string
		runes   []rune
		length  int
		size    int
		overlap int
	}{
		{"even windows", alphabet, 4000, 1000, 200},
		{"ragged tail", alphabet, 2500, 1000, 200},
		{"tail inside overlap", alphabet, 1001, 1000, 999},
		{"no overlap", alphabet, 3333, 512, 0},
		{"tiny chunks", alphabet, 97, 10, 3},
		{"multi-byte runes", kana, 2500, 1000, 200},
		{"mixed byte widths", []rune("a日b語c€"), 977, 64, 16},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var input strings.Builder
			for i := 0; i < tc.length; i++ {
				input.WriteRune(tc.runes[i%len(tc.runes)])
			}
			text := input.String()

			chunks, err := Split(text, tc.size, tc.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			var rebuilt strings.Builder
			for i, c := range chunks {
				if i == 0 {
					rebuilt.WriteString(c.Text)
					continue
				}
				if r := []rune(c.Text); len(r) > tc.overlap {
					rebuilt.WriteString(string(r[tc.overlap:]))
				}
			}
			assert.Equal(t, text, rebuilt.String())
		})
	}
}

func TestSplitNeverBisectsRunes(t *testing.T) {
	// 400 three-byte runes is 1200 bytes but only 400 characters, so the
	// window must hold all of it in one chunk instead of cutting at byte 1000.
	text := strings.Repeat("日", 400)
	chunks, err := Split(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.True(t, utf8.ValidString(chunks[0].Text))

	text = strings.Repeat("日", 1500)
	chunks, err = Split(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Text))
	}
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, 700, utf8.RuneCountInString(chunks[1].Text))
	// offsets are byte positions into the original string
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Equal(t, 2400, chunks[1].Offset)
}

func TestSplitOffsetsMatchContent(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog, twice over"
	chunks, err := Split(text, 16, 4)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.Equal(t, text[c.Offset:c.Offset+len(c.Text)], c.Text)
	}
}

func TestSplitInvalidConfig(t *testing.T) {
	_, err := Split("text", 0, 0)
	assert.Error(t, err)

	_, err = Split("text", -5, 0)
	assert.Error(t, err)

	_, err = Split("text", 100, 100)
	assert.Error(t, err)

	_, err = Split("text", 100, -1)
	assert.Error(t, err)
}
