package services

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"tutorium/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestChunkTextGroupsParagraphs(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."

	chunks := ChunkText(text, 100, 10)

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "First paragraph.")
	assert.Contains(t, chunks[0], "Third paragraph.")
}

func TestChunkTextRespectsMaxChars(t *testing.T) {
	text := strings.Repeat("word ", 100) + "\n\n" + strings.Repeat("more ", 100)

	chunks := ChunkText(text, 200, 10)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 200)
	}
}

func TestChunkTextSplitsLongParagraph(t *testing.T) {
	text := strings.Repeat("a", 450)

	chunks := ChunkText(text, 200, 10)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 200)
	assert.Len(t, chunks[1], 200)
	assert.Len(t, chunks[2], 50)
}

func TestChunkTextSplitsOnRuneBoundaries(t *testing.T) {
	// "é" is 2 bytes, so a naive byte cut at an odd offset would land
	// mid-rune.
	text := strings.Repeat("é", 150)

	chunks := ChunkText(text, 101, 10)

	require.Greater(t, len(chunks), 1)
	total := 0
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk))
		assert.LessOrEqual(t, len(chunk), 101)
		total += utf8.RuneCountInString(chunk)
	}
	assert.Equal(t, 150, total)
}
func TestChunkTextMergesOverflowIntoLastChunk(t *testing.T) {
	var parts []string
	for i := 0; i < 10; i++ {
		parts = append(parts, strings.Repeat("x", 50))
	}
	text := strings.Join(parts, "\n\n")

	chunks := ChunkText(text, 50, 3)

	require.Len(t, chunks, 3)
	// Everything past the cap lands in the final chunk.
	assert.Greater(t, len(chunks[2]), 50)
}

func TestChunkTextSkipsEmptyParagraphs(t *testing.T) {
	chunks := ChunkText("\n\n  \n\nContent.\n\n\n\n", 100, 10)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Content.", chunks[0])
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate inputs score zero instead of dividing by zero.
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity(nil, nil))
}

func embeddedChunk(t *testing.T, position int, content string, vector []float32) models.DocumentChunk {
	t.Helper()
	encoded, err := json.Marshal(vector)
	require.NoError(t, err)
	return models.DocumentChunk{
		Position:  position,
		Content:   content,
		Embedding: datatypes.JSON(encoded),
	}
}

func TestTopChunks(t *testing.T) {
	chunks := []models.DocumentChunk{
		embeddedChunk(t, 0, "off topic", []float32{0, 1}),
		embeddedChunk(t, 1, "close match", []float32{0.9, 0.1}),
		embeddedChunk(t, 2, "exact match", []float32{1, 0}),
	}

	top := TopChunks(chunks, []float32{1, 0}, 2, 0.1)

	require.Len(t, top, 2)
	assert.Equal(t, "exact match", top[0].Chunk.Content)
	assert.Equal(t, "close match", top[1].Chunk.Content)
}

func TestTopChunksSkipsMalformedEmbeddings(t *testing.T) {
	chunks := []models.DocumentChunk{
		{Position: 0, Content: "broken", Embedding: datatypes.JSON([]byte("not json"))},
		embeddedChunk(t, 1, "good", []float32{1, 0}),
	}

	top := TopChunks(chunks, []float32{1, 0}, 5, 0.1)

	require.Len(t, top, 1)
	assert.Equal(t, "good", top[0].Chunk.Content)
}
