package domain_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullpen-rag/internal/domain"
)

func TestChunker_SplitsOnBlankLines(t *testing.T) {
	chunker := domain.NewChunker()

	para1 := strings.Repeat("First paragraph sentence. ", 5)
	para2 := strings.Repeat("Second paragraph sentence. ", 5)
	chunks, err := chunker.Chunk(para1 + "\n\n" + para2)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
	assert.Contains(t, chunks[0].Content, "First paragraph")
	assert.Contains(t, chunks[1].Content, "Second paragraph")
}

func TestChunker_MergesShortParagraphs(t *testing.T) {
	chunker := domain.NewChunker()

	chunks, err := chunker.Chunk("Short heading\n\n" + strings.Repeat("Body sentence follows the heading. ", 4))

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Short heading")
	assert.Contains(t, chunks[0].Content, "Body sentence")
}

func TestChunker_SplitsLongParagraphs(t *testing.T) {
	chunker := domain.NewChunker()

	long := strings.TrimSpace(strings.Repeat("This sentence pads the paragraph well past the limit. ", 40))
	chunks, err := chunker.Chunk(long)

	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Content), domain.MaxChunkLength)
	}
}

func TestChunker_SplitChunksOverlap(t *testing.T) {
	chunker := domain.NewChunker()

	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sentence number %02d keeps the paragraph going past the limit. ", i)
	}
	chunks, err := chunker.Chunk(strings.TrimSpace(b.String()))

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		end := strings.Index(chunks[i].Content, ".")
		require.NotEqual(t, -1, end)
		opening := chunks[i].Content[:end+1]
		assert.Contains(t, chunks[i-1].Content, opening,
			"chunk %d should reopen with the tail of chunk %d", i, i-1)
	}
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Content), domain.MaxChunkLength)
	}
}

func TestChunker_OversizedSentenceStandsAlone(t *testing.T) {
	chunker := domain.NewChunker()

	huge := strings.Repeat("x", domain.MaxChunkLength-10) + "."
	body := "A short opening sentence sits before the giant run. " + huge + " A short closing sentence follows the giant run."
	chunks, err := chunker.Chunk(body)

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	found := false
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Content), domain.MaxChunkLength)
		if strings.Contains(chunk.Content, huge) {
			found = true
		}
	}
	assert.True(t, found, "the oversized sentence must survive splitting intact")
}

func TestChunker_HashIsStable(t *testing.T) {
	chunker := domain.NewChunker()
	body := strings.Repeat("Stable content for hashing purposes. ", 4)

	first, err := chunker.Chunk(body)
	require.NoError(t, err)
	second, err := chunker.Chunk(body)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Hash, second[i].Hash)
	}
}

func TestChunker_NormalizesCRLF(t *testing.T) {
	chunker := domain.NewChunker()

	para1 := strings.Repeat("Windows line endings here. ", 4)
	para2 := strings.Repeat("Second paragraph there. ", 4)
	chunks, err := chunker.Chunk(para1 + "\r\n\r\n" + para2)

	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestChunker_EmptyBody(t *testing.T) {
	chunker := domain.NewChunker()
	chunks, err := chunker.Chunk("   \n\n  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
