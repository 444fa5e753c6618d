package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

const (
	// MinChunkLength is the minimum allowed chunk length in characters.
	// Shorter paragraphs are merged with the following one.
	MinChunkLength = 80
	// MaxChunkLength is the maximum allowed chunk length in characters.
	// Longer paragraphs are split at sentence boundaries.
	MaxChunkLength = 1000
	// ChunkOverlap is how many trailing characters of a split chunk are
	// carried into the next one, so a fact straddling a cut point stays
	// retrievable from at least one chunk.
	ChunkOverlap = 200
)

// Chunk is a single piece of a source document prepared for indexing.
type Chunk struct {
	Ordinal int
	Content string
	Hash    string
}

// Chunker splits document text into index-sized chunks.
type Chunker interface {
	Chunk(body string) ([]Chunk, error)
}

type paragraphChunker struct{}

// NewChunker creates the default paragraph-based chunker.
func NewChunker() Chunker {
	return &paragraphChunker{}
}

// Chunk splits the body at blank lines, merges short paragraphs, splits long
// ones at sentence boundaries with ChunkOverlap characters of carry-over, and
// hashes each result. The hash gives every chunk a stable identity so
// re-ingesting a document overwrites in place.
func (c *paragraphChunker) Chunk(body string) ([]Chunk, error) {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var paragraphs []string
	for _, part := range strings.Split(normalized, "\n\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	merged := mergeShortParagraphs(paragraphs)
	split := splitLongParagraphs(merged)

	var chunks []Chunk
	for i, content := range split {
		hashBytes := sha256.Sum256([]byte(content))
		chunks = append(chunks, Chunk{
			Ordinal: i,
			Content: content,
			Hash:    hex.EncodeToString(hashBytes[:]),
		})
	}
	return chunks, nil
}

func mergeShortParagraphs(paragraphs []string) []string {
	var result []string
	var pending string

	for _, para := range paragraphs {
		if pending != "" {
			para = pending + "\n" + para
			pending = ""
		}
		if utf8.RuneCountInString(para) < MinChunkLength {
			pending = para
			continue
		}
		result = append(result, para)
	}
	if pending != "" {
		if len(result) > 0 {
			result[len(result)-1] = result[len(result)-1] + "\n" + pending
		} else {
			result = append(result, pending)
		}
	}
	return result
}

func splitLongParagraphs(paragraphs []string) []string {
	var result []string

	for _, para := range paragraphs {
		if utf8.RuneCountInString(para) <= MaxChunkLength {
			result = append(result, para)
			continue
		}
		result = append(result, splitWithOverlap(splitAtBoundaries(para))...)
	}
	return result
}

// splitWithOverlap packs sentences into chunks of at most MaxChunkLength,
// carrying up to ChunkOverlap trailing characters of each emitted chunk into
// the start of the next.
func splitWithOverlap(sentences []string) []string {
	var chunks []string
	var current []string
	currentLen := 0
	fresh := 0 // sentences in current that were not carried over

	for _, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence)
		spaceLen := 0
		if currentLen > 0 {
			spaceLen = 1
		}

		if currentLen > 0 && currentLen+spaceLen+sentenceLen > MaxChunkLength {
			if fresh > 0 {
				chunks = append(chunks, strings.Join(current, " "))
				current, currentLen = overlapTail(current)
				fresh = 0
			}
			// An oversized sentence gets a chunk of its own rather than
			// growing the carry past the limit.
			if currentLen > 0 && currentLen+1+sentenceLen > MaxChunkLength {
				current, currentLen = nil, 0
			}
			spaceLen = 0
			if currentLen > 0 {
				spaceLen = 1
			}
		}

		current = append(current, sentence)
		currentLen += spaceLen + sentenceLen
		fresh++
	}
	if fresh > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// overlapTail takes the longest run of trailing sentences that fits in
// ChunkOverlap characters.
func overlapTail(sentences []string) ([]string, int) {
	var tail []string
	total := 0

	for i := len(sentences) - 1; i >= 0; i-- {
		sentenceLen := utf8.RuneCountInString(sentences[i])
		spaceLen := 0
		if total > 0 {
			spaceLen = 1
		}
		if total+spaceLen+sentenceLen > ChunkOverlap {
			break
		}
		tail = append([]string{sentences[i]}, tail...)
		total += spaceLen + sentenceLen
	}
	return tail, total
}

// splitAtBoundaries splits at . ! ? followed by a space, newline, or end of
// text. Cruder than the snippet extractor's tokenizer, but ingestion only
// needs rough cut points, not linguistic accuracy.
func splitAtBoundaries(text string) []string {
	var sentences []string
	var current string

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current += string(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' {
				sentences = append(sentences, strings.TrimSpace(current))
				current = ""
			}
		}
	}
	if trimmed := strings.TrimSpace(current); trimmed != "" {
		sentences = append(sentences, trimmed)
	}
	return sentences
}
