package domain

import (
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

const (
	// DefaultSnippetWindow is the number of sentences included on each side
	// of the best-matching sentence.
	DefaultSnippetWindow = 1

	snippetFallbackLength = 500
)

// sentenceTokenizer is the punkt-style sentence boundary detector. A nil
// tokenizer sends every extraction down the truncation fallback.
var sentenceTokenizer *sentences.DefaultSentenceTokenizer

func init() {
	if tok, err := english.NewSentenceTokenizer(nil); err == nil {
		sentenceTokenizer = tok
	}
}

// ExtractSnippet selects the sentence of text with the highest word overlap
// against the query and returns it with windowSize surrounding sentences on
// each side, clipped to valid bounds and marked with ellipses where sentences
// were omitted. Ties keep the first occurrence; zero overlap selects sentence
// zero. It never fails: any tokenizer problem falls back to the first 500
// characters of text.
func ExtractSnippet(text, query string, windowSize int) string {
	if sentenceTokenizer == nil {
		return truncateText(text, snippetFallbackLength)
	}

	sents := splitSentences(text)
	if len(sents) == 0 {
		return truncateText(text, snippetFallbackLength)
	}

	queryWords := wordSet(query)
	best := 0
	maxScore := 0
	for i, sentence := range sents {
		score := overlapCount(wordSet(sentence), queryWords)
		if score > maxScore {
			maxScore = score
			best = i
		}
	}

	start := best - windowSize
	if start < 0 {
		start = 0
	}
	end := best + windowSize
	if end > len(sents)-1 {
		end = len(sents) - 1
	}

	snippet := strings.Join(sents[start:end+1], " ")
	if start > 0 {
		snippet = "... " + snippet
	}
	if end < len(sents)-1 {
		snippet = snippet + " ..."
	}
	return snippet
}

func splitSentences(text string) []string {
	tokens := sentenceTokenizer.Tokenize(text)
	sents := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == nil {
			continue
		}
		if trimmed := strings.TrimSpace(token.Text); trimmed != "" {
			sents = append(sents, trimmed)
		}
	}
	return sents
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

func overlapCount(a, b map[string]struct{}) int {
	count := 0
	for word := range a {
		if _, ok := b[word]; ok {
			count++
		}
	}
	return count
}

func truncateText(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
