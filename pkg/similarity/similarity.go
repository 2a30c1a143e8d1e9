// Package similarity provides text similarity scoring and duplicate
// detection for issues. It blends character-level Levenshtein distance with
// word-level Jaccard overlap: edit distance is the better signal for short
// phrases like titles, token overlap for longer free text.
package similarity

import (
	"strings"
)

const (
	// shortTextLimit is the normalized length below which scoring falls
	// back to pure edit distance. Fixed constant, intentionally not
	// configurable: tests assert exact scores derived from it.
	shortTextLimit = 20

	// Weights for blending token overlap with edit distance on long text.
	jaccardWeight     = 0.7
	levenshteinWeight = 0.3

	// asciiPunct is the ASCII punctuation set stripped by Normalize.
	asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// Normalize lowercases text, strips ASCII punctuation and collapses all
// whitespace runs to single spaces. It is idempotent and total: any input,
// including the empty string, maps to a well-defined result.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if strings.ContainsRune(asciiPunct, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// LevenshteinDistance computes the unit-cost edit distance between two
// strings using two rolling rows, so memory is O(min(len(a), len(b))).
func LevenshteinDistance(a, b string) int {
	// Work on runes so multi-byte input counts edits per character.
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ca := range ra {
		curr[0] = i + 1
		for j, cb := range rb {
			ins := prev[j+1] + 1
			del := curr[j] + 1
			sub := prev[j]
			if ca != cb {
				sub++
			}
			curr[j+1] = min(ins, del, sub)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// LevenshteinSimilarity normalizes edit distance into [0, 1].
// Two empty strings are vacuously identical.
func LevenshteinSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	return 1.0 - float64(LevenshteinDistance(a, b))/float64(maxLen)
}

// Tokenize splits text on whitespace into a word set. Tokens are kept
// case- and punctuation-sensitive; callers normalize upstream.
func Tokenize(text string) map[string]struct{} {
	fields := strings.Fields(text)
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// JaccardSimilarity computes |intersection| / |union| over word tokens.
// Two empty token sets score 1.0, exactly one empty scores 0.0.
func JaccardSimilarity(a, b string) float64 {
	ta, tb := Tokenize(a), Tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

// Calculate scores the similarity of two texts in [0, 1]. Inputs are
// normalized first; 1.0 means identical after normalization. Short texts
// are scored by edit distance alone, longer ones by a weighted blend of
// token overlap and edit distance.
func Calculate(text1, text2 string) float64 {
	norm1 := Normalize(text1)
	norm2 := Normalize(text2)

	if norm1 == "" && norm2 == "" {
		return 1.0
	}
	if norm1 == "" || norm2 == "" {
		return 0.0
	}

	if len(norm1) < shortTextLimit || len(norm2) < shortTextLimit {
		return LevenshteinSimilarity(norm1, norm2)
	}

	return jaccardWeight*JaccardSimilarity(norm1, norm2) +
		levenshteinWeight*LevenshteinSimilarity(norm1, norm2)
}
