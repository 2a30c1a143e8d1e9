package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "Hello World", "hello world"},
		{"punctuation", "Hello, World!", "hello world"},
		{"all ascii punctuation", `a!"#$%&'()*+,-./:;<=>?@[\]^_` + "`{|}~b", "ab"},
		{"whitespace collapse", "  hello\t\nworld  ", "hello world"},
		{"mixed", "Fix: LOGIN-bug  (again)", "fix loginbug again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Hello, World!", "  a  b  c  ", "already normalized", ""}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "hello", 5},
		{"hello", "", 5},
		{"kitten", "sitten", 1},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
		{"abc", "cba", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "distance(%q,%q)", tt.a, tt.b)
		assert.Equal(t, tt.want, LevenshteinDistance(tt.b, tt.a), "distance must be symmetric")
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, LevenshteinSimilarity("", ""))
	assert.Equal(t, 0.0, LevenshteinSimilarity("hello", ""))
	assert.Equal(t, 1.0, LevenshteinSimilarity("abc", "abc"))
	assert.InDelta(t, 1.0-1.0/6.0, LevenshteinSimilarity("kitten", "sitten"), 1e-9)
}

func TestJaccardSimilarity(t *testing.T) {
	// 2 shared tokens, 4 in the union.
	assert.InDelta(t, 0.5, JaccardSimilarity("hello world test", "hello world foo"), 1e-9)
	assert.Equal(t, 1.0, JaccardSimilarity("", ""))
	assert.Equal(t, 0.0, JaccardSimilarity("hello", ""))
	assert.Equal(t, 1.0, JaccardSimilarity("a b c", "c b a"))
	assert.Equal(t, 0.0, JaccardSimilarity("a b", "c d"))
}

func TestCalculateIdentity(t *testing.T) {
	for _, s := range []string{"", "short", "a considerably longer text that crosses the token scoring limit"} {
		assert.Equal(t, 1.0, Calculate(s, s), "identity for %q", s)
	}
}

func TestCalculateSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"fix login bug", "login issue"},
		{"users cannot login to the application anymore", "login problem users cannot authenticate"},
		{"", "something"},
	}
	for _, p := range pairs {
		assert.Equal(t, Calculate(p[0], p[1]), Calculate(p[1], p[0]))
	}
}

func TestCalculateRange(t *testing.T) {
	pairs := [][2]string{
		{"a", "completely different words here that share nothing at all"},
		{"x", "y"},
		{"hello world", "hello world"},
	}
	for _, p := range pairs {
		score := Calculate(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestCalculateCasePunctuationInvariance(t *testing.T) {
	assert.Equal(t, 1.0, Calculate("Hello, World!", "hello world"))
	assert.Equal(t, 1.0, Calculate("hello world", "hello world"))
}

func TestCalculateEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Calculate("", ""))
	assert.Equal(t, 0.0, Calculate("hello", ""))
	assert.Equal(t, 0.0, Calculate("", "hello"))
	// Punctuation-only input normalizes to empty.
	assert.Equal(t, 0.0, Calculate("!!!", "hello"))
	assert.Equal(t, 1.0, Calculate("!!!", "..."))
}

func TestCalculateShortUsesLevenshtein(t *testing.T) {
	// Both under 20 chars after normalization: pure edit distance.
	a, b := "kitten", "sitten"
	assert.InDelta(t, LevenshteinSimilarity(a, b), Calculate(a, b), 1e-9)
}

func TestCalculateLongBlends(t *testing.T) {
	a := "the quick brown fox jumps over the lazy dog"
	b := "the quick brown fox leaps over the sleepy dog"
	na, nb := Normalize(a), Normalize(b)
	want := 0.7*JaccardSimilarity(na, nb) + 0.3*LevenshteinSimilarity(na, nb)
	assert.InDelta(t, want, Calculate(a, b), 1e-9)
}
