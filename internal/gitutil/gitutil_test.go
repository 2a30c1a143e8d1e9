package gitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIssueRefs(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []int64
	}{
		{"bare ref", "see #12 for details", []int64{12}},
		{"fixes keyword", "fixes #34", []int64{34}},
		{"fix keyword", "fix #34", []int64{34}},
		{"closes keyword", "Closes #7 and touches #8", []int64{7, 8}},
		{"resolves keyword", "RESOLVES #99", []int64{99}},
		{"multiple mixed", "fixes #1, see #2, closes #3", []int64{1, 2, 3}},
		{"duplicates collapse", "#5 fixes #5", []int64{5}},
		{"no refs", "refactor the parser", nil},
		{"hash without number", "issue # 12 is unrelated", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIssueRefs(tt.message))
		})
	}
}

func TestParseCloseRefs(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []int64
	}{
		{"bare ref does not close", "see #12", nil},
		{"fixes closes", "fixes #34", []int64{34}},
		{"close closes", "close #3", []int64{3}},
		{"resolve closes", "resolve #4 and mention #5", []int64{4}},
		{"case insensitive", "FIXES #6", []int64{6}},
		{"keyword needs space", "prefix#7", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCloseRefs(tt.message))
		})
	}
}
