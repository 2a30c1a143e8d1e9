package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileSpec(t *testing.T) {
	tests := []struct {
		spec      string
		path      string
		start     int64
		end       int64
		expectErr bool
	}{
		{spec: "main.go", path: "main.go"},
		{spec: "internal/db/store.go:45", path: "internal/db/store.go", start: 45, end: 45},
		{spec: "store.go:45-60", path: "store.go", start: 45, end: 60},
		{spec: "C:\\code\\main.go", path: "C:\\code\\main.go"},
		{spec: "store.go:60-45", expectErr: true},
		{spec: "store.go:0-4", expectErr: true},
		{spec: ":45", expectErr: true},
	}

	for _, tt := range tests {
		path, start, end, err := ParseFileSpec(tt.spec)
		if tt.expectErr {
			assert.Error(t, err, "spec %q", tt.spec)
			continue
		}
		require.NoError(t, err, "spec %q", tt.spec)
		assert.Equal(t, tt.path, path)
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}

func TestCodeRefAddListRemove(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	refs := NewCodeRefStore(store)
	ctx := context.Background()

	issue := createIssue(t, issues, "Refactor parser", "")

	ref, err := refs.Add(ctx, issue.ID, "internal/parser.go", 10, 42, "hot path")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.EqualValues(t, 10, ref.StartLine.Int64)
	assert.EqualValues(t, 42, ref.EndLine.Int64)
	assert.Equal(t, "hot path", ref.Note.String)

	// No line info leaves the columns NULL.
	bare, err := refs.Add(ctx, issue.ID, "README.md", 0, 0, "")
	require.NoError(t, err)
	assert.False(t, bare.StartLine.Valid)

	forIssue, err := refs.ForIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, forIssue, 2)

	forFile, err := refs.ForFile(ctx, "internal/parser.go")
	require.NoError(t, err)
	require.Len(t, forFile, 1)
	assert.Equal(t, issue.ID, forFile[0].IssueID)

	removed, err := refs.Remove(ctx, ref.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = refs.Remove(ctx, ref.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCodeRefMissingIssue(t *testing.T) {
	store := newTestStore(t)
	refs := NewCodeRefStore(store)

	_, err := refs.Add(context.Background(), 9999, "main.go", 0, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
