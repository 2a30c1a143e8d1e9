package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuedb/pkg/models"
)

func TestLinkCommitAndBranch(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	links := NewLinkStore(store)
	ctx := context.Background()

	issue := createIssue(t, issues, "Linked", "")

	commit, created, err := links.Link(ctx, issue.ID, models.LinkCommit, "abc123")
	require.NoError(t, err)
	require.NotNil(t, commit)
	assert.True(t, created)
	assert.Equal(t, models.LinkCommit, commit.LinkType)

	_, _, err = links.Link(ctx, issue.ID, models.LinkBranch, "feature/login")
	require.NoError(t, err)

	all, err := links.ForIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Relinking the same commit is idempotent, which git scan relies on.
	again, created, err := links.Link(ctx, issue.ID, models.LinkCommit, "abc123")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, commit.ID, again.ID)
	all, err = links.ForIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byRef, err := links.IssuesForReference(ctx, models.LinkCommit, "abc123")
	require.NoError(t, err)
	require.Len(t, byRef, 1)
	assert.Equal(t, issue.ID, byRef[0].ID)

	removed, err := links.Unlink(ctx, issue.ID, models.LinkCommit, "abc123")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = links.Unlink(ctx, issue.ID, models.LinkCommit, "abc123")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLinkValidation(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	links := NewLinkStore(store)
	ctx := context.Background()

	issue := createIssue(t, issues, "Linked", "")

	_, _, err := links.Link(ctx, issue.ID, "tag", "v1.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid link type")

	_, _, err = links.Link(ctx, issue.ID, models.LinkCommit, "")
	require.Error(t, err)

	_, _, err = links.Link(ctx, 9999, models.LinkCommit, "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
