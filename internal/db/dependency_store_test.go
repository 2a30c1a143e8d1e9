package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuedb/pkg/models"
)

func TestDependencyBlockUnblock(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	deps := NewDependencyStore(store)
	ctx := context.Background()

	a := createIssue(t, issues, "Blocker", "")
	b := createIssue(t, issues, "Blocked", "")

	require.NoError(t, deps.Block(ctx, a.ID, b.ID))

	blockers, err := deps.Blockers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, blockers, 1)
	assert.Equal(t, a.ID, blockers[0].ID)

	blocking, err := deps.Blocking(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, blocking, 1)
	assert.Equal(t, b.ID, blocking[0].ID)

	// Duplicate edges are no-ops.
	require.NoError(t, deps.Block(ctx, a.ID, b.ID))
	all, err := deps.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	removed, err := deps.Unblock(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = deps.Unblock(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDependencySelfBlock(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	deps := NewDependencyStore(store)

	a := createIssue(t, issues, "Solo", "")
	err := deps.Block(context.Background(), a.ID, a.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot block itself")
}

func TestDependencyCycleDetection(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	deps := NewDependencyStore(store)
	ctx := context.Background()

	a := createIssue(t, issues, "A", "")
	b := createIssue(t, issues, "B", "")
	c := createIssue(t, issues, "C", "")

	require.NoError(t, deps.Block(ctx, a.ID, b.ID))
	require.NoError(t, deps.Block(ctx, b.ID, c.ID))

	// c -> a would close the cycle a -> b -> c -> a.
	err := deps.Block(ctx, c.ID, a.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestDependencyMissingIssue(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	deps := NewDependencyStore(store)

	a := createIssue(t, issues, "Exists", "")
	err := deps.Block(context.Background(), a.ID, 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDependencyBlockedList(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	deps := NewDependencyStore(store)
	ctx := context.Background()

	blocker := createIssue(t, issues, "Blocker", "")
	blocked := createIssue(t, issues, "Blocked", "")
	free := createIssue(t, issues, "Free", "")
	_ = free

	require.NoError(t, deps.Block(ctx, blocker.ID, blocked.ID))

	list, err := deps.Blocked(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, blocked.ID, list[0].ID)

	// A closed blocker no longer blocks; wont-do does not count as
	// resolved either.
	wontdo := models.StatusWontDo
	_, err = issues.Update(ctx, blocker.ID, IssueUpdate{Status: &wontdo})
	require.NoError(t, err)
	list, err = deps.Blocked(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	closed := models.StatusClosed
	_, err = issues.Update(ctx, blocker.ID, IssueUpdate{Status: &closed})
	require.NoError(t, err)
	list, err = deps.Blocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
