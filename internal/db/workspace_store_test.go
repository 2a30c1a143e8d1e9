package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuedb/pkg/models"
)

func TestWorkspaceStartStop(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	workspace := NewWorkspaceStore(store)
	ctx := context.Background()

	issue := createIssue(t, issues, "Work on me", "")

	started, err := workspace.Start(ctx, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, started)
	assert.Equal(t, models.StatusInProgress, started.Status)

	active, err := workspace.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, issue.ID, active.Issue.ID)
	assert.False(t, active.StartedAt.IsZero())

	stopped, err := workspace.Stop(ctx, true)
	require.NoError(t, err)
	require.NotNil(t, stopped)
	assert.Equal(t, models.StatusClosed, stopped.Status)

	active, err = workspace.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestWorkspaceStopWithoutClose(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	workspace := NewWorkspaceStore(store)
	ctx := context.Background()

	issue := createIssue(t, issues, "Keep open", "")
	_, err := workspace.Start(ctx, issue.ID)
	require.NoError(t, err)

	stopped, err := workspace.Stop(ctx, false)
	require.NoError(t, err)
	require.NotNil(t, stopped)
	assert.Equal(t, models.StatusInProgress, stopped.Status)
}

func TestWorkspaceStartReplacesActive(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	workspace := NewWorkspaceStore(store)
	ctx := context.Background()

	first := createIssue(t, issues, "First", "")
	second := createIssue(t, issues, "Second", "")

	_, err := workspace.Start(ctx, first.ID)
	require.NoError(t, err)
	_, err = workspace.Start(ctx, second.ID)
	require.NoError(t, err)

	active, err := workspace.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.Issue.ID)
}

func TestWorkspaceStopIdle(t *testing.T) {
	store := newTestStore(t)
	workspace := NewWorkspaceStore(store)

	stopped, err := workspace.Stop(context.Background(), true)
	require.NoError(t, err)
	assert.Nil(t, stopped)
}

func TestWorkspaceStartMissingIssue(t *testing.T) {
	store := newTestStore(t)
	workspace := NewWorkspaceStore(store)

	_, err := workspace.Start(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestWorkspaceAudit(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	workspace := NewWorkspaceStore(store)
	audits := NewAuditStore(store)
	ctx := context.Background()

	issue := createIssue(t, issues, "Audited", "")
	_, err := workspace.Start(ctx, issue.ID)
	require.NoError(t, err)
	_, err = workspace.Stop(ctx, false)
	require.NoError(t, err)

	starts, err := audits.ByAction(ctx, models.AuditWorkspaceStart, 10)
	require.NoError(t, err)
	assert.Len(t, starts, 1)

	stops, err := audits.ByAction(ctx, models.AuditWorkspaceStop, 10)
	require.NoError(t, err)
	assert.Len(t, stops, 1)
}
