package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerStartStop(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	timers := NewTimeStore(store)
	ctx := context.Background()

	issue := createIssue(t, issues, "Track me", "")

	entry, err := timers.StartTimer(ctx, issue.ID, "working")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Running())
	assert.Equal(t, "working", entry.Note.String)

	// A second timer on the same issue is rejected.
	_, err = timers.StartTimer(ctx, issue.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running timer")

	stopped, err := timers.StopTimer(ctx, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, stopped)
	assert.False(t, stopped.Running())
	assert.True(t, stopped.DurationSeconds.Valid)
	assert.GreaterOrEqual(t, stopped.DurationSeconds.Int64, int64(0))

	// Nothing left running.
	running, err := timers.Running(ctx)
	require.NoError(t, err)
	assert.Empty(t, running)
}

func TestTimerStopMostRecent(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	timers := NewTimeStore(store)
	ctx := context.Background()

	first := createIssue(t, issues, "First", "")
	second := createIssue(t, issues, "Second", "")

	_, err := timers.StartTimer(ctx, first.ID, "")
	require.NoError(t, err)
	_, err = timers.StartTimer(ctx, second.ID, "")
	require.NoError(t, err)

	// With no issue given, the most recently started timer stops.
	stopped, err := timers.StopTimer(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, stopped)
	assert.Equal(t, second.ID, stopped.IssueID)

	running, err := timers.Running(ctx)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, first.ID, running[0].IssueID)
}

func TestTimerStopNothingRunning(t *testing.T) {
	store := newTestStore(t)
	timers := NewTimeStore(store)

	stopped, err := timers.StopTimer(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, stopped)
}

func TestTimeTotalsAndReport(t *testing.T) {
	store := newTestStore(t)
	issues := NewIssueStore(store)
	timers := NewTimeStore(store)
	ctx := context.Background()

	issue := createIssue(t, issues, "Timed", "")
	_, err := timers.StartTimer(ctx, issue.ID, "")
	require.NoError(t, err)
	_, err = timers.StopTimer(ctx, issue.ID)
	require.NoError(t, err)

	total, err := timers.TotalSeconds(ctx, issue.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(0))

	entries, err := timers.ForIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	report, err := timers.Report(ctx, "week")
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, issue.ID, report[0].IssueID)
	assert.Equal(t, "Timed", report[0].Title)
	assert.EqualValues(t, 1, report[0].EntryCount)

	_, err = timers.Report(ctx, "decade")
	require.Error(t, err)
}
