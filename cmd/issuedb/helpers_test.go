package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuedb/pkg/models"
)

func TestParseIssueID(t *testing.T) {
	id, err := parseIssueID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"abc", "", "0", "-3", "1.5"} {
		_, err := parseIssueID(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestResolveDueDate(t *testing.T) {
	got, err := resolveDueDate("2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", got)

	got, err = resolveDueDate("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = resolveDueDate("next tuesday")
	assert.Error(t, err)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "45s", formatSeconds(45))
	assert.Equal(t, "5m00s", formatSeconds(300))
	assert.Equal(t, "1h02m05s", formatSeconds(3725))
	assert.Equal(t, "0s", formatSeconds(0))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "deadbeef", shortHash("deadbeefcafe1234"))
	assert.Equal(t, "abc", shortHash("abc"))
}

func TestSearchParamsToQuery(t *testing.T) {
	p := searchParams{
		Keyword:      "timeout",
		CreatedAfter: "2026-01-15",
		Priorities:   []string{"high", "critical"},
		Statuses:     []string{"open"},
		SortBy:       "priority",
		SortOrder:    "asc",
		Limit:        25,
	}

	q, err := p.toQuery()
	require.NoError(t, err)
	assert.Equal(t, "timeout", q.Keyword)
	require.NotNil(t, q.CreatedAfter)
	assert.Equal(t, 2026, q.CreatedAfter.Year())
	assert.Nil(t, q.CreatedBefore)
	assert.Equal(t, []models.Priority{models.PriorityHigh, models.PriorityCritical}, q.Priorities)
	assert.Equal(t, []models.Status{models.StatusOpen}, q.Statuses)
	assert.Equal(t, 25, q.Limit)
	assert.True(t, p.advanced())
}

func TestSearchParamsToQueryRejectsBadValues(t *testing.T) {
	_, err := searchParams{Priorities: []string{"urgent"}}.toQuery()
	assert.Error(t, err)

	_, err = searchParams{Statuses: []string{"done"}}.toQuery()
	assert.Error(t, err)

	_, err = searchParams{CreatedBefore: "not-a-date"}.toQuery()
	assert.Error(t, err)
}

func TestSearchParamsAdvanced(t *testing.T) {
	assert.False(t, searchParams{Keyword: "x", Limit: 10}.advanced())
	assert.True(t, searchParams{Statuses: []string{"open"}}.advanced())
	assert.True(t, searchParams{SortBy: "updated_at"}.advanced())
}

func TestBulkUpdateEntryToUpdate(t *testing.T) {
	title := "New title"
	priority := "high"
	entry := bulkUpdateEntry{ID: 3, Title: &title, Priority: &priority}

	upd, err := entry.toUpdate()
	require.NoError(t, err)
	require.NotNil(t, upd.Title)
	assert.Equal(t, "New title", *upd.Title)
	require.NotNil(t, upd.Priority)
	assert.Equal(t, models.PriorityHigh, *upd.Priority)
	assert.Nil(t, upd.Status)

	bad := "urgent"
	_, err = bulkUpdateEntry{ID: 3, Priority: &bad}.toUpdate()
	assert.Error(t, err)
}

func TestPatternFlagsFilter(t *testing.T) {
	f := patternFlags{title: "auth*", regex: false}
	pf, err := f.filter()
	require.NoError(t, err)
	assert.Equal(t, "auth*", pf.Pattern)
	assert.Equal(t, "title", pf.Field)

	f = patternFlags{desc: "timeout.*", regex: true, caseSensitive: true}
	pf, err = f.filter()
	require.NoError(t, err)
	assert.Equal(t, "description", pf.Field)
	assert.True(t, pf.Regex)
	assert.True(t, pf.CaseSensitive)

	_, err = (&patternFlags{}).filter()
	assert.Error(t, err)
	_, err = (&patternFlags{title: "a", desc: "b"}).filter()
	assert.Error(t, err)
}

func TestSplitCommand(t *testing.T) {
	parts, err := splitCommand(`issuedb create -t "Fix login bug" -p high`)
	require.NoError(t, err)
	assert.Equal(t, []string{"issuedb", "create", "-t", "Fix login bug", "-p", "high"}, parts)

	parts, err = splitCommand("issuedb list  -s   open")
	require.NoError(t, err)
	assert.Equal(t, []string{"issuedb", "list", "-s", "open"}, parts)

	parts, err = splitCommand(`issuedb comment 3 -t 'it works'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"issuedb", "comment", "3", "-t", "it works"}, parts)

	// An empty quoted argument still counts as an argument.
	parts, err = splitCommand(`issuedb create -t ""`)
	require.NoError(t, err)
	assert.Equal(t, []string{"issuedb", "create", "-t", ""}, parts)

	_, err = splitCommand(`issuedb create -t "unterminated`)
	assert.Error(t, err)
}
