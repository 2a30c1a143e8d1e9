package models

import (
	"database/sql"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input   string
		want    Priority
		wantErr bool
	}{
		{"low", PriorityLow, false},
		{"MEDIUM", PriorityMedium, false},
		{" High ", PriorityHigh, false},
		{"critical", PriorityCritical, false},
		{"urgent", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePriority(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("In-Progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got)

	_, err = ParseStatus("done")
	assert.Error(t, err)
}

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 1, PriorityCritical.Rank())
	assert.Equal(t, 2, PriorityHigh.Rank())
	assert.Equal(t, 3, PriorityMedium.Rank())
	assert.Equal(t, 4, PriorityLow.Rank())
}

func TestStatusResolved(t *testing.T) {
	assert.True(t, StatusClosed.Resolved())
	assert.False(t, StatusOpen.Resolved())
	assert.False(t, StatusInProgress.Resolved())
	assert.False(t, StatusWontDo.Resolved())
}

func TestNewIssueDefaults(t *testing.T) {
	issue := NewIssue("Fix login bug", "Users cannot login")

	assert.Equal(t, "Fix login bug", issue.Title)
	assert.Equal(t, PriorityMedium, issue.Priority)
	assert.Equal(t, StatusOpen, issue.Status)
	assert.True(t, issue.Description.Valid)
	assert.NotEmpty(t, issue.CreatedAt)
	assert.NotZero(t, issue.CreatedAtEpoch)
}

func TestIssueJSONRoundTrip(t *testing.T) {
	issue := NewIssue("Add dark mode", "")
	issue.ID = 42
	issue.Priority = PriorityHigh
	issue.EstimatedHours = sql.NullFloat64{Float64: 2.5, Valid: true}

	data, err := json.Marshal(issue)
	require.NoError(t, err)

	// Empty description must be omitted, not rendered as a null object.
	assert.NotContains(t, string(data), "description")

	var decoded Issue
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, issue.ID, decoded.ID)
	assert.Equal(t, issue.Title, decoded.Title)
	assert.Equal(t, issue.Priority, decoded.Priority)
	assert.False(t, decoded.Description.Valid)
	assert.Equal(t, 2.5, decoded.EstimatedHours.Float64)
}

func TestIssueUnmarshalDefaults(t *testing.T) {
	var issue Issue
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Bare"}`), &issue))
	assert.Equal(t, PriorityMedium, issue.Priority)
	assert.Equal(t, StatusOpen, issue.Status)

	err := json.Unmarshal([]byte(`{"title":"Bad","priority":"urgent"}`), &issue)
	assert.Error(t, err)
}

func TestSimilarityRecord(t *testing.T) {
	issue := NewIssue("Fix login bug", "Users cannot login")
	issue.ID = 7

	assert.Equal(t, int64(7), issue.SimilarityID())
	assert.Equal(t, "Fix login bug", issue.SimilarityTitle())
	assert.Equal(t, "Users cannot login", issue.SimilarityDescription())

	bare := NewIssue("Add dark mode", "")
	assert.Equal(t, "", bare.SimilarityDescription())
}

func TestTemplateApplyTitle(t *testing.T) {
	tpl := &Template{Name: "bug", TitlePrefix: NullString("[BUG]")}
	assert.Equal(t, "[BUG] Login broken", tpl.ApplyTitle("Login broken"))

	plain := &Template{Name: "task"}
	assert.Equal(t, "Cleanup", plain.ApplyTitle("Cleanup"))
}

func TestJSONStringArrayScanValue(t *testing.T) {
	var arr JSONStringArray
	require.NoError(t, arr.Scan(`["description","steps"]`))
	assert.Equal(t, JSONStringArray{"description", "steps"}, arr)

	v, err := arr.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `["description","steps"]`, v.(string))

	var nilArr JSONStringArray
	v, err = nilArr.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestJSONStringMapScanValue(t *testing.T) {
	var m JSONStringMap
	require.NoError(t, m.Scan([]byte(`{"description":"Describe the bug"}`)))
	assert.Equal(t, "Describe the bug", m["description"])

	var nilMap JSONStringMap
	v, err := nilMap.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}
