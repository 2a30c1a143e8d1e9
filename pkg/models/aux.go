package models

import (
	"database/sql"
	"time"

	"github.com/goccy/go-json"
)

// Audit actions recorded against issues.
const (
	AuditCreate         = "CREATE"
	AuditUpdate         = "UPDATE"
	AuditDelete         = "DELETE"
	AuditFetch          = "FETCH"
	AuditBulkCreate     = "BULK_CREATE"
	AuditBulkUpdate     = "BULK_UPDATE"
	AuditWorkspaceStart = "WORKSPACE_START"
	AuditWorkspaceStop  = "WORKSPACE_STOP"
)

// AuditLog is one recorded change to an issue.
type AuditLog struct {
	Action    string         `db:"action" json:"action"`
	Timestamp string         `db:"timestamp" json:"timestamp"`
	FieldName sql.NullString `db:"field_name" json:"field_name,omitempty"`
	OldValue  sql.NullString `db:"old_value" json:"old_value,omitempty"`
	NewValue  sql.NullString `db:"new_value" json:"new_value,omitempty"`
	ID        int64          `db:"id" json:"id"`
	IssueID   int64          `db:"issue_id" json:"issue_id"`
}

// MarshalJSON flattens null columns for API output.
func (a *AuditLog) MarshalJSON() ([]byte, error) {
	type auditJSON struct {
		Action    string `json:"action"`
		Timestamp string `json:"timestamp"`
		FieldName string `json:"field_name,omitempty"`
		OldValue  string `json:"old_value,omitempty"`
		NewValue  string `json:"new_value,omitempty"`
		ID        int64  `json:"id"`
		IssueID   int64  `json:"issue_id"`
	}
	return json.Marshal(auditJSON{
		ID:        a.ID,
		IssueID:   a.IssueID,
		Action:    a.Action,
		Timestamp: a.Timestamp,
		FieldName: a.FieldName.String,
		OldValue:  a.OldValue.String,
		NewValue:  a.NewValue.String,
	})
}

// Comment is a note attached to an issue.
type Comment struct {
	Text      string `db:"text" json:"text"`
	CreatedAt string `db:"created_at" json:"created_at"`
	ID        int64  `db:"id" json:"id"`
	IssueID   int64  `db:"issue_id" json:"issue_id"`
}

// Link types for git references.
const (
	LinkCommit = "commit"
	LinkBranch = "branch"
)

// IssueLink ties an issue to a git commit hash or branch name.
type IssueLink struct {
	LinkType  string `db:"link_type" json:"link_type"`
	Reference string `db:"reference" json:"reference"`
	CreatedAt string `db:"created_at" json:"created_at"`
	ID        int64  `db:"id" json:"id"`
	IssueID   int64  `db:"issue_id" json:"issue_id"`
}

// CodeReference points an issue at a file location in the codebase.
type CodeReference struct {
	FilePath  string         `db:"file_path" json:"file_path"`
	CreatedAt string         `db:"created_at" json:"created_at"`
	Note      sql.NullString `db:"note" json:"note,omitempty"`
	StartLine sql.NullInt64  `db:"start_line" json:"start_line,omitempty"`
	EndLine   sql.NullInt64  `db:"end_line" json:"end_line,omitempty"`
	ID        int64          `db:"id" json:"id"`
	IssueID   int64          `db:"issue_id" json:"issue_id"`
}

// MarshalJSON flattens null columns for API output.
func (c *CodeReference) MarshalJSON() ([]byte, error) {
	type refJSON struct {
		FilePath  string `json:"file_path"`
		CreatedAt string `json:"created_at"`
		Note      string `json:"note,omitempty"`
		StartLine int64  `json:"start_line,omitempty"`
		EndLine   int64  `json:"end_line,omitempty"`
		ID        int64  `json:"id"`
		IssueID   int64  `json:"issue_id"`
	}
	return json.Marshal(refJSON{
		ID:        c.ID,
		IssueID:   c.IssueID,
		FilePath:  c.FilePath,
		CreatedAt: c.CreatedAt,
		Note:      c.Note.String,
		StartLine: c.StartLine.Int64,
		EndLine:   c.EndLine.Int64,
	})
}

// TimeEntry is one tracked span of work on an issue. A running timer has
// no EndedAt and no DurationSeconds yet.
type TimeEntry struct {
	StartedAt       string         `db:"started_at" json:"started_at"`
	EndedAt         sql.NullString `db:"ended_at" json:"ended_at,omitempty"`
	Note            sql.NullString `db:"note" json:"note,omitempty"`
	DurationSeconds sql.NullInt64  `db:"duration_seconds" json:"duration_seconds,omitempty"`
	ID              int64          `db:"id" json:"id"`
	IssueID         int64          `db:"issue_id" json:"issue_id"`
}

// Running reports whether the entry is an open timer.
func (t *TimeEntry) Running() bool { return !t.EndedAt.Valid }

// Elapsed returns the tracked duration: the recorded one for a stopped
// timer, wall time since start for a running one.
func (t *TimeEntry) Elapsed(now time.Time) time.Duration {
	if t.DurationSeconds.Valid {
		return time.Duration(t.DurationSeconds.Int64) * time.Second
	}
	started, err := time.Parse(time.RFC3339, t.StartedAt)
	if err != nil {
		return 0
	}
	return now.Sub(started)
}

// MarshalJSON flattens null columns for API output.
func (t *TimeEntry) MarshalJSON() ([]byte, error) {
	type entryJSON struct {
		StartedAt       string `json:"started_at"`
		EndedAt         string `json:"ended_at,omitempty"`
		Note            string `json:"note,omitempty"`
		DurationSeconds int64  `json:"duration_seconds,omitempty"`
		ID              int64  `json:"id"`
		IssueID         int64  `json:"issue_id"`
	}
	return json.Marshal(entryJSON{
		ID:              t.ID,
		IssueID:         t.IssueID,
		StartedAt:       t.StartedAt,
		EndedAt:         t.EndedAt.String,
		Note:            t.Note.String,
		DurationSeconds: t.DurationSeconds.Int64,
	})
}

// Template carries predefined settings for creating issues.
type Template struct {
	Name            string          `db:"name" json:"name"`
	CreatedAt       string          `db:"created_at" json:"created_at"`
	TitlePrefix     sql.NullString  `db:"title_prefix" json:"title_prefix,omitempty"`
	DefaultPriority sql.NullString  `db:"default_priority" json:"default_priority,omitempty"`
	DefaultStatus   sql.NullString  `db:"default_status" json:"default_status,omitempty"`
	RequiredFields  JSONStringArray `db:"required_fields" json:"required_fields"`
	FieldPrompts    JSONStringMap   `db:"field_prompts" json:"field_prompts"`
	ID              int64           `db:"id" json:"id"`
}

// ApplyTitle prefixes the template's title prefix when one is set.
func (t *Template) ApplyTitle(title string) string {
	if t.TitlePrefix.Valid && t.TitlePrefix.String != "" {
		return t.TitlePrefix.String + " " + title
	}
	return title
}

// SavedSearch is a named, persisted advanced-search query.
type SavedSearch struct {
	Name      string `db:"name" json:"name"`
	QueryJSON string `db:"query_json" json:"query_json"`
	CreatedAt string `db:"created_at" json:"created_at"`
	ID        int64  `db:"id" json:"id"`
}

// Dependency records that blocker blocks blocked.
type Dependency struct {
	CreatedAt string `db:"created_at" json:"created_at"`
	ID        int64  `db:"id" json:"id"`
	BlockerID int64  `db:"blocker_id" json:"blocker_id"`
	BlockedID int64  `db:"blocked_id" json:"blocked_id"`
}

// ActiveIssue is the workspace's in-flight issue with its start time.
type ActiveIssue struct {
	Issue     *Issue    `json:"issue"`
	StartedAt time.Time `json:"started_at"`
}
