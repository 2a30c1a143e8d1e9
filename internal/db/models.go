// Package db provides GORM-based database operations for issuedb.
package db

import (
	"database/sql"
	"time"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// GORM Models

// Note: JSON types (JSONStringArray, JSONStringMap) are imported from pkg/models
// and already implement sql.Scanner and driver.Valuer interfaces.

// Issue is the issues table row.
type Issue struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	Title          string          `gorm:"type:text;not null"`
	Description    sql.NullString  `gorm:"type:text"`
	Priority       models.Priority `gorm:"type:text;check:priority IN ('low', 'medium', 'high', 'critical');default:'medium';index"`
	Status         models.Status   `gorm:"type:text;check:status IN ('open', 'in-progress', 'closed', 'wont-do');default:'open';index"`
	DueDate        sql.NullString  `gorm:"index"`
	EstimatedHours sql.NullFloat64 `gorm:"type:real"`
	CreatedAt      string          `gorm:"not null"`
	CreatedAtEpoch int64           `gorm:"index:idx_issues_created,sort:desc;not null"`
	UpdatedAt      string          `gorm:"not null"`
	UpdatedAtEpoch int64           `gorm:"index:idx_issues_updated,sort:desc;not null"`
}

func (Issue) TableName() string { return "issues" }

// BeforeCreate hook to ensure timestamps and defaults are set.
func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if i.CreatedAtEpoch == 0 {
		i.CreatedAtEpoch = now.UnixMilli()
	}
	if i.CreatedAt == "" {
		i.CreatedAt = now.Format(time.RFC3339)
	}
	if i.UpdatedAtEpoch == 0 {
		i.UpdatedAtEpoch = now.UnixMilli()
	}
	if i.UpdatedAt == "" {
		i.UpdatedAt = now.Format(time.RFC3339)
	}
	if i.Priority == "" {
		i.Priority = models.PriorityMedium
	}
	if i.Status == "" {
		i.Status = models.StatusOpen
	}
	return nil
}

// AuditLog is the audit_logs table row.
type AuditLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	IssueID   int64          `gorm:"index:idx_audit_issue;not null"`
	Action    string         `gorm:"type:text;index;not null"`
	FieldName sql.NullString `gorm:"type:text"`
	OldValue  sql.NullString `gorm:"type:text"`
	NewValue  sql.NullString `gorm:"type:text"`
	Timestamp string         `gorm:"index:idx_audit_timestamp,sort:desc;not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// BeforeCreate hook to ensure the timestamp is set.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.Timestamp == "" {
		a.Timestamp = time.Now().Format(time.RFC3339)
	}
	return nil
}

// Comment is the comments table row.
type Comment struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	IssueID   int64  `gorm:"index:idx_comments_issue;not null"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt string `gorm:"not null"`
}

func (Comment) TableName() string { return "comments" }

// BeforeCreate hook to ensure the timestamp is set.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt == "" {
		c.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// IssueLink is the issue_links table row tying issues to commits and branches.
type IssueLink struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	IssueID   int64  `gorm:"index:idx_links_issue;uniqueIndex:idx_links_unique,priority:1;not null"`
	LinkType  string `gorm:"type:text;check:link_type IN ('commit', 'branch');uniqueIndex:idx_links_unique,priority:2;not null"`
	Reference string `gorm:"type:text;uniqueIndex:idx_links_unique,priority:3;not null"`
	CreatedAt string `gorm:"not null"`
}

func (IssueLink) TableName() string { return "issue_links" }

// BeforeCreate hook to ensure the timestamp is set.
func (l *IssueLink) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt == "" {
		l.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// CodeReference is the code_references table row.
type CodeReference struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	IssueID   int64          `gorm:"index:idx_refs_issue;not null"`
	FilePath  string         `gorm:"type:text;not null"`
	StartLine sql.NullInt64
	EndLine   sql.NullInt64
	Note      sql.NullString `gorm:"type:text"`
	CreatedAt string         `gorm:"not null"`
}

func (CodeReference) TableName() string { return "code_references" }

// BeforeCreate hook to ensure the timestamp is set.
func (r *CodeReference) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// TimeEntry is the time_entries table row. An open timer has NULL ended_at.
type TimeEntry struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	IssueID         int64          `gorm:"index:idx_time_issue;not null"`
	StartedAt       string         `gorm:"not null"`
	EndedAt         sql.NullString `gorm:"index:idx_time_open"`
	DurationSeconds sql.NullInt64
	Note            sql.NullString `gorm:"type:text"`
}

func (TimeEntry) TableName() string { return "time_entries" }

// Dependency is the issue_dependencies table row: blocker blocks blocked.
type Dependency struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	BlockerID int64  `gorm:"index:idx_deps_blocker;uniqueIndex:idx_deps_unique,priority:1;not null"`
	BlockedID int64  `gorm:"index:idx_deps_blocked;uniqueIndex:idx_deps_unique,priority:2;not null"`
	CreatedAt string `gorm:"not null"`
}

func (Dependency) TableName() string { return "issue_dependencies" }

// BeforeCreate hook to ensure the timestamp is set.
func (d *Dependency) BeforeCreate(tx *gorm.DB) error {
	if d.CreatedAt == "" {
		d.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// Template is the issue_templates table row.
type Template struct {
	ID              int64                  `gorm:"primaryKey;autoIncrement"`
	Name            string                 `gorm:"uniqueIndex;type:text;not null"`
	TitlePrefix     sql.NullString         `gorm:"type:text"`
	DefaultPriority sql.NullString         `gorm:"type:text"`
	DefaultStatus   sql.NullString         `gorm:"type:text"`
	RequiredFields  models.JSONStringArray `gorm:"type:text"` // JSON array
	FieldPrompts    models.JSONStringMap   `gorm:"type:text"` // JSON object
	CreatedAt       string                 `gorm:"not null"`
}

func (Template) TableName() string { return "issue_templates" }

// BeforeCreate hook to ensure the timestamp is set.
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// SavedSearch is the saved_searches table row.
type SavedSearch struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"uniqueIndex;type:text;not null"`
	QueryJSON string `gorm:"type:text;not null"`
	CreatedAt string `gorm:"not null"`
}

func (SavedSearch) TableName() string { return "saved_searches" }

// BeforeCreate hook to ensure the timestamp is set.
func (s *SavedSearch) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedAt == "" {
		s.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// WorkspaceState is the single-row workspace_state table. Row id is always 1.
type WorkspaceState struct {
	ID            int64         `gorm:"primaryKey"`
	ActiveIssueID sql.NullInt64
	StartedAt     sql.NullString
}

func (WorkspaceState) TableName() string { return "workspace_state" }

// ====================
// Model Conversions
// ====================

func toModelIssue(i *Issue) *models.Issue {
	return &models.Issue{
		ID:             i.ID,
		Title:          i.Title,
		Description:    i.Description,
		Priority:       i.Priority,
		Status:         i.Status,
		DueDate:        i.DueDate,
		EstimatedHours: i.EstimatedHours,
		CreatedAt:      i.CreatedAt,
		CreatedAtEpoch: i.CreatedAtEpoch,
		UpdatedAt:      i.UpdatedAt,
		UpdatedAtEpoch: i.UpdatedAtEpoch,
	}
}

func toModelIssues(issues []Issue) []*models.Issue {
	result := make([]*models.Issue, len(issues))
	for i := range issues {
		result[i] = toModelIssue(&issues[i])
	}
	return result
}

func fromModelIssue(i *models.Issue) *Issue {
	return &Issue{
		ID:             i.ID,
		Title:          i.Title,
		Description:    i.Description,
		Priority:       i.Priority,
		Status:         i.Status,
		DueDate:        i.DueDate,
		EstimatedHours: i.EstimatedHours,
		CreatedAt:      i.CreatedAt,
		CreatedAtEpoch: i.CreatedAtEpoch,
		UpdatedAt:      i.UpdatedAt,
		UpdatedAtEpoch: i.UpdatedAtEpoch,
	}
}

func toModelAuditLog(a *AuditLog) *models.AuditLog {
	return &models.AuditLog{
		ID:        a.ID,
		IssueID:   a.IssueID,
		Action:    a.Action,
		FieldName: a.FieldName,
		OldValue:  a.OldValue,
		NewValue:  a.NewValue,
		Timestamp: a.Timestamp,
	}
}

func toModelAuditLogs(logs []AuditLog) []*models.AuditLog {
	result := make([]*models.AuditLog, len(logs))
	for i := range logs {
		result[i] = toModelAuditLog(&logs[i])
	}
	return result
}

func toModelComment(c *Comment) *models.Comment {
	return &models.Comment{
		ID:        c.ID,
		IssueID:   c.IssueID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func toModelLink(l *IssueLink) *models.IssueLink {
	return &models.IssueLink{
		ID:        l.ID,
		IssueID:   l.IssueID,
		LinkType:  l.LinkType,
		Reference: l.Reference,
		CreatedAt: l.CreatedAt,
	}
}

func toModelCodeReference(r *CodeReference) *models.CodeReference {
	return &models.CodeReference{
		ID:        r.ID,
		IssueID:   r.IssueID,
		FilePath:  r.FilePath,
		StartLine: r.StartLine,
		EndLine:   r.EndLine,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

func toModelTimeEntry(t *TimeEntry) *models.TimeEntry {
	return &models.TimeEntry{
		ID:              t.ID,
		IssueID:         t.IssueID,
		StartedAt:       t.StartedAt,
		EndedAt:         t.EndedAt,
		DurationSeconds: t.DurationSeconds,
		Note:            t.Note,
	}
}

func toModelTimeEntries(entries []TimeEntry) []*models.TimeEntry {
	result := make([]*models.TimeEntry, len(entries))
	for i := range entries {
		result[i] = toModelTimeEntry(&entries[i])
	}
	return result
}

func toModelTemplate(t *Template) *models.Template {
	return &models.Template{
		ID:              t.ID,
		Name:            t.Name,
		TitlePrefix:     t.TitlePrefix,
		DefaultPriority: t.DefaultPriority,
		DefaultStatus:   t.DefaultStatus,
		RequiredFields:  t.RequiredFields,
		FieldPrompts:    t.FieldPrompts,
		CreatedAt:       t.CreatedAt,
	}
}

func toModelSavedSearch(s *SavedSearch) *models.SavedSearch {
	return &models.SavedSearch{
		ID:        s.ID,
		Name:      s.Name,
		QueryJSON: s.QueryJSON,
		CreatedAt: s.CreatedAt,
	}
}

func toModelDependency(d *Dependency) *models.Dependency {
	return &models.Dependency{
		ID:        d.ID,
		BlockerID: d.BlockerID,
		BlockedID: d.BlockedID,
		CreatedAt: d.CreatedAt,
	}
}

func toModelDependencies(deps []Dependency) []*models.Dependency {
	result := make([]*models.Dependency, len(deps))
	for i := range deps {
		result[i] = toModelDependency(&deps[i])
	}
	return result
}
