// Package models contains domain models for issuedb.
package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Priority is an issue priority level.
type Priority string

// Priority levels, lowest to highest.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists all valid priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority validates and normalizes a priority string.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority: %q (must be one of: low, medium, high, critical)", s)
}

// Rank returns the sort rank of a priority; lower rank sorts first.
// Critical is 1 so that ORDER BY rank ASC puts the most urgent work on top.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	default:
		return 4
	}
}

// Status is an issue lifecycle state.
type Status string

// Issue statuses.
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusClosed     Status = "closed"
	StatusWontDo     Status = "wont-do"
)

// Statuses lists all valid statuses.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusClosed, StatusWontDo}

// ParseStatus validates and normalizes a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusOpen, StatusInProgress, StatusClosed, StatusWontDo:
		return st, nil
	}
	return "", fmt.Errorf("invalid status: %q (must be one of: open, in-progress, closed, wont-do)", s)
}

// Resolved reports whether a status counts as resolved for blocking purposes.
// Only closed blockers release the issues they block.
func (s Status) Resolved() bool {
	return s == StatusClosed
}

// Issue represents an issue in the tracking system.
type Issue struct {
	CreatedAt      string          `db:"created_at" json:"created_at"`
	UpdatedAt      string          `db:"updated_at" json:"updated_at"`
	Title          string          `db:"title" json:"title"`
	Priority       Priority        `db:"priority" json:"priority"`
	Status         Status          `db:"status" json:"status"`
	Description    sql.NullString  `db:"description" json:"description,omitempty"`
	DueDate        sql.NullString  `db:"due_date" json:"due_date,omitempty"`
	EstimatedHours sql.NullFloat64 `db:"estimated_hours" json:"estimated_hours,omitempty"`
	ID             int64           `db:"id" json:"id"`
	CreatedAtEpoch int64           `db:"created_at_epoch" json:"created_at_epoch"`
	UpdatedAtEpoch int64           `db:"updated_at_epoch" json:"updated_at_epoch"`
}

// NewIssue creates an issue with defaults applied and timestamps set.
func NewIssue(title, description string) *Issue {
	now := time.Now()
	return &Issue{
		Title:          title,
		Description:    NullString(description),
		Priority:       PriorityMedium,
		Status:         StatusOpen,
		CreatedAt:      now.Format(time.RFC3339),
		CreatedAtEpoch: now.UnixMilli(),
		UpdatedAt:      now.Format(time.RFC3339),
		UpdatedAtEpoch: now.UnixMilli(),
	}
}

// SimilarityID implements similarity.Record.
func (i *Issue) SimilarityID() int64 { return i.ID }

// SimilarityTitle implements similarity.Record.
func (i *Issue) SimilarityTitle() string { return i.Title }

// SimilarityDescription implements similarity.Record.
func (i *Issue) SimilarityDescription() string {
	if i.Description.Valid {
		return i.Description.String
	}
	return ""
}

// issueJSON is a JSON-friendly representation of Issue.
// It converts sql null types to plain values for clean JSON output.
type issueJSON struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Priority       Priority `json:"priority"`
	Status         Status   `json:"status"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	DueDate        string   `json:"due_date,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	ID             int64    `json:"id"`
	CreatedAtEpoch int64    `json:"created_at_epoch"`
	UpdatedAtEpoch int64    `json:"updated_at_epoch"`
}

// MarshalJSON implements json.Marshaler for Issue.
func (i *Issue) MarshalJSON() ([]byte, error) {
	j := issueJSON{
		ID:             i.ID,
		Title:          i.Title,
		Priority:       i.Priority,
		Status:         i.Status,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
		CreatedAtEpoch: i.CreatedAtEpoch,
		UpdatedAtEpoch: i.UpdatedAtEpoch,
	}
	if i.Description.Valid {
		j.Description = i.Description.String
	}
	if i.DueDate.Valid {
		j.DueDate = i.DueDate.String
	}
	if i.EstimatedHours.Valid {
		h := i.EstimatedHours.Float64
		j.EstimatedHours = &h
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler for Issue.
func (i *Issue) UnmarshalJSON(data []byte) error {
	var j issueJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	i.ID = j.ID
	i.Title = j.Title
	i.Description = NullString(j.Description)
	i.CreatedAt = j.CreatedAt
	i.UpdatedAt = j.UpdatedAt
	i.CreatedAtEpoch = j.CreatedAtEpoch
	i.UpdatedAtEpoch = j.UpdatedAtEpoch
	i.DueDate = NullString(j.DueDate)
	if j.EstimatedHours != nil {
		i.EstimatedHours = sql.NullFloat64{Float64: *j.EstimatedHours, Valid: true}
	} else {
		i.EstimatedHours = sql.NullFloat64{}
	}
	if j.Priority != "" {
		p, err := ParsePriority(string(j.Priority))
		if err != nil {
			return err
		}
		i.Priority = p
	} else {
		i.Priority = PriorityMedium
	}
	if j.Status != "" {
		s, err := ParseStatus(string(j.Status))
		if err != nil {
			return err
		}
		i.Status = s
	} else {
		i.Status = StatusOpen
	}
	return nil
}

// NullString creates a sql.NullString, treating "" as NULL.
func NullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// NullInt64 creates a sql.NullInt64, treating 0 as NULL.
func NullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
