package db

import (
	"context"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// AuditStore reads the audit trail. Writes happen inside the issue
// operations themselves so they share the mutating transaction.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates a new audit store.
func NewAuditStore(store *Store) *AuditStore {
	return &AuditStore{db: store.DB}
}

// ForIssue returns the audit trail of one issue, newest first.
func (s *AuditStore) ForIssue(ctx context.Context, issueID int64, limit int) ([]*models.AuditLog, error) {
	var rows []AuditLog
	query := s.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModelAuditLogs(rows), nil
}

// Recent returns the newest audit rows across all issues.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []AuditLog
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelAuditLogs(rows), nil
}

// ByAction returns the newest audit rows for one action type.
func (s *AuditStore) ByAction(ctx context.Context, action string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []AuditLog
	err := s.db.WithContext(ctx).
		Where("action = ?", action).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelAuditLogs(rows), nil
}

// RecordWorkspace writes a workspace start or stop audit row.
func (s *AuditStore) RecordWorkspace(ctx context.Context, issueID int64, action string) error {
	return writeAudit(s.db.WithContext(ctx), issueID, action, "", "", "")
}
