package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// WorkspaceStore manages the single-row workspace state: which issue is
// being worked on right now.
type WorkspaceStore struct {
	db *gorm.DB
}

// NewWorkspaceStore creates a new workspace store.
func NewWorkspaceStore(store *Store) *WorkspaceStore {
	return &WorkspaceStore{db: store.DB}
}

// Start makes an issue the active one, moves it to in-progress and
// records a workspace start audit row. Starting while another issue is
// active replaces it.
func (s *WorkspaceStore) Start(ctx context.Context, issueID int64) (*models.Issue, error) {
	var started *models.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Issue
		if err := tx.First(&row, issueID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("issue %d not found", issueID)
			}
			return err
		}

		now := time.Now()
		if row.Status != models.StatusInProgress {
			updates := map[string]interface{}{
				"status":           models.StatusInProgress,
				"updated_at":       now.Format(time.RFC3339),
				"updated_at_epoch": now.UnixMilli(),
			}
			if err := tx.Model(&Issue{}).Where("id = ?", issueID).Updates(updates).Error; err != nil {
				return err
			}
			if err := writeAudit(tx, issueID, models.AuditUpdate, "status",
				string(row.Status), string(models.StatusInProgress)); err != nil {
				return err
			}
			row.Status = models.StatusInProgress
		}

		state := map[string]interface{}{
			"active_issue_id": issueID,
			"started_at":      now.Format(time.RFC3339),
		}
		if err := tx.Model(&WorkspaceState{}).Where("id = 1").Updates(state).Error; err != nil {
			return err
		}
		if err := writeAudit(tx, issueID, models.AuditWorkspaceStart, "", "", ""); err != nil {
			return err
		}
		started = toModelIssue(&row)
		return nil
	})
	return started, err
}

// Stop clears the active issue, optionally closing it, and records a
// workspace stop audit row. Returns the issue that was active, or nil
// when none was.
func (s *WorkspaceStore) Stop(ctx context.Context, closeIssue bool) (*models.Issue, error) {
	var stopped *models.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state WorkspaceState
		if err := tx.First(&state, 1).Error; err != nil {
			return err
		}
		if !state.ActiveIssueID.Valid {
			return nil
		}
		issueID := state.ActiveIssueID.Int64

		var row Issue
		err := tx.First(&row, issueID).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}

		if err == nil && closeIssue && row.Status != models.StatusClosed {
			now := time.Now()
			updates := map[string]interface{}{
				"status":           models.StatusClosed,
				"updated_at":       now.Format(time.RFC3339),
				"updated_at_epoch": now.UnixMilli(),
			}
			if uerr := tx.Model(&Issue{}).Where("id = ?", issueID).Updates(updates).Error; uerr != nil {
				return uerr
			}
			if aerr := writeAudit(tx, issueID, models.AuditUpdate, "status",
				string(row.Status), string(models.StatusClosed)); aerr != nil {
				return aerr
			}
			row.Status = models.StatusClosed
		}

		clear := map[string]interface{}{
			"active_issue_id": nil,
			"started_at":      nil,
		}
		if cerr := tx.Model(&WorkspaceState{}).Where("id = 1").Updates(clear).Error; cerr != nil {
			return cerr
		}
		if aerr := writeAudit(tx, issueID, models.AuditWorkspaceStop, "", "", ""); aerr != nil {
			return aerr
		}

		if err == nil {
			stopped = toModelIssue(&row)
		}
		return nil
	})
	return stopped, err
}

// Active returns the currently active issue with its start time, or nil
// when the workspace is idle.
func (s *WorkspaceStore) Active(ctx context.Context) (*models.ActiveIssue, error) {
	var state WorkspaceState
	if err := s.db.WithContext(ctx).First(&state, 1).Error; err != nil {
		return nil, err
	}
	if !state.ActiveIssueID.Valid {
		return nil, nil
	}

	var row Issue
	err := s.db.WithContext(ctx).First(&row, state.ActiveIssueID.Int64).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	startedAt := time.Time{}
	if state.StartedAt.Valid {
		if parsed, perr := time.Parse(time.RFC3339, state.StartedAt.String); perr == nil {
			startedAt = parsed
		}
	}
	return &models.ActiveIssue{Issue: toModelIssue(&row), StartedAt: startedAt}, nil
}
