package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// TimeStore manages work timers and time entries.
type TimeStore struct {
	db *gorm.DB
}

// NewTimeStore creates a new time tracking store.
func NewTimeStore(store *Store) *TimeStore {
	return &TimeStore{db: store.DB}
}

// StartTimer opens a timer on an issue. Only one timer may run per issue
// at a time.
func (s *TimeStore) StartTimer(ctx context.Context, issueID int64, note string) (*models.TimeEntry, error) {
	var entry *models.TimeEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Issue{}).Where("id = ?", issueID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("issue %d not found", issueID)
		}

		var running int64
		err := tx.Model(&TimeEntry{}).
			Where("issue_id = ? AND ended_at IS NULL", issueID).
			Count(&running).Error
		if err != nil {
			return err
		}
		if running > 0 {
			return fmt.Errorf("issue %d already has a running timer", issueID)
		}

		row := TimeEntry{
			IssueID:   issueID,
			StartedAt: time.Now().Format(time.RFC3339),
			Note:      nullString(note),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		entry = toModelTimeEntry(&row)
		return nil
	})
	return entry, err
}

// StopTimer closes a running timer and records its duration. With
// issueID 0 the most recently started running timer is stopped, whatever
// issue it belongs to. Returns nil when no timer is running.
func (s *TimeStore) StopTimer(ctx context.Context, issueID int64) (*models.TimeEntry, error) {
	var entry *models.TimeEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("ended_at IS NULL")
		if issueID > 0 {
			query = query.Where("issue_id = ?", issueID)
		}

		var row TimeEntry
		err := query.Order("started_at DESC, id DESC").First(&row).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		now := time.Now()
		duration := int64(0)
		if started, perr := time.Parse(time.RFC3339, row.StartedAt); perr == nil {
			duration = int64(now.Sub(started).Seconds())
			if duration < 0 {
				duration = 0
			}
		}

		updates := map[string]interface{}{
			"ended_at":         now.Format(time.RFC3339),
			"duration_seconds": duration,
		}
		if err := tx.Model(&TimeEntry{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return err
		}

		var fresh TimeEntry
		if err := tx.First(&fresh, row.ID).Error; err != nil {
			return err
		}
		entry = toModelTimeEntry(&fresh)
		return nil
	})
	return entry, err
}

// Running returns all open timers, newest first.
func (s *TimeStore) Running(ctx context.Context) ([]*models.TimeEntry, error) {
	var rows []TimeEntry
	err := s.db.WithContext(ctx).
		Where("ended_at IS NULL").
		Order("started_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelTimeEntries(rows), nil
}

// ForIssue returns all time entries of an issue, oldest first.
func (s *TimeStore) ForIssue(ctx context.Context, issueID int64) ([]*models.TimeEntry, error) {
	var rows []TimeEntry
	err := s.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelTimeEntries(rows), nil
}

// TotalSeconds sums the completed entries of an issue.
func (s *TimeStore) TotalSeconds(ctx context.Context, issueID int64) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&TimeEntry{}).
		Where("issue_id = ? AND duration_seconds IS NOT NULL", issueID).
		Select("COALESCE(SUM(duration_seconds), 0)").
		Scan(&total).Error
	return total, err
}

// Report aggregates completed time entries per issue over a period:
// "week" (last 7 days), "month" (last 30 days) or "all".
func (s *TimeStore) Report(ctx context.Context, period string) ([]*models.TimeReportRow, error) {
	var since string
	switch period {
	case "week":
		since = time.Now().AddDate(0, 0, -7).Format(time.RFC3339)
	case "month":
		since = time.Now().AddDate(0, 0, -30).Format(time.RFC3339)
	case "", "all":
		// no lower bound
	default:
		return nil, fmt.Errorf("invalid report period: %q (must be week, month or all)", period)
	}

	query := s.db.WithContext(ctx).
		Model(&TimeEntry{}).
		Select(`time_entries.issue_id,
			issues.title,
			COALESCE(issues.estimated_hours, 0) AS estimated_hours,
			SUM(time_entries.duration_seconds) AS total_seconds,
			COUNT(*) AS entry_count`).
		Joins("JOIN issues ON issues.id = time_entries.issue_id").
		Where("time_entries.duration_seconds IS NOT NULL")
	if since != "" {
		query = query.Where("time_entries.started_at >= ?", since)
	}

	var report []*models.TimeReportRow
	err := query.
		Group("time_entries.issue_id, issues.title, issues.estimated_hours").
		Order("total_seconds DESC").
		Scan(&report).Error
	if err != nil {
		return nil, err
	}
	return report, nil
}
