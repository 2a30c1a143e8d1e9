package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// DependencyStore manages blocking relationships between issues.
type DependencyStore struct {
	db *gorm.DB
}

// NewDependencyStore creates a new dependency store.
func NewDependencyStore(store *Store) *DependencyStore {
	return &DependencyStore{db: store.DB}
}

// Block records that blocker blocks blocked. Self-blocks and dependency
// cycles are rejected; duplicate edges are idempotent no-ops.
func (s *DependencyStore) Block(ctx context.Context, blockerID, blockedID int64) error {
	if blockerID == blockedID {
		return fmt.Errorf("issue %d cannot block itself", blockerID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range []int64{blockerID, blockedID} {
			var count int64
			if err := tx.Model(&Issue{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("issue %d not found", id)
			}
		}

		var existing int64
		err := tx.Model(&Dependency{}).
			Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		cycle, err := wouldCycle(tx, blockerID, blockedID)
		if err != nil {
			return err
		}
		if cycle {
			return fmt.Errorf("dependency would create a cycle: %d already blocks %d transitively", blockedID, blockerID)
		}

		return tx.Create(&Dependency{BlockerID: blockerID, BlockedID: blockedID}).Error
	})
}

// Unblock removes the blocking edge. Returns false when it did not exist.
func (s *DependencyStore) Unblock(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&Dependency{})
	return result.RowsAffected > 0, result.Error
}

// Blockers returns the issues blocking the given issue.
func (s *DependencyStore) Blockers(ctx context.Context, issueID int64) ([]*models.Issue, error) {
	var rows []Issue
	err := s.db.WithContext(ctx).
		Joins("JOIN issue_dependencies d ON d.blocker_id = issues.id").
		Where("d.blocked_id = ?", issueID).
		Order("issues.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelIssues(rows), nil
}

// Blocking returns the issues the given issue blocks.
func (s *DependencyStore) Blocking(ctx context.Context, issueID int64) ([]*models.Issue, error) {
	var rows []Issue
	err := s.db.WithContext(ctx).
		Joins("JOIN issue_dependencies d ON d.blocked_id = issues.id").
		Where("d.blocker_id = ?", issueID).
		Order("issues.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelIssues(rows), nil
}

// Blocked returns every issue that currently has at least one unresolved
// blocker.
func (s *DependencyStore) Blocked(ctx context.Context) ([]*models.Issue, error) {
	var rows []Issue
	err := s.db.WithContext(ctx).
		Where(`EXISTS (
			SELECT 1 FROM issue_dependencies d
			JOIN issues b ON b.id = d.blocker_id
			WHERE d.blocked_id = issues.id AND b.status != 'closed'
		)`).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelIssues(rows), nil
}

// All returns every dependency edge.
func (s *DependencyStore) All(ctx context.Context) ([]*models.Dependency, error) {
	var rows []Dependency
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModelDependencies(rows), nil
}

// wouldCycle reports whether adding blocker -> blocked closes a cycle.
// BFS upward from the proposed blocker through its own blockers: if the
// proposed blocked issue is reachable, it already blocks the blocker.
func wouldCycle(tx *gorm.DB, blockerID, blockedID int64) (bool, error) {
	visited := map[int64]bool{blockerID: true}
	frontier := []int64{blockerID}

	for len(frontier) > 0 {
		var parents []int64
		err := tx.Model(&Dependency{}).
			Where("blocked_id IN ?", frontier).
			Pluck("blocker_id", &parents).Error
		if err != nil {
			return false, err
		}

		frontier = frontier[:0]
		for _, id := range parents {
			if id == blockedID {
				return true, nil
			}
			if !visited[id] {
				visited[id] = true
				frontier = append(frontier, id)
			}
		}
	}
	return false, nil
}
