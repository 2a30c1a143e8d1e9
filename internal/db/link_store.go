package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"issuedb/pkg/models"
)

// LinkStore ties issues to git commits and branches.
type LinkStore struct {
	db *gorm.DB
}

// NewLinkStore creates a new link store.
func NewLinkStore(store *Store) *LinkStore {
	return &LinkStore{db: store.DB}
}

// Link records a commit or branch reference on an issue. Re-linking the
// same reference is an idempotent no-op via the unique constraint, which
// lets git scan run repeatedly. The bool reports whether a new row was
// created.
func (s *LinkStore) Link(ctx context.Context, issueID int64, linkType, reference string) (*models.IssueLink, bool, error) {
	if linkType != models.LinkCommit && linkType != models.LinkBranch {
		return nil, false, fmt.Errorf("invalid link type: %q (must be commit or branch)", linkType)
	}
	if reference == "" {
		return nil, false, fmt.Errorf("link reference must not be empty")
	}

	var (
		link    *models.IssueLink
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Issue{}).Where("id = ?", issueID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("issue %d not found", issueID)
		}

		row := IssueLink{IssueID: issueID, LinkType: linkType, Reference: reference}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
		if err != nil {
			return err
		}

		// OnConflict DoNothing leaves ID zero when the row already existed.
		created = row.ID != 0
		if row.ID == 0 {
			if err := tx.Where("issue_id = ? AND link_type = ? AND reference = ?",
				issueID, linkType, reference).First(&row).Error; err != nil {
				return err
			}
		}
		link = toModelLink(&row)
		return nil
	})
	return link, created, err
}

// Unlink removes a reference from an issue. Returns false when it did
// not exist.
func (s *LinkStore) Unlink(ctx context.Context, issueID int64, linkType, reference string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("issue_id = ? AND link_type = ? AND reference = ?", issueID, linkType, reference).
		Delete(&IssueLink{})
	return result.RowsAffected > 0, result.Error
}

// ForIssue returns all git references of an issue, oldest first.
func (s *LinkStore) ForIssue(ctx context.Context, issueID int64) ([]*models.IssueLink, error) {
	var rows []IssueLink
	err := s.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	links := make([]*models.IssueLink, len(rows))
	for i := range rows {
		links[i] = toModelLink(&rows[i])
	}
	return links, nil
}

// IssuesForReference returns the issues linked to a commit or branch.
func (s *LinkStore) IssuesForReference(ctx context.Context, linkType, reference string) ([]*models.Issue, error) {
	var rows []Issue
	err := s.db.WithContext(ctx).
		Joins("JOIN issue_links l ON l.issue_id = issues.id").
		Where("l.link_type = ? AND l.reference = ?", linkType, reference).
		Order("issues.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelIssues(rows), nil
}
