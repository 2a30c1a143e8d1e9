package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// CommentStore provides comment operations.
type CommentStore struct {
	db *gorm.DB
}

// NewCommentStore creates a new comment store.
func NewCommentStore(store *Store) *CommentStore {
	return &CommentStore{db: store.DB}
}

// Add attaches a comment to an issue. The issue must exist.
func (s *CommentStore) Add(ctx context.Context, issueID int64, text string) (*models.Comment, error) {
	if text == "" {
		return nil, fmt.Errorf("comment text must not be empty")
	}

	var comment *models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Issue{}).Where("id = ?", issueID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("issue %d not found", issueID)
		}

		row := Comment{IssueID: issueID, Text: text}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		comment = toModelComment(&row)
		return nil
	})
	return comment, err
}

// ForIssue returns all comments on an issue, oldest first.
func (s *CommentStore) ForIssue(ctx context.Context, issueID int64) ([]*models.Comment, error) {
	var rows []Comment
	err := s.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	comments := make([]*models.Comment, len(rows))
	for i := range rows {
		comments[i] = toModelComment(&rows[i])
	}
	return comments, nil
}

// Delete removes a comment by ID. Returns false when it does not exist.
func (s *CommentStore) Delete(ctx context.Context, id int64) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&Comment{}, id)
	return result.RowsAffected > 0, result.Error
}
