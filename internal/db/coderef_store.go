package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// CodeRefStore points issues at file locations in the codebase.
type CodeRefStore struct {
	db *gorm.DB
}

// NewCodeRefStore creates a new code reference store.
func NewCodeRefStore(store *Store) *CodeRefStore {
	return &CodeRefStore{db: store.DB}
}

// ParseFileSpec splits "path", "path:45" or "path:45-60" into a path and
// optional line range.
func ParseFileSpec(spec string) (path string, startLine, endLine int64, err error) {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		return spec, 0, 0, nil
	}

	path, lines := spec[:idx], spec[idx+1:]
	if path == "" {
		return "", 0, 0, fmt.Errorf("invalid file spec: %q", spec)
	}

	if dash := strings.Index(lines, "-"); dash >= 0 {
		start, serr := strconv.ParseInt(lines[:dash], 10, 64)
		end, eerr := strconv.ParseInt(lines[dash+1:], 10, 64)
		if serr != nil || eerr != nil || start <= 0 || end < start {
			return "", 0, 0, fmt.Errorf("invalid line range in file spec: %q", spec)
		}
		return path, start, end, nil
	}

	start, serr := strconv.ParseInt(lines, 10, 64)
	if serr != nil || start <= 0 {
		// A colon with no valid line number is part of the path itself.
		return spec, 0, 0, nil
	}
	return path, start, start, nil
}

// Add attaches a code reference to an issue.
func (s *CodeRefStore) Add(ctx context.Context, issueID int64, filePath string, startLine, endLine int64, note string) (*models.CodeReference, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path must not be empty")
	}

	var ref *models.CodeReference
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Issue{}).Where("id = ?", issueID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("issue %d not found", issueID)
		}

		row := CodeReference{
			IssueID:   issueID,
			FilePath:  filePath,
			StartLine: models.NullInt64(startLine),
			EndLine:   models.NullInt64(endLine),
			Note:      nullString(note),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		ref = toModelCodeReference(&row)
		return nil
	})
	return ref, err
}

// Remove deletes a code reference by ID. Returns false when it does not
// exist.
func (s *CodeRefStore) Remove(ctx context.Context, id int64) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&CodeReference{}, id)
	return result.RowsAffected > 0, result.Error
}

// ForIssue returns all code references of an issue, oldest first.
func (s *CodeRefStore) ForIssue(ctx context.Context, issueID int64) ([]*models.CodeReference, error) {
	var rows []CodeReference
	err := s.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	refs := make([]*models.CodeReference, len(rows))
	for i := range rows {
		refs[i] = toModelCodeReference(&rows[i])
	}
	return refs, nil
}

// ForFile returns the issues referencing a file, with their reference
// locations.
func (s *CodeRefStore) ForFile(ctx context.Context, filePath string) ([]*models.CodeReference, error) {
	var rows []CodeReference
	err := s.db.WithContext(ctx).
		Where("file_path = ?", filePath).
		Order("issue_id, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	refs := make([]*models.CodeReference, len(rows))
	for i := range rows {
		refs[i] = toModelCodeReference(&rows[i])
	}
	return refs, nil
}
