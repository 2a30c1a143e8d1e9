package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// SearchStore persists named advanced-search queries.
type SearchStore struct {
	db *gorm.DB
}

// NewSearchStore creates a new saved search store.
func NewSearchStore(store *Store) *SearchStore {
	return &SearchStore{db: store.DB}
}

// Save stores a named query, replacing any previous query with the same
// name.
func (s *SearchStore) Save(ctx context.Context, name, queryJSON string) (*models.SavedSearch, error) {
	if name == "" {
		return nil, fmt.Errorf("search name must not be empty")
	}

	var saved *models.SavedSearch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", name).Delete(&SavedSearch{}).Error; err != nil {
			return err
		}
		row := SavedSearch{Name: name, QueryJSON: queryJSON}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		saved = toModelSavedSearch(&row)
		return nil
	})
	return saved, err
}

// Get retrieves a saved search by name. Returns nil without error when
// missing.
func (s *SearchStore) Get(ctx context.Context, name string) (*models.SavedSearch, error) {
	var row SavedSearch
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelSavedSearch(&row), nil
}

// List returns all saved searches ordered by name.
func (s *SearchStore) List(ctx context.Context) ([]*models.SavedSearch, error) {
	var rows []SavedSearch
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	searches := make([]*models.SavedSearch, len(rows))
	for i := range rows {
		searches[i] = toModelSavedSearch(&rows[i])
	}
	return searches, nil
}

// Delete removes a saved search by name. Returns false when it does not
// exist.
func (s *SearchStore) Delete(ctx context.Context, name string) (bool, error) {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&SavedSearch{})
	return result.RowsAffected > 0, result.Error
}
