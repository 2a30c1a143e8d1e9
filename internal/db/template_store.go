package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// TemplateStore manages issue templates. The builtin bug/feature/task
// templates are seeded by the migrations.
type TemplateStore struct {
	db *gorm.DB
}

// NewTemplateStore creates a new template store.
func NewTemplateStore(store *Store) *TemplateStore {
	return &TemplateStore{db: store.DB}
}

// Create saves a template. Names are unique.
func (s *TemplateStore) Create(ctx context.Context, tmpl *models.Template) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name must not be empty")
	}
	if tmpl.DefaultPriority.Valid {
		if _, err := models.ParsePriority(tmpl.DefaultPriority.String); err != nil {
			return err
		}
	}
	if tmpl.DefaultStatus.Valid {
		if _, err := models.ParseStatus(tmpl.DefaultStatus.String); err != nil {
			return err
		}
	}

	row := Template{
		Name:            tmpl.Name,
		TitlePrefix:     tmpl.TitlePrefix,
		DefaultPriority: tmpl.DefaultPriority,
		DefaultStatus:   tmpl.DefaultStatus,
		RequiredFields:  tmpl.RequiredFields,
		FieldPrompts:    tmpl.FieldPrompts,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create template %q: %w", tmpl.Name, err)
	}
	*tmpl = *toModelTemplate(&row)
	return nil
}

// Get retrieves a template by name. Returns nil without error when missing.
func (s *TemplateStore) Get(ctx context.Context, name string) (*models.Template, error) {
	var row Template
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelTemplate(&row), nil
}

// List returns all templates ordered by name.
func (s *TemplateStore) List(ctx context.Context) ([]*models.Template, error) {
	var rows []Template
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	templates := make([]*models.Template, len(rows))
	for i := range rows {
		templates[i] = toModelTemplate(&rows[i])
	}
	return templates, nil
}

// Delete removes a template by name. Returns false when it does not exist.
func (s *TemplateStore) Delete(ctx context.Context, name string) (bool, error) {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&Template{})
	return result.RowsAffected > 0, result.Error
}
