package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuedb/pkg/models"
)

func TestSavedSearchRoundTrip(t *testing.T) {
	store := newTestStore(t)
	searches := NewSearchStore(store)
	ctx := context.Background()

	saved, err := searches.Save(ctx, "urgent", `{"priorities":["critical","high"]}`)
	require.NoError(t, err)
	require.NotNil(t, saved)

	got, err := searches.Get(ctx, "urgent")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.QueryJSON, got.QueryJSON)

	// Saving the same name replaces the stored query.
	_, err = searches.Save(ctx, "urgent", `{"statuses":["open"]}`)
	require.NoError(t, err)
	got, err = searches.Get(ctx, "urgent")
	require.NoError(t, err)
	assert.Equal(t, `{"statuses":["open"]}`, got.QueryJSON)

	all, err := searches.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	removed, err := searches.Delete(ctx, "urgent")
	require.NoError(t, err)
	assert.True(t, removed)

	missing, err := searches.Get(ctx, "urgent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSavedSearchValidation(t *testing.T) {
	store := newTestStore(t)
	searches := NewSearchStore(store)

	_, err := searches.Save(context.Background(), "", "{}")
	require.Error(t, err)
}

func TestTemplateCreateAndDelete(t *testing.T) {
	store := newTestStore(t)
	templates := NewTemplateStore(store)
	ctx := context.Background()

	tmpl := &models.Template{
		Name:            "hotfix",
		TitlePrefix:     models.NullString("[HOTFIX]"),
		DefaultPriority: models.NullString("critical"),
		RequiredFields:  models.JSONStringArray{"description"},
		FieldPrompts:    models.JSONStringMap{"description": "What broke in production"},
	}
	require.NoError(t, templates.Create(ctx, tmpl))
	require.NotZero(t, tmpl.ID)

	got, err := templates.Get(ctx, "hotfix")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "[HOTFIX] fix it", got.ApplyTitle("fix it"))
	assert.Equal(t, "What broke in production", got.FieldPrompts["description"])

	// Duplicate names hit the unique index.
	err = templates.Create(ctx, &models.Template{Name: "hotfix"})
	require.Error(t, err)

	// Invalid default priority is rejected before touching the DB.
	err = templates.Create(ctx, &models.Template{
		Name:            "bad",
		DefaultPriority: models.NullString("urgent"),
	})
	require.Error(t, err)

	removed, err := templates.Delete(ctx, "hotfix")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestCommentValidation(t *testing.T) {
	store := newTestStore(t)
	comments := NewCommentStore(store)

	_, err := comments.Add(context.Background(), 1, "")
	require.Error(t, err)

	_, err = comments.Add(context.Background(), 9999, "text")
	require.Error(t, err)
}
