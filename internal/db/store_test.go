package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"issuedb/pkg/models"
)

// newTestStore opens a fresh store in a temp dir.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		MaxConns: 2,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Ping())

	var journalMode string
	require.NoError(t, store.DB.Raw("PRAGMA journal_mode").Scan(&journalMode).Error)
	require.Equal(t, "wal", journalMode)

	tables := []string{
		"issues",
		"audit_logs",
		"comments",
		"issue_links",
		"code_references",
		"issue_dependencies",
		"time_entries",
		"issue_templates",
		"saved_searches",
		"workspace_state",
	}
	for _, table := range tables {
		require.True(t, store.DB.Migrator().HasTable(table), "table %q missing", table)
	}
}

func TestMigrationsSeedTemplates(t *testing.T) {
	store := newTestStore(t)

	templates := NewTemplateStore(store)
	all, err := templates.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)

	bug, err := templates.Get(context.Background(), "bug")
	require.NoError(t, err)
	require.NotNil(t, bug)
	require.Equal(t, "[BUG]", bug.TitlePrefix.String)
	require.Equal(t, "high", bug.DefaultPriority.String)
	require.Equal(t, models.JSONStringArray{"description"}, bug.RequiredFields)
}

func TestMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	cfg := Config{Path: dbPath, LogLevel: logger.Silent}

	first, err := NewStore(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Reopening reruns the migration chain against the same file.
	second, err := NewStore(cfg)
	require.NoError(t, err)
	defer second.Close()

	var count int64
	require.NoError(t, second.DB.Model(&Template{}).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestWorkspaceStateSingleRow(t *testing.T) {
	store := newTestStore(t)

	var rows []WorkspaceState
	require.NoError(t, store.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.EqualValues(t, 1, rows[0].ID)
	require.False(t, rows[0].ActiveIssueID.Valid)
}
