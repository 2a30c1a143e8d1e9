// Package db provides GORM-based database operations for issuedb.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// runMigrations brings the schema up to date via gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: core tables (Issue, AuditLog, Comment)
		{
			ID: "001_issue_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Issue{}); err != nil {
					return err
				}
				if err := tx.AutoMigrate(&AuditLog{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&Comment{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("issues", "audit_logs", "comments")
			},
		},

		// Migration 002: Git links and code references
		{
			ID: "002_links_and_refs",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&IssueLink{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&CodeReference{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("issue_links", "code_references")
			},
		},

		// Migration 003: Dependencies
		{
			ID: "003_dependencies",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Dependency{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("issue_dependencies")
			},
		},

		// Migration 004: Time tracking
		{
			ID: "004_time_entries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&TimeEntry{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("time_entries")
			},
		},

		// Migration 005: Templates with builtin seed data
		{
			ID: "005_templates",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Template{}); err != nil {
					return err
				}

				now := time.Now().Format(time.RFC3339)
				templates := []Template{
					{
						Name:            "bug",
						TitlePrefix:     nullString("[BUG]"),
						DefaultPriority: nullString("high"),
						RequiredFields:  []string{"description"},
						FieldPrompts: map[string]string{
							"description": "Steps to reproduce, expected and actual behavior",
						},
						CreatedAt: now,
					},
					{
						Name:            "feature",
						TitlePrefix:     nullString("[FEATURE]"),
						DefaultPriority: nullString("medium"),
						RequiredFields:  []string{"description"},
						FieldPrompts: map[string]string{
							"description": "What should this feature do and who needs it",
						},
						CreatedAt: now,
					},
					{
						Name:            "task",
						TitlePrefix:     nullString("[TASK]"),
						DefaultPriority: nullString("low"),
						RequiredFields:  []string{},
						FieldPrompts:    map[string]string{},
						CreatedAt:       now,
					},
				}

				// OnConflict DoNothing keeps reruns from duplicating seed rows.
				return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&templates).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("issue_templates")
			},
		},

		// Migration 006: Saved searches
		{
			ID: "006_saved_searches",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&SavedSearch{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("saved_searches")
			},
		},

		// Migration 007: Single-row workspace state
		{
			ID: "007_workspace_state",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&WorkspaceState{}); err != nil {
					return err
				}
				row := WorkspaceState{ID: 1}
				return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("workspace_state")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}

	return nil
}

// setupFTS creates the FTS5 virtual table for issues plus the sync triggers.
// FTS5 availability depends on how the SQLite driver was compiled, so failure
// here is not fatal: search falls back to LIKE queries when the table is
// missing. Runs outside gormigrate so a driver without FTS5 does not leave a
// half-applied migration behind.
func setupFTS(sqlDB *sql.DB) bool {
	sqls := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS issues_fts USING fts5(
			title, description,
			content='issues',
			content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS issues_ai AFTER INSERT ON issues BEGIN
			INSERT INTO issues_fts(rowid, title, description)
			VALUES (new.id, new.title, new.description);
		END`,
		`CREATE TRIGGER IF NOT EXISTS issues_ad AFTER DELETE ON issues BEGIN
			INSERT INTO issues_fts(issues_fts, rowid, title, description)
			VALUES('delete', old.id, old.title, old.description);
		END`,
		`CREATE TRIGGER IF NOT EXISTS issues_au AFTER UPDATE ON issues BEGIN
			INSERT INTO issues_fts(issues_fts, rowid, title, description)
			VALUES('delete', old.id, old.title, old.description);
			INSERT INTO issues_fts(rowid, title, description)
			VALUES (new.id, new.title, new.description);
		END`,
	}
	for _, s := range sqls {
		if _, err := sqlDB.Exec(s); err != nil {
			log.Warn().Err(err).Msg("FTS5 unavailable, search will use LIKE fallback")
			return false
		}
	}
	return true
}
