//go:build !sqlite_omit_load_extension
// +build !sqlite_omit_load_extension

// Package db provides GORM-based database operations for issuedb.
package db

// This file ensures mattn/go-sqlite3 is built without omitting extensions.
// Build with -tags sqlite_fts5 to compile the FTS5 module into the driver.
