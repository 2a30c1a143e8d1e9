// Package db provides GORM-based database operations for issuedb.
package db

import (
	"database/sql"
	"strings"
)

// nullString creates a sql.NullString, treating "" as NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue unwraps a sql.NullString, returning "" for NULL.
func nullStringValue(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

// extractKeywords splits a search query into useful keywords, dropping
// short words and stopwords.
func extractKeywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	var keywords []string

	commonWords := map[string]bool{
		"the": true, "and": true, "or": true, "but": true, "in": true,
		"on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "from": true, "as": true, "is": true,
		"was": true, "are": true, "were": true, "be": true, "been": true,
	}

	for _, word := range words {
		if len(word) <= 2 || commonWords[word] {
			continue
		}
		keywords = append(keywords, word)
	}

	return keywords
}
