package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"issuedb/pkg/models"
)

// IssueStore provides issue-related database operations using GORM.
type IssueStore struct {
	db     *gorm.DB
	rawDB  *sql.DB
	hasFTS bool
}

// NewIssueStore creates a new issue store.
func NewIssueStore(store *Store) *IssueStore {
	return &IssueStore{
		db:     store.DB,
		rawDB:  store.GetRawDB(),
		hasFTS: store.HasFTS(),
	}
}

// ListFilter narrows List and Count results. Zero values mean "no filter".
type ListFilter struct {
	Status    models.Status
	Priority  models.Priority
	Keyword   string
	DueBefore string // YYYY-MM-DD inclusive
	DueAfter  string // YYYY-MM-DD inclusive
	Limit     int
}

// IssueUpdate carries the fields to change. Nil pointers are left alone;
// pointing at the empty string clears a nullable column.
type IssueUpdate struct {
	Title          *string
	Description    *string
	Priority       *models.Priority
	Status         *models.Status
	DueDate        *string
	EstimatedHours *float64
}

// Empty reports whether the update changes nothing.
func (u IssueUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil &&
		u.Status == nil && u.DueDate == nil && u.EstimatedHours == nil
}

// fieldChange is one audited column change.
type fieldChange struct {
	name     string
	oldValue string
	newValue string
}

// SearchQuery is an advanced search over issues. Time bounds compare
// against the epoch columns. Nil/empty fields are skipped.
type SearchQuery struct {
	Keyword       string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
	Priorities    []models.Priority
	Statuses      []models.Status
	SortBy        string // created | updated | priority
	SortOrder     string // asc | desc
	Limit         int
}

// PatternFilter selects issues by glob or regex match on a text field.
type PatternFilter struct {
	Pattern       string
	Field         string // title | description
	Regex         bool
	CaseSensitive bool
}

// BulkIssueUpdate targets one issue in a bulk update.
type BulkIssueUpdate struct {
	ID     int64
	Update IssueUpdate
}

// priorityRankSQL orders critical first the way Priority.Rank does.
const priorityRankSQL = "CASE priority WHEN 'critical' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 ELSE 4 END"

// Create inserts an issue and its CREATE audit row in one transaction.
// The generated ID is written back to the argument.
func (s *IssueStore) Create(ctx context.Context, issue *models.Issue) error {
	if issue.EstimatedHours.Valid && issue.EstimatedHours.Float64 < 0 {
		return fmt.Errorf("estimated hours must be non-negative")
	}
	row := fromModelIssue(issue)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return writeAudit(tx, row.ID, models.AuditCreate, "", "", issueAuditPayload(row))
	})
	if err != nil {
		return err
	}
	*issue = *toModelIssue(row)
	return nil
}

// Get retrieves an issue by ID. Returns nil without error when missing.
func (s *IssueStore) Get(ctx context.Context, id int64) (*models.Issue, error) {
	var row Issue
	err := s.db.WithContext(ctx).First(&row, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelIssue(&row), nil
}

// Update writes only the fields that actually changed, records one audit
// row per changed field, and bumps updated_at alongside any change.
// Returns the updated issue, or nil when the issue does not exist.
func (s *IssueStore) Update(ctx context.Context, id int64, upd IssueUpdate) (*models.Issue, error) {
	if upd.EstimatedHours != nil && *upd.EstimatedHours < 0 {
		return nil, fmt.Errorf("estimated hours must be non-negative")
	}

	var updated *models.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Issue
		if err := tx.First(&row, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}

		updates, changes := diffIssue(&row, upd)
		if len(changes) == 0 {
			updated = toModelIssue(&row)
			return nil
		}

		now := time.Now()
		updates["updated_at"] = now.Format(time.RFC3339)
		updates["updated_at_epoch"] = now.UnixMilli()

		if err := tx.Model(&Issue{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		for _, ch := range changes {
			if err := writeAudit(tx, id, models.AuditUpdate, ch.name, ch.oldValue, ch.newValue); err != nil {
				return err
			}
		}

		var fresh Issue
		if err := tx.First(&fresh, id).Error; err != nil {
			return err
		}
		updated = toModelIssue(&fresh)
		return nil
	})
	return updated, err
}

// Delete removes an issue and everything hanging off it. The DELETE audit
// row keeps the full issue JSON so last-fetched can still replay it.
// Returns false when the issue does not exist.
func (s *IssueStore) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Issue
		if err := tx.First(&row, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}

		for _, del := range []error{
			tx.Where("issue_id = ?", id).Delete(&Comment{}).Error,
			tx.Where("issue_id = ?", id).Delete(&IssueLink{}).Error,
			tx.Where("issue_id = ?", id).Delete(&CodeReference{}).Error,
			tx.Where("issue_id = ?", id).Delete(&TimeEntry{}).Error,
			tx.Where("blocker_id = ? OR blocked_id = ?", id, id).Delete(&Dependency{}).Error,
		} {
			if del != nil {
				return del
			}
		}

		if err := tx.Delete(&Issue{}, id).Error; err != nil {
			return err
		}
		deleted = true
		return writeAudit(tx, id, models.AuditDelete, "", issueAuditPayload(&row), "")
	})
	return deleted, err
}

// List returns issues matching the filter, newest first.
func (s *IssueStore) List(ctx context.Context, f ListFilter) ([]*models.Issue, error) {
	var rows []Issue
	query := s.db.WithContext(ctx).Scopes(listFilterScope(f)).Order("created_at_epoch DESC")
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModelIssues(rows), nil
}

// Count returns the number of issues matching the filter.
func (s *IssueStore) Count(ctx context.Context, f ListFilter) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Issue{}).Scopes(listFilterScope(f)).Count(&count).Error
	return count, err
}

// All returns every issue ordered by ID, for duplicate detection.
func (s *IssueStore) All(ctx context.Context) ([]*models.Issue, error) {
	var rows []Issue
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModelIssues(rows), nil
}

// Search performs full-text search over titles and descriptions using
// FTS5, falling back to LIKE when the FTS index is unavailable.
func (s *IssueStore) Search(ctx context.Context, query string, limit int) ([]*models.Issue, error) {
	if limit <= 0 {
		limit = 20
	}

	keywords := extractKeywords(query)
	if len(keywords) == 0 {
		return nil, nil
	}

	if s.hasFTS {
		ftsTerms := strings.Join(keywords, " OR ")
		ftsQuery := `
			SELECT i.id, i.title, i.description, i.priority, i.status,
			       i.due_date, i.estimated_hours,
			       i.created_at, i.created_at_epoch, i.updated_at, i.updated_at_epoch
			FROM issues i
			JOIN issues_fts fts ON i.id = fts.rowid
			WHERE issues_fts MATCH ?
			ORDER BY rank
			LIMIT ?
		`
		rows, err := s.rawDB.QueryContext(ctx, ftsQuery, ftsTerms, limit)
		if err == nil {
			defer rows.Close()
			issues, err := scanIssueRows(rows)
			if err != nil {
				return nil, err
			}
			if len(issues) > 0 {
				return issues, nil
			}
		}
	}

	return s.searchLike(ctx, keywords, limit)
}

// searchLike is the fallback keyword search using GORM LIKE conditions.
func (s *IssueStore) searchLike(ctx context.Context, keywords []string, limit int) ([]*models.Issue, error) {
	var conditions []string
	var args []interface{}
	for _, kw := range keywords {
		pattern := "%" + kw + "%"
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		args = append(args, pattern, pattern)
	}

	var rows []Issue
	err := s.db.WithContext(ctx).
		Where(strings.Join(conditions, " OR "), args...).
		Order("created_at_epoch DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelIssues(rows), nil
}

// AdvancedSearch applies keyword, date-range, priority and status filters
// with configurable ordering.
func (s *IssueStore) AdvancedSearch(ctx context.Context, q SearchQuery) ([]*models.Issue, error) {
	query := s.db.WithContext(ctx).Model(&Issue{})

	if q.Keyword != "" {
		pattern := "%" + q.Keyword + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if q.CreatedAfter != nil {
		query = query.Where("created_at_epoch >= ?", q.CreatedAfter.UnixMilli())
	}
	if q.CreatedBefore != nil {
		query = query.Where("created_at_epoch <= ?", q.CreatedBefore.UnixMilli())
	}
	if q.UpdatedAfter != nil {
		query = query.Where("updated_at_epoch >= ?", q.UpdatedAfter.UnixMilli())
	}
	if q.UpdatedBefore != nil {
		query = query.Where("updated_at_epoch <= ?", q.UpdatedBefore.UnixMilli())
	}
	if len(q.Priorities) > 0 {
		query = query.Where("priority IN ?", q.Priorities)
	}
	if len(q.Statuses) > 0 {
		query = query.Where("status IN ?", q.Statuses)
	}

	order := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		order = "ASC"
	}
	switch q.SortBy {
	case "updated":
		query = query.Order("updated_at_epoch " + order)
	case "priority":
		query = query.Order(priorityRankSQL + " " + order)
	default:
		query = query.Order("created_at_epoch " + order)
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []Issue
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModelIssues(rows), nil
}

// Next returns the most urgent workable issue with the given status:
// highest priority first, oldest first within a priority, skipping issues
// that still have unresolved blockers. Fetching is audited so last-fetched
// can replay it. Returns nil when nothing qualifies.
func (s *IssueStore) Next(ctx context.Context, status models.Status) (*models.Issue, error) {
	if status == "" {
		status = models.StatusOpen
	}

	var next *models.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Issue
		err := tx.
			Where("status = ?", status).
			Where(`NOT EXISTS (
				SELECT 1 FROM issue_dependencies d
				JOIN issues b ON b.id = d.blocker_id
				WHERE d.blocked_id = issues.id AND b.status != 'closed'
			)`).
			Order(priorityRankSQL + ", created_at_epoch ASC").
			First(&row).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		if err := writeAudit(tx, row.ID, models.AuditFetch, "", "", issueAuditPayload(&row)); err != nil {
			return err
		}
		next = toModelIssue(&row)
		return nil
	})
	return next, err
}

// LastFetched replays FETCH audit rows newest first, skipping repeat
// fetches of the same issue. Issues deleted since their fetch are
// reconstructed from the audit payload.
func (s *IssueStore) LastFetched(ctx context.Context, limit int) ([]*models.Issue, error) {
	if limit <= 0 {
		limit = 10
	}

	var logs []AuditLog
	err := s.db.WithContext(ctx).
		Where("action = ?", models.AuditFetch).
		Order("id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var issues []*models.Issue
	for _, entry := range logs {
		if seen[entry.IssueID] {
			continue
		}
		seen[entry.IssueID] = true

		issue, err := s.Get(ctx, entry.IssueID)
		if err != nil {
			return nil, err
		}
		if issue == nil && entry.NewValue.Valid {
			var replayed models.Issue
			if err := json.Unmarshal([]byte(entry.NewValue.String), &replayed); err != nil {
				continue
			}
			issue = &replayed
		}
		if issue == nil {
			continue
		}

		issues = append(issues, issue)
		if len(issues) >= limit {
			break
		}
	}
	return issues, nil
}

// Summary aggregates issue counts and percentages by status and priority.
func (s *IssueStore) Summary(ctx context.Context) (*models.Summary, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Issue{}).Count(&total).Error; err != nil {
		return nil, err
	}

	summary := &models.Summary{Total: total}
	for _, st := range models.Statuses {
		var count int64
		if err := s.db.WithContext(ctx).Model(&Issue{}).Where("status = ?", st).Count(&count).Error; err != nil {
			return nil, err
		}
		summary.ByStatus = append(summary.ByStatus, groupCount(string(st), count, total))
	}
	for i := len(models.Priorities) - 1; i >= 0; i-- {
		p := models.Priorities[i]
		var count int64
		if err := s.db.WithContext(ctx).Model(&Issue{}).Where("priority = ?", p).Count(&count).Error; err != nil {
			return nil, err
		}
		summary.ByPriority = append(summary.ByPriority, groupCount(string(p), count, total))
	}
	return summary, nil
}

// Report groups all issues by status or priority, in a fixed bucket order.
func (s *IssueStore) Report(ctx context.Context, groupBy string) ([]*models.ReportGroup, error) {
	var buckets []string
	var column string
	switch groupBy {
	case "priority":
		column = "priority"
		for i := len(models.Priorities) - 1; i >= 0; i-- {
			buckets = append(buckets, string(models.Priorities[i]))
		}
	case "", "status":
		column = "status"
		for _, st := range models.Statuses {
			buckets = append(buckets, string(st))
		}
	default:
		return nil, fmt.Errorf("invalid report grouping: %q (must be status or priority)", groupBy)
	}

	var groups []*models.ReportGroup
	for _, bucket := range buckets {
		var rows []Issue
		err := s.db.WithContext(ctx).
			Where(column+" = ?", bucket).
			Order("created_at_epoch DESC").
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		groups = append(groups, &models.ReportGroup{Name: bucket, Issues: toModelIssues(rows)})
	}
	return groups, nil
}

// BulkCreate inserts all issues in one transaction, each with its own
// BULK_CREATE audit row. IDs are written back to the arguments.
func (s *IssueStore) BulkCreate(ctx context.Context, issues []*models.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, issue := range issues {
			if issue.EstimatedHours.Valid && issue.EstimatedHours.Float64 < 0 {
				return fmt.Errorf("estimated hours must be non-negative")
			}
			row := fromModelIssue(issue)
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			if err := writeAudit(tx, row.ID, models.AuditBulkCreate, "", "", issueAuditPayload(row)); err != nil {
				return err
			}
			*issue = *toModelIssue(row)
		}
		return nil
	})
}

// BulkUpdate applies per-issue updates in one transaction and returns the
// number of issues actually changed. Missing IDs are skipped.
func (s *IssueStore) BulkUpdate(ctx context.Context, updates []BulkIssueUpdate) (int, error) {
	changed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, target := range updates {
			if target.Update.EstimatedHours != nil && *target.Update.EstimatedHours < 0 {
				return fmt.Errorf("estimated hours must be non-negative")
			}

			var row Issue
			if err := tx.First(&row, target.ID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					continue
				}
				return err
			}

			fields, diffs := diffIssue(&row, target.Update)
			if len(diffs) == 0 {
				continue
			}

			now := time.Now()
			fields["updated_at"] = now.Format(time.RFC3339)
			fields["updated_at_epoch"] = now.UnixMilli()
			if err := tx.Model(&Issue{}).Where("id = ?", target.ID).Updates(fields).Error; err != nil {
				return err
			}
			for _, ch := range diffs {
				if err := writeAudit(tx, target.ID, models.AuditBulkUpdate, ch.name, ch.oldValue, ch.newValue); err != nil {
					return err
				}
			}
			changed++
		}
		return nil
	})
	return changed, err
}

// BulkClose closes all given issues.
func (s *IssueStore) BulkClose(ctx context.Context, ids []int64) (int, error) {
	closed := models.StatusClosed
	updates := make([]BulkIssueUpdate, len(ids))
	for i, id := range ids {
		updates[i] = BulkIssueUpdate{ID: id, Update: IssueUpdate{Status: &closed}}
	}
	return s.BulkUpdate(ctx, updates)
}

// MatchPattern returns the issues whose title or description matches the
// glob or regex pattern, ordered by ID.
func (s *IssueStore) MatchPattern(ctx context.Context, f PatternFilter) ([]*models.Issue, error) {
	match, err := compilePattern(f)
	if err != nil {
		return nil, err
	}

	var rows []Issue
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	var matched []*models.Issue
	for i := range rows {
		text := rows[i].Title
		if f.Field == "description" {
			text = nullStringValue(rows[i].Description)
		}
		if match(text) {
			matched = append(matched, toModelIssue(&rows[i]))
		}
	}
	return matched, nil
}

// UpdateByPattern applies one update to every matching issue. With dryRun
// set it only reports what would change.
func (s *IssueStore) UpdateByPattern(ctx context.Context, f PatternFilter, upd IssueUpdate, dryRun bool) ([]*models.Issue, error) {
	matched, err := s.MatchPattern(ctx, f)
	if err != nil {
		return nil, err
	}
	if dryRun || len(matched) == 0 {
		return matched, nil
	}

	updates := make([]BulkIssueUpdate, len(matched))
	for i, issue := range matched {
		updates[i] = BulkIssueUpdate{ID: issue.ID, Update: upd}
	}
	if _, err := s.BulkUpdate(ctx, updates); err != nil {
		return nil, err
	}
	return matched, nil
}

// DeleteByPattern deletes every matching issue. With dryRun set it only
// reports what would be deleted.
func (s *IssueStore) DeleteByPattern(ctx context.Context, f PatternFilter, dryRun bool) ([]*models.Issue, error) {
	matched, err := s.MatchPattern(ctx, f)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return matched, nil
	}
	for _, issue := range matched {
		if _, err := s.Delete(ctx, issue.ID); err != nil {
			return nil, err
		}
	}
	return matched, nil
}

// Clear wipes every table, including audit history and workspace state.
func (s *IssueStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, del := range []error{
			tx.Where("1 = 1").Delete(&Comment{}).Error,
			tx.Where("1 = 1").Delete(&IssueLink{}).Error,
			tx.Where("1 = 1").Delete(&CodeReference{}).Error,
			tx.Where("1 = 1").Delete(&TimeEntry{}).Error,
			tx.Where("1 = 1").Delete(&Dependency{}).Error,
			tx.Where("1 = 1").Delete(&AuditLog{}).Error,
			tx.Where("1 = 1").Delete(&Issue{}).Error,
			tx.Model(&WorkspaceState{}).Where("id = 1").
				Updates(map[string]interface{}{"active_issue_id": nil, "started_at": nil}).Error,
		} {
			if del != nil {
				return del
			}
		}
		return nil
	})
}

// ====================
// Helper Functions
// ====================

// listFilterScope builds the reusable GORM scope for ListFilter.
func listFilterScope(f ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Priority != "" {
			db = db.Where("priority = ?", f.Priority)
		}
		if f.Keyword != "" {
			pattern := "%" + f.Keyword + "%"
			db = db.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
		}
		if f.DueBefore != "" {
			db = db.Where("due_date IS NOT NULL AND due_date <= ?", f.DueBefore)
		}
		if f.DueAfter != "" {
			db = db.Where("due_date IS NOT NULL AND due_date >= ?", f.DueAfter)
		}
		return db
	}
}

// diffIssue computes the column updates and audit entries for applying
// upd to row. Unchanged fields produce nothing.
func diffIssue(row *Issue, upd IssueUpdate) (map[string]interface{}, []fieldChange) {
	updates := make(map[string]interface{})
	var changes []fieldChange

	record := func(name string, oldV, newV string, value interface{}) {
		if oldV == newV {
			return
		}
		updates[name] = value
		changes = append(changes, fieldChange{name: name, oldValue: oldV, newValue: newV})
	}

	if upd.Title != nil {
		record("title", row.Title, *upd.Title, *upd.Title)
	}
	if upd.Description != nil {
		record("description", nullStringValue(row.Description), *upd.Description, nullString(*upd.Description))
	}
	if upd.Priority != nil {
		record("priority", string(row.Priority), string(*upd.Priority), *upd.Priority)
	}
	if upd.Status != nil {
		record("status", string(row.Status), string(*upd.Status), *upd.Status)
	}
	if upd.DueDate != nil {
		record("due_date", nullStringValue(row.DueDate), *upd.DueDate, nullString(*upd.DueDate))
	}
	if upd.EstimatedHours != nil {
		oldV := ""
		if row.EstimatedHours.Valid {
			oldV = fmt.Sprintf("%g", row.EstimatedHours.Float64)
		}
		newV := fmt.Sprintf("%g", *upd.EstimatedHours)
		record("estimated_hours", oldV, newV, *upd.EstimatedHours)
	}

	return updates, changes
}

// writeAudit appends one audit row inside the caller's transaction.
func writeAudit(tx *gorm.DB, issueID int64, action, field, oldValue, newValue string) error {
	row := AuditLog{
		IssueID:   issueID,
		Action:    action,
		FieldName: nullString(field),
		OldValue:  nullString(oldValue),
		NewValue:  nullString(newValue),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return tx.Create(&row).Error
}

// issueAuditPayload serializes an issue for storage in an audit row.
func issueAuditPayload(row *Issue) string {
	data, err := json.Marshal(toModelIssue(row))
	if err != nil {
		return ""
	}
	return string(data)
}

func groupCount(name string, count, total int64) models.GroupCount {
	pct := 0.0
	if total > 0 {
		pct = float64(count) / float64(total) * 100
	}
	return models.GroupCount{Name: name, Count: count, Percent: pct}
}

// compilePattern builds a match function from a glob or regex pattern.
func compilePattern(f PatternFilter) (func(string) bool, error) {
	expr := f.Pattern
	if !f.Regex {
		expr = globToRegexp(f.Pattern)
	}
	if !f.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", f.Pattern, err)
	}
	return re.MatchString, nil
}

// globToRegexp translates shell-style glob syntax (*, ?, [...]) into an
// anchored regular expression.
func globToRegexp(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := i + 1
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end < len(runes) {
				b.WriteString(string(runes[i : end+1]))
				i = end
			} else {
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// scanIssueRows scans issues from raw SQL rows (FTS queries).
func scanIssueRows(rows *sql.Rows) ([]*models.Issue, error) {
	var issues []*models.Issue
	for rows.Next() {
		var issue models.Issue
		err := rows.Scan(
			&issue.ID, &issue.Title, &issue.Description, &issue.Priority, &issue.Status,
			&issue.DueDate, &issue.EstimatedHours,
			&issue.CreatedAt, &issue.CreatedAtEpoch, &issue.UpdatedAt, &issue.UpdatedAtEpoch,
		)
		if err != nil {
			return nil, err
		}
		issues = append(issues, &issue)
	}
	return issues, rows.Err()
}
