package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"issuedb/internal/config"
	"issuedb/internal/db"
	"issuedb/pkg/models"
)

// testServer creates a Server backed by a temporary database.
func testServer(t *testing.T) *Server {
	t.Helper()

	store, err := db.NewStore(db.Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewServer(config.Default(), store)
}

// createTestIssue inserts an issue through the store layer.
func createTestIssue(t *testing.T, s *Server, title string, priority models.Priority) *models.Issue {
	t.Helper()

	issue := models.NewIssue(title, "")
	issue.Priority = priority
	require.NoError(t, s.issues.Create(context.Background(), issue))
	return issue
}

// doJSON performs a request with a JSON body against the router.
func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestHandleCreateIssue(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/issues", map[string]interface{}{
		"title":       "Fix login crash",
		"description": "Crashes on empty password",
		"priority":    "high",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var issue map[string]interface{}
	decodeBody(t, rec, &issue)
	assert.Equal(t, "Fix login crash", issue["title"])
	assert.Equal(t, "high", issue["priority"])
	assert.Equal(t, "open", issue["status"])
	assert.EqualValues(t, 1, issue["id"])
}

func TestHandleCreateIssueValidation(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/issues", map[string]interface{}{
		"description": "no title",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/issues", map[string]interface{}{
		"title":    "bad priority",
		"priority": "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetIssue(t *testing.T) {
	s := testServer(t)
	issue := createTestIssue(t, s, "Lookup me", models.PriorityMedium)

	rec := doJSON(t, s, http.MethodGet, "/api/issues/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	decodeBody(t, rec, &got)
	assert.Equal(t, issue.Title, got["title"])
}

func TestHandleGetIssueNotFound(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/issues/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/issues/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListIssuesFilters(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Open high", models.PriorityHigh)
	createTestIssue(t, s, "Open low", models.PriorityLow)

	rec := doJSON(t, s, http.MethodGet, "/api/issues?priority=high", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var issues []map[string]interface{}
	decodeBody(t, rec, &issues)
	require.Len(t, issues, 1)
	assert.Equal(t, "Open high", issues[0]["title"])
}

func TestHandleListIssuesEmptyArray(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/issues", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	// A nil slice must still serialize as [] for the dashboard.
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestHandleUpdateIssue(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Pending rename", models.PriorityMedium)

	rec := doJSON(t, s, http.MethodPut, "/api/issues/1", map[string]interface{}{
		"status":   "closed",
		"priority": "low",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	decodeBody(t, rec, &got)
	assert.Equal(t, "closed", got["status"])
	assert.Equal(t, "low", got["priority"])
}

func TestHandleUpdateIssueNotFound(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/issues/42", map[string]interface{}{
		"status": "closed",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDeleteIssue(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Doomed", models.PriorityMedium)

	rec := doJSON(t, s, http.MethodDelete, "/api/issues/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/issues/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleComments(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Discussed", models.PriorityMedium)

	rec := doJSON(t, s, http.MethodPost, "/api/issues/1/comments", map[string]string{
		"text": "first comment",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/issues/1/comments", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var comments []map[string]interface{}
	decodeBody(t, rec, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "first comment", comments[0]["text"])

	rec = doJSON(t, s, http.MethodDelete, "/api/comments/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/comments/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCommentValidation(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Quiet", models.PriorityMedium)

	rec := doJSON(t, s, http.MethodPost, "/api/issues/1/comments", map[string]string{
		"text": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/issues/77/comments", map[string]string{
		"text": "orphan",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSimilar(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "database connection timeout", models.PriorityHigh)
	createTestIssue(t, s, "database connection timeout error", models.PriorityHigh)
	createTestIssue(t, s, "completely unrelated topic", models.PriorityLow)

	rec := doJSON(t, s, http.MethodGet, "/api/issues/1/similar?threshold=0.5", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var matches []struct {
		Issue map[string]interface{} `json:"issue"`
		Score float64                `json:"score"`
	}
	decodeBody(t, rec, &matches)
	require.Len(t, matches, 1)
	assert.EqualValues(t, 2, matches[0].Issue["id"])
	assert.Greater(t, matches[0].Score, 0.5)
}

func TestHandleDuplicates(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "fix memory leak in parser", models.PriorityHigh)
	createTestIssue(t, s, "fix memory leak in parser", models.PriorityMedium)
	createTestIssue(t, s, "write release notes", models.PriorityLow)

	rec := doJSON(t, s, http.MethodGet, "/api/duplicates", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var groups [][]struct {
		Issue map[string]interface{} `json:"issue"`
		Score float64                `json:"score"`
	}
	decodeBody(t, rec, &groups)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 2)
	assert.EqualValues(t, 1, groups[0][0].Issue["id"])
	assert.InDelta(t, 1.0, groups[0][1].Score, 1e-9)
}

func TestHandleNext(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Low priority chore", models.PriorityLow)
	createTestIssue(t, s, "Critical outage", models.PriorityCritical)

	rec := doJSON(t, s, http.MethodGet, "/api/next", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var issue map[string]interface{}
	decodeBody(t, rec, &issue)
	assert.Equal(t, "Critical outage", issue["title"])
}

func TestHandleNextEmpty(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/next", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSummary(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "One", models.PriorityHigh)
	createTestIssue(t, s, "Two", models.PriorityLow)

	rec := doJSON(t, s, http.MethodGet, "/api/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var summary map[string]interface{}
	decodeBody(t, rec, &summary)
	assert.EqualValues(t, 2, summary["total"])
}

func TestHandleWorkflow(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Active work", models.PriorityMedium)

	rec := doJSON(t, s, http.MethodPost, "/api/issues/1/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var issue map[string]interface{}
	decodeBody(t, rec, &issue)
	assert.Equal(t, "in-progress", issue["status"])

	rec = doJSON(t, s, http.MethodPost, "/api/issues/stop?close=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &issue)
	assert.Equal(t, "closed", issue["status"])

	// Stopping again with nothing active is a 404.
	rec = doJSON(t, s, http.MethodPost, "/api/issues/stop", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAudit(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Audited", models.PriorityMedium)

	rec := doJSON(t, s, http.MethodGet, "/api/audit", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]interface{}
	decodeBody(t, rec, &entries)
	require.NotEmpty(t, entries)
	assert.Equal(t, "CREATE", entries[0]["action"])

	rec = doJSON(t, s, http.MethodGet, "/api/issues/1/audit", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleDependenciesEndpoint(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Blocked", models.PriorityMedium)
	createTestIssue(t, s, "Blocker", models.PriorityMedium)
	require.NoError(t, s.deps.Block(context.Background(), 2, 1))

	rec := doJSON(t, s, http.MethodGet, "/api/issues/1/dependencies", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var deps struct {
		BlockedBy []map[string]interface{} `json:"blocked_by"`
		Blocking  []map[string]interface{} `json:"blocking"`
	}
	decodeBody(t, rec, &deps)
	require.Len(t, deps.BlockedBy, 1)
	assert.Equal(t, "Blocker", deps.BlockedBy[0]["title"])
	assert.Empty(t, deps.Blocking)
}

func TestHandleIssueTime(t *testing.T) {
	s := testServer(t)
	createTestIssue(t, s, "Timed", models.PriorityMedium)

	_, err := s.times.StartTimer(context.Background(), 1, "")
	require.NoError(t, err)
	_, err = s.times.StopTimer(context.Background(), 1)
	require.NoError(t, err)

	rec := doJSON(t, s, http.MethodGet, "/api/issues/1/time", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries      []map[string]interface{} `json:"entries"`
		TotalSeconds int64                    `json:"total_seconds"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Entries, 1)
	assert.GreaterOrEqual(t, body.TotalSeconds, int64(0))
}

func TestServeDashboard(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "issuedb")
}
