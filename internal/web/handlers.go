package web

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"issuedb/internal/db"
	"issuedb/internal/web/sse"
	"issuedb/pkg/models"
	"issuedb/pkg/similarity"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// urlID parses the {id} path parameter. Writes a 400 and returns false
// when it is not a positive integer.
func urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid issue id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"clients": s.broadcaster.ClientCount(),
		"fts":     s.store.HasFTS(),
	})
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Full-text search takes over when q= is present.
	if query := q.Get("q"); query != "" {
		limit, _ := strconv.Atoi(q.Get("limit"))
		issues, err := s.issues.Search(r.Context(), query, limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, issueList(issues))
		return
	}

	var filter db.ListFilter
	if v := q.Get("status"); v != "" {
		st, err := models.ParseStatus(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = st
	}
	if v := q.Get("priority"); v != "" {
		p, err := models.ParsePriority(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Priority = p
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	issues, err := s.issues.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, issueList(issues))
}

// issuePayload is the request body for creating and updating issues.
type issuePayload struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Priority       *string  `json:"priority"`
	Status         *string  `json:"status"`
	DueDate        *string  `json:"due_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var payload issuePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Title == nil || strings.TrimSpace(*payload.Title) == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	issue := models.NewIssue(strings.TrimSpace(*payload.Title), "")
	if payload.Description != nil {
		issue.Description = models.NullString(*payload.Description)
	}
	if payload.Priority != nil {
		p, err := models.ParsePriority(*payload.Priority)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		issue.Priority = p
	}
	if payload.Status != nil {
		st, err := models.ParseStatus(*payload.Status)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		issue.Status = st
	}
	if payload.DueDate != nil {
		issue.DueDate = models.NullString(*payload.DueDate)
	}
	if payload.EstimatedHours != nil {
		issue.EstimatedHours = sql.NullFloat64{Float64: *payload.EstimatedHours, Valid: true}
	}

	if err := s.issues.Create(r.Context(), issue); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: "issue_created", IssueID: issue.ID})
	respondJSON(w, http.StatusCreated, issue)
}

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	issue, err := s.issues.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if issue == nil {
		respondError(w, http.StatusNotFound, "issue not found")
		return
	}
	respondJSON(w, http.StatusOK, issue)
}

func (s *Server) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	var payload issuePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	upd := db.IssueUpdate{
		Title:          payload.Title,
		Description:    payload.Description,
		DueDate:        payload.DueDate,
		EstimatedHours: payload.EstimatedHours,
	}
	if payload.Priority != nil {
		p, err := models.ParsePriority(*payload.Priority)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.Priority = &p
	}
	if payload.Status != nil {
		st, err := models.ParseStatus(*payload.Status)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.Status = &st
	}

	issue, err := s.issues.Update(r.Context(), id, upd)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if issue == nil {
		respondError(w, http.StatusNotFound, "issue not found")
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: "issue_updated", IssueID: id})
	respondJSON(w, http.StatusOK, issue)
}

func (s *Server) handleDeleteIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	deleted, err := s.issues.Delete(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "issue not found")
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: "issue_deleted", IssueID: id})
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	comments, err := s.comments.ForIssue(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	respondJSON(w, http.StatusOK, comments)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	comment, err := s.comments.Add(r.Context(), id, payload.Text)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: "comment_added", IssueID: id})
	respondJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	deleted, err := s.comments.Delete(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "comment not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// similarMatch is one scored issue in a similarity response.
type similarMatch struct {
	Issue *models.Issue `json:"issue"`
	Score float64       `json:"score"`
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	issue, err := s.issues.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if issue == nil {
		respondError(w, http.StatusNotFound, "issue not found")
		return
	}

	threshold := similarity.DefaultSimilarThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
	}

	all, err := s.issues.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	records := make([]similarity.Record, 0, len(all))
	for _, other := range all {
		if other.ID != id {
			records = append(records, other)
		}
	}

	query := issue.Title
	if issue.Description.Valid {
		query += " " + issue.Description.String
	}

	matches := similarity.FindSimilar(query, records, threshold)
	out := make([]similarMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, similarMatch{Issue: m.Record.(*models.Issue), Score: m.Score})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleIssueAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.audits.ForIssue(r.Context(), id, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleIssueTime(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	entries, err := s.times.ForIssue(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.times.TotalSeconds(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*models.TimeEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries":       entries,
		"total_seconds": total,
	})
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	blockers, err := s.deps.Blockers(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	blocking, err := s.deps.Blocking(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"blocked_by": issueList(blockers),
		"blocking":   issueList(blocking),
	})
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	links, err := s.links.ForIssue(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if links == nil {
		links = []*models.IssueLink{}
	}
	respondJSON(w, http.StatusOK, links)
}

func (s *Server) handleRefs(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	refs, err := s.refs.ForIssue(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if refs == nil {
		refs = []*models.CodeReference{}
	}
	respondJSON(w, http.StatusOK, refs)
}

func (s *Server) handleStartWork(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	issue, err := s.workspace.Start(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: "work_started", IssueID: id})
	respondJSON(w, http.StatusOK, issue)
}

func (s *Server) handleStopWork(w http.ResponseWriter, r *http.Request) {
	closeIssue := r.URL.Query().Get("close") == "true"

	issue, err := s.workspace.Stop(r.Context(), closeIssue)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if issue == nil {
		respondError(w, http.StatusNotFound, "no active issue")
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: "work_stopped", IssueID: issue.ID})
	respondJSON(w, http.StatusOK, issue)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	status := models.StatusOpen
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := models.ParseStatus(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	issue, err := s.issues.Next(r.Context(), status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if issue == nil {
		respondError(w, http.StatusNotFound, "no matching issues")
		return
	}
	respondJSON(w, http.StatusOK, issue)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.issues.Summary(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	var (
		entries []*models.AuditLog
		err     error
	)
	if action := q.Get("action"); action != "" {
		entries, err = s.audits.ByAction(r.Context(), action, limit)
	} else {
		entries, err = s.audits.Recent(r.Context(), limit)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	threshold := s.duplicates
	if v := r.URL.Query().Get("threshold"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		threshold = parsed
	}

	all, err := s.issues.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	records := make([]similarity.Record, len(all))
	for i, issue := range all {
		records[i] = issue
	}

	groups := similarity.FindDuplicateGroups(records, threshold)
	out := make([][]similarMatch, 0, len(groups))
	for _, group := range groups {
		matches := make([]similarMatch, 0, len(group))
		for _, m := range group {
			matches = append(matches, similarMatch{Issue: m.Record.(*models.Issue), Score: m.Score})
		}
		out = append(out, matches)
	}
	respondJSON(w, http.StatusOK, out)
}

// issueList normalizes a nil slice to an empty JSON array.
func issueList(issues []*models.Issue) []*models.Issue {
	if issues == nil {
		return []*models.Issue{}
	}
	return issues
}
