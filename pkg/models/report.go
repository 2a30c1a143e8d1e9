package models

// GroupCount is one bucket of a summary: how many issues share a status
// or priority and what share of the total that is.
type GroupCount struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// Summary is the aggregate view of the whole tracker.
type Summary struct {
	Total      int64        `json:"total"`
	ByStatus   []GroupCount `json:"by_status"`
	ByPriority []GroupCount `json:"by_priority"`
}

// ReportGroup is one bucket of a grouped issue report.
type ReportGroup struct {
	Name   string   `json:"name"`
	Issues []*Issue `json:"issues"`
}

// TimeReportRow aggregates completed time entries for one issue.
type TimeReportRow struct {
	IssueID        int64   `json:"issue_id"`
	Title          string  `json:"title"`
	TotalSeconds   int64   `json:"total_seconds"`
	EntryCount     int64   `json:"entry_count"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
}
