package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"issuedb/internal/db"
	"issuedb/pkg/models"
)

// readBulkInput returns JSON from --data, --file, or stdin in that order.
func readBulkInput(file, data string) ([]byte, error) {
	if data != "" {
		return []byte(data), nil
	}
	if file != "" {
		return os.ReadFile(file)
	}
	return io.ReadAll(os.Stdin)
}

func newBulkCreateCmd() *cobra.Command {
	var (
		file string
		data string
	)

	cmd := &cobra.Command{
		Use:   "bulk-create",
		Short: "Bulk create issues from JSON input",
		Long: `Create many issues at once from a JSON array of issue objects.
Input comes from --data, --file, or stdin. Each object needs at
least a title; priority defaults to medium and status to open.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readBulkInput(file, data)
			if err != nil {
				return err
			}

			var issues []*models.Issue
			if err := json.Unmarshal(input, &issues); err != nil {
				return fmt.Errorf("parse JSON input: %w", err)
			}
			if len(issues) == 0 {
				return fmt.Errorf("no issues in input")
			}

			if err := app.Issues.BulkCreate(cmd.Context(), issues); err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(issues)
			}
			printOK("Created %d issue(s)", len(issues))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file path (defaults to stdin)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON data as a string")

	return cmd
}

// bulkUpdateEntry is one issue update in a bulk-update-json payload.
type bulkUpdateEntry struct {
	ID             int64    `json:"id"`
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Priority       *string  `json:"priority"`
	Status         *string  `json:"status"`
	DueDate        *string  `json:"due_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

func (e bulkUpdateEntry) toUpdate() (db.IssueUpdate, error) {
	upd := db.IssueUpdate{
		Title:          e.Title,
		Description:    e.Description,
		DueDate:        e.DueDate,
		EstimatedHours: e.EstimatedHours,
	}
	if e.Priority != nil {
		p, err := models.ParsePriority(*e.Priority)
		if err != nil {
			return upd, err
		}
		upd.Priority = &p
	}
	if e.Status != nil {
		st, err := models.ParseStatus(*e.Status)
		if err != nil {
			return upd, err
		}
		upd.Status = &st
	}
	return upd, nil
}

func newBulkUpdateJSONCmd() *cobra.Command {
	var (
		file string
		data string
	)

	cmd := &cobra.Command{
		Use:   "bulk-update-json",
		Short: "Bulk update issues from JSON input",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readBulkInput(file, data)
			if err != nil {
				return err
			}

			var entries []bulkUpdateEntry
			if err := json.Unmarshal(input, &entries); err != nil {
				return fmt.Errorf("parse JSON input: %w", err)
			}

			updates := make([]db.BulkIssueUpdate, 0, len(entries))
			for _, e := range entries {
				if e.ID <= 0 {
					return fmt.Errorf("every update needs a positive id")
				}
				upd, err := e.toUpdate()
				if err != nil {
					return err
				}
				updates = append(updates, db.BulkIssueUpdate{ID: e.ID, Update: upd})
			}

			changed, err := app.Issues.BulkUpdate(cmd.Context(), updates)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(map[string]int{"updated": changed})
			}
			printOK("Updated %d issue(s)", changed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file path (defaults to stdin)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON data as a string")

	return cmd
}

func newBulkCloseCmd() *cobra.Command {
	var (
		file string
		data string
	)

	cmd := &cobra.Command{
		Use:   "bulk-close",
		Short: "Bulk close issues from a JSON array of IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readBulkInput(file, data)
			if err != nil {
				return err
			}

			var ids []int64
			if err := json.Unmarshal(input, &ids); err != nil {
				return fmt.Errorf("parse JSON input: %w", err)
			}
			if len(ids) == 0 {
				return fmt.Errorf("no issue IDs in input")
			}

			closed, err := app.Issues.BulkClose(cmd.Context(), ids)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(map[string]int{"closed": closed})
			}
			printOK("Closed %d issue(s)", closed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file path (defaults to stdin)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON data as a string")

	return cmd
}

func newBulkUpdateCmd() *cobra.Command {
	var (
		filterStatus   string
		filterPriority string
		newStatus      string
		newPriority    string
	)

	cmd := &cobra.Command{
		Use:   "bulk-update",
		Short: "Bulk update issues matching status/priority filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var filter db.ListFilter
			if filterStatus != "" {
				st, err := models.ParseStatus(filterStatus)
				if err != nil {
					return err
				}
				filter.Status = st
			}
			if filterPriority != "" {
				p, err := models.ParsePriority(filterPriority)
				if err != nil {
					return err
				}
				filter.Priority = p
			}

			var upd db.IssueUpdate
			if newStatus != "" {
				st, err := models.ParseStatus(newStatus)
				if err != nil {
					return err
				}
				upd.Status = &st
			}
			if newPriority != "" {
				p, err := models.ParsePriority(newPriority)
				if err != nil {
					return err
				}
				upd.Priority = &p
			}
			if upd.Empty() {
				return fmt.Errorf("pass --status or --priority to set")
			}

			issues, err := app.Issues.List(ctx, filter)
			if err != nil {
				return err
			}

			updates := make([]db.BulkIssueUpdate, 0, len(issues))
			for _, issue := range issues {
				updates = append(updates, db.BulkIssueUpdate{ID: issue.ID, Update: upd})
			}

			changed, err := app.Issues.BulkUpdate(ctx, updates)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(map[string]int{"matched": len(issues), "updated": changed})
			}
			printOK("Updated %d of %d matching issue(s)", changed, len(issues))
			return nil
		},
	}

	cmd.Flags().StringVar(&filterStatus, "filter-status", "", "Filter by current status")
	cmd.Flags().StringVar(&filterPriority, "filter-priority", "", "Filter by current priority")
	cmd.Flags().StringVarP(&newStatus, "status", "s", "", "New status to set")
	cmd.Flags().StringVar(&newPriority, "priority", "", "New priority to set")

	return cmd
}

// patternFlags are shared by the pattern-matching commands.
type patternFlags struct {
	title         string
	desc          string
	regex         bool
	caseSensitive bool
	dryRun        bool
}

func (f *patternFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Glob pattern against titles")
	cmd.Flags().StringVar(&f.desc, "desc", "", "Glob pattern against descriptions")
	cmd.Flags().BoolVar(&f.regex, "regex", false, "Treat the pattern as a regular expression")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "Match case sensitively")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show matches without changing anything")
}

func (f *patternFlags) filter() (db.PatternFilter, error) {
	if (f.title == "") == (f.desc == "") {
		return db.PatternFilter{}, fmt.Errorf("pass exactly one of --title or --desc")
	}
	pf := db.PatternFilter{
		Pattern:       f.title,
		Field:         "title",
		Regex:         f.regex,
		CaseSensitive: f.caseSensitive,
	}
	if f.desc != "" {
		pf.Pattern = f.desc
		pf.Field = "description"
	}
	return pf, nil
}

func reportPatternResult(action string, issues []*models.Issue, dryRun bool) error {
	if app.JSON {
		return outputJSON(map[string]interface{}{
			"action":  action,
			"dry_run": dryRun,
			"count":   len(issues),
			"issues":  issues,
		})
	}
	if len(issues) == 0 {
		fmt.Println("No issues matched")
		return nil
	}
	verb := "Would " + action
	if !dryRun {
		verb = strings.ToUpper(action[:1]) + action[1:] + "d"
	}
	fmt.Printf("%s %d issue(s):\n", verb, len(issues))
	for _, issue := range issues {
		printIssueRow(issue)
	}
	return nil
}

func newUpdatePatternCmd() *cobra.Command {
	var (
		flags       patternFlags
		newStatus   string
		newPriority string
	)

	cmd := &cobra.Command{
		Use:   "update-pattern",
		Short: "Update issues whose title or description matches a pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := flags.filter()
			if err != nil {
				return err
			}

			var upd db.IssueUpdate
			if newStatus != "" {
				st, err := models.ParseStatus(newStatus)
				if err != nil {
					return err
				}
				upd.Status = &st
			}
			if newPriority != "" {
				p, err := models.ParsePriority(newPriority)
				if err != nil {
					return err
				}
				upd.Priority = &p
			}
			if upd.Empty() {
				return fmt.Errorf("pass --status or --priority to set")
			}

			issues, err := app.Issues.UpdateByPattern(cmd.Context(), pf, upd, flags.dryRun)
			if err != nil {
				return err
			}
			return reportPatternResult("update", issues, flags.dryRun)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&newStatus, "status", "s", "", "New status to set")
	cmd.Flags().StringVar(&newPriority, "priority", "", "New priority to set")

	return cmd
}

func newClosePatternCmd() *cobra.Command {
	var flags patternFlags

	cmd := &cobra.Command{
		Use:   "close-pattern",
		Short: "Close issues whose title or description matches a pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := flags.filter()
			if err != nil {
				return err
			}

			closed := models.StatusClosed
			upd := db.IssueUpdate{Status: &closed}

			issues, err := app.Issues.UpdateByPattern(cmd.Context(), pf, upd, flags.dryRun)
			if err != nil {
				return err
			}
			return reportPatternResult("close", issues, flags.dryRun)
		},
	}

	flags.register(cmd)
	return cmd
}

func newDeletePatternCmd() *cobra.Command {
	var flags patternFlags

	cmd := &cobra.Command{
		Use:   "delete-pattern",
		Short: "Delete issues whose title or description matches a pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := flags.filter()
			if err != nil {
				return err
			}

			issues, err := app.Issues.DeleteByPattern(cmd.Context(), pf, flags.dryRun)
			if err != nil {
				return err
			}
			return reportPatternResult("delete", issues, flags.dryRun)
		},
	}

	flags.register(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(
		newBulkCreateCmd(),
		newBulkUpdateJSONCmd(),
		newBulkCloseCmd(),
		newBulkUpdateCmd(),
		newUpdatePatternCmd(),
		newClosePatternCmd(),
		newDeletePatternCmd(),
	)
}
