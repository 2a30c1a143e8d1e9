package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"issuedb/internal/dates"
	"issuedb/internal/db"
	"issuedb/pkg/models"
)

// parseIssueID parses a positional issue ID argument.
func parseIssueID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue ID: %q", arg)
	}
	return id, nil
}

// resolveDueDate accepts YYYY-MM-DD or a relative form like 7d.
func resolveDueDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	t, err := dates.Parse(s)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

func newCreateCmd() *cobra.Command {
	var (
		title        string
		description  string
		priority     string
		status       string
		dueDate      string
		templateName string
		estimate     float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			issue := models.NewIssue(title, description)

			// A template supplies defaults; explicit flags win.
			if templateName != "" {
				tmpl, err := app.Templates.Get(ctx, templateName)
				if err != nil {
					return err
				}
				if tmpl == nil {
					return fmt.Errorf("template not found: %s", templateName)
				}
				for _, field := range tmpl.RequiredFields {
					if field == "description" && description == "" {
						return fmt.Errorf("template %q requires a description", templateName)
					}
				}
				issue.Title = tmpl.ApplyTitle(title)
				if tmpl.DefaultPriority.Valid {
					p, err := models.ParsePriority(tmpl.DefaultPriority.String)
					if err != nil {
						return err
					}
					issue.Priority = p
				}
				if tmpl.DefaultStatus.Valid {
					st, err := models.ParseStatus(tmpl.DefaultStatus.String)
					if err != nil {
						return err
					}
					issue.Status = st
				}
			}

			if cmd.Flags().Changed("priority") {
				p, err := models.ParsePriority(priority)
				if err != nil {
					return err
				}
				issue.Priority = p
			}
			if cmd.Flags().Changed("status") {
				st, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				issue.Status = st
			}
			if dueDate != "" {
				due, err := resolveDueDate(dueDate)
				if err != nil {
					return err
				}
				issue.DueDate = models.NullString(due)
			}
			if cmd.Flags().Changed("estimate") {
				issue.EstimatedHours = sql.NullFloat64{Float64: estimate, Valid: true}
			}

			if err := app.Issues.Create(ctx, issue); err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(issue)
			}
			printOK("Created issue #%d: %s", issue.ID, issue.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Issue title (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Issue description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority (low, medium, high, critical)")
	cmd.Flags().StringVarP(&status, "status", "s", "open", "Status (open, in-progress, closed, wont-do)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "Due date (YYYY-MM-DD or relative like 7d)")
	cmd.Flags().StringVar(&templateName, "template", "", "Issue template to apply")
	cmd.Flags().Float64Var(&estimate, "estimate", 0, "Estimated hours")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newListCmd() *cobra.Command {
	var (
		status    string
		priority  string
		limit     int
		dueBefore string
		dueAfter  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter db.ListFilter
			if status != "" {
				st, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = st
			}
			if priority != "" {
				p, err := models.ParsePriority(priority)
				if err != nil {
					return err
				}
				filter.Priority = p
			}
			var err error
			if filter.DueBefore, err = resolveDueDate(dueBefore); err != nil {
				return err
			}
			if filter.DueAfter, err = resolveDueDate(dueAfter); err != nil {
				return err
			}
			filter.Limit = limit

			issues, err := app.Issues.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printIssues(issues)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status")
	cmd.Flags().StringVar(&priority, "priority", "", "Filter by priority")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of issues")
	cmd.Flags().StringVar(&dueBefore, "due-before", "", "Only issues due on or before this date")
	cmd.Flags().StringVar(&dueAfter, "due-after", "", "Only issues due on or after this date")

	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get issue details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			issue, err := app.Issues.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if issue == nil {
				return fmt.Errorf("issue not found: %d", id)
			}
			return printIssueDetail(issue)
		},
	}
}

func newUpdateCmd() *cobra.Command {
	var (
		title       string
		description string
		priority    string
		status      string
		dueDate     string
		estimate    float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			var upd db.IssueUpdate
			if cmd.Flags().Changed("title") {
				upd.Title = &title
			}
			if cmd.Flags().Changed("description") {
				upd.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				p, err := models.ParsePriority(priority)
				if err != nil {
					return err
				}
				upd.Priority = &p
			}
			if cmd.Flags().Changed("status") {
				st, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				upd.Status = &st
			}
			if cmd.Flags().Changed("due-date") {
				due, err := resolveDueDate(dueDate)
				if err != nil {
					return err
				}
				upd.DueDate = &due
			}
			if cmd.Flags().Changed("estimate") {
				upd.EstimatedHours = &estimate
			}
			if upd.Empty() {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			issue, err := app.Issues.Update(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			if issue == nil {
				return fmt.Errorf("issue not found: %d", id)
			}

			if app.JSON {
				return outputJSON(issue)
			}
			printOK("Updated issue #%d", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "New due date")
	cmd.Flags().Float64Var(&estimate, "estimate", 0, "New estimated hours")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			deleted, err := app.Issues.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("issue not found: %d", id)
			}

			if app.JSON {
				return outputJSON(map[string]interface{}{"deleted": true, "id": id})
			}
			printOK("Deleted issue #%d", id)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all issues from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to clear without --confirm")
			}
			if err := app.Issues.Clear(cmd.Context()); err != nil {
				return err
			}
			if app.JSON {
				return outputJSON(map[string]bool{"cleared": true})
			}
			printOK("Cleared all issues")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm deletion (required)")
	return cmd
}

func init() {
	rootCmd.AddCommand(
		newCreateCmd(),
		newListCmd(),
		newGetCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newClearCmd(),
	)
}
