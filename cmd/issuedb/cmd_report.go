package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"issuedb/pkg/models"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show issue counts by status and priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.Issues.Summary(cmd.Context())
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(summary)
			}

			bold := color.New(color.Bold).SprintFunc()
			fmt.Printf("%s %d\n\n", bold("Total issues:"), summary.Total)
			printGroupCounts("By status", summary.ByStatus)
			fmt.Println()
			printGroupCounts("By priority", summary.ByPriority)
			return nil
		},
	}
}

func printGroupCounts(header string, groups []models.GroupCount) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Println(bold(header + ":"))
	for _, g := range groups {
		fmt.Printf("  %-12s %4d  (%.1f%%)\n", g.Name, g.Count, g.Percent)
	}
}

func newReportCmd() *cobra.Command {
	var groupBy string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "List issues grouped by status or priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			if groupBy != "status" && groupBy != "priority" {
				return fmt.Errorf("invalid group: %q (must be status or priority)", groupBy)
			}

			groups, err := app.Issues.Report(cmd.Context(), groupBy)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(groups)
			}

			bold := color.New(color.Bold).SprintFunc()
			for i, g := range groups {
				if i > 0 {
					fmt.Println()
				}
				fmt.Printf("%s (%d)\n", bold(strings.ToUpper(g.Name)), len(g.Issues))
				if len(g.Issues) == 0 {
					fmt.Println("  (none)")
					continue
				}
				for _, issue := range g.Issues {
					printIssueRow(issue)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&groupBy, "group-by", "g", "status", "Group issues by status or priority")

	return cmd
}

func newAuditCmd() *cobra.Command {
	var (
		issueID int64
		action  string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the change history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				entries []*models.AuditLog
				err     error
			)
			switch {
			case issueID > 0:
				entries, err = app.Audits.ForIssue(ctx, issueID, limit)
			case action != "":
				entries, err = app.Audits.ByAction(ctx, strings.ToUpper(action), limit)
			default:
				entries, err = app.Audits.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}

			if app.JSON {
				if entries == nil {
					entries = []*models.AuditLog{}
				}
				return outputJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println("No audit entries")
				return nil
			}

			gray := color.New(color.FgHiBlack).SprintFunc()
			for _, e := range entries {
				line := fmt.Sprintf("%s %-16s #%d", gray(e.Timestamp), e.Action, e.IssueID)
				if e.FieldName.Valid {
					line += fmt.Sprintf("  %s: %s -> %s",
						e.FieldName.String, e.OldValue.String, e.NewValue.String)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&issueID, "issue", "i", 0, "Only entries for this issue")
	cmd.Flags().StringVar(&action, "action", "", "Only entries with this action (e.g. CREATE)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum entries to show")

	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show database path, size, and feature support",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.Issues.Summary(cmd.Context())
			if err != nil {
				return err
			}

			var sizeBytes int64
			if fi, err := os.Stat(app.Config.DBPath); err == nil {
				sizeBytes = fi.Size()
			}

			if app.JSON {
				return outputJSON(map[string]interface{}{
					"db_path":          app.Config.DBPath,
					"db_size_bytes":    sizeBytes,
					"total_issues":     summary.Total,
					"full_text_search": app.Store.HasFTS(),
				})
			}

			bold := color.New(color.Bold).SprintFunc()
			fts := "no (using LIKE fallback)"
			if app.Store.HasFTS() {
				fts = "yes"
			}
			fmt.Printf("%s %s\n", bold("Database:"), app.Config.DBPath)
			fmt.Printf("%s %.1f KiB\n", bold("Size:"), float64(sizeBytes)/1024)
			fmt.Printf("%s %d\n", bold("Issues:"), summary.Total)
			fmt.Printf("%s %s\n", bold("Full-text search:"), fts)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newSummaryCmd(), newReportCmd(), newAuditCmd(), newInfoCmd())
}
