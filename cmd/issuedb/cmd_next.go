package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"issuedb/pkg/models"
)

func newNextCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Get the next issue to work on (priority then FIFO)",
		Long: `Pick the next issue to work on. Issues are ordered by priority
(critical first) and then by creation time. Issues blocked by an
unresolved dependency are skipped. Each fetch is recorded in the
audit log so "last" can replay the history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := models.StatusOpen
			if status != "" {
				parsed, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				st = parsed
			}

			issue, err := app.Issues.Next(cmd.Context(), st)
			if err != nil {
				return err
			}
			if issue == nil {
				if app.JSON {
					return outputJSON(nil)
				}
				fmt.Println("No matching issues")
				return nil
			}
			return printIssueDetail(issue)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (defaults to open)")

	return cmd
}

func newLastCmd() *cobra.Command {
	var number int

	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the most recently fetched issues from next history",
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := app.Issues.LastFetched(cmd.Context(), number)
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				if app.JSON {
					return outputJSON([]*models.Issue{})
				}
				fmt.Println("No fetch history")
				return nil
			}
			if number == 1 && !app.JSON {
				return printIssueDetail(issues[0])
			}
			return printIssues(issues)
		},
	}

	cmd.Flags().IntVarP(&number, "number", "n", 1, "Number of last fetched issues to return")

	return cmd
}

func init() {
	rootCmd.AddCommand(
		newNextCmd(),
		newLastCmd(),
	)
}
