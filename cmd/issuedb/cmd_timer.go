package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"issuedb/internal/db"
)

func formatSeconds(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func newTimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Track time spent on issues",
	}

	var note string
	startCmd := &cobra.Command{
		Use:   "start <issue-id>",
		Short: "Start a timer for an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			entry, err := app.Times.StartTimer(cmd.Context(), id, note)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(entry)
			}
			printOK("Timer started for issue #%d", id)
			return nil
		},
	}
	startCmd.Flags().StringVarP(&note, "note", "n", "", "Note for this time entry")

	stopCmd := &cobra.Command{
		Use:   "stop [issue-id]",
		Short: "Stop a running timer",
		Long: `Stop the running timer for an issue. Without an issue ID the most
recently started timer is stopped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseIssueID(args[0]); err != nil {
					return err
				}
			}

			entry, err := app.Times.StopTimer(cmd.Context(), id)
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Println("No running timer")
				return nil
			}

			if app.JSON {
				return outputJSON(entry)
			}
			printOK("Timer stopped for issue #%d (%s)",
				entry.IssueID, formatSeconds(entry.DurationSeconds.Int64))
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List running timers",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, err := app.Times.Running(cmd.Context())
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(running)
			}
			if len(running) == 0 {
				fmt.Println("No running timers")
				return nil
			}
			now := time.Now()
			for _, entry := range running {
				fmt.Printf("issue #%d: running for %s\n",
					entry.IssueID, entry.Elapsed(now).Round(time.Second))
			}
			return nil
		},
	}

	entriesCmd := &cobra.Command{
		Use:   "entries <issue-id>",
		Short: "List time entries for an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			entries, err := app.Times.ForIssue(ctx, id)
			if err != nil {
				return err
			}
			total, err := app.Times.TotalSeconds(ctx, id)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(map[string]interface{}{
					"entries":       entries,
					"total_seconds": total,
				})
			}
			if len(entries) == 0 {
				fmt.Println("No time entries")
				return nil
			}
			for _, entry := range entries {
				if entry.Running() {
					fmt.Printf("#%d  started %s  (running)\n", entry.ID, entry.StartedAt)
				} else {
					fmt.Printf("#%d  started %s  %s\n",
						entry.ID, entry.StartedAt, formatSeconds(entry.DurationSeconds.Int64))
				}
				if entry.Note.Valid && entry.Note.String != "" {
					fmt.Printf("     %s\n", entry.Note.String)
				}
			}
			fmt.Printf("Total: %s\n", formatSeconds(total))
			return nil
		},
	}

	cmd.AddCommand(startCmd, stopCmd, listCmd, entriesCmd)
	return cmd
}

func newEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <issue-id> <hours>",
		Short: "Set the estimated hours for an issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			var hours float64
			if _, err := fmt.Sscanf(args[1], "%f", &hours); err != nil {
				return fmt.Errorf("invalid hours: %q", args[1])
			}

			upd := db.IssueUpdate{EstimatedHours: &hours}
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
			printOK("Estimated issue #%d at %.1fh", id, hours)
			return nil
		},
	}
}

func newTimeReportCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "time-report",
		Short: "Report time tracked per issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.Times.Report(cmd.Context(), period)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(rows)
			}
			if len(rows) == 0 {
				fmt.Println("No tracked time")
				return nil
			}

			bold := color.New(color.Bold).SprintFunc()
			gray := color.New(color.FgHiBlack).SprintFunc()
			var total int64
			for _, row := range rows {
				line := fmt.Sprintf("#%-4d %-40s %s (%d entries)",
					row.IssueID, row.Title, formatSeconds(row.TotalSeconds), row.EntryCount)
				if row.EstimatedHours > 0 {
					line += gray(fmt.Sprintf("  est %.1fh", row.EstimatedHours))
				}
				fmt.Println(line)
				total += row.TotalSeconds
			}
			fmt.Printf("%s %s\n", bold("Total:"), formatSeconds(total))
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Limit to a period (week or month)")

	return cmd
}

func init() {
	rootCmd.AddCommand(
		newTimerCmd(),
		newEstimateCmd(),
		newTimeReportCmd(),
	)
}
