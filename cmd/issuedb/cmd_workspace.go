package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <issue-id>",
		Short: "Start working on an issue",
		Long: `Mark an issue as the active workspace issue. The issue moves to
in-progress and only one issue can be active at a time; starting a
new one replaces the previous.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			issue, err := app.Workspace.Start(cmd.Context(), id)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(issue)
			}
			printOK("Started working on #%d: %s", issue.ID, issue.Title)
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	var closeIssue bool

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop working on the active issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			issue, err := app.Workspace.Stop(cmd.Context(), closeIssue)
			if err != nil {
				return err
			}
			if issue == nil {
				fmt.Println("No active issue")
				return nil
			}

			if app.JSON {
				return outputJSON(issue)
			}
			if closeIssue {
				printOK("Stopped and closed #%d: %s", issue.ID, issue.Title)
			} else {
				printOK("Stopped working on #%d: %s", issue.ID, issue.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&closeIssue, "close", false, "Also close the issue when stopping")

	return cmd
}

func newActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the currently active issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := app.Workspace.Active(cmd.Context())
			if err != nil {
				return err
			}
			if active == nil {
				if app.JSON {
					return outputJSON(nil)
				}
				fmt.Println("No active issue")
				return nil
			}

			if app.JSON {
				return outputJSON(active)
			}
			gray := color.New(color.FgHiBlack).SprintFunc()
			if err := printIssueDetail(active.Issue); err != nil {
				return err
			}
			fmt.Printf("  Active:   %s\n", gray(fmt.Sprintf("since %s (%s)",
				active.StartedAt.Format("2006-01-02 15:04:05"),
				time.Since(active.StartedAt).Round(time.Second))))
			return nil
		},
	}
}

func newWorkspaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workspace",
		Short: "Show current workspace status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			active, err := app.Workspace.Active(ctx)
			if err != nil {
				return err
			}
			running, err := app.Times.Running(ctx)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(map[string]interface{}{
					"active":         active,
					"running_timers": running,
				})
			}

			if active == nil {
				fmt.Println("Workspace idle, no active issue")
			} else {
				printOK("Active issue #%d: %s (since %s)",
					active.Issue.ID, active.Issue.Title,
					active.StartedAt.Format("2006-01-02 15:04:05"))
			}
			if len(running) > 0 {
				fmt.Printf("%d running timer(s):\n", len(running))
				now := time.Now()
				for _, entry := range running {
					fmt.Printf("  issue #%d: %s elapsed\n",
						entry.IssueID, entry.Elapsed(now).Round(time.Second))
				}
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		newStartCmd(),
		newStopCmd(),
		newActiveCmd(),
		newWorkspaceCmd(),
	)
}
