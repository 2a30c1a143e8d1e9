package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"issuedb/pkg/models"
)

func newBlockCmd() *cobra.Command {
	var blockerID int64

	cmd := &cobra.Command{
		Use:   "block <issue-id>",
		Short: "Mark an issue as blocked by another issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			if blockerID <= 0 {
				return fmt.Errorf("--by must be a positive issue ID")
			}

			if err := app.Deps.Block(cmd.Context(), blockerID, id); err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(map[string]int64{"blocked": id, "by": blockerID})
			}
			printOK("Issue #%d is now blocked by #%d", id, blockerID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&blockerID, "by", 0, "ID of the blocking issue (required)")
	_ = cmd.MarkFlagRequired("by")

	return cmd
}

func newUnblockCmd() *cobra.Command {
	var blockerID int64

	cmd := &cobra.Command{
		Use:   "unblock <issue-id>",
		Short: "Remove block relationships from an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			// Without --by, remove every blocker.
			if blockerID == 0 {
				blockers, err := app.Deps.Blockers(ctx, id)
				if err != nil {
					return err
				}
				removed := 0
				for _, blocker := range blockers {
					ok, err := app.Deps.Unblock(ctx, blocker.ID, id)
					if err != nil {
						return err
					}
					if ok {
						removed++
					}
				}
				if app.JSON {
					return outputJSON(map[string]int{"removed": removed})
				}
				printOK("Removed %d blocker(s) from issue #%d", removed, id)
				return nil
			}

			ok, err := app.Deps.Unblock(ctx, blockerID, id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("issue #%d is not blocked by #%d", id, blockerID)
			}

			if app.JSON {
				return outputJSON(map[string]int{"removed": 1})
			}
			printOK("Issue #%d is no longer blocked by #%d", id, blockerID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&blockerID, "by", 0, "ID of the blocker issue (omit to remove all)")

	return cmd
}

func newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <issue-id>",
		Short: "Show the dependency graph for an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			blockers, err := app.Deps.Blockers(ctx, id)
			if err != nil {
				return err
			}
			blocking, err := app.Deps.Blocking(ctx, id)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(map[string]interface{}{
					"blocked_by": issueSlice(blockers),
					"blocking":   issueSlice(blocking),
				})
			}

			bold := color.New(color.Bold).SprintFunc()
			fmt.Printf("%s\n", bold(fmt.Sprintf("Dependencies for issue #%d", id)))
			fmt.Println("Blocked by:")
			if len(blockers) == 0 {
				fmt.Println("  (none)")
			}
			for _, issue := range blockers {
				fmt.Print("  ")
				printIssueRow(issue)
			}
			fmt.Println("Blocking:")
			if len(blocking) == 0 {
				fmt.Println("  (none)")
			}
			for _, issue := range blocking {
				fmt.Print("  ")
				printIssueRow(issue)
			}
			return nil
		},
	}
}

func newBlockedCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "List all issues blocked by unresolved dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := app.Deps.Blocked(cmd.Context())
			if err != nil {
				return err
			}

			if status != "" {
				st, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				filtered := issues[:0]
				for _, issue := range issues {
					if issue.Status == st {
						filtered = append(filtered, issue)
					}
				}
				issues = filtered
			}

			return printIssues(issues)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status")

	return cmd
}

// issueSlice normalizes nil to an empty slice for JSON output.
func issueSlice(issues []*models.Issue) []*models.Issue {
	if issues == nil {
		return []*models.Issue{}
	}
	return issues
}

func init() {
	rootCmd.AddCommand(
		newBlockCmd(),
		newUnblockCmd(),
		newDepsCmd(),
		newBlockedCmd(),
	)
}
