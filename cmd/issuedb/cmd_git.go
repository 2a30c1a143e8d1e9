package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"issuedb/internal/db"
	"issuedb/internal/gitutil"
	"issuedb/pkg/models"
)

// scanDetail is one per-commit, per-issue outcome of a git scan.
type scanDetail struct {
	Commit  string `json:"commit"`
	IssueID int64  `json:"issue_id"`
	Action  string `json:"action"`
	Reason  string `json:"reason,omitempty"`
}

// scanResult summarizes a git scan.
type scanResult struct {
	Scanned      int          `json:"scanned"`
	LinksCreated int          `json:"links_created"`
	IssuesClosed int          `json:"issues_closed"`
	Details      []scanDetail `json:"details"`
}

// scanCommits links commits that mention issues and optionally closes
// issues referenced with a closing keyword like "fixes #12".
func scanCommits(ctx context.Context, commits []gitutil.Commit, autoClose bool) (*scanResult, error) {
	result := &scanResult{Details: []scanDetail{}}

	for _, commit := range commits {
		if commit.Hash == "" || commit.Message == "" {
			continue
		}
		result.Scanned++

		refs := gitutil.ParseIssueRefs(commit.Message)
		closeRefs := make(map[int64]bool)
		for _, id := range gitutil.ParseCloseRefs(commit.Message) {
			closeRefs[id] = true
		}

		for _, issueID := range refs {
			issue, err := app.Issues.Get(ctx, issueID)
			if err != nil {
				return nil, err
			}
			if issue == nil {
				result.Details = append(result.Details, scanDetail{
					Commit:  commit.Hash,
					IssueID: issueID,
					Action:  "skipped",
					Reason:  "issue not found",
				})
				continue
			}

			_, created, err := app.Links.Link(ctx, issueID, models.LinkCommit, commit.Hash)
			if err != nil {
				return nil, err
			}
			if created {
				result.LinksCreated++
				result.Details = append(result.Details, scanDetail{
					Commit:  commit.Hash,
					IssueID: issueID,
					Action:  "linked",
				})
			} else {
				result.Details = append(result.Details, scanDetail{
					Commit:  commit.Hash,
					IssueID: issueID,
					Action:  "skipped",
					Reason:  "link already exists",
				})
			}

			if autoClose && closeRefs[issueID] && issue.Status != models.StatusClosed {
				closed := models.StatusClosed
				if _, err := app.Issues.Update(ctx, issueID, db.IssueUpdate{Status: &closed}); err != nil {
					return nil, err
				}
				result.IssuesClosed++
				result.Details = append(result.Details, scanDetail{
					Commit:  commit.Hash,
					IssueID: issueID,
					Action:  "closed",
				})
			}
		}
	}
	return result, nil
}

func newGitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "git",
		Short: "Link issues to git commits and branches",
	}

	cmd.AddCommand(
		newGitLinkCommitCmd(),
		newGitLinkBranchCmd(),
		newGitUnlinkCmd(),
		newGitLinksCmd(),
		newGitBranchCmd(),
		newGitScanCmd(),
	)
	return cmd
}

func newGitLinkCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-commit <issue-id> <commit-hash>",
		Short: "Link an issue to a commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			// Validate the hash when running inside a repository.
			repo := gitutil.Repo{}
			if repo.IsRepo(cmd.Context()) && !repo.ValidateCommit(cmd.Context(), args[1]) {
				return fmt.Errorf("commit not found in repository: %s", args[1])
			}

			link, _, err := app.Links.Link(cmd.Context(), id, models.LinkCommit, args[1])
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(link)
			}
			printOK("Linked issue #%d to commit %s", id, shortHash(args[1]))
			return nil
		},
	}
}

func newGitLinkBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-branch <issue-id> [branch]",
		Short: "Link an issue to a branch (defaults to the current branch)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			branch := ""
			if len(args) == 2 {
				branch = args[1]
			} else {
				repo := gitutil.Repo{}
				if !repo.IsRepo(cmd.Context()) {
					return fmt.Errorf("not in a git repository: pass a branch name")
				}
				if branch, err = repo.CurrentBranch(cmd.Context()); err != nil {
					return err
				}
			}

			link, _, err := app.Links.Link(cmd.Context(), id, models.LinkBranch, branch)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(link)
			}
			printOK("Linked issue #%d to branch %s", id, branch)
			return nil
		},
	}
}

func newGitUnlinkCmd() *cobra.Command {
	var (
		linkType  string
		reference string
	)

	cmd := &cobra.Command{
		Use:   "unlink <issue-id>",
		Short: "Remove a git link from an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			if linkType != models.LinkCommit && linkType != models.LinkBranch {
				return fmt.Errorf("link type must be commit or branch")
			}

			removed, err := app.Links.Unlink(cmd.Context(), id, linkType, reference)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no such link on issue #%d", id)
			}

			if app.JSON {
				return outputJSON(map[string]bool{"removed": true})
			}
			printOK("Unlinked %s %s from issue #%d", linkType, reference, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&linkType, "type", "commit", "Link type (commit or branch)")
	cmd.Flags().StringVar(&reference, "ref", "", "Commit hash or branch name (required)")
	_ = cmd.MarkFlagRequired("ref")

	return cmd
}

func newGitLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links <issue-id>",
		Short: "List git links for an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			links, err := app.Links.ForIssue(cmd.Context(), id)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(links)
			}
			if len(links) == 0 {
				fmt.Println("No git links")
				return nil
			}
			for _, link := range links {
				ref := link.Reference
				if link.LinkType == models.LinkCommit {
					ref = shortHash(ref)
				}
				fmt.Printf("%-7s %s\n", link.LinkType, ref)
			}
			return nil
		},
	}
}

func newGitBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch",
		Short: "Show repository status and issues linked to the current branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			repo := gitutil.Repo{}
			if !repo.IsRepo(ctx) {
				return fmt.Errorf("not in a git repository")
			}
			branch, err := repo.CurrentBranch(ctx)
			if err != nil {
				return err
			}

			issues, err := app.Links.IssuesForReference(ctx, models.LinkBranch, branch)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(map[string]interface{}{
					"branch": branch,
					"issues": issueSlice(issues),
				})
			}

			bold := color.New(color.Bold).SprintFunc()
			fmt.Printf("%s %s\n", bold("Branch:"), branch)
			if len(issues) == 0 {
				fmt.Println("No linked issues")
				return nil
			}
			for _, issue := range issues {
				printIssueRow(issue)
			}
			return nil
		},
	}
}

func newGitScanCmd() *cobra.Command {
	var (
		numCommits int
		autoClose  bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan recent commits for issue references",
		Long: `Scan recent commit messages for issue references like "#12" and
link the commits to those issues. With --auto-close, issues
referenced as "fixes #12" or "closes #12" are closed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			repo := gitutil.Repo{}
			if !repo.IsRepo(ctx) {
				return fmt.Errorf("not in a git repository")
			}

			commits, err := repo.RecentCommits(ctx, numCommits)
			if err != nil {
				return err
			}

			result, err := scanCommits(ctx, commits, autoClose)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(result)
			}

			fmt.Printf("Scanned %d commit(s)\n", result.Scanned)
			fmt.Printf("Created %d link(s)\n", result.LinksCreated)
			if autoClose {
				fmt.Printf("Closed %d issue(s)\n", result.IssuesClosed)
			}
			if len(result.Details) > 0 {
				fmt.Println("\nDetails:")
				for _, d := range result.Details {
					line := fmt.Sprintf("  - Commit %s, Issue #%d: %s",
						shortHash(d.Commit), d.IssueID, d.Action)
					if d.Reason != "" {
						line += fmt.Sprintf(" (%s)", d.Reason)
					}
					fmt.Println(line)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&numCommits, "num", "n", 10, "Number of recent commits to scan")
	cmd.Flags().BoolVar(&autoClose, "auto-close", false, "Close issues referenced with closing keywords")

	return cmd
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func init() {
	rootCmd.AddCommand(newGitCmd())
}
