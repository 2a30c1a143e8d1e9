package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCommentCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "comment <issue-id>",
		Short: "Add a comment to an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			comment, err := app.Comments.Add(cmd.Context(), id, text)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(comment)
			}
			printOK("Added comment #%d to issue #%d", comment.ID, id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Comment text (required)")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <issue-id>",
		Short: "List all comments for an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			comments, err := app.Comments.ForIssue(cmd.Context(), id)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(comments)
			}
			if len(comments) == 0 {
				fmt.Println("No comments")
				return nil
			}
			for _, c := range comments {
				fmt.Printf("#%d [%s]\n  %s\n", c.ID, c.CreatedAt, c.Text)
			}
			return nil
		},
	}
}

func newDeleteCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-comment <comment-id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return fmt.Errorf("invalid comment ID: %q", args[0])
			}

			deleted, err := app.Comments.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("comment not found: %d", id)
			}

			if app.JSON {
				return outputJSON(map[string]interface{}{"deleted": true, "id": id})
			}
			printOK("Deleted comment #%d", id)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		newCommentCmd(),
		newCommentsCmd(),
		newDeleteCommentCmd(),
	)
}
