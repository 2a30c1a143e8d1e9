package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"issuedb/internal/db"
	"issuedb/pkg/models"
)

func formatRef(ref *models.CodeReference) string {
	loc := ref.FilePath
	if ref.StartLine.Valid {
		if ref.EndLine.Valid && ref.EndLine.Int64 != ref.StartLine.Int64 {
			loc = fmt.Sprintf("%s:%d-%d", ref.FilePath, ref.StartLine.Int64, ref.EndLine.Int64)
		} else {
			loc = fmt.Sprintf("%s:%d", ref.FilePath, ref.StartLine.Int64)
		}
	}
	if ref.Note.Valid && ref.Note.String != "" {
		loc += "  " + ref.Note.String
	}
	return loc
}

func newRefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ref",
		Short: "Manage code references for issues",
	}

	var note string
	addCmd := &cobra.Command{
		Use:   "add <issue-id> <file[:line[-line]]>",
		Short: "Attach a code location to an issue",
		Long: `Attach a file location to an issue. The location is a path with an
optional line or line range suffix, like pkg/server.go:42 or
pkg/server.go:42-60.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			path, start, end, err := db.ParseFileSpec(args[1])
			if err != nil {
				return err
			}

			ref, err := app.Refs.Add(cmd.Context(), id, path, start, end, note)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(ref)
			}
			printOK("Added reference #%d to issue #%d: %s", ref.ID, id, formatRef(ref))
			return nil
		},
	}
	addCmd.Flags().StringVarP(&note, "note", "n", "", "Note for this reference")

	removeCmd := &cobra.Command{
		Use:   "remove <ref-id>",
		Short: "Remove a code reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return fmt.Errorf("invalid reference ID: %q", args[0])
			}

			removed, err := app.Refs.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("reference not found: %d", id)
			}

			if app.JSON {
				return outputJSON(map[string]bool{"removed": true})
			}
			printOK("Removed reference #%d", id)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <issue-id>",
		Short: "List code references for an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			refs, err := app.Refs.ForIssue(cmd.Context(), id)
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(refs)
			}
			if len(refs) == 0 {
				fmt.Println("No code references")
				return nil
			}
			for _, ref := range refs {
				fmt.Printf("#%d  %s\n", ref.ID, formatRef(ref))
			}
			return nil
		},
	}

	byFileCmd := &cobra.Command{
		Use:   "by-file <path>",
		Short: "List code references pointing at a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := app.Refs.ForFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(refs)
			}
			if len(refs) == 0 {
				fmt.Println("No code references")
				return nil
			}
			for _, ref := range refs {
				fmt.Printf("issue #%d  %s\n", ref.IssueID, formatRef(ref))
			}
			return nil
		},
	}

	cmd.AddCommand(addCmd, removeCmd, listCmd, byFileCmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(newRefCmd())
}
