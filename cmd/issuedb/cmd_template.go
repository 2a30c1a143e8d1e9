package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"issuedb/pkg/models"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage issue templates",
	}

	var (
		titlePrefix string
		priority    string
		status      string
		required    []string
	)
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an issue template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl := &models.Template{
				Name:           strings.TrimSpace(args[0]),
				TitlePrefix:    models.NullString(titlePrefix),
				RequiredFields: required,
			}
			if priority != "" {
				tmpl.DefaultPriority = models.NullString(priority)
			}
			if status != "" {
				tmpl.DefaultStatus = models.NullString(status)
			}

			if err := app.Templates.Create(cmd.Context(), tmpl); err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(tmpl)
			}
			printOK("Created template %q", tmpl.Name)
			return nil
		},
	}
	createCmd.Flags().StringVar(&titlePrefix, "title-prefix", "", "Prefix prepended to issue titles")
	createCmd.Flags().StringVarP(&priority, "priority", "p", "", "Default priority")
	createCmd.Flags().StringVarP(&status, "status", "s", "", "Default status")
	createCmd.Flags().StringSliceVar(&required, "require", nil, "Fields the template requires (e.g. description)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List issue templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := app.Templates.List(cmd.Context())
			if err != nil {
				return err
			}

			if app.JSON {
				return outputJSON(templates)
			}
			if len(templates) == 0 {
				fmt.Println("No templates")
				return nil
			}
			for _, t := range templates {
				line := t.Name
				if t.TitlePrefix.Valid && t.TitlePrefix.String != "" {
					line += fmt.Sprintf("  prefix=%q", t.TitlePrefix.String)
				}
				if t.DefaultPriority.Valid {
					line += "  priority=" + t.DefaultPriority.String
				}
				if len(t.RequiredFields) > 0 {
					line += "  requires=" + strings.Join(t.RequiredFields, ",")
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an issue template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := app.Templates.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("template not found: %s", args[0])
			}

			if app.JSON {
				return outputJSON(map[string]bool{"deleted": true})
			}
			printOK("Deleted template %q", args[0])
			return nil
		},
	}

	cmd.AddCommand(createCmd, listCmd, deleteCmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(newTemplateCmd())
}
