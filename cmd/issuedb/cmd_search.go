package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"issuedb/internal/dates"
	"issuedb/internal/db"
	"issuedb/pkg/models"
	"issuedb/pkg/similarity"
)

// searchParams is the serializable form of an advanced search, stored
// verbatim for saved searches.
type searchParams struct {
	Keyword       string   `json:"keyword,omitempty"`
	CreatedAfter  string   `json:"created_after,omitempty"`
	CreatedBefore string   `json:"created_before,omitempty"`
	UpdatedAfter  string   `json:"updated_after,omitempty"`
	UpdatedBefore string   `json:"updated_before,omitempty"`
	Priorities    []string `json:"priorities,omitempty"`
	Statuses      []string `json:"statuses,omitempty"`
	SortBy        string   `json:"sort_by,omitempty"`
	SortOrder     string   `json:"sort_order,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// toQuery resolves the string parameters into a store query.
func (p searchParams) toQuery() (db.SearchQuery, error) {
	q := db.SearchQuery{
		Keyword:   p.Keyword,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
		Limit:     p.Limit,
	}

	parseBound := func(s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		t, err := dates.Parse(s)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}

	var err error
	if q.CreatedAfter, err = parseBound(p.CreatedAfter); err != nil {
		return q, err
	}
	if q.CreatedBefore, err = parseBound(p.CreatedBefore); err != nil {
		return q, err
	}
	if q.UpdatedAfter, err = parseBound(p.UpdatedAfter); err != nil {
		return q, err
	}
	if q.UpdatedBefore, err = parseBound(p.UpdatedBefore); err != nil {
		return q, err
	}

	for _, s := range p.Priorities {
		pr, err := models.ParsePriority(s)
		if err != nil {
			return q, err
		}
		q.Priorities = append(q.Priorities, pr)
	}
	for _, s := range p.Statuses {
		st, err := models.ParseStatus(s)
		if err != nil {
			return q, err
		}
		q.Statuses = append(q.Statuses, st)
	}
	return q, nil
}

// advanced reports whether any flag beyond keyword/limit is in play.
func (p searchParams) advanced() bool {
	return p.CreatedAfter != "" || p.CreatedBefore != "" ||
		p.UpdatedAfter != "" || p.UpdatedBefore != "" ||
		len(p.Priorities) > 0 || len(p.Statuses) > 0 ||
		p.SortBy != "" || p.SortOrder != ""
}

func newSearchCmd() *cobra.Command {
	var (
		params      searchParams
		saveName    string
		savedName   string
		listSaved   bool
		deleteSaved string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search issues by keyword or advanced filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if listSaved {
				searches, err := app.Searches.List(ctx)
				if err != nil {
					return err
				}
				if app.JSON {
					return outputJSON(searches)
				}
				if len(searches) == 0 {
					fmt.Println("No saved searches")
					return nil
				}
				for _, s := range searches {
					fmt.Printf("%-20s %s\n", s.Name, s.QueryJSON)
				}
				return nil
			}

			if deleteSaved != "" {
				ok, err := app.Searches.Delete(ctx, deleteSaved)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("saved search not found: %s", deleteSaved)
				}
				printOK("Deleted saved search %q", deleteSaved)
				return nil
			}

			if savedName != "" {
				saved, err := app.Searches.Get(ctx, savedName)
				if err != nil {
					return err
				}
				if saved == nil {
					return fmt.Errorf("saved search not found: %s", savedName)
				}
				if err := json.Unmarshal([]byte(saved.QueryJSON), &params); err != nil {
					return fmt.Errorf("corrupt saved search %q: %w", savedName, err)
				}
			}

			if params.Keyword == "" && !params.advanced() {
				return fmt.Errorf("pass --keyword or at least one filter flag")
			}

			if saveName != "" {
				data, err := json.Marshal(params)
				if err != nil {
					return err
				}
				if _, err := app.Searches.Save(ctx, saveName, string(data)); err != nil {
					return err
				}
				printOK("Saved search %q", saveName)
			}

			var issues []*models.Issue
			if params.advanced() {
				query, err := params.toQuery()
				if err != nil {
					return err
				}
				issues, err = app.Issues.AdvancedSearch(ctx, query)
				if err != nil {
					return err
				}
			} else {
				var err error
				issues, err = app.Issues.Search(ctx, params.Keyword, params.Limit)
				if err != nil {
					return err
				}
			}
			return printIssues(issues)
		},
	}

	cmd.Flags().StringVarP(&params.Keyword, "keyword", "k", "", "Search keyword")
	cmd.Flags().IntVarP(&params.Limit, "limit", "l", 0, "Maximum results")
	cmd.Flags().StringVar(&params.CreatedAfter, "created-after", "", "Created on or after (date or 7d/2w/1m)")
	cmd.Flags().StringVar(&params.CreatedBefore, "created-before", "", "Created on or before")
	cmd.Flags().StringVar(&params.UpdatedAfter, "updated-after", "", "Updated on or after")
	cmd.Flags().StringVar(&params.UpdatedBefore, "updated-before", "", "Updated on or before")
	cmd.Flags().StringSliceVar(&params.Priorities, "priority", nil, "Filter by priorities (repeatable)")
	cmd.Flags().StringSliceVar(&params.Statuses, "status", nil, "Filter by statuses (repeatable)")
	cmd.Flags().StringVar(&params.SortBy, "sort-by", "", "Sort by created, updated or priority")
	cmd.Flags().StringVar(&params.SortOrder, "order", "", "Sort order (asc or desc)")
	cmd.Flags().StringVar(&saveName, "save", "", "Save this search under a name")
	cmd.Flags().StringVar(&savedName, "saved", "", "Run a saved search")
	cmd.Flags().BoolVar(&listSaved, "list-saved", false, "List saved searches")
	cmd.Flags().StringVar(&deleteSaved, "delete-saved", "", "Delete a saved search")

	return cmd
}

func newFindSimilarCmd() *cobra.Command {
	var (
		threshold float64
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "find-similar <text>",
		Short: "Find issues similar to the given text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := app.Issues.All(cmd.Context())
			if err != nil {
				return err
			}

			records := make([]similarity.Record, len(issues))
			for i, issue := range issues {
				records[i] = issue
			}

			matches := similarity.FindSimilar(args[0], records, threshold)
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}

			if app.JSON {
				out := make([]map[string]interface{}, 0, len(matches))
				for _, m := range matches {
					out = append(out, map[string]interface{}{
						"issue": m.Record.(*models.Issue),
						"score": m.Score,
					})
				}
				return outputJSON(out)
			}

			if len(matches) == 0 {
				fmt.Println("No similar issues found")
				return nil
			}
			gray := color.New(color.FgHiBlack).SprintFunc()
			for _, m := range matches {
				issue := m.Record.(*models.Issue)
				fmt.Printf("%s ", gray(fmt.Sprintf("%.2f", m.Score)))
				printIssueRow(issue)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", similarity.DefaultSimilarThreshold, "Similarity threshold (0.0 to 1.0)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")

	return cmd
}

func newDedupeCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Find potential duplicate issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				threshold = app.Config.DuplicateThreshold
			}

			issues, err := app.Issues.All(cmd.Context())
			if err != nil {
				return err
			}

			records := make([]similarity.Record, len(issues))
			for i, issue := range issues {
				records[i] = issue
			}

			groups := similarity.FindDuplicateGroups(records, threshold)

			if app.JSON {
				out := make([][]map[string]interface{}, 0, len(groups))
				for _, group := range groups {
					g := make([]map[string]interface{}, 0, len(group))
					for _, m := range group {
						g = append(g, map[string]interface{}{
							"issue": m.Record.(*models.Issue),
							"score": m.Score,
						})
					}
					out = append(out, g)
				}
				return outputJSON(out)
			}

			if len(groups) == 0 {
				fmt.Println("No duplicates found")
				return nil
			}
			bold := color.New(color.Bold).SprintFunc()
			gray := color.New(color.FgHiBlack).SprintFunc()
			for i, group := range groups {
				fmt.Printf("%s\n", bold(fmt.Sprintf("Group %d:", i+1)))
				for _, m := range group {
					issue := m.Record.(*models.Issue)
					fmt.Printf("  %s ", gray(fmt.Sprintf("%.2f", m.Score)))
					printIssueRow(issue)
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", similarity.DefaultDuplicateThreshold, "Similarity threshold for duplicates")

	return cmd
}

func init() {
	rootCmd.AddCommand(
		newSearchCmd(),
		newFindSimilarCmd(),
		newDedupeCmd(),
	)
}
