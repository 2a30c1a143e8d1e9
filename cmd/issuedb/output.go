package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"

	"issuedb/pkg/models"
)

// outputJSON writes indented JSON to stdout.
func outputJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// priorityColor returns a sprint function for a priority.
func priorityColor(p models.Priority) func(a ...interface{}) string {
	switch p {
	case models.PriorityCritical:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case models.PriorityHigh:
		return color.New(color.FgYellow).SprintFunc()
	case models.PriorityMedium:
		return color.New(color.FgCyan).SprintFunc()
	default:
		return color.New(color.FgHiBlack).SprintFunc()
	}
}

// statusColor returns a sprint function for a status.
func statusColor(s models.Status) func(a ...interface{}) string {
	switch s {
	case models.StatusInProgress:
		return color.New(color.FgGreen).SprintFunc()
	case models.StatusClosed, models.StatusWontDo:
		return color.New(color.FgHiBlack).SprintFunc()
	default:
		return color.New(color.FgWhite).SprintFunc()
	}
}

// printIssueRow prints one issue as a compact list line.
func printIssueRow(issue *models.Issue) {
	pc := priorityColor(issue.Priority)
	sc := statusColor(issue.Status)

	line := fmt.Sprintf("#%-4d %s  %s  %s",
		issue.ID,
		pc(fmt.Sprintf("%-8s", issue.Priority)),
		sc(fmt.Sprintf("%-11s", issue.Status)),
		issue.Title)
	if issue.DueDate.Valid {
		line += color.New(color.FgHiBlack).Sprintf("  (due %s)", issue.DueDate.String)
	}
	fmt.Println(line)
}

// printIssues prints a list of issues, honoring JSON mode.
func printIssues(issues []*models.Issue) error {
	if app.JSON {
		if issues == nil {
			issues = []*models.Issue{}
		}
		return outputJSON(issues)
	}
	if len(issues) == 0 {
		fmt.Println("No issues found")
		return nil
	}
	for _, issue := range issues {
		printIssueRow(issue)
	}
	return nil
}

// printIssueDetail prints the full view of one issue.
func printIssueDetail(issue *models.Issue) error {
	if app.JSON {
		return outputJSON(issue)
	}

	bold := color.New(color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	pc := priorityColor(issue.Priority)
	sc := statusColor(issue.Status)

	fmt.Printf("%s %s\n", bold(fmt.Sprintf("#%d", issue.ID)), bold(issue.Title))
	fmt.Printf("  Priority: %s\n", pc(string(issue.Priority)))
	fmt.Printf("  Status:   %s\n", sc(string(issue.Status)))
	if issue.Description.Valid && issue.Description.String != "" {
		fmt.Printf("  Description:\n")
		for _, line := range strings.Split(issue.Description.String, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	if issue.DueDate.Valid {
		fmt.Printf("  Due:      %s\n", issue.DueDate.String)
	}
	if issue.EstimatedHours.Valid {
		fmt.Printf("  Estimate: %.1fh\n", issue.EstimatedHours.Float64)
	}
	fmt.Printf("  Created:  %s\n", gray(issue.CreatedAt))
	fmt.Printf("  Updated:  %s\n", gray(issue.UpdatedAt))
	return nil
}

// printOK prints a green confirmation line in human mode.
func printOK(format string, args ...interface{}) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Println(green("✓"), fmt.Sprintf(format, args...))
}
