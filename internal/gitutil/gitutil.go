// Package gitutil shells out to the git CLI for issue linking.
package gitutil

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// commandTimeout bounds every git invocation.
const commandTimeout = 10 * time.Second

// Commit is one entry of the git log.
type Commit struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// Repo runs git commands in one working directory. An empty Dir means
// the process working directory.
type Repo struct {
	Dir string
}

func (r Repo) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether Dir is inside a git work tree. A missing git
// binary counts as "no".
func (r Repo) IsRepo(ctx context.Context) bool {
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// CurrentBranch returns the checked-out branch name.
func (r Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// RecentCommits returns the n newest commits.
func (r Repo) RecentCommits(ctx context.Context, n int) ([]Commit, error) {
	if n <= 0 {
		n = 10
	}
	out, err := r.run(ctx, "log", fmt.Sprintf("-%d", n), "--pretty=format:%H|%an|%ai|%s")
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		commits = append(commits, Commit{
			Hash:    parts[0],
			Author:  parts[1],
			Date:    parts[2],
			Message: parts[3],
		})
	}
	return commits, nil
}

// CommitMessage returns the full message of a commit, or "" when the
// commit does not exist.
func (r Repo) CommitMessage(ctx context.Context, hash string) (string, error) {
	out, err := r.run(ctx, "log", "-1", "--pretty=format:%B", hash)
	if err != nil {
		return "", nil
	}
	return out, nil
}

// ValidateCommit reports whether the hash names an existing commit.
func (r Repo) ValidateCommit(ctx context.Context, hash string) bool {
	out, err := r.run(ctx, "cat-file", "-t", hash)
	return err == nil && out == "commit"
}

// BranchesContaining lists the branches that contain a commit.
func (r Repo) BranchesContaining(ctx context.Context, hash string) ([]string, error) {
	out, err := r.run(ctx, "branch", "--contains", hash, "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}

	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// refPattern matches "#123" with or without a closing keyword in front.
// Group 1 captures the keyword form, group 2 the bare form.
var refPattern = regexp.MustCompile(`(?i)(?:fix(?:es)?|close(?:s)?|resolve(?:s)?)\s+#(\d+)|#(\d+)`)

// closePattern matches only the keyword form: fixes/closes/resolves #123.
var closePattern = regexp.MustCompile(`(?i)(?:fix(?:es)?|close(?:s)?|resolve(?:s)?)\s+#(\d+)`)

// ParseIssueRefs extracts every issue ID referenced in a commit message,
// deduplicated and sorted.
func ParseIssueRefs(message string) []int64 {
	ids := make(map[int64]bool)
	for _, m := range refPattern.FindAllStringSubmatch(message, -1) {
		ref := m[1]
		if ref == "" {
			ref = m[2]
		}
		if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
			ids[id] = true
		}
	}
	return sortedIDs(ids)
}

// ParseCloseRefs extracts the issue IDs a commit message marks as fixed,
// deduplicated and sorted.
func ParseCloseRefs(message string) []int64 {
	ids := make(map[int64]bool)
	for _, m := range closePattern.FindAllStringSubmatch(message, -1) {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			ids[id] = true
		}
	}
	return sortedIDs(ids)
}

// sortedIDs flattens a ref set into ascending order. An empty set yields
// nil, meaning the message referenced no issues.
func sortedIDs(set map[int64]bool) []int64 {
	if len(set) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
