// Package dates parses the relative date shorthand accepted by search
// and list filters.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativePattern = regexp.MustCompile(`^(\d+)([dwm])$`)

// Parse turns a date string into a time. Accepted forms:
//
//	YYYY-MM-DD   absolute date at midnight local time
//	today        current date at midnight
//	yesterday    previous date at midnight
//	Nd           N days ago
//	Nw           N weeks ago
//	Nm           N months ago (a month counts as 30 days)
func Parse(s string) (time.Time, error) {
	return parseAt(s, time.Now())
}

// parseAt is Parse with an injectable clock for tests.
func parseAt(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "today":
		return midnight(now), nil
	case "yesterday":
		return midnight(now.AddDate(0, 0, -1)), nil
	}

	if m := relativePattern.FindStringSubmatch(s); m != nil {
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date format: %q", s)
		}
		switch m[2] {
		case "d":
			return now.AddDate(0, 0, -amount), nil
		case "w":
			return now.AddDate(0, 0, -amount*7), nil
		case "m":
			return now.AddDate(0, 0, -amount*30), nil
		}
	}

	if parsed, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf(
		"invalid date format: %q (supported: YYYY-MM-DD, today, yesterday, Nd, Nw, Nm)", s)
}

// ValidateRange rejects ranges that end before they start. Zero times
// mean "unbounded" and always pass.
func ValidateRange(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end date (%s) cannot be before start date (%s)",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return nil
}

// FormatDisplay renders a time for human-readable output.
func FormatDisplay(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
