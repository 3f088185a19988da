// Package export renders bugs as a Markdown report.
package export

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"bugbook/internal/bugstorage"
	"bugbook/internal/query"
)

// DefaultFile is the report written when no output path is given.
const DefaultFile = "BUGS.md"

// Markdown writes the report: open bugs, then resolved ones, each section
// oldest first. The input slice is not modified.
func Markdown(w io.Writer, bugs []*bugstorage.Bug, generated time.Time) error {
	var open, resolved []*bugstorage.Bug
	for _, b := range bugs {
		if b.Status == bugstorage.StatusResolved {
			resolved = append(resolved, b)
		} else {
			open = append(open, b)
		}
	}
	query.Sort(open, query.SortDate, query.OrderAsc)
	query.Sort(resolved, query.SortDate, query.OrderAsc)

	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "# BugBook Report\n\n")
	fmt.Fprintf(bw, "Generated on: %s\n\n", generated.Format("2006-01-02 15:04:05"))

	writeSection(bw, "Open Bugs", "_No open bugs._", open)
	writeSection(bw, "Resolved Bugs", "_No resolved bugs._", resolved)
	return bw.Flush()
}

func writeSection(w io.Writer, title, empty string, bugs []*bugstorage.Bug) {
	fmt.Fprintf(w, "## %s\n\n", title)
	if len(bugs) == 0 {
		fmt.Fprintf(w, "%s\n\n", empty)
		return
	}
	for _, b := range bugs {
		writeEntry(w, b)
	}
}

func writeEntry(w io.Writer, b *bugstorage.Bug) {
	heading := b.Error
	for i, r := range heading {
		if r == '\n' {
			heading = heading[:i]
			break
		}
	}
	priority := b.Priority
	if priority == "" {
		priority = bugstorage.PriorityMedium
	}

	fmt.Fprintf(w, "### [%s] %s\n", b.ID, heading)
	fmt.Fprintf(w, "- **Category**: %s\n", b.Category)
	fmt.Fprintf(w, "- **Priority**: %s\n", priority)
	if b.Author != "" {
		fmt.Fprintf(w, "- **Author**: %s\n", b.Author)
	}
	if b.DueDate != "" {
		fmt.Fprintf(w, "- **Due**: %s\n", b.DueDate)
	}
	fmt.Fprintf(w, "- **Date**: %s\n\n", b.Timestamp)

	fmt.Fprintf(w, "**Error**:\n```\n%s\n```\n\n", b.Error)
	if b.Solution != "" {
		fmt.Fprintf(w, "**Solution**:\n%s\n\n", b.Solution)
	}
	if len(b.Files) > 0 {
		fmt.Fprint(w, "**Related Files**:\n")
		for _, f := range b.Files {
			fmt.Fprintf(w, "- `%s`\n", f)
		}
		fmt.Fprint(w, "\n")
	}
	if len(b.Comments) > 0 {
		fmt.Fprint(w, "**Comments**:\n")
		for _, c := range b.Comments {
			who := c.Author
			if who == "" {
				who = "anonymous"
			}
			fmt.Fprintf(w, "- %s (%s): %s\n", who, c.Timestamp, c.Text)
		}
		fmt.Fprint(w, "\n")
	}
	fmt.Fprint(w, "---\n\n")
}
