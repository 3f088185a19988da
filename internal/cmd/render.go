package cmd

import (
	"fmt"
	"io"
	"strings"

	"bugbook/internal/bugstorage"
	"bugbook/internal/query"
)

const separator = "--------------------------------------------------"

// statusIcon returns the marker shown next to a status.
func statusIcon(s bugstorage.Status) string {
	if s == bugstorage.StatusResolved {
		return "✅"
	}
	return "🔴"
}

// priorityLabel renders a priority for display, colouring High.
func (a *App) priorityLabel(p bugstorage.Priority) string {
	switch p {
	case bugstorage.PriorityHigh:
		return a.ErrorColor(string(p))
	case "":
		return "-"
	}
	return string(p)
}

// printBugSummary writes the short multi-line form used by list.
func (a *App) printBugSummary(w io.Writer, b *bugstorage.Bug) {
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "%s %s  %s %s", a.HeaderColor("ID:"), a.IDColor(b.ID), statusIcon(b.Status), b.Status)
	if b.Priority != "" {
		fmt.Fprintf(w, "  [%s]", a.priorityLabel(b.Priority))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", a.HeaderColor("Category:"), a.WarnColor(b.Category))
	fmt.Fprintf(w, "%s %s\n", a.HeaderColor("Error:"), b.Error)
	fmt.Fprintf(w, "%s %s\n", a.HeaderColor("Solution:"), b.Solution)
	if b.DueDate != "" {
		due := b.DueDate
		if query.IsOverdue(b, a.now()) {
			due += " " + a.ErrorColor("(OVERDUE)")
		}
		fmt.Fprintf(w, "%s %s\n", a.HeaderColor("Due:"), due)
	}
}

// printBugDetail writes every field of b, including comments.
func (a *App) printBugDetail(w io.Writer, b *bugstorage.Bug) {
	a.printBugSummary(w, b)
	if b.Author != "" {
		fmt.Fprintf(w, "%s %s\n", a.HeaderColor("Author:"), b.Author)
	}
	fmt.Fprintf(w, "%s %s\n", a.HeaderColor("Created:"), formatDate(b))
	if len(b.Files) > 0 {
		fmt.Fprintf(w, "%s %s\n", a.HeaderColor("Files:"), strings.Join(b.Files, ", "))
	}
	if b.GitHubIssueURL != "" {
		fmt.Fprintf(w, "%s %s\n", a.HeaderColor("GitHub:"), b.GitHubIssueURL)
	}
	if len(b.Comments) > 0 {
		fmt.Fprintf(w, "%s\n", a.HeaderColor(fmt.Sprintf("Comments (%d):", len(b.Comments))))
		for _, c := range b.Comments {
			a.printComment(w, c)
		}
	}
	fmt.Fprintln(w, separator)
}

// printComment writes one comment as an indented entry.
func (a *App) printComment(w io.Writer, c bugstorage.Comment) {
	who := c.Author
	if who == "" {
		who = "anonymous"
	}
	when := c.Timestamp
	if t := bugstorage.ParseTimestamp(c.Timestamp); !t.IsZero() {
		when = t.Local().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(w, "  [%s] %s:\n", when, who)
	for _, line := range strings.Split(c.Text, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
}

// formatDate renders the creation time of b, falling back to the raw
// timestamp when it cannot be parsed.
func formatDate(b *bugstorage.Bug) string {
	t := b.CreatedAt()
	if t.IsZero() {
		return b.Timestamp
	}
	return t.Local().Format("2006-01-02 15:04")
}

// firstLine returns the first line of s.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
