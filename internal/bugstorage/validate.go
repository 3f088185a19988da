package bugstorage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DueDateLayout is the strict calendar-date format of due dates.
const DueDateLayout = "2006-01-02"

// ValidateDueDate accepts "" (no due date) or a real calendar date in
// YYYY-MM-DD form.
func ValidateDueDate(s string) error {
	if s == "" {
		return nil
	}
	if !dueDatePattern.MatchString(s) {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}
	if _, err := time.Parse(DueDateLayout, s); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return nil
}

// SanitizeInput strips control characters (keeping newlines and tabs),
// trims surrounding whitespace and caps the result at MaxInputLength runes.
func SanitizeInput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxInputLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxInputLength]))
	}
	return s
}

// CheckLength returns ErrInputTooLong when s exceeds MaxInputLength runes.
func CheckLength(s string) error {
	if n := utf8.RuneCountInString(s); n > MaxInputLength {
		return fmt.Errorf("%w: %d characters (maximum %d)", ErrInputTooLong, n, MaxInputLength)
	}
	return nil
}

// ValidateFilePaths keeps relative paths that stay inside the project and
// drops the rest. Existence is not checked.
func ValidateFilePaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
			continue
		}
		clean := filepath.Clean(filepath.FromSlash(p))
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, filepath.ToSlash(clean))
	}
	return out
}
