// Package legacy parses the two on-disk formats that predate one file per
// record: the Markdown ledger (bugs.md) and the single JSON array (bugs.json),
// plus the line-per-tag list (tags.md).
//
// Parsers never touch the filesystem. They return a slice of Result values,
// each one a LedgerRecord, an ArrayRecord or a ParseFailure, and leave the
// decision of what to write to the migrate package.
package legacy

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"bugbook/internal/bugstorage"
)

// Result is one outcome of parsing a legacy source.
type Result interface {
	isResult()
}

// LedgerRecord is a section of the Markdown ledger.
type LedgerRecord struct {
	Index int
	Bug   *bugstorage.Bug
}

// ArrayRecord is an element of the JSON array file.
type ArrayRecord struct {
	Index int
	Bug   *bugstorage.Bug
}

// ParseFailure reports input that could not be parsed. Index is -1 when the
// whole document failed.
type ParseFailure struct {
	Source string
	Index  int
	Err    error
}

func (LedgerRecord) isResult() {}
func (ArrayRecord) isResult()  {}
func (ParseFailure) isResult() {}

func (f ParseFailure) Error() string {
	if f.Index < 0 {
		return fmt.Sprintf("%s: %v", f.Source, f.Err)
	}
	return fmt.Sprintf("%s: record %d: %v", f.Source, f.Index, f.Err)
}

// ParseArray parses the contents of bugs.json.
func ParseArray(data []byte) []Result {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []Result{ParseFailure{Source: bugstorage.LegacyArray, Index: -1, Err: err}}
	}

	results := make([]Result, 0, len(raw))
	for i, elem := range raw {
		bug, err := bugstorage.Decode(elem)
		if err != nil {
			results = append(results, ParseFailure{Source: bugstorage.LegacyArray, Index: i, Err: err})
			continue
		}
		if bug.Category == "" {
			bug.Category = bugstorage.DefaultTag
		}
		results = append(results, ArrayRecord{Index: i, Bug: bug})
	}
	return results
}

const ledgerDelimiter = "---"

var headingPattern = regexp.MustCompile(`(?m)^##\s*\[(.*)\]\s*$`)

// fieldPatterns match "**Label:** value" lines.
var fieldPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp)
	for _, label := range []string{"ID", "Category", "Error", "Solution", "Status", "Priority", "Timestamp"} {
		m[label] = regexp.MustCompile(`(?m)^\*\*` + label + `:\*\*[ \t]*(.*)$`)
	}
	return m
}()

func field(section, label string) string {
	m := fieldPatterns[label].FindStringSubmatch(section)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ParseLedger parses the contents of bugs.md. Each "---" delimited section
// becomes a LedgerRecord. Missing fields fall back to defaults: category
// General, status Open, empty error and solution. A missing ID is left empty
// for the caller to fill in.
func ParseLedger(data []byte) []Result {
	var results []Result
	sections := strings.Split(string(data), ledgerDelimiter)
	index := 0
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if !strings.Contains(section, "**") && !headingPattern.MatchString(section) {
			// Not a record, e.g. a title block at the top of the file.
			continue
		}

		bug := &bugstorage.Bug{
			ID:       field(section, "ID"),
			Category: field(section, "Category"),
			Error:    field(section, "Error"),
			Solution: field(section, "Solution"),
			Status:   bugstorage.Status(field(section, "Status")),
			Priority: bugstorage.Priority(field(section, "Priority")),
		}
		if m := headingPattern.FindStringSubmatch(section); m != nil {
			bug.Timestamp = strings.TrimSpace(m[1])
		} else {
			bug.Timestamp = field(section, "Timestamp")
		}
		if bug.Category == "" {
			bug.Category = bugstorage.DefaultTag
		}
		bugstorage.Normalize(bug)

		results = append(results, LedgerRecord{Index: index, Bug: bug})
		index++
	}
	return results
}

// ParseTagList parses tags.md: one tag per line, blank lines ignored,
// duplicates removed in first-seen order.
func ParseTagList(data []byte) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		tag := strings.TrimSpace(line)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
