// Package bugstorage defines the bug record and the interface for its
// persistence. The filesystem engine in the filesystem subpackage implements it.
package bugstorage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bugbook/internal/idgen"
)

// Sentinel errors returned by BugStore implementations.
var (
	ErrNotFound     = errors.New("bug not found")
	ErrInvalidID    = errors.New("invalid bug ID format")
	ErrEmptyComment = errors.New("comment cannot be empty")
	ErrInputTooLong = errors.New("input too long")
	ErrInvalidDate  = errors.New("invalid due date")
	ErrExists       = errors.New("bug already exists")
)

// On-disk layout, relative to the storage root.
const (
	DirBugs        = "bugs"
	TagsFile       = "tags.json"
	LegacyArray    = "bugs.json"
	LegacyLedger   = "bugs.md"
	LegacyTagList  = "tags.md"
	BackupSuffix   = ".bak"
	FilePrefix     = "BUG-"
	FileExt        = ".json"
	FileMode       = 0o600
	DirMode        = 0o700
	DefaultTag     = "General"
	MaxInputLength = 2000
)

// FileName returns the record file name for id. The mapping is a pure
// function of the upper-cased id.
func FileName(id string) string {
	return FilePrefix + idgen.Normalize(id) + FileExt
}

// ValidateID returns an error wrapping ErrInvalidID when id is not 1-8 hex
// characters.
func ValidateID(id string) error {
	if err := idgen.Validate(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Status is the resolution state of a bug.
type Status string

const (
	StatusOpen     Status = "Open"
	StatusResolved Status = "Resolved"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusResolved
}

// Toggled returns the opposite status: Open becomes Resolved, anything else
// becomes Open.
func (s Status) Toggled() Status {
	if s == StatusOpen {
		return StatusResolved
	}
	return StatusOpen
}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return StatusOpen, true
	case "resolved":
		return StatusResolved, true
	}
	return "", false
}

// Priority is the optional urgency of a bug. The zero value means unset.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the three priorities. Unset is not valid.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Rank orders priorities for sorting: High=3, Medium=2, Low=1, unset=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	}
	return "", false
}

// Comment is an append-only note on a bug.
type Comment struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author,omitempty"`
}

// Bug is one tracked issue entry, persisted as a single file.
type Bug struct {
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Category  string    `json:"category"`
	Error     string    `json:"error"`
	Solution  string    `json:"solution"`
	Status    Status    `json:"status"`
	Priority  Priority  `json:"priority,omitempty"`
	Files     []string  `json:"files,omitempty"`
	DueDate   string    `json:"dueDate,omitempty"`
	Comments  []Comment `json:"comments,omitempty"`
	Author    string    `json:"author,omitempty"`

	// External sync fields. Stored and returned verbatim, never interpreted.
	GitHubIssueNumber *int   `json:"github_issue_number,omitempty"`
	GitHubIssueURL    string `json:"github_issue_url,omitempty"`
	GitHubIssueClosed *bool  `json:"github_issue_closed,omitempty"`
	LastSynced        string `json:"last_synced,omitempty"`
}

// CreatedAt parses the creation timestamp. Unparseable values yield the zero time.
func (b *Bug) CreatedAt() time.Time {
	return ParseTimestamp(b.Timestamp)
}

// TimestampLayout is the ISO-8601 form used for new timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// timestampLayouts are tried in order by ParseTimestamp. The last two cover
// records written by the ledger format, which stored locale strings.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006, 3:04:05 PM",
	"2/1/2006, 15:04:05",
}

// ParseTimestamp parses s with the known layouts, returning the zero time if
// none match. Layouts without a zone are read as local time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// UserConfig supplies the optional author name stamped on new records and
// comments.
type UserConfig interface {
	Author() string
}

// BugStore defines the interface for bug persistence.
//
// Mutation is whole-record read-modify-write: callers Get a bug, change it,
// and Save it back. There is no locking, so concurrent writers are
// last-write-wins.
type BugStore interface {
	// List returns every readable record. Corrupt files are skipped.
	List(ctx context.Context) ([]*Bug, error)

	// Get returns the bug with the given ID (case-insensitive).
	// Returns ErrInvalidID or ErrNotFound.
	Get(ctx context.Context, id string) (*Bug, error)

	// Save overwrites the record at the ID-derived path.
	Save(ctx context.Context, bug *Bug) error

	// Create fills in ID, timestamp, status and author when unset, then saves.
	Create(ctx context.Context, bug *Bug) (*Bug, error)

	// Delete removes the record. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// AddComment appends a comment to the bug and persists it.
	AddComment(ctx context.Context, id, text string) (Comment, error)
}
