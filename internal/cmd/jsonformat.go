package cmd

import (
	"encoding/json"
	"time"

	"bugbook/internal/bugstorage"
	"bugbook/internal/query"
)

// BugJSON is the JSON shape of a bug in command output: the stored record
// plus derived fields.
type BugJSON struct {
	*bugstorage.Bug
	Overdue bool `json:"overdue,omitempty"`
}

// ToBugJSON decorates b with fields computed at time now.
func ToBugJSON(b *bugstorage.Bug, now time.Time) BugJSON {
	return BugJSON{Bug: b, Overdue: query.IsOverdue(b, now)}
}

// ToBugListJSON converts a list of bugs, never returning nil so the output is
// [] rather than null.
func ToBugListJSON(bugs []*bugstorage.Bug, now time.Time) []BugJSON {
	out := make([]BugJSON, 0, len(bugs))
	for _, b := range bugs {
		out = append(out, ToBugJSON(b, now))
	}
	return out
}

// writeJSON encodes v to the App's stdout.
func (a *App) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
