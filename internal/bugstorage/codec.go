package bugstorage

import (
	"encoding/json"
	"fmt"
)

// Encode serialises a bug as indented JSON followed by a newline.
func Encode(bug *Bug) ([]byte, error) {
	data, err := json.MarshalIndent(bug, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding bug %s: %w", bug.ID, err)
	}
	return append(data, '\n'), nil
}

// Decode parses a bug record. Unknown fields are ignored and missing optional
// fields stay zero, so files written by older versions still load. An
// unrecognised status becomes Open; an unrecognised priority becomes unset.
func Decode(data []byte) (*Bug, error) {
	var bug Bug
	if err := json.Unmarshal(data, &bug); err != nil {
		return nil, err
	}
	Normalize(&bug)
	return &bug, nil
}

// Normalize coerces enum fields of a decoded bug into their valid ranges.
func Normalize(bug *Bug) {
	if s, ok := ParseStatus(string(bug.Status)); ok {
		bug.Status = s
	} else {
		bug.Status = StatusOpen
	}
	if bug.Priority != "" {
		if p, ok := ParsePriority(string(bug.Priority)); ok {
			bug.Priority = p
		} else {
			bug.Priority = ""
		}
	}
}
