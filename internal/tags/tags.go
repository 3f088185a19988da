// Package tags implements the tag registry: an insertion-ordered,
// deduplicated list of category names persisted as tags.json. Tags are
// append-only; there is no rename or delete.
package tags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bugbook/internal/bugstorage"
)

// Reasons reported by Add when a tag is not added.
const (
	ReasonEmpty  = "tag name is empty after removing invalid characters"
	ReasonExists = "tag already exists"
)

// AddResult describes the outcome of Add.
type AddResult struct {
	Added  bool
	Name   string // sanitised name
	Reason string // set when Added is false
}

// Registry reads and writes the tag registry under a storage root.
type Registry struct {
	path string
}

// New returns a registry stored at <root>/tags.json.
func New(root string) *Registry {
	return &Registry{path: filepath.Join(root, bugstorage.TagsFile)}
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return r.path
}

// List returns the persisted tags, or the default tag when the registry
// does not exist yet or is empty.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{bugstorage.DefaultTag}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading tag registry: %w", err)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing tag registry: %w", err)
	}
	list = dedupe(list)
	if len(list) == 0 {
		return []string{bugstorage.DefaultTag}, nil
	}
	return list, nil
}

// Add sanitises name and appends it to the registry unless it is empty or
// already present (exact, case-sensitive match).
func (r *Registry) Add(ctx context.Context, name string) (AddResult, error) {
	clean := Sanitize(name)
	if clean == "" {
		return AddResult{Reason: ReasonEmpty}, nil
	}

	current, err := r.List(ctx)
	if err != nil {
		return AddResult{}, err
	}
	for _, tag := range current {
		if tag == clean {
			return AddResult{Name: clean, Reason: ReasonExists}, nil
		}
	}

	data, err := Encode(append(current, clean))
	if err != nil {
		return AddResult{}, err
	}
	if err := bugstorage.WriteFile(r.path, data); err != nil {
		return AddResult{}, fmt.Errorf("saving tag registry: %w", err)
	}
	return AddResult{Added: true, Name: clean}, nil
}

// Contains reports whether name is registered.
func (r *Registry) Contains(ctx context.Context, name string) (bool, error) {
	list, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	for _, tag := range list {
		if tag == name {
			return true, nil
		}
	}
	return false, nil
}

// Sanitize keeps ASCII letters, digits, spaces, hyphens and underscores,
// then trims surrounding spaces.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Encode renders a tag list in the registry file format.
func Encode(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}
	return append(data, '\n'), nil
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, tag := range list {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// Usage is a tag with the number of bugs filed under it.
type Usage struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Counts pairs every registered tag with its bug count, in registry order.
// Categories used by bugs but missing from the registry are appended after,
// sorted by name.
func Counts(registered []string, bugs []*bugstorage.Bug) []Usage {
	counts := make(map[string]int)
	for _, b := range bugs {
		counts[b.Category]++
	}

	out := make([]Usage, 0, len(registered))
	known := make(map[string]bool, len(registered))
	for _, tag := range registered {
		known[tag] = true
		out = append(out, Usage{Tag: tag, Count: counts[tag]})
	}

	var extra []string
	for tag := range counts {
		if !known[tag] && tag != "" {
			extra = append(extra, tag)
		}
	}
	sort.Strings(extra)
	for _, tag := range extra {
		out = append(out, Usage{Tag: tag, Count: counts[tag]})
	}
	return out
}
