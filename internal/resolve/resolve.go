// Package resolve toggles bugs between Open and Resolved, one at a time or
// in bulk.
//
// A bulk run selects first and mutates second. Every requested ID is
// format-checked before anything is loaded, so a malformed ID aborts the
// whole run. After that each record is handled on its own: a missing ID, a
// failed sync or a failed save affects only that record.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"bugbook/internal/bugstorage"
	"bugbook/internal/idgen"
)

var (
	// ErrNoSelection is returned when a request names no IDs, no tag and no
	// recognised status.
	ErrNoSelection = errors.New("no bugs selected: give IDs, a tag or a status")

	// ErrConfirmationRequired is returned when more than one bug is selected,
	// confirmation was not waived and the Engine has no Confirm func.
	ErrConfirmationRequired = errors.New("confirmation required to update more than one bug")
)

// Request describes which bugs to toggle.
type Request struct {
	IDs       []string
	AllTagged string // category, case-insensitive
	AllStatus string // Open or Resolved; other values are ignored
	NoConfirm bool
}

// SyncHook mirrors a status change to an external tracker. It may update the
// bug's sync fields, which are saved along with the new status.
type SyncHook interface {
	OnResolve(ctx context.Context, bug *bugstorage.Bug) error
	OnReopen(ctx context.Context, bug *bugstorage.Bug) error
}

// ConfirmFunc asks whether to go ahead with the selected bugs.
type ConfirmFunc func(candidates []*bugstorage.Bug) (bool, error)

// Outcome is the result of toggling one bug.
type Outcome struct {
	ID      string
	From    bugstorage.Status
	To      bugstorage.Status
	Err     error // save failed; the stored record is unchanged
	HookErr error // sync failed; the new status was still saved
}

// OK reports whether the new status was saved.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report summarises a bulk run.
type Report struct {
	Candidates []*bugstorage.Bug
	NotFound   []string
	Cancelled  bool
	Outcomes   []Outcome
}

// Succeeded returns the number of bugs whose new status was saved.
func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of bugs that could not be saved.
func (r Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Engine runs resolve requests against a store.
type Engine struct {
	Store   bugstorage.BugStore
	Hook    SyncHook    // optional
	Confirm ConfirmFunc // consulted for more than one candidate
	Logger  *slog.Logger
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// Run selects the bugs named by req and toggles each of them.
func (e *Engine) Run(ctx context.Context, req Request) (Report, error) {
	var report Report

	candidates, notFound, err := e.Select(ctx, req)
	if err != nil {
		return report, err
	}
	report.Candidates = candidates
	report.NotFound = notFound
	if len(candidates) == 0 {
		return report, nil
	}

	if len(candidates) > 1 && !req.NoConfirm {
		if e.Confirm == nil {
			return report, ErrConfirmationRequired
		}
		ok, err := e.Confirm(candidates)
		if err != nil {
			return report, fmt.Errorf("confirming: %w", err)
		}
		if !ok {
			report.Cancelled = true
			return report, nil
		}
	}

	for _, bug := range candidates {
		report.Outcomes = append(report.Outcomes, e.Toggle(ctx, bug))
	}
	return report, nil
}

// Select resolves req to a list of bugs without changing anything. IDs that
// are well-formed but unknown are returned in notFound.
func (e *Engine) Select(ctx context.Context, req Request) (candidates []*bugstorage.Bug, notFound []string, err error) {
	var invalid []string
	for _, id := range req.IDs {
		if !idgen.Valid(id) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", bugstorage.ErrInvalidID, strings.Join(invalid, ", "))
	}

	status, hasStatus := bugstorage.ParseStatus(req.AllStatus)
	tag := strings.TrimSpace(req.AllTagged)
	if len(req.IDs) == 0 && tag == "" && !hasStatus {
		return nil, nil, ErrNoSelection
	}

	all, err := e.Store.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading bugs: %w", err)
	}
	byID := make(map[string]*bugstorage.Bug, len(all))
	for _, b := range all {
		byID[idgen.Normalize(b.ID)] = b
	}

	seen := make(map[string]bool)
	add := func(b *bugstorage.Bug) {
		key := idgen.Normalize(b.ID)
		if !seen[key] {
			seen[key] = true
			candidates = append(candidates, b)
		}
	}

	for _, id := range req.IDs {
		b, ok := byID[idgen.Normalize(id)]
		if !ok {
			e.logger().Debug("bug not found", "id", id)
			notFound = append(notFound, id)
			continue
		}
		add(b)
	}
	if tag != "" {
		for _, b := range all {
			if strings.EqualFold(b.Category, tag) {
				add(b)
			}
		}
	}

	if hasStatus {
		pool := candidates
		if len(req.IDs) == 0 && tag == "" {
			pool = all
		}
		candidates = nil
		for _, b := range pool {
			if b.Status == status {
				candidates = append(candidates, b)
			}
		}
	}
	return candidates, notFound, nil
}

// Toggle flips one bug's status, runs the sync hook and saves the bug. A
// hook failure is recorded and does not stop the save. If the save fails the
// in-memory status is restored.
func (e *Engine) Toggle(ctx context.Context, bug *bugstorage.Bug) Outcome {
	out := Outcome{ID: bug.ID, From: bug.Status, To: bug.Status.Toggled()}
	bug.Status = out.To

	if e.Hook != nil {
		if out.To == bugstorage.StatusResolved {
			out.HookErr = e.Hook.OnResolve(ctx, bug)
		} else {
			out.HookErr = e.Hook.OnReopen(ctx, bug)
		}
		if out.HookErr != nil {
			e.logger().Warn("sync failed; saving local status anyway", "id", bug.ID, "error", out.HookErr)
		}
	}

	if err := e.Store.Save(ctx, bug); err != nil {
		bug.Status = out.From
		out.Err = err
		e.logger().Error("saving bug failed", "id", bug.ID, "error", err)
	}
	return out
}
