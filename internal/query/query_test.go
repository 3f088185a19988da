package query

import (
	"fmt"
	"testing"
	"time"

	"bugbook/internal/bugstorage"

	"github.com/google/go-cmp/cmp"
)

func ids(bugs []*bugstorage.Bug) []string {
	out := make([]string, len(bugs))
	for i, b := range bugs {
		out[i] = b.ID
	}
	return out
}

// dated returns n open bugs with IDs 01..n created one day apart, oldest
// first.
func dated(n int) []*bugstorage.Bug {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var bugs []*bugstorage.Bug
	for i := 1; i <= n; i++ {
		bugs = append(bugs, &bugstorage.Bug{
			ID:        fmt.Sprintf("%02X", i),
			Timestamp: bugstorage.FormatTimestamp(base.AddDate(0, 0, i)),
			Status:    bugstorage.StatusOpen,
			Category:  bugstorage.DefaultTag,
		})
	}
	return bugs
}

func TestFilterComposition(t *testing.T) {
	bugs := []*bugstorage.Bug{
		{ID: "A1", Status: bugstorage.StatusOpen, Priority: bugstorage.PriorityHigh},
		{ID: "A2", Status: bugstorage.StatusOpen, Priority: bugstorage.PriorityLow},
		{ID: "A3", Status: bugstorage.StatusResolved, Priority: bugstorage.PriorityHigh},
	}

	got := Apply(bugs, Options{Status: "Open", Priority: "High"})
	if diff := cmp.Diff([]string{"A1"}, ids(got)); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
}

func TestFilters(t *testing.T) {
	bugs := []*bugstorage.Bug{
		{ID: "B1", Status: bugstorage.StatusOpen, Category: "Frontend", Author: "Ada Lovelace"},
		{ID: "B2", Status: bugstorage.StatusResolved, Category: "frontend", Author: "Grace Hopper"},
		{ID: "B3", Status: bugstorage.StatusOpen, Category: "Backend", Author: "ada"},
		{ID: "B4", Status: bugstorage.StatusOpen, Category: "Backend"},
	}

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"tag is case-insensitive", Options{Tagged: "FRONTEND", Sort: SortID, Order: OrderAsc}, []string{"B1", "B2"}},
		{"author substring", Options{Author: "ADA", Sort: SortID, Order: OrderAsc}, []string{"B1", "B3"}},
		{"status", Options{Status: "resolved"}, []string{"B2"}},
		{"tag and author", Options{Tagged: "backend", Author: "ada"}, []string{"B3"}},
		{"tag matches whole name only", Options{Tagged: "Front"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(bugs, tt.opts)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnknownFilterValuesAreIgnored(t *testing.T) {
	bugs := dated(3)
	bugs[0].Priority = bugstorage.PriorityLow

	opts := Options{Priority: "Urgent", Status: "Closed", Limit: 10}
	if opts.Active() {
		t.Error("unrecognised values should not count as active filters")
	}
	if got := Apply(bugs, opts); len(got) != 3 {
		t.Errorf("Apply returned %d records, want 3", len(got))
	}
}

func TestDefaultWindow(t *testing.T) {
	bugs := dated(8)

	got := Apply(bugs, Options{})
	if diff := cmp.Diff([]string{"08", "07", "06", "05", "04"}, ids(got)); diff != "" {
		t.Errorf("default window mismatch (-want +got):\n%s", diff)
	}

	// The window is the most recent records, re-sorted by the requested key.
	got = Apply(bugs, Options{Sort: SortID, Order: OrderAsc})
	if diff := cmp.Diff([]string{"04", "05", "06", "07", "08"}, ids(got)); diff != "" {
		t.Errorf("sorted window mismatch (-want +got):\n%s", diff)
	}

	// An active filter shows every match.
	got = Apply(bugs, Options{Status: "Open"})
	if len(got) != 8 {
		t.Errorf("filtered Apply returned %d records, want 8", len(got))
	}

	// An explicit limit replaces the window.
	got = Apply(bugs, Options{Limit: 2})
	if diff := cmp.Diff([]string{"08", "07"}, ids(got)); diff != "" {
		t.Errorf("limited Apply mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	bugs := dated(3)
	Apply(bugs, Options{Sort: SortDate, Order: OrderDesc, Limit: 3})
	if diff := cmp.Diff([]string{"01", "02", "03"}, ids(bugs)); diff != "" {
		t.Errorf("input reordered (-want +got):\n%s", diff)
	}
}

func TestSortPriority(t *testing.T) {
	bugs := []*bugstorage.Bug{
		{ID: "C1", Priority: bugstorage.PriorityLow},
		{ID: "C2"},
		{ID: "C3", Priority: bugstorage.PriorityHigh},
		{ID: "C4", Priority: bugstorage.PriorityMedium},
		{ID: "C5", Priority: bugstorage.PriorityHigh},
	}

	Sort(bugs, SortPriority, "")
	if diff := cmp.Diff([]string{"C3", "C5", "C4", "C1", "C2"}, ids(bugs)); diff != "" {
		t.Errorf("descending mismatch (-want +got):\n%s", diff)
	}
	Sort(bugs, SortPriority, OrderAsc)
	if diff := cmp.Diff([]string{"C2", "C1", "C4", "C3", "C5"}, ids(bugs)); diff != "" {
		t.Errorf("ascending mismatch (-want +got):\n%s", diff)
	}
}

func TestSortDueDate(t *testing.T) {
	bugs := []*bugstorage.Bug{
		{ID: "D1"},
		{ID: "D2", DueDate: "2026-05-01"},
		{ID: "D3", DueDate: "2026-01-15"},
		{ID: "D4"},
		{ID: "D5", DueDate: "2026-03-01"},
	}

	// Ascending by default, missing dates last.
	Sort(bugs, SortDueDate, "")
	if diff := cmp.Diff([]string{"D3", "D5", "D2", "D1", "D4"}, ids(bugs)); diff != "" {
		t.Errorf("default mismatch (-want +got):\n%s", diff)
	}

	// Missing dates stay last when descending.
	Sort(bugs, SortDueDate, OrderDesc)
	if diff := cmp.Diff([]string{"D2", "D5", "D3", "D1", "D4"}, ids(bugs)); diff != "" {
		t.Errorf("descending mismatch (-want +got):\n%s", diff)
	}
}

func TestSortStatusAndID(t *testing.T) {
	bugs := []*bugstorage.Bug{
		{ID: "0B", Status: bugstorage.StatusOpen},
		{ID: "0A", Status: bugstorage.StatusResolved},
		{ID: "0C", Status: bugstorage.StatusOpen},
	}

	Sort(bugs, SortStatus, "")
	if diff := cmp.Diff([]string{"0A", "0B", "0C"}, ids(bugs)); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	Sort(bugs, SortID, OrderAsc)
	if diff := cmp.Diff([]string{"0A", "0B", "0C"}, ids(bugs)); diff != "" {
		t.Errorf("id mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSort(t *testing.T) {
	tests := []struct {
		key, order         string
		wantKey, wantOrder string
	}{
		{"", "", SortDate, OrderDesc},
		{"bogus", "", SortDate, OrderDesc},
		{SortDueDate, "", SortDueDate, OrderAsc},
		{SortDueDate, "sideways", SortDueDate, OrderAsc},
		{SortPriority, "ASC", SortPriority, OrderAsc},
		{SortID, OrderDesc, SortID, OrderDesc},
	}
	for _, tt := range tests {
		key, order := ResolveSort(tt.key, tt.order)
		if key != tt.wantKey || order != tt.wantOrder {
			t.Errorf("ResolveSort(%q, %q) = %q, %q; want %q, %q",
				tt.key, tt.order, key, order, tt.wantKey, tt.wantOrder)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		bug  bugstorage.Bug
		want bool
	}{
		{"past and open", bugstorage.Bug{DueDate: "2026-02-09", Status: bugstorage.StatusOpen}, true},
		{"past and resolved", bugstorage.Bug{DueDate: "2026-02-09", Status: bugstorage.StatusResolved}, false},
		{"due today", bugstorage.Bug{DueDate: "2026-02-10", Status: bugstorage.StatusOpen}, false},
		{"future", bugstorage.Bug{DueDate: "2026-03-01", Status: bugstorage.StatusOpen}, false},
		{"no due date", bugstorage.Bug{Status: bugstorage.StatusOpen}, false},
		{"unparseable", bugstorage.Bug{DueDate: "soon", Status: bugstorage.StatusOpen}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(&tt.bug, now); got != tt.want {
				t.Errorf("IsOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.Local)
	bugs := []*bugstorage.Bug{
		{ID: "E1", DueDate: "2026-01-01", Status: bugstorage.StatusOpen},
		{ID: "E2", DueDate: "2026-01-01", Status: bugstorage.StatusResolved},
		{ID: "E3", DueDate: "2026-02-01", Status: bugstorage.StatusOpen},
	}
	if diff := cmp.Diff([]string{"E1", "E3"}, ids(Overdue(bugs, now))); diff != "" {
		t.Errorf("Overdue mismatch (-want +got):\n%s", diff)
	}
}
