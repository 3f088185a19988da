package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"bugbook/internal/bugstorage"
	"bugbook/internal/query"

	"github.com/google/go-cmp/cmp"
)

func TestStatsEmpty(t *testing.T) {
	app, _ := setupTestApp(t)

	out, err := runCmd(t, app, newStatsCmd(NewTestProvider(app)))
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "No bugs recorded yet.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestStats(t *testing.T) {
	app, store := setupTestApp(t)
	createBug(t, store, &bugstorage.Bug{ID: "57A70001", Error: "a", Category: "UI", Priority: bugstorage.PriorityHigh, DueDate: "2026-01-01"})
	createBug(t, store, &bugstorage.Bug{ID: "57A70002", Error: "b", Category: "UI", Status: bugstorage.StatusResolved})
	createBug(t, store, &bugstorage.Bug{ID: "57A70003", Error: "c", Category: "API"})

	out, err := runCmd(t, app, newStatsCmd(NewTestProvider(app)))
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"Total Bugs:     3", "Open:           2", "Resolved:       1", "Overdue:", "UI: 2", "API: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	app.JSON = true
	out, err = runCmd(t, app, newStatsCmd(NewTestProvider(app)))
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var got query.Stats
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	want := query.Stats{
		Total:    3,
		Open:     2,
		Resolved: 1,
		Overdue:  1,
		High:     1,
		Categories: []query.CategoryCount{
			{Category: "UI", Count: 2},
			{Category: "API", Count: 1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}
