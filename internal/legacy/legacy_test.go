package legacy

import (
	"testing"

	"bugbook/internal/bugstorage"

	"github.com/google/go-cmp/cmp"
)

const sampleLedger = `# Bug Log

---

## [1/2/2024, 10:00:00 AM]
**ID:** K3J9X2
**Category:** Backend
**Error:** connection refused
**Solution:** start the database
---

## [1/3/2024, 11:30:00 AM]
**ID:** A1B2C3
**Category:** Frontend
**Error:** blank page
**Solution:** clear cache
**Status:** Resolved
---

## [1/4/2024, 9:00:00 AM]
**Error:** only an error here
---
`

func TestParseLedger(t *testing.T) {
	results := ParseLedger([]byte(sampleLedger))
	var bugs []*bugstorage.Bug
	for _, r := range results {
		rec, ok := r.(LedgerRecord)
		if !ok {
			t.Fatalf("unexpected result %T", r)
		}
		bugs = append(bugs, rec.Bug)
	}

	want := []*bugstorage.Bug{
		{ID: "K3J9X2", Timestamp: "1/2/2024, 10:00:00 AM", Category: "Backend", Error: "connection refused", Solution: "start the database", Status: bugstorage.StatusOpen},
		{ID: "A1B2C3", Timestamp: "1/3/2024, 11:30:00 AM", Category: "Frontend", Error: "blank page", Solution: "clear cache", Status: bugstorage.StatusResolved},
		{ID: "", Timestamp: "1/4/2024, 9:00:00 AM", Category: "General", Error: "only an error here", Solution: "", Status: bugstorage.StatusOpen},
	}
	if diff := cmp.Diff(want, bugs); diff != "" {
		t.Errorf("ParseLedger mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLedgerEmpty(t *testing.T) {
	if got := ParseLedger([]byte("\n---\n\n---\n")); len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestParseArray(t *testing.T) {
	data := []byte(`[
		{"id":"abc123","timestamp":"2024-01-01","category":"UI","error":"e1","solution":"s1","status":"Open"},
		{"id":"def456","error":"e2","status":"Weird"},
		"not an object"
	]`)
	results := ParseArray(data)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	first, ok := results[0].(ArrayRecord)
	if !ok {
		t.Fatalf("results[0] = %T, want ArrayRecord", results[0])
	}
	if first.Bug.ID != "abc123" || first.Bug.Category != "UI" {
		t.Errorf("unexpected first record: %+v", first.Bug)
	}

	second := results[1].(ArrayRecord)
	if second.Bug.Status != bugstorage.StatusOpen {
		t.Errorf("unknown status should normalise to Open, got %q", second.Bug.Status)
	}
	if second.Bug.Category != bugstorage.DefaultTag {
		t.Errorf("missing category should default to %q, got %q", bugstorage.DefaultTag, second.Bug.Category)
	}

	failure, ok := results[2].(ParseFailure)
	if !ok {
		t.Fatalf("results[2] = %T, want ParseFailure", results[2])
	}
	if failure.Index != 2 {
		t.Errorf("failure index = %d, want 2", failure.Index)
	}
}

func TestParseArrayInvalidDocument(t *testing.T) {
	results := ParseArray([]byte(`{"not":"an array"}`))
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	failure, ok := results[0].(ParseFailure)
	if !ok {
		t.Fatalf("got %T, want ParseFailure", results[0])
	}
	if failure.Index != -1 {
		t.Errorf("whole-document failure index = %d, want -1", failure.Index)
	}
	if failure.Error() == "" {
		t.Error("ParseFailure.Error should describe the failure")
	}
}

func TestParseTagList(t *testing.T) {
	got := ParseTagList([]byte("General\n\nBackend \n  Frontend\nBackend\n"))
	want := []string{"General", "Backend", "Frontend"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseTagList mismatch (-want +got):\n%s", diff)
	}
}
