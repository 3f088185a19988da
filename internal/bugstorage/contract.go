package bugstorage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// RunContractTests runs the BugStore contract suite against an
// implementation. The factory must return an empty store each time.
func RunContractTests(t *testing.T, factory func() BugStore) {
	t.Run("Create", func(t *testing.T) { testCreate(t, factory()) })
	t.Run("CreateWithID", func(t *testing.T) { testCreateWithID(t, factory()) })
	t.Run("Get", func(t *testing.T) { testGet(t, factory()) })
	t.Run("Save", func(t *testing.T) { testSave(t, factory()) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory()) })
	t.Run("List", func(t *testing.T) { testList(t, factory()) })
	t.Run("AddComment", func(t *testing.T) { testAddComment(t, factory()) })
}

func testCreate(t *testing.T, s BugStore) {
	ctx := context.Background()

	bug, err := s.Create(ctx, &Bug{
		Category: "UI",
		Error:    "Button misaligned",
		Solution: "Fixed flexbox",
		Priority: PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := ValidateID(bug.ID); err != nil {
		t.Errorf("Create assigned invalid ID %q", bug.ID)
	}
	if bug.ID != strings.ToUpper(bug.ID) {
		t.Errorf("generated ID %q should be upper case", bug.ID)
	}
	if bug.Timestamp == "" {
		t.Error("Create should set a timestamp")
	}
	if bug.Status != StatusOpen {
		t.Errorf("Status = %q, want %q", bug.Status, StatusOpen)
	}

	got, err := s.Get(ctx, bug.ID)
	if err != nil {
		t.Fatalf("Get after Create failed: %v", err)
	}
	if got.Error != "Button misaligned" || got.Solution != "Fixed flexbox" {
		t.Errorf("stored record mismatch: %+v", got)
	}
	if got.Priority != PriorityHigh {
		t.Errorf("Priority = %q, want %q", got.Priority, PriorityHigh)
	}
}

func testCreateWithID(t *testing.T, s BugStore) {
	ctx := context.Background()

	if _, err := s.Create(ctx, &Bug{ID: "abc123", Error: "first"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create(ctx, &Bug{ID: "ABC123", Error: "second"}); !errors.Is(err, ErrExists) {
		t.Errorf("Create with taken ID: got %v, want ErrExists", err)
	}
	if _, err := s.Create(ctx, &Bug{ID: "not-hex"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Create with invalid ID: got %v, want ErrInvalidID", err)
	}

	got, err := s.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Error != "first" {
		t.Errorf("Error = %q, want first", got.Error)
	}
}

func testGet(t *testing.T, s BugStore) {
	ctx := context.Background()

	created, err := s.Create(ctx, &Bug{Error: "lookup me"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.Get(ctx, strings.ToLower(created.ID))
	if err != nil {
		t.Fatalf("Get with lower-case ID failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}

	if _, err := s.Get(ctx, "FFFFFFF0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}
	for _, bad := range []string{"", "XYZ", "123456789", "../etc"} {
		if _, err := s.Get(ctx, bad); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Get(%q): got %v, want ErrInvalidID", bad, err)
		}
	}
}

func testSave(t *testing.T, s BugStore) {
	ctx := context.Background()

	bug, err := s.Create(ctx, &Bug{Error: "before"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	bug.Solution = "after"
	bug.Status = bug.Status.Toggled()
	bug.DueDate = "2030-01-31"
	if err := s.Save(ctx, bug); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get(ctx, bug.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Solution != "after" || got.Status != StatusResolved || got.DueDate != "2030-01-31" {
		t.Errorf("Save did not persist changes: %+v", got)
	}
	if got.Timestamp != bug.Timestamp {
		t.Errorf("Timestamp changed from %q to %q", bug.Timestamp, got.Timestamp)
	}

	if err := s.Save(ctx, &Bug{ID: "zz"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Save with invalid ID: got %v, want ErrInvalidID", err)
	}
}

func testDelete(t *testing.T, s BugStore) {
	ctx := context.Background()

	bug, err := s.Create(ctx, &Bug{Error: "doomed"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Delete(ctx, bug.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, bug.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: got %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, bug.ID); err != nil {
		t.Errorf("Delete of missing record should be a no-op, got %v", err)
	}
}

func testList(t *testing.T, s BugStore) {
	ctx := context.Background()

	bugs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List on empty store failed: %v", err)
	}
	if len(bugs) != 0 {
		t.Errorf("List on empty store returned %d records", len(bugs))
	}

	ids := make(map[string]bool)
	for _, text := range []string{"one", "two", "three"} {
		bug, err := s.Create(ctx, &Bug{Error: text})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids[bug.ID] = true
	}

	bugs, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bugs) != 3 {
		t.Fatalf("List returned %d records, want 3", len(bugs))
	}
	for _, b := range bugs {
		if !ids[b.ID] {
			t.Errorf("unexpected record %q", b.ID)
		}
	}
}

func testAddComment(t *testing.T, s BugStore) {
	ctx := context.Background()

	bug, err := s.Create(ctx, &Bug{Error: "needs discussion"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	c, err := s.AddComment(ctx, bug.ID, "  first look\x07  ")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if c.Text != "first look" {
		t.Errorf("Text = %q, want sanitised %q", c.Text, "first look")
	}
	if c.Timestamp == "" {
		t.Error("comment should be timestamped")
	}
	if _, err := s.AddComment(ctx, bug.ID, "second look"); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	got, err := s.Get(ctx, bug.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Comments) != 2 || got.Comments[1].Text != "second look" {
		t.Errorf("comments not appended in order: %+v", got.Comments)
	}

	if _, err := s.AddComment(ctx, bug.ID, " \t "); !errors.Is(err, ErrEmptyComment) {
		t.Errorf("blank comment: got %v, want ErrEmptyComment", err)
	}
	if _, err := s.AddComment(ctx, bug.ID, strings.Repeat("x", MaxInputLength+1)); !errors.Is(err, ErrInputTooLong) {
		t.Errorf("long comment: got %v, want ErrInputTooLong", err)
	}
	if _, err := s.AddComment(ctx, "ABCDEF99", "hello"); !errors.Is(err, ErrNotFound) {
		t.Errorf("comment on missing bug: got %v, want ErrNotFound", err)
	}
}
