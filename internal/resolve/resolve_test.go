package resolve

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"bugbook/internal/bugstorage"
	"bugbook/internal/bugstorage/filesystem"

	"github.com/google/go-cmp/cmp"
)

// countingStore wraps a real store, counts saves and can fail them per ID.
type countingStore struct {
	bugstorage.BugStore
	saves  int
	failOn map[string]bool
}

func (s *countingStore) Save(ctx context.Context, bug *bugstorage.Bug) error {
	if s.failOn[bug.ID] {
		return errors.New("disk full")
	}
	s.saves++
	return s.BugStore.Save(ctx, bug)
}

type recordingHook struct {
	resolved []string
	reopened []string
	err      error
}

func (h *recordingHook) OnResolve(ctx context.Context, bug *bugstorage.Bug) error {
	h.resolved = append(h.resolved, bug.ID)
	if h.err != nil {
		return h.err
	}
	closed := true
	bug.GitHubIssueClosed = &closed
	return nil
}

func (h *recordingHook) OnReopen(ctx context.Context, bug *bugstorage.Bug) error {
	h.reopened = append(h.reopened, bug.ID)
	if h.err != nil {
		return h.err
	}
	closed := false
	bug.GitHubIssueClosed = &closed
	return nil
}

func setupEngine(t *testing.T, bugs ...*bugstorage.Bug) (*Engine, *countingStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fs := filesystem.New(t.TempDir(), filesystem.WithLogger(logger))
	ctx := context.Background()
	for _, b := range bugs {
		if _, err := fs.Create(ctx, b); err != nil {
			t.Fatalf("Create %s failed: %v", b.ID, err)
		}
	}
	store := &countingStore{BugStore: fs, failOn: map[string]bool{}}
	return &Engine{Store: store, Logger: logger}, store
}

func fixture() []*bugstorage.Bug {
	return []*bugstorage.Bug{
		{ID: "AAAA0001", Category: "Frontend", Status: bugstorage.StatusOpen, Error: "a"},
		{ID: "AAAA0002", Category: "frontend", Status: bugstorage.StatusResolved, Error: "b"},
		{ID: "AAAA0003", Category: "Backend", Status: bugstorage.StatusOpen, Error: "c"},
	}
}

func statusOf(t *testing.T, e *Engine, id string) bugstorage.Status {
	t.Helper()
	b, err := e.Store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get %s failed: %v", id, err)
	}
	return b.Status
}

func candidateIDs(bugs []*bugstorage.Bug) []string {
	var out []string
	for _, b := range bugs {
		out = append(out, b.ID)
	}
	return out
}

// sortedTail keeps the first n IDs in place and sorts the rest.
func sortedTail(ids []string, n int) []string {
	out := append([]string(nil), ids...)
	if n > len(out) {
		n = len(out)
	}
	sort.Strings(out[n:])
	return out
}

func TestMalformedIDAbortsBeforeAnyChange(t *testing.T) {
	e, store := setupEngine(t, fixture()...)

	_, err := e.Run(context.Background(), Request{
		IDs:       []string{"AAAA0001", "not-hex!", "AAAA0003"},
		NoConfirm: true,
	})
	if !errors.Is(err, bugstorage.ErrInvalidID) {
		t.Fatalf("got %v, want ErrInvalidID", err)
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
	if got := statusOf(t, e, "AAAA0001"); got != bugstorage.StatusOpen {
		t.Errorf("AAAA0001 status = %q, want unchanged", got)
	}
}

func TestMissingIDStillTogglesTheRest(t *testing.T) {
	e, _ := setupEngine(t, fixture()...)

	report, err := e.Run(context.Background(), Request{
		IDs:       []string{"aaaa0001", "BEEF", "AAAA0002"},
		NoConfirm: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if diff := cmp.Diff([]string{"BEEF"}, report.NotFound); diff != "" {
		t.Errorf("NotFound mismatch (-want +got):\n%s", diff)
	}
	if report.Succeeded() != 2 || report.Failed() != 0 {
		t.Errorf("succeeded/failed = %d/%d, want 2/0", report.Succeeded(), report.Failed())
	}
	if got := statusOf(t, e, "AAAA0001"); got != bugstorage.StatusResolved {
		t.Errorf("AAAA0001 = %q, want Resolved", got)
	}
	if got := statusOf(t, e, "AAAA0002"); got != bugstorage.StatusOpen {
		t.Errorf("AAAA0002 = %q, want Open", got)
	}
}

func TestMissingIDLeftToCaller(t *testing.T) {
	e, _ := setupEngine(t, fixture()...)
	var logs bytes.Buffer
	e.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	report, err := e.Run(context.Background(), Request{IDs: []string{"BEEF"}, NoConfirm: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if diff := cmp.Diff([]string{"BEEF"}, report.NotFound); diff != "" {
		t.Errorf("NotFound mismatch (-want +got):\n%s", diff)
	}
	if logs.Len() != 0 {
		t.Errorf("unknown ID should only be reported, got log output %q", logs.String())
	}
}

func TestNoSelection(t *testing.T) {
	e, _ := setupEngine(t, fixture()...)

	_, err := e.Run(context.Background(), Request{AllStatus: "Closed"})
	if !errors.Is(err, ErrNoSelection) {
		t.Errorf("got %v, want ErrNoSelection", err)
	}
}

func TestSelect(t *testing.T) {
	e, _ := setupEngine(t, fixture()...)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{"tag is case-insensitive", Request{AllTagged: "FRONTEND"}, []string{"AAAA0001", "AAAA0002"}},
		{"ids merged with tag without duplicates", Request{IDs: []string{"AAAA0003", "aaaa0001"}, AllTagged: "frontend"}, []string{"AAAA0003", "AAAA0001", "AAAA0002"}},
		{"repeated ids collapse", Request{IDs: []string{"AAAA0003", "aaaa0003"}}, []string{"AAAA0003"}},
		{"status narrows tag", Request{AllTagged: "frontend", AllStatus: "Open"}, []string{"AAAA0001"}},
		{"status narrows ids", Request{IDs: []string{"AAAA0002", "AAAA0003"}, AllStatus: "Resolved"}, []string{"AAAA0002"}},
		{"status alone selects from all", Request{AllStatus: "open"}, []string{"AAAA0001", "AAAA0003"}},
		{"invalid status ignored", Request{AllTagged: "backend", AllStatus: "Closed"}, []string{"AAAA0003"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := e.Select(ctx, tt.req)
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			// Listing order is not guaranteed, so only explicit IDs are
			// compared positionally.
			n := len(tt.req.IDs)
			if diff := cmp.Diff(sortedTail(tt.want, n), sortedTail(candidateIDs(got), n)); diff != "" {
				t.Errorf("Select mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfirmationGate(t *testing.T) {
	ctx := context.Background()
	req := Request{AllTagged: "frontend"}

	t.Run("no confirm func", func(t *testing.T) {
		e, store := setupEngine(t, fixture()...)
		if _, err := e.Run(ctx, req); !errors.Is(err, ErrConfirmationRequired) {
			t.Errorf("got %v, want ErrConfirmationRequired", err)
		}
		if store.saves != 0 {
			t.Errorf("saves = %d, want 0", store.saves)
		}
	})

	t.Run("declined", func(t *testing.T) {
		e, store := setupEngine(t, fixture()...)
		var shown int
		e.Confirm = func(c []*bugstorage.Bug) (bool, error) {
			shown = len(c)
			return false, nil
		}
		report, err := e.Run(ctx, req)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !report.Cancelled || shown != 2 || store.saves != 0 {
			t.Errorf("cancelled=%v shown=%d saves=%d", report.Cancelled, shown, store.saves)
		}
	})

	t.Run("accepted", func(t *testing.T) {
		e, _ := setupEngine(t, fixture()...)
		e.Confirm = func([]*bugstorage.Bug) (bool, error) { return true, nil }
		report, err := e.Run(ctx, req)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if report.Succeeded() != 2 {
			t.Errorf("Succeeded = %d, want 2", report.Succeeded())
		}
	})

	t.Run("single candidate needs no confirmation", func(t *testing.T) {
		e, _ := setupEngine(t, fixture()...)
		report, err := e.Run(ctx, Request{IDs: []string{"AAAA0003"}})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if report.Succeeded() != 1 {
			t.Errorf("Succeeded = %d, want 1", report.Succeeded())
		}
	})
}

func TestHookFailureStillSaves(t *testing.T) {
	e, _ := setupEngine(t, fixture()...)
	hook := &recordingHook{err: errors.New("github unavailable")}
	e.Hook = hook

	report, err := e.Run(context.Background(), Request{IDs: []string{"AAAA0001", "AAAA0002"}, NoConfirm: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Succeeded() != 2 {
		t.Errorf("Succeeded = %d, want 2", report.Succeeded())
	}
	for _, o := range report.Outcomes {
		if o.HookErr == nil {
			t.Errorf("outcome %s should record the hook error", o.ID)
		}
	}
	if diff := cmp.Diff([]string{"AAAA0001"}, hook.resolved); diff != "" {
		t.Errorf("OnResolve calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AAAA0002"}, hook.reopened); diff != "" {
		t.Errorf("OnReopen calls (-want +got):\n%s", diff)
	}
	if got := statusOf(t, e, "AAAA0001"); got != bugstorage.StatusResolved {
		t.Errorf("AAAA0001 = %q, want Resolved", got)
	}
}

func TestHookUpdatesAreSaved(t *testing.T) {
	e, _ := setupEngine(t, fixture()...)
	e.Hook = &recordingHook{}

	if _, err := e.Run(context.Background(), Request{IDs: []string{"AAAA0001"}}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := e.Store.Get(context.Background(), "AAAA0001")
	if err != nil {
		t.Fatal(err)
	}
	if b.GitHubIssueClosed == nil || !*b.GitHubIssueClosed {
		t.Errorf("GitHubIssueClosed = %v, want true", b.GitHubIssueClosed)
	}
}

func TestSaveFailureDoesNotAbortBatch(t *testing.T) {
	e, store := setupEngine(t, fixture()...)
	store.failOn["AAAA0001"] = true

	report, err := e.Run(context.Background(), Request{IDs: []string{"AAAA0001", "AAAA0003"}, NoConfirm: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Succeeded() != 1 || report.Failed() != 1 {
		t.Errorf("succeeded/failed = %d/%d, want 1/1", report.Succeeded(), report.Failed())
	}
	if report.Outcomes[0].OK() || report.Outcomes[0].From != bugstorage.StatusOpen {
		t.Errorf("first outcome = %+v", report.Outcomes[0])
	}
	if report.Candidates[0].Status != bugstorage.StatusOpen {
		t.Error("failed save should restore the in-memory status")
	}
	if got := statusOf(t, e, "AAAA0003"); got != bugstorage.StatusResolved {
		t.Errorf("AAAA0003 = %q, want Resolved", got)
	}
}

func TestEmptySelection(t *testing.T) {
	e, store := setupEngine(t, fixture()...)

	report, err := e.Run(context.Background(), Request{AllTagged: "Nonexistent"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Candidates) != 0 || len(report.Outcomes) != 0 || store.saves != 0 {
		t.Errorf("report = %+v, saves = %d", report, store.saves)
	}
}
