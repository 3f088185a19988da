package yamlstore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"bugbook/internal/config"

	"github.com/google/go-cmp/cmp"
)

func rcPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), config.FileName)
}

func writeRC(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func mustNew(t *testing.T, path string) *YAMLStore {
	t.Helper()
	s, err := New(path)
	if err != nil {
		t.Fatalf("New(%s): %v", path, err)
	}
	return s
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{"missing file", "", map[string]string{}},
		{"blank file", "\n\n", map[string]string{}},
		{
			name:    "flat yaml",
			content: "user.name: Ada Lovelace\nlog.level: debug\n",
			want:    map[string]string{config.KeyUserName: "Ada Lovelace", config.KeyLogLevel: "debug"},
		},
		{
			name: "nested json from the older layout",
			content: `{
  "user": {"name": "Ada Lovelace", "email": "ada@example.com"},
  "editor": "code --wait",
  "github": {"token": "ghp_x", "owner": "ada", "repo": "engine", "auto_labels": false, "labels": ["bug", "ui"], "label_prefix": null}
}`,
			want: map[string]string{
				config.KeyUserName:          "Ada Lovelace",
				config.KeyUserEmail:         "ada@example.com",
				config.KeyEditor:            "code --wait",
				config.KeyGitHubToken:       "ghp_x",
				config.KeyGitHubOwner:       "ada",
				config.KeyGitHubRepo:        "engine",
				config.KeyGitHubAutoLabels:  "false",
				"github.labels":             "bug,ui",
				config.KeyGitHubLabelPrefix: "",
			},
		},
		{
			name:    "nested yaml",
			content: "log:\n  file: /tmp/bugbook.log\n  level: info\n",
			want:    map[string]string{config.KeyLogFile: "/tmp/bugbook.log", config.KeyLogLevel: "info"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := rcPath(t)
			if tt.name != "missing file" {
				writeRC(t, path, tt.content)
			}
			s := mustNew(t, path)
			if diff := cmp.Diff(tt.want, s.All()); diff != "" {
				t.Errorf("All() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := rcPath(t)
	writeRC(t, path, "user: [unclosed")
	if _, err := New(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestSetPersistsFlatAndPrivate(t *testing.T) {
	path := rcPath(t)
	writeRC(t, path, `{"user": {"name": "Ada"}}`)
	s := mustNew(t, path)

	if err := s.Set(config.KeyGitHubToken, "ghp_secret"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "github.token: ghp_secret\nuser.name: Ada\n"; string(raw) != want {
		t.Errorf("file = %q, want %q", raw, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != fileMode {
		t.Errorf("mode = %o, want %o", perm, fileMode)
	}
}

func TestSetCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home", "ada", config.FileName)
	s := mustNew(t, path)
	if err := s.Set(config.KeyEditor, "vim"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := mustNew(t, path).Get(config.KeyEditor); !ok || v != "vim" {
		t.Errorf("reloaded editor = %q, %v", v, ok)
	}
}

func TestDefaultsStayInMemory(t *testing.T) {
	path := rcPath(t)
	s := mustNew(t, path)
	config.ApplyDefaults(s)

	if v, _ := s.Get(config.KeyLogLevel); v != "warn" {
		t.Errorf("default log.level = %q, want warn", v)
	}
	if err := s.Set(config.KeyUserName, "Ada"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get(config.KeyLogLevel); v != "warn" {
		t.Errorf("default lost after an unrelated Set: %q", v)
	}

	reloaded := mustNew(t, path)
	if _, ok := reloaded.Get(config.KeyLogLevel); ok {
		t.Error("default was written to the file")
	}

	// Setting a defaulted key replaces the in-memory value.
	if err := s.Set(config.KeyLogLevel, "debug"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get(config.KeyLogLevel); v != "debug" {
		t.Errorf("log.level = %q, want debug", v)
	}
}

func TestUnset(t *testing.T) {
	path := rcPath(t)
	writeRC(t, path, "editor: nano\ngithub.repo: engine\n")
	s := mustNew(t, path)

	if err := s.Unset(config.KeyEditor); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	if err := s.Unset(config.KeyGitHubOwner); err != nil {
		t.Errorf("Unset of an absent key = %v, want nil", err)
	}

	want := map[string]string{config.KeyGitHubRepo: "engine"}
	if diff := cmp.Diff(want, mustNew(t, path).All()); diff != "" {
		t.Errorf("file after Unset (-want +got):\n%s", diff)
	}
}

func TestAllIsACopy(t *testing.T) {
	s := mustNew(t, rcPath(t))
	s.SetInMemory(config.KeyUserName, "Ada")

	all := s.All()
	all[config.KeyUserName] = "changed"

	if v, _ := s.Get(config.KeyUserName); v != "Ada" {
		t.Errorf("store changed through All(): %q", v)
	}
}

func TestSetKeepsOtherWriters(t *testing.T) {
	path := rcPath(t)
	first := mustNew(t, path)
	second := mustNew(t, path)

	if err := first.Set(config.KeyUserName, "Ada"); err != nil {
		t.Fatal(err)
	}
	if err := second.Set(config.KeyGitHubOwner, "ada"); err != nil {
		t.Fatal(err)
	}

	want := map[string]string{config.KeyUserName: "Ada", config.KeyGitHubOwner: "ada"}
	if diff := cmp.Diff(want, mustNew(t, path).All()); diff != "" {
		t.Errorf("second writer dropped the first (-want +got):\n%s", diff)
	}
	if v, _ := second.Get(config.KeyUserName); v != "Ada" {
		t.Errorf("second store did not pick up user.name, got %q", v)
	}
}

func TestConcurrentSetOfKnownKeys(t *testing.T) {
	path := rcPath(t)
	var wg sync.WaitGroup
	errs := make([]error, len(config.Keys))
	for i, key := range config.Keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			s, err := New(path)
			if err == nil {
				err = s.Set(key, "v-"+key)
			}
			errs[i] = err
		}(i, key)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Set(%s): %v", config.Keys[i], err)
		}
	}
	got := mustNew(t, path).All()
	for _, key := range config.Keys {
		if got[key] != "v-"+key {
			t.Errorf("%s = %q after concurrent writes", key, got[key])
		}
	}
}
