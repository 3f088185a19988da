// Package config handles the bugbook user configuration.
//
// Settings live in a single per-user file (~/.bugbookrc by default) and are
// exposed through the flat key-value Store. Load layers BUGBOOK_* environment
// variables over the stored values and returns the typed UserConfig used by
// the rest of the program.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the user config file name in the home directory.
const FileName = ".bugbookrc"

// Known keys.
const (
	KeyUserName          = "user.name"
	KeyUserEmail         = "user.email"
	KeyEditor            = "editor"
	KeyGitHubToken       = "github.token"
	KeyGitHubOwner       = "github.owner"
	KeyGitHubRepo        = "github.repo"
	KeyGitHubAutoLabels  = "github.auto_labels"
	KeyGitHubLabelPrefix = "github.label_prefix"
	KeyLogFile           = "log.file"
	KeyLogLevel          = "log.level"
)

// Keys lists every supported key in display order.
var Keys = []string{
	KeyUserName,
	KeyUserEmail,
	KeyEditor,
	KeyGitHubToken,
	KeyGitHubOwner,
	KeyGitHubRepo,
	KeyGitHubAutoLabels,
	KeyGitHubLabelPrefix,
	KeyLogFile,
	KeyLogLevel,
}

// IsKnown reports whether key is a supported config key.
func IsKnown(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Secret reports whether the value of key should be masked when displayed.
func Secret(key string) bool {
	return key == KeyGitHubToken
}

// UserConfig is the effective configuration after defaults and environment
// overrides.
type UserConfig struct {
	Name   string       `json:"name,omitempty"`
	Email  string       `json:"email,omitempty"`
	Editor string       `json:"editor,omitempty"`
	GitHub GitHubConfig `json:"github"`
	Log    LogConfig    `json:"log"`
}

// GitHubConfig holds the settings of the external issue sync.
type GitHubConfig struct {
	Token       string `json:"-"`
	Owner       string `json:"owner,omitempty"`
	Repo        string `json:"repo,omitempty"`
	AutoLabels  bool   `json:"auto_labels"`
	LabelPrefix string `json:"label_prefix,omitempty"`
}

// Configured reports whether enough is set to talk to GitHub.
func (g GitHubConfig) Configured() bool {
	return g.Token != "" && g.Owner != "" && g.Repo != ""
}

// LogConfig controls the optional log file.
type LogConfig struct {
	File  string `json:"file,omitempty"`
	Level string `json:"level,omitempty"`
}

// Author returns the name stamped on new bugs and comments.
func (c UserConfig) Author() string {
	return strings.TrimSpace(c.Name)
}

// DefaultPath returns the config file location: $BUGBOOK_CONFIG if set,
// otherwise ~/.bugbookrc.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// Load builds the effective UserConfig from s, DefaultValues and the
// environment. Environment variables win over stored values, which win over
// defaults.
func Load(s Store) UserConfig {
	v := newViper(s)
	return UserConfig{
		Name:   v.GetString(KeyUserName),
		Email:  v.GetString(KeyUserEmail),
		Editor: v.GetString(KeyEditor),
		GitHub: GitHubConfig{
			Token:       v.GetString(KeyGitHubToken),
			Owner:       v.GetString(KeyGitHubOwner),
			Repo:        v.GetString(KeyGitHubRepo),
			AutoLabels:  v.GetBool(KeyGitHubAutoLabels),
			LabelPrefix: v.GetString(KeyGitHubLabelPrefix),
		},
		Log: LogConfig{
			File:  expandHome(v.GetString(KeyLogFile)),
			Level: v.GetString(KeyLogLevel),
		},
	}
}

// Effective returns the value of every known key after defaults and
// environment overrides, plus any unknown keys found in s.
func Effective(s Store) map[string]string {
	v := newViper(s)
	out := make(map[string]string)
	for k, val := range s.All() {
		out[k] = val
	}
	for _, k := range Keys {
		if val := v.GetString(k); val != "" {
			out[k] = val
		}
	}
	return out
}

func newViper(s Store) *viper.Viper {
	v := viper.New()
	for k, val := range DefaultValues() {
		v.SetDefault(k, val)
	}
	// Stored values replace the built-in defaults. Bound environment
	// variables rank above defaults in viper, so they win over both.
	for k, val := range s.All() {
		if IsKnown(k) {
			v.SetDefault(k, val)
		}
	}
	for _, k := range Keys {
		_ = v.BindEnv(k, EnvName(k))
	}
	return v
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
