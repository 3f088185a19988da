// Package yamlstore implements config.Store over the user's ~/.bugbookrc.
//
// Keys are written flat ("github.token: ..."), sorted by yaml.Marshal.
// Nested mappings are flattened on read, so the older JSON layout
// ({"user": {"name": ...}}) still loads: JSON is valid YAML. Lists become
// comma-separated values.
package yamlstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"bugbook/internal/config"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// fileMode keeps the file private: it may hold an API token.
const fileMode = 0o600

// YAMLStore is a config.Store persisted to a single YAML file. Values set
// with SetInMemory shadow the file until the key is next Set or Unset.
type YAMLStore struct {
	path   string
	file   map[string]string
	memory map[string]string
}

var _ config.Store = (*YAMLStore)(nil)

// New loads path. A missing file gives an empty store; the file is created
// by the first Set.
func New(path string) (*YAMLStore, error) {
	file, err := load(path)
	if err != nil {
		return nil, err
	}
	return &YAMLStore{path: path, file: file, memory: make(map[string]string)}, nil
}

// Path returns the backing file.
func (s *YAMLStore) Path() string {
	return s.path
}

func (s *YAMLStore) Get(key string) (string, bool) {
	if v, ok := s.memory[key]; ok {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok
}

func (s *YAMLStore) All() map[string]string {
	out := make(map[string]string, len(s.file)+len(s.memory))
	for k, v := range s.file {
		out[k] = v
	}
	for k, v := range s.memory {
		out[k] = v
	}
	return out
}

// Set stores value under key and rewrites the file.
func (s *YAMLStore) Set(key, value string) error {
	return s.update(key, func(m map[string]string) { m[key] = value })
}

// SetInMemory stores value without touching the file. Defaults use it.
func (s *YAMLStore) SetInMemory(key, value string) {
	s.memory[key] = value
}

// Unset removes key and rewrites the file. Unknown keys are not an error.
func (s *YAMLStore) Unset(key string) error {
	return s.update(key, func(m map[string]string) { delete(m, key) })
}

// update applies change to the file contents under an exclusive lock. The
// file is re-read first so a write from another bugbook process survives.
func (s *YAMLStore) update(key string, change func(map[string]string)) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	file, err := load(s.path)
	if err != nil {
		return err
	}
	change(file)

	raw, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := os.Chmod(s.path, fileMode); err != nil {
		return fmt.Errorf("restricting config file: %w", err)
	}
	s.file = file
	delete(s.memory, key)
	return nil
}

// lockFile takes an flock on path and returns its release function.
func lockFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, fileMode)
	if err != nil {
		return nil, fmt.Errorf("opening config lock: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring config lock: %w", err)
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}

// load reads and flattens the file at path.
func load(path string) (map[string]string, error) {
	values := make(map[string]string)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return values, nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	flatten("", doc, values)
	return values, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		if prefix != "" {
			k = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(k, v, out)
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, fmt.Sprint(item))
			}
			out[k] = strings.Join(items, ",")
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(v)
		}
	}
}
