// Package filesystem implements the BugStore interface using the local filesystem.
// Each bug is stored as <root>/bugs/BUG-<ID>.json.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bugbook/internal/bugstorage"
	"bugbook/internal/idgen"
	"bugbook/internal/migrate"
)

// MaxIDRetries is the maximum number of random ID generation attempts before
// Create gives up. With 32 bits per ID a collision is already rare; twenty in
// a row means something other than chance is wrong.
const MaxIDRetries = 20

// FilesystemStorage implements bugstorage.BugStore using one JSON file per bug.
type FilesystemStorage struct {
	root   string // path to the .bugbook directory
	logger *slog.Logger
	user   bugstorage.UserConfig
	now    func() time.Time
	newID  func() string

	once        sync.Once
	initialized bool
	migration   migrate.Report
}

// Option configures a FilesystemStorage instance.
type Option func(*FilesystemStorage)

// WithLogger sets the logger used for skipped files and migration results.
func WithLogger(l *slog.Logger) Option {
	return func(fs *FilesystemStorage) {
		if l != nil {
			fs.logger = l
		}
	}
}

// WithUserConfig sets the source of the author name stamped on new bugs and
// comments.
func WithUserConfig(u bugstorage.UserConfig) Option {
	return func(fs *FilesystemStorage) {
		fs.user = u
	}
}

// WithClock overrides the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(fs *FilesystemStorage) {
		if now != nil {
			fs.now = now
		}
	}
}

// New creates a new FilesystemStorage rooted at the given .bugbook directory.
// Nothing touches the disk until the first operation, which also converts
// any legacy data found under root.
func New(root string, opts ...Option) *FilesystemStorage {
	fs := &FilesystemStorage{
		root:   root,
		logger: slog.Default(),
		now:    time.Now,
		newID:  idgen.New,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Root returns the storage directory.
func (fs *FilesystemStorage) Root() string {
	return fs.root
}

// Init creates the storage directories and runs any pending migration.
func (fs *FilesystemStorage) Init(ctx context.Context) error {
	if err := os.MkdirAll(fs.bugsDir(), bugstorage.DirMode); err != nil {
		return fmt.Errorf("creating %s: %w", fs.bugsDir(), err)
	}
	fs.ensureMigrated(ctx)
	return nil
}

// Initialized reports whether the one-time migration check has run.
func (fs *FilesystemStorage) Initialized() bool {
	return fs.initialized
}

// Migration returns the report of the one-time migration check.
func (fs *FilesystemStorage) Migration(ctx context.Context) migrate.Report {
	fs.ensureMigrated(ctx)
	return fs.migration
}

// ensureMigrated converts legacy layouts the first time the store is used.
func (fs *FilesystemStorage) ensureMigrated(ctx context.Context) {
	fs.once.Do(func() {
		m := migrate.New(fs.root, fs.logger)
		m.Now = fs.now
		fs.migration = m.Run(ctx)
		fs.initialized = true
	})
}

func (fs *FilesystemStorage) bugsDir() string {
	return filepath.Join(fs.root, bugstorage.DirBugs)
}

func (fs *FilesystemStorage) bugPath(id string) string {
	return filepath.Join(fs.bugsDir(), bugstorage.FileName(id))
}

func writeBug(path string, bug *bugstorage.Bug) error {
	data, err := bugstorage.Encode(bug)
	if err != nil {
		return fmt.Errorf("encoding bug %s: %w", bug.ID, err)
	}
	return bugstorage.WriteFile(path, data)
}

// Create stores a new bug. An empty ID is replaced with a fresh random one;
// an explicit ID must be valid and unused. Timestamp, status, category and
// author are filled in when unset.
func (fs *FilesystemStorage) Create(ctx context.Context, bug *bugstorage.Bug) (*bugstorage.Bug, error) {
	fs.ensureMigrated(ctx)

	if bug.Timestamp == "" {
		bug.Timestamp = bugstorage.FormatTimestamp(fs.now())
	}
	if bug.Status == "" {
		bug.Status = bugstorage.StatusOpen
	}
	if bug.Category == "" {
		bug.Category = bugstorage.DefaultTag
	}
	if bug.Author == "" && fs.user != nil {
		bug.Author = fs.user.Author()
	}
	if err := os.MkdirAll(fs.bugsDir(), bugstorage.DirMode); err != nil {
		return nil, fmt.Errorf("creating %s: %w", fs.bugsDir(), err)
	}

	if bug.ID != "" {
		if err := bugstorage.ValidateID(bug.ID); err != nil {
			return nil, err
		}
		bug.ID = idgen.Normalize(bug.ID)
		ok, err := fs.reserve(bug)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", bugstorage.ErrExists, bug.ID)
		}
		return bug, nil
	}

	// Retry with fresh random IDs on collision.
	for attempt := 0; attempt < MaxIDRetries; attempt++ {
		bug.ID = fs.newID()
		ok, err := fs.reserve(bug)
		if err != nil {
			bug.ID = ""
			return nil, err
		}
		if ok {
			return bug, nil
		}
	}
	bug.ID = ""
	return nil, fmt.Errorf("failed to generate unique ID: %d retries exhausted", MaxIDRetries)
}

// reserve claims the bug's path with O_EXCL and writes the record into it.
// It returns false when the path is already taken.
func (fs *FilesystemStorage) reserve(bug *bugstorage.Bug) (bool, error) {
	path := fs.bugPath(bug.ID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, bugstorage.FileMode)
	if os.IsExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	f.Close()

	if err := writeBug(path, bug); err != nil {
		os.Remove(path)
		return false, err
	}
	return true, nil
}

// Get retrieves a bug by ID. IDs are matched case-insensitively.
func (fs *FilesystemStorage) Get(ctx context.Context, id string) (*bugstorage.Bug, error) {
	fs.ensureMigrated(ctx)
	if err := bugstorage.ValidateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.bugPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", bugstorage.ErrNotFound, idgen.Normalize(id))
	}
	if err != nil {
		return nil, err
	}

	bug, err := bugstorage.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", bugstorage.FileName(id), err)
	}
	return bug, nil
}

// Save overwrites the bug's file with its current contents.
func (fs *FilesystemStorage) Save(ctx context.Context, bug *bugstorage.Bug) error {
	fs.ensureMigrated(ctx)
	if err := bugstorage.ValidateID(bug.ID); err != nil {
		return err
	}
	bug.ID = idgen.Normalize(bug.ID)
	return writeBug(fs.bugPath(bug.ID), bug)
}

// Delete permanently removes a bug. A missing bug is not an error.
func (fs *FilesystemStorage) Delete(ctx context.Context, id string) error {
	fs.ensureMigrated(ctx)
	if err := bugstorage.ValidateID(id); err != nil {
		return err
	}
	err := os.Remove(fs.bugPath(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns every bug in the store in directory order. Files that cannot
// be read or decoded are logged and skipped.
func (fs *FilesystemStorage) List(ctx context.Context) ([]*bugstorage.Bug, error) {
	fs.ensureMigrated(ctx)

	entries, err := os.ReadDir(fs.bugsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var bugs []*bugstorage.Bug
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != bugstorage.FileExt {
			continue
		}

		path := filepath.Join(fs.bugsDir(), entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			fs.logger.Warn("skipping unreadable bug file", "file", entry.Name(), "error", err)
			continue
		}
		bug, err := bugstorage.Decode(data)
		if err != nil {
			fs.logger.Warn("skipping corrupt bug file", "file", entry.Name(), "error", err)
			continue
		}
		bugs = append(bugs, bug)
	}
	return bugs, nil
}

// AddComment appends a comment to a bug. The text is sanitised and must be
// non-empty and at most bugstorage.MaxInputLength characters.
func (fs *FilesystemStorage) AddComment(ctx context.Context, id, text string) (bugstorage.Comment, error) {
	if err := bugstorage.CheckLength(strings.TrimSpace(text)); err != nil {
		return bugstorage.Comment{}, err
	}
	text = bugstorage.SanitizeInput(text)
	if text == "" {
		return bugstorage.Comment{}, bugstorage.ErrEmptyComment
	}

	bug, err := fs.Get(ctx, id)
	if err != nil {
		return bugstorage.Comment{}, err
	}

	c := bugstorage.Comment{
		Text:      text,
		Timestamp: bugstorage.FormatTimestamp(fs.now()),
	}
	if fs.user != nil {
		c.Author = fs.user.Author()
	}
	bug.Comments = append(bug.Comments, c)
	if err := fs.Save(ctx, bug); err != nil {
		return bugstorage.Comment{}, err
	}
	return c, nil
}
