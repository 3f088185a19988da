// Package migrate upgrades older on-disk layouts to one JSON file per bug.
//
// Three sources are recognised, oldest first: the Markdown ledger (bugs.md),
// the JSON array (bugs.json) and the line-per-tag list (tags.md). Each step
// runs only when its source exists, never overwrites a record that is
// already in bugs/, and renames the source to *.bak once it has been
// converted. Errors are logged and leave the source in place.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bugbook/internal/bugstorage"
	"bugbook/internal/idgen"
	"bugbook/internal/legacy"
	"bugbook/internal/tags"

	"github.com/google/uuid"
)

// legacyNamespace seeds the deterministic IDs given to records whose legacy
// ID is not hexadecimal, so the same legacy record always maps to the same file.
var legacyNamespace = uuid.MustParse("6f1c7d2e-4b0a-5c39-9e51-b0b7c0a1d2e3")

// maxIDRetries bounds fresh-ID generation for records without an ID.
const maxIDRetries = 20

// StepReport summarises one migration step.
type StepReport struct {
	Source   string
	Ran      bool // source file was present
	Migrated int
	Skipped  int // target already existed
	Failed   int
	Err      error
}

// Report summarises a migration run.
type Report struct {
	Array  StepReport
	Ledger StepReport
	Tags   StepReport
}

// Changed reports whether any step converted its source.
func (r Report) Changed() bool {
	for _, step := range r.Steps() {
		if step.Ran && step.Err == nil {
			return true
		}
	}
	return false
}

// Steps returns the step reports in execution order.
func (r Report) Steps() []StepReport {
	return []StepReport{r.Array, r.Ledger, r.Tags}
}

// Migrator converts legacy files under Root.
type Migrator struct {
	Root   string
	Logger *slog.Logger
	Now    func() time.Time
}

// New returns a Migrator for root. A nil logger discards output.
func New(root string, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Migrator{Root: root, Logger: logger, Now: time.Now}
}

// Pending reports whether any legacy source is present.
func (m *Migrator) Pending() bool {
	for _, name := range []string{bugstorage.LegacyArray, bugstorage.LegacyLedger, bugstorage.LegacyTagList} {
		if exists(filepath.Join(m.Root, name)) {
			return true
		}
	}
	return false
}

// Run performs every step in order: JSON array, then ledger, then tags.
// The array step goes first so records it writes take precedence over the
// older ledger copies.
func (m *Migrator) Run(ctx context.Context) Report {
	var r Report
	r.Array = m.migrateArray()
	r.Ledger = m.migrateLedger()
	r.Tags = m.migrateTags()
	return r
}

func (m *Migrator) bugsDir() string {
	return filepath.Join(m.Root, bugstorage.DirBugs)
}

func (m *Migrator) migrateArray() StepReport {
	src := filepath.Join(m.Root, bugstorage.LegacyArray)
	rep := StepReport{Source: bugstorage.LegacyArray}
	data, err := os.ReadFile(src)
	if errors.Is(err, os.ErrNotExist) {
		return rep
	}
	rep.Ran = true
	if err != nil {
		return m.fail(rep, fmt.Errorf("reading: %w", err))
	}

	for _, res := range legacy.ParseArray(data) {
		switch r := res.(type) {
		case legacy.ArrayRecord:
			m.place(&rep, r.Bug)
		case legacy.ParseFailure:
			if r.Index < 0 {
				return m.fail(rep, r)
			}
			rep.Failed++
			m.Logger.Warn("skipping unreadable legacy record", "source", rep.Source, "index", r.Index, "error", r.Err)
		}
	}
	return m.finish(rep, src)
}

func (m *Migrator) migrateLedger() StepReport {
	src := filepath.Join(m.Root, bugstorage.LegacyLedger)
	rep := StepReport{Source: bugstorage.LegacyLedger}
	data, err := os.ReadFile(src)
	if errors.Is(err, os.ErrNotExist) {
		return rep
	}
	rep.Ran = true
	if err != nil {
		return m.fail(rep, fmt.Errorf("reading: %w", err))
	}

	for _, res := range legacy.ParseLedger(data) {
		switch r := res.(type) {
		case legacy.LedgerRecord:
			m.place(&rep, r.Bug)
		case legacy.ParseFailure:
			rep.Failed++
			m.Logger.Warn("skipping unreadable legacy record", "source", rep.Source, "index", r.Index, "error", r.Err)
		}
	}
	return m.finish(rep, src)
}

func (m *Migrator) migrateTags() StepReport {
	src := filepath.Join(m.Root, bugstorage.LegacyTagList)
	rep := StepReport{Source: bugstorage.LegacyTagList}
	if !exists(src) {
		return rep
	}
	dst := filepath.Join(m.Root, bugstorage.TagsFile)
	rep.Ran = true

	data, err := os.ReadFile(src)
	if err != nil {
		return m.fail(rep, fmt.Errorf("reading: %w", err))
	}
	list := legacy.ParseTagList(data)
	if exists(dst) {
		// The registry wins; the old list is only backed up.
		rep.Skipped = len(list)
		return m.finish(rep, src)
	}
	encoded, err := tags.Encode(list)
	if err != nil {
		return m.fail(rep, err)
	}
	if err := bugstorage.WriteFile(dst, encoded); err != nil {
		return m.fail(rep, err)
	}
	rep.Migrated = len(list)
	return m.finish(rep, src)
}

// place writes bug to its per-ID file unless one already exists.
func (m *Migrator) place(rep *StepReport, bug *bugstorage.Bug) {
	legacyID := strings.TrimSpace(bug.ID)
	switch {
	case legacyID == "":
		id, err := m.freshID()
		if err != nil {
			rep.Failed++
			rep.Err = err
			m.Logger.Warn("cannot assign ID to legacy record", "source", rep.Source, "error", err)
			return
		}
		bug.ID = id
	case !idgen.Valid(legacyID):
		bug.ID = LegacyID(legacyID)
		bug.Comments = append(bug.Comments, bugstorage.Comment{
			Text:      "Migrated from legacy ID " + legacyID,
			Timestamp: bugstorage.FormatTimestamp(m.Now()),
		})
	default:
		bug.ID = idgen.Normalize(legacyID)
	}
	bug.Timestamp = m.timestamp(bug.Timestamp)

	path := filepath.Join(m.bugsDir(), bugstorage.FileName(bug.ID))
	if exists(path) {
		rep.Skipped++
		return
	}
	data, err := bugstorage.Encode(bug)
	if err == nil {
		err = bugstorage.WriteFile(path, data)
	}
	if err != nil {
		rep.Failed++
		rep.Err = err
		m.Logger.Warn("cannot write migrated record", "source", rep.Source, "id", bug.ID, "error", err)
		return
	}
	rep.Migrated++
}

// timestamp returns raw as ISO-8601. Ledger headings hold locale strings
// in local time; those are converted. Unparseable values become now.
func (m *Migrator) timestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse(time.RFC3339, raw); err == nil {
		return raw
	}
	if t := bugstorage.ParseTimestamp(raw); !t.IsZero() {
		return bugstorage.FormatTimestamp(t)
	}
	if raw != "" {
		m.Logger.Warn("unreadable legacy timestamp replaced", "timestamp", raw)
	}
	return bugstorage.FormatTimestamp(m.Now())
}

// finish renames the source to .bak unless a write failed, in which case the
// source stays so a later run can retry.
func (m *Migrator) finish(rep StepReport, src string) StepReport {
	if rep.Err != nil {
		m.Logger.Warn("legacy migration incomplete; source kept", "source", rep.Source, "error", rep.Err)
		return rep
	}
	if err := os.Rename(src, src+bugstorage.BackupSuffix); err != nil {
		rep.Err = fmt.Errorf("renaming %s: %w", rep.Source, err)
		m.Logger.Warn("cannot back up legacy source", "source", rep.Source, "error", err)
		return rep
	}
	m.Logger.Info("migrated legacy data", "source", rep.Source,
		"migrated", rep.Migrated, "skipped", rep.Skipped, "failed", rep.Failed)
	return rep
}

func (m *Migrator) fail(rep StepReport, err error) StepReport {
	rep.Err = err
	m.Logger.Error("legacy migration failed; source left untouched", "source", rep.Source, "error", err)
	return rep
}

func (m *Migrator) freshID() (string, error) {
	for i := 0; i < maxIDRetries; i++ {
		id := idgen.New()
		if !exists(filepath.Join(m.bugsDir(), bugstorage.FileName(id))) {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free ID after %d attempts", maxIDRetries)
}

// LegacyID maps a non-hexadecimal legacy ID to a stable bug ID.
func LegacyID(old string) string {
	u := uuid.NewSHA1(legacyNamespace, []byte(strings.ToUpper(old)))
	return idgen.Normalize(strings.ReplaceAll(u.String(), "-", "")[:idgen.Length])
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
