// Package cmd implements the bugbook command-line interface.
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"bugbook/internal/bugstorage"
	"bugbook/internal/config"
	"bugbook/internal/tags"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// errNotInteractive is returned when a command needs a yes/no answer but
// stdin is not a terminal.
var errNotInteractive = errors.New("confirmation needed but stdin is not a terminal (use --yes)")

// App holds application state shared across commands.
type App struct {
	Storage     bugstorage.BugStore
	Tags        *tags.Registry
	Root        string // path to the .bugbook directory
	Config      config.UserConfig
	ConfigStore config.Store
	Logger      *slog.Logger
	Out         io.Writer
	Err         io.Writer
	In          io.Reader
	JSON        bool // output in JSON format
	Now         func() time.Time

	closer io.Closer // log file, if any
}

// now returns the current time from the App clock.
func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Close releases the log file.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// colorEnabled reports whether stdout is a terminal that accepts colour.
func (a *App) colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := a.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paint returns a sprint func for attrs that only emits escape codes when
// stdout is a colour terminal.
func (a *App) paint(attrs ...color.Attribute) func(a ...interface{}) string {
	c := color.New(attrs...)
	if a.colorEnabled() {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

// SuccessColor renders s in green on a terminal.
func (a *App) SuccessColor(s string) string {
	return a.paint(color.FgGreen)(s)
}

// WarnColor renders s in yellow on a terminal.
func (a *App) WarnColor(s string) string {
	return a.paint(color.FgYellow)(s)
}

// ErrorColor renders s in red on a terminal.
func (a *App) ErrorColor(s string) string {
	return a.paint(color.FgRed)(s)
}

// IDColor renders a bug ID in cyan on a terminal.
func (a *App) IDColor(s string) string {
	return a.paint(color.FgCyan, color.Bold)(s)
}

// HeaderColor renders a section header in bold.
func (a *App) HeaderColor(s string) string {
	return a.paint(color.Bold)(s)
}

// interactive reports whether confirmations can be read from In. Readers
// that are not files (tests, pipes handed in by callers) always can; an
// *os.File only when it is a terminal.
func (a *App) interactive() bool {
	if a.In == nil {
		return false
	}
	f, ok := a.In.(*os.File)
	if !ok {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}

// confirm asks a yes/no question on Err and reads the answer from In.
// Anything other than y or yes is a no.
func (a *App) confirm(question string) (bool, error) {
	if !a.interactive() {
		return false, errNotInteractive
	}
	fmt.Fprintf(a.Err, "%s [y/N] ", question)
	response, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
