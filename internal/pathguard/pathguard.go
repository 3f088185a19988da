// Package pathguard resolves the project-local storage root and refuses to
// place it inside operating-system directories.
package pathguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// DirName is the name of the storage directory created under the project.
const DirName = ".bugbook"

// ErrSystemDirectory is returned when the working directory lies inside a
// protected system location.
var ErrSystemDirectory = errors.New("refusing to use a system directory")

var unixSystemDirs = []string{
	"/etc", "/usr", "/bin", "/sbin", "/var", "/boot", "/lib", "/proc", "/sys",
}

var windowsSystemDirs = []string{
	`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`, `C:\ProgramData`,
}

// SystemDirs returns the protected prefixes for goos.
func SystemDirs(goos string) []string {
	if goos == "windows" {
		return windowsSystemDirs
	}
	return unixSystemDirs
}

// Resolve normalises dir and returns the storage root beneath it.
// If dir already ends in DirName it is used as the root itself.
func Resolve(dir string) (string, error) {
	return resolve(dir, runtime.GOOS)
}

func resolve(dir, goos string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	abs = filepath.Clean(abs)

	base := abs
	if filepath.Base(abs) == DirName {
		base = filepath.Dir(abs)
	}
	if sys, ok := systemPrefix(base, goos); ok {
		return "", fmt.Errorf("%w: %s is inside %s", ErrSystemDirectory, base, sys)
	}

	if filepath.Base(abs) == DirName {
		return abs, nil
	}
	return filepath.Join(abs, DirName), nil
}

// systemPrefix reports the system directory that path equals or lies under.
func systemPrefix(path, goos string) (string, bool) {
	for _, sys := range SystemDirs(goos) {
		p, s := path, sys
		sep := "/"
		if goos == "windows" {
			p, s = strings.ToLower(p), strings.ToLower(s)
			sep = `\`
		}
		if p == s || strings.HasPrefix(p, s+sep) {
			return sys, true
		}
	}
	return "", false
}

// Guard computes the storage root once and returns the cached result on
// every later call.
type Guard struct {
	// Dir is the project directory. Empty means the process working directory.
	Dir string

	once sync.Once
	root string
	err  error
}

// Root returns the validated storage root.
func (g *Guard) Root() (string, error) {
	g.once.Do(func() {
		dir := g.Dir
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				g.err = fmt.Errorf("cannot get current directory: %w", err)
				return
			}
			dir = wd
		}
		g.root, g.err = Resolve(dir)
	})
	return g.root, g.err
}
