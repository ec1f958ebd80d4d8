package android

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrEntryPointNotFound is returned when no MainApplication source file
	// exists in the application module.
	ErrEntryPointNotFound = errors.New("android entry point not found")

	// ErrNoLifecycleHook is returned when the entry point has no
	// super.onCreate() call to register fonts after.
	ErrNoLifecycleHook = errors.New("entry point has no super.onCreate() call")
)

const (
	fontManagerClass = "com.facebook.react.common.assets.ReactFontManager"
	registrationCall = "ReactFontManager.getInstance().addCustomFont("
	lifecycleHook    = "super.onCreate("
)

// entryPoint is the application's MainApplication source file, edited line
// by line. Generated lines are matched by their trimmed text only and are
// written with the file's own line ending.
type entryPoint struct {
	path   string
	kotlin bool
	eol    string
	lines  []string
	dirty  bool
}

// findEntryPoint locates MainApplication.java or MainApplication.kt under
// moduleDir/src/main/java.
func findEntryPoint(moduleDir string) (string, error) {
	base := filepath.Join(moduleDir, "src", "main", "java")
	matches, err := doublestar.Glob(os.DirFS(base), "**/MainApplication.{java,kt}")
	if err != nil {
		return "", fmt.Errorf("searching entry point: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w under %s", ErrEntryPointNotFound, base)
	}
	return filepath.Join(base, filepath.FromSlash(matches[0])), nil
}

func loadEntryPoint(path string) (*entryPoint, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrEntryPointNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading entry point: %w", err)
	}
	text, eol := string(data), "\n"
	if strings.Contains(text, "\r\n") {
		text, eol = strings.ReplaceAll(text, "\r\n", "\n"), "\r\n"
	}
	return &entryPoint{
		path:   path,
		kotlin: strings.EqualFold(filepath.Ext(path), ".kt"),
		eol:    eol,
		lines:  strings.Split(text, "\n"),
	}, nil
}

func (e *entryPoint) terminate(stmt string) string {
	if e.kotlin {
		return stmt
	}
	return stmt + ";"
}

func (e *entryPoint) importLine() string {
	return e.terminate("import " + fontManagerClass)
}

func (e *entryPoint) registrationLine(family, resource string) string {
	return e.terminate(fmt.Sprintf("%s%s, %q, R.font.%s)", registrationCall, "this", family, resource))
}

func (e *entryPoint) indexOf(line string) int {
	for i, l := range e.lines {
		if strings.TrimSpace(l) == line {
			return i
		}
	}
	return -1
}

func (e *entryPoint) insert(at int, line string) {
	e.lines = append(e.lines, "")
	copy(e.lines[at+1:], e.lines[at:])
	e.lines[at] = line
	e.dirty = true
}

func (e *entryPoint) removeAll(line string) bool {
	out := e.lines[:0]
	removed := false
	for _, l := range e.lines {
		if strings.TrimSpace(l) == line {
			removed = true
			continue
		}
		out = append(out, l)
	}
	e.lines = out
	if removed {
		e.dirty = true
	}
	return removed
}

// addRegistration inserts the registration call after the first
// super.onCreate() line, plus the font manager import. Existing lines are
// left alone.
func (e *entryPoint) addRegistration(family, resource string) error {
	line := e.registrationLine(family, resource)
	if e.indexOf(line) < 0 {
		hook := -1
		for i, l := range e.lines {
			if strings.HasPrefix(strings.TrimSpace(l), lifecycleHook) {
				hook = i
				break
			}
		}
		if hook < 0 {
			return fmt.Errorf("%w: %s", ErrNoLifecycleHook, e.path)
		}
		indent := e.lines[hook][:len(e.lines[hook])-len(strings.TrimLeft(e.lines[hook], " \t"))]
		e.insert(hook+1, indent+line)
	}
	e.ensureImport()
	return nil
}

// removeRegistration deletes the registration calls for the R.font
// resource and drops the import once no registration remains.
func (e *entryPoint) removeRegistration(resource string) {
	suffix := e.terminate(", R.font." + resource + ")")
	out := e.lines[:0]
	for _, l := range e.lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, registrationCall) && strings.HasSuffix(t, suffix) {
			e.dirty = true
			continue
		}
		out = append(out, l)
	}
	e.lines = out
	if !e.hasRegistrations() {
		e.removeAll(e.importLine())
	}
}

func (e *entryPoint) hasRegistrations() bool {
	for _, l := range e.lines {
		if strings.HasPrefix(strings.TrimSpace(l), registrationCall) {
			return true
		}
	}
	return false
}

// ensureImport adds the import after the last import line, or after the
// package clause when there are none.
func (e *entryPoint) ensureImport() {
	line := e.importLine()
	if e.indexOf(line) >= 0 {
		return
	}
	at := -1
	for i, l := range e.lines {
		t := strings.TrimSpace(l)
		switch {
		case strings.HasPrefix(t, "import "):
			at = i
		case at < 0 && strings.HasPrefix(t, "package "):
			at = i
		}
	}
	e.insert(at+1, line)
}

func (e *entryPoint) save() error {
	if !e.dirty {
		return nil
	}
	info, err := os.Stat(e.path)
	if err != nil {
		return fmt.Errorf("stat entry point: %w", err)
	}
	if err := os.WriteFile(e.path, []byte(strings.Join(e.lines, e.eol)), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing entry point: %w", err)
	}
	e.dirty = false
	return nil
}
