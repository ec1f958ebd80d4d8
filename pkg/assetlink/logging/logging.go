// Package logging provides component loggers for assetlink built on
// charmbracelet/log.
//
// Loggers are values, not process-wide state. The CLI builds one root
// logger from configuration and hands it to the linker, which derives
// component loggers from it:
//
//	root, err := logging.New(logging.Config{Level: "info", ConsoleLevel: "warn"})
//	if err != nil {
//	    return err
//	}
//	defer root.Close()
//
//	log := root.Component("android")
//	log.Info("copied asset", "path", p)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures a root logger.
type Config struct {
	// Level is the default file log level.
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables console output at the given level.
	// Empty disables console output.
	ConsoleLevel string

	// Console is the console destination. Defaults to os.Stderr.
	Console io.Writer
}

// root holds what every component logger derived from one New call shares.
type root struct {
	writer       io.WriteCloser
	level        Level
	components   map[string]Level
	console      io.Writer
	consoleLevel Level
	consoleOn    bool
}

// Logger wraps charmbracelet/log with a component prefix. It writes to the
// log file and, when configured, to the console.
type Logger struct {
	root      *root
	file      *log.Logger
	console   *log.Logger
	component string
}

// New builds a root logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	r := &root{
		level:      level,
		components: make(map[string]Level, len(cfg.Components)),
		console:    cfg.Console,
	}
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		r.components[comp] = parsed
	}

	if cfg.ConsoleLevel != "" {
		cl, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return nil, fmt.Errorf("parsing console level: %w", err)
		}
		r.consoleLevel = cl
		r.consoleOn = true
		if r.console == nil {
			r.console = os.Stderr
		}
	}

	p := cfg.Path
	if p == "" {
		p = DefaultLogPath()
	}
	w, err := NewRotatingWriter(p, cfg.Rotation)
	if err != nil {
		return nil, fmt.Errorf("creating log writer: %w", err)
	}
	r.writer = w

	return r.logger(""), nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	r := &root{writer: nopCloser{io.Discard}, level: LevelError, components: map[string]Level{}}
	return r.logger("")
}

// logger builds a Logger for component from the shared root.
func (r *root) logger(component string) *Logger {
	level := r.level
	if lvl, ok := r.components[component]; ok {
		level = lvl
	}

	l := &Logger{
		root:      r,
		component: component,
		file: log.NewWithOptions(r.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}
	if r.consoleOn {
		l.console = log.NewWithOptions(r.console, log.Options{
			Level:           r.consoleLevel.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return l
}

// Component returns a logger for the named component sharing l's outputs.
func (l *Logger) Component(name string) *Logger {
	return l.root.logger(name)
}

// With returns a logger with additional key/value context.
func (l *Logger) With(args ...interface{}) *Logger {
	nl := &Logger{
		root:      l.root,
		component: l.component,
		file:      l.file.With(args...),
	}
	if l.console != nil {
		nl.console = l.console.With(args...)
	}
	return nl
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	logTo(l.file, level, msg, args...)
	if l.console != nil {
		logTo(l.console, level, msg, args...)
	}
}

func logTo(logger *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

// Close flushes and closes the log file shared by every logger derived
// from the same root.
func (l *Logger) Close() error {
	if l.root.writer == nil {
		return nil
	}
	err := l.root.writer.Close()
	l.root.writer = nopCloser{io.Discard}
	return err
}

// DefaultLogPath returns $XDG_STATE_HOME/assetlink/assetlink.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "assetlink", "assetlink.log")
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
