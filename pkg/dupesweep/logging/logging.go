// Package logging provides component loggers for dupesweep backed by
// charmbracelet/log, writing to a rotating file and optionally to stderr.
//
// Basic usage:
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("engine")
//	logger.Info("escalation complete", "groups", 12)
//
// Init rebuilds every logger, so long-lived values should call Get after
// Init rather than caching a logger in a package variable.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
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

var levels = []struct {
	name  string
	charm log.Level
}{
	LevelDebug: {"debug", log.DebugLevel},
	LevelInfo:  {"info", log.InfoLevel},
	LevelWarn:  {"warn", log.WarnLevel},
	LevelError: {"error", log.ErrorLevel},
}

func (l Level) valid() bool { return l >= LevelDebug && l <= LevelError }

// String returns the string representation of the level.
func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levels[l].name
}

func (l Level) charm() log.Level {
	if !l.valid() {
		return log.InfoLevel
	}
	return levels[l].charm
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name. "warning" is accepted for warn.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(s)
	if name == "warning" {
		name = "warn"
	}
	for l, def := range levels {
		if def.name == name {
			return Level(l), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables stderr output at the given level. Empty disables it.
	ConsoleLevel string

	// RecentSize is how many warnings and errors RecentWarnings keeps. Zero
	// uses DefaultRecentSize.
	RecentSize int
}

// Logger writes a component's messages to every configured sink.
type Logger struct {
	component string
	sinks     []*log.Logger
	recent    *Recent
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }

func (l *Logger) log(level Level, msg string, args []any) {
	for _, s := range l.sinks {
		s.Log(level.charm(), msg, args...)
	}
	if level >= LevelWarn && l.recent != nil {
		l.recent.Add(Entry{
			Time:      time.Now(),
			Level:     level,
			Component: l.component,
			Message:   msg,
		})
	}
}

// With returns a logger that adds key/value pairs to every message.
func (l *Logger) With(args ...any) *Logger {
	nl := &Logger{component: l.component, recent: l.recent}
	for _, s := range l.sinks {
		nl.sinks = append(nl.sinks, s.With(args...))
	}
	return nl
}

// registry owns the log file and the per-component loggers.
type registry struct {
	mu      sync.RWMutex
	writer  *RotatingWriter
	level   Level
	levels  map[string]Level
	console *Level
	recent  *Recent
	loggers map[string]*Logger
}

var std = newRegistry()

func newRegistry() *registry {
	return &registry{
		level:   LevelInfo,
		levels:  make(map[string]Level),
		recent:  NewRecent(DefaultRecentSize),
		loggers: make(map[string]*Logger),
	}
}

// Init initializes the logging system. Before Init is called, and after
// Close, all loggers discard their output.
func Init(cfg Config) error {
	return std.init(cfg)
}

func (r *registry) init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	overrides := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		overrides[comp] = parsed
	}
	var console *Level
	if cfg.ConsoleLevel != "" {
		cl, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		console = &cl
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.closeWriter(); err != nil {
		return fmt.Errorf("closing existing writer: %w", err)
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		r.rebuild()
		return fmt.Errorf("creating log writer: %w", err)
	}

	r.writer = writer
	r.level = level
	r.levels = overrides
	r.console = console
	r.recent = NewRecent(cfg.RecentSize)
	r.rebuild()
	return nil
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *Logger {
	return std.get(component)
}

func (r *registry) get(component string) *Logger {
	r.mu.RLock()
	logger, ok := r.loggers[component]
	r.mu.RUnlock()
	if ok {
		return logger
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if logger, ok := r.loggers[component]; ok {
		return logger
	}
	logger = r.build(component)
	r.loggers[component] = logger
	return logger
}

// build must be called with r.mu held.
func (r *registry) build(component string) *Logger {
	level, ok := r.levels[component]
	if !ok {
		level = r.level
	}
	logger := &Logger{component: component, recent: r.recent}

	if r.writer == nil {
		logger.sinks = []*log.Logger{log.NewWithOptions(io.Discard, log.Options{Prefix: component})}
		return logger
	}

	logger.sinks = append(logger.sinks, log.NewWithOptions(r.writer, log.Options{
		Level:           level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	}))
	if r.console != nil {
		logger.sinks = append(logger.sinks, log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.console.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		}))
	}
	return logger
}

// rebuild must be called with r.mu held.
func (r *registry) rebuild() {
	for component := range r.loggers {
		r.loggers[component] = r.build(component)
	}
}

// closeWriter must be called with r.mu held.
func (r *registry) closeWriter() error {
	if r.writer == nil {
		return nil
	}
	err := r.writer.Close()
	r.writer = nil
	return err
}

// Close flushes and closes the log file and resets loggers to discard.
func Close() error {
	std.mu.Lock()
	defer std.mu.Unlock()

	if std.writer == nil {
		return nil
	}
	var err error
	if cerr := std.closeWriter(); cerr != nil {
		err = fmt.Errorf("closing log writer: %w", cerr)
	}
	std.level = LevelInfo
	std.levels = make(map[string]Level)
	std.console = nil
	std.loggers = make(map[string]*Logger)
	return err
}

// RecentWarnings returns the most recent warnings and errors, oldest first.
func RecentWarnings() []Entry {
	std.mu.RLock()
	defer std.mu.RUnlock()
	return std.recent.Entries()
}

// DefaultLogPath returns $XDG_STATE_HOME/dupesweep/dupesweep.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "dupesweep", "dupesweep.log")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
