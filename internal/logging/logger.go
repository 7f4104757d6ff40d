// Package logging provides structured logging with file and console output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents logging levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is a single log record kept in the in-memory history ring, used by
// the debug panel.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// Config holds logger configuration.
type Config struct {
	LogDir     string // Directory for log files (default: ~/.luma/logs)
	Level      Level  // Minimum log level (default: debug)
	MaxHistory int    // Max entries to keep in memory (default: 500)
	Console    bool   // Also log to console (default: true)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LogDir:     filepath.Join(home, ".luma", "logs"),
		Level:      LevelDebug,
		MaxHistory: 500,
		Console:    true,
	}
}

// Logger wraps zerolog with file output and a bounded history ring.
type Logger struct {
	zlog    zerolog.Logger
	file    *os.File
	logPath string

	mu      sync.RWMutex
	history []Entry
	maxHist int
	onLog   func(Entry)
}

// New creates a Logger writing to a date-stamped file and optionally the
// console.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("luma_%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	writers := []io.Writer{file}
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}

	level := zerolog.DebugLevel
	switch cfg.Level {
	case LevelInfo:
		level = zerolog.InfoLevel
	case LevelWarn:
		level = zerolog.WarnLevel
	case LevelError:
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	l := &Logger{
		zlog: zerolog.New(io.MultiWriter(writers...)).With().
			Timestamp().
			Str("app", "luma").
			Logger(),
		file:    file,
		logPath: logPath,
		history: make([]Entry, 0, cfg.MaxHistory),
		maxHist: cfg.MaxHistory,
	}

	l.zlog.Info().Str("logFile", logPath).Msg("logger initialized")
	return l, nil
}

// Component returns a child zerolog.Logger with the component field set and
// history recording attached.
func (l *Logger) Component(name string) zerolog.Logger {
	child := l.zlog.With().Str("component", name).Logger()
	return child.Hook(historyHook{l: l, component: name})
}

// Zerolog returns the underlying zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// SetOnLog sets a callback invoked for each recorded entry.
func (l *Logger) SetOnLog(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLog = fn
}

// History returns up to limit recent entries, newest last.
func (l *Logger) History(limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.history) {
		limit = len(l.history)
	}
	out := make([]Entry, limit)
	copy(out, l.history[len(l.history)-limit:])
	return out
}

// LogPath returns the current log file path.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.zlog.Info().Msg("logger shutting down")
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) record(e Entry) {
	l.mu.Lock()
	l.history = append(l.history, e)
	if len(l.history) > l.maxHist {
		l.history = l.history[len(l.history)-l.maxHist:]
	}
	cb := l.onLog
	l.mu.Unlock()

	if cb != nil {
		go cb(e)
	}
}

// historyHook mirrors component log events into the history ring.
type historyHook struct {
	l         *Logger
	component string
}

func (h historyHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	h.l.record(Entry{
		Timestamp: time.Now().Format("15:04:05.000"),
		Level:     level.String(),
		Component: h.component,
		Message:   msg,
	})
}
