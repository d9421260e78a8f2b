// Package logger provides structured JSON logging.
package logger

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name used in log output.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel converts a config string into a Level. Unknown values
// default to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type field struct {
	key   string
	value any
}

// Logger writes one JSON object per line. It is safe for concurrent use.
type Logger struct {
	mu   *sync.Mutex
	out  io.Writer
	min  Level
	base []field
}

// New creates a Logger writing to out at the given minimum level.
// A nil out defaults to stdout.
func New(out io.Writer, level string) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		mu:  &sync.Mutex{},
		out: out,
		min: ParseLevel(level),
	}
}

// With returns a Logger that includes the given key/value pairs on
// every entry. The receiver is not modified.
func (l *Logger) With(keyvals ...any) *Logger {
	bound := make([]field, len(l.base), len(l.base)+len(keyvals)/2)
	copy(bound, l.base)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		bound = append(bound, field{key: key, value: keyvals[i+1]})
	}
	return &Logger{mu: l.mu, out: l.out, min: l.min, base: bound}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyvals ...any) { l.write(LevelDebug, msg, keyvals) }

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...any) { l.write(LevelInfo, msg, keyvals) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keyvals ...any) { l.write(LevelWarn, msg, keyvals) }

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...any) { l.write(LevelError, msg, keyvals) }

func (l *Logger) write(level Level, msg string, keyvals []any) {
	if level < l.min {
		return
	}

	entry := make(map[string]any, len(l.base)+len(keyvals)/2+3)
	for _, f := range l.base {
		entry[f.key] = f.value
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		if key, ok := keyvals[i].(string); ok {
			entry[key] = keyvals[i+1]
		}
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level.String()
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(data, '\n'))
}
