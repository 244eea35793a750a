// Package logging provides the levelled logger shared by the pyf tools.
//
// Text lines look like
//
//	[INFO] indexed files count=12 changed=3
//
// and JSON lines carry a timestamp and the run id of the invocation:
//
//	{"count":12,"level":"info","message":"indexed files","run_id":"...","timestamp":"..."}
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string { return levelNames[l] }

// ParseLevel accepts debug, info, warn (or warning) and error.
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
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger writes levelled lines to an io.Writer. It is safe for concurrent
// use.
type Logger struct {
	mu     sync.Mutex
	output io.Writer
	level  Level
	format string
	runID  string
	now    func() time.Time
}

// New creates a logger with a fresh run id.
func New(output io.Writer, level Level, format string) *Logger {
	if format == "" {
		format = FormatText
	}
	return &Logger{
		output: output,
		level:  level,
		format: format,
		runID:  uuid.NewString(),
		now:    time.Now,
	}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return New(io.Discard, LevelError+1, FormatText)
}

// RunID identifies this invocation in log entries and index runs.
func (l *Logger) RunID() string {
	return l.runID
}

// SetLevel changes the minimum level written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Enabled reports whether lines at level are written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.log(LevelDebug, msg, keyvals) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.log(LevelInfo, msg, keyvals) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.log(LevelWarn, msg, keyvals) }
func (l *Logger) Error(msg string, keyvals ...any) { l.log(LevelError, msg, keyvals) }

func (l *Logger) log(level Level, msg string, keyvals []any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	fields := pairs(keyvals)
	if l.format == FormatJSON {
		l.writeJSON(level, msg, fields)
	} else {
		l.writeText(level, msg, fields)
	}
}

type field struct {
	key   string
	value any
}

// pairs turns alternating keys and values into fields. A trailing key
// without a value is logged with the value "MISSING".
func pairs(keyvals []any) []field {
	fields := make([]field, 0, (len(keyvals)+1)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		var value any = "MISSING"
		if i+1 < len(keyvals) {
			value = keyvals[i+1]
		}
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		fields = append(fields, field{key, value})
	}
	return fields
}

func (l *Logger) writeJSON(level Level, msg string, fields []field) {
	entry := map[string]any{
		"timestamp": l.now().Format(time.RFC3339),
		"level":     level.String(),
		"message":   msg,
		"run_id":    l.runID,
	}
	for _, f := range fields {
		if _, reserved := entry[f.key]; reserved {
			continue
		}
		entry[f.key] = f.value
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	fmt.Fprintf(l.output, "%s\n", data)
}

func (l *Logger) writeText(level Level, msg string, fields []field) {
	var sb strings.Builder
	sb.WriteString("[" + strings.ToUpper(level.String()) + "] " + msg)
	for _, f := range fields {
		sb.WriteString(" " + f.key + "=" + textValue(f.value))
	}
	fmt.Fprintln(l.output, sb.String())
}

func textValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// BufferedLogger captures log output for later retrieval. Pass it to New
// as the output writer.
type BufferedLogger struct {
	mu    sync.Mutex
	lines []string
	buf   strings.Builder
}

// NewBufferedLogger creates a new buffered logger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{
		lines: make([]string, 0),
	}
}

// Write splits p into lines. A partial last line is held until the next
// write completes it.
func (b *BufferedLogger) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	text := b.buf.String()
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			break
		}
		b.lines = append(b.lines, text[:i])
		text = text[i+1:]
	}
	b.buf.Reset()
	b.buf.WriteString(text)
	return len(p), nil
}

// String returns all captured output as a single string
func (b *BufferedLogger) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := strings.Join(b.lines, "\n")
	if len(b.lines) > 0 {
		result += "\n"
	}
	return result + b.buf.String()
}

// Lines returns all captured log lines
func (b *BufferedLogger) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]string, len(b.lines))
	copy(result, b.lines)
	return result
}

// Reset clears all captured output
func (b *BufferedLogger) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = b.lines[:0]
	b.buf.Reset()
}
