package logging

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestTextOutput(t *testing.T) {
	buf := NewBufferedLogger()
	log := New(buf, LevelInfo, FormatText)

	log.Debug("hidden")
	log.Info("indexed files", "count", 3, "dir", "src/pkg")
	log.Warn("slow file", "path", "a b.py")
	log.Error("failed", "err", errors.New("boom"))

	want := []string{
		"[INFO] indexed files count=3 dir=src/pkg",
		`[WARN] slow file path="a b.py"`,
		"[ERROR] failed err=boom",
	}
	lines := buf.Lines()
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestJSONOutput(t *testing.T) {
	buf := NewBufferedLogger()
	log := New(buf, LevelDebug, FormatJSON)
	log.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	log.Debug("parsed", "file", "a.py", "errors", 2, "level", "ignored")

	lines := buf.Lines()
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", lines[0], err)
	}

	tests := []struct {
		key  string
		want any
	}{
		{"timestamp", "2024-01-02T03:04:05Z"},
		{"level", "debug"},
		{"message", "parsed"},
		{"run_id", log.RunID()},
		{"file", "a.py"},
		{"errors", float64(2)},
	}
	for _, tt := range tests {
		if entry[tt.key] != tt.want {
			t.Errorf("entry[%q] = %v, want %v", tt.key, entry[tt.key], tt.want)
		}
	}
}

func TestRunIDsDiffer(t *testing.T) {
	a := New(NewBufferedLogger(), LevelInfo, FormatText)
	b := New(NewBufferedLogger(), LevelInfo, FormatText)
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("run ids %q and %q should be distinct and non-empty", a.RunID(), b.RunID())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetLevelAndDiscard(t *testing.T) {
	buf := NewBufferedLogger()
	log := New(buf, LevelDebug, FormatText)
	log.SetLevel(LevelWarn)
	log.Info("quiet")
	if buf.String() != "" {
		t.Errorf("info written after SetLevel(warn): %q", buf.String())
	}
	if log.Enabled(LevelInfo) || !log.Enabled(LevelError) {
		t.Errorf("Enabled() disagrees with the level")
	}

	Discard().Error("nothing")
	var nilLogger *Logger
	nilLogger.Info("no panic")
}

func TestBufferedLoggerPartialWrites(t *testing.T) {
	buf := NewBufferedLogger()
	buf.Write([]byte("one\ntw"))
	buf.Write([]byte("o\nthree"))

	if got := buf.Lines(); len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Lines() = %q", got)
	}
	if got := buf.String(); got != "one\ntwo\nthree" {
		t.Errorf("String() = %q", got)
	}
	buf.Reset()
	if buf.String() != "" {
		t.Errorf("Reset() left %q", buf.String())
	}
}
