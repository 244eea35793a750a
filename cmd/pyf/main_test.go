package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	perrors "github.com/sambeau/pyfront/pkg/python/errors"
)

func noEnv(string) string { return "" }

func runCmd(t *testing.T, getenv func(string) string, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(context.Background(), args, strings.NewReader(stdin), stdout, stderr, getenv)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// project lays out a source tree with a clean and a broken file.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "src/app.py", `import os

def load_config(path):
    data = os.path.join(path, "x")
    return data

class Settings:
    def __init__(self, name):
        self.name = name
`)
	writeFile(t, dir, "src/broken.py", "x = = 1\n")
	writeFile(t, dir, "src/notes.txt", "not python\n")
	writeFile(t, dir, "pyfront.yaml", `sources:
  roots: [src]
index:
  driver: sqlite
  dsn: index.db
logging:
  quiet: true
`)
	return dir
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCmd(t, noEnv, "", "version")
	if code != exitOK {
		t.Errorf("exit = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stdout, "pyf version") {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestRunHelpAndUsage(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{"help", []string{"--help"}, exitOK, "pyf - Python front end tools", ""},
		{"no args", nil, exitUsage, "", "Usage:"},
		{"unknown command", []string{"frobnicate"}, exitUsage, "", `unknown command "frobnicate"`},
		{"bad flag", []string{"check", "--no-such-flag"}, exitUsage, "", "flag provided but not defined"},
		{"flag help", []string{"parse", "-h"}, exitOK, "", "-json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCmd(t, noEnv, "", tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stdout, tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, stdout)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantErr, stderr)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "t.py", "y = 2\n")

	tests := []struct {
		name     string
		args     []string
		stdin    string
		wantCode int
		want     string
	}{
		{"code", []string{"-c", "x = 1"}, "", exitOK, "0,1: IDENTIFIER"},
		{"file", []string{file}, "", exitOK, "2,3: ="},
		{"stdin", []string{"-"}, "z = 3\n", exitOK, "0,1: IDENTIFIER"},
		{"comments kept", []string{"--comments", "-c", "# hi\nx\n"}, "", exitOK, "COMMENT"},
		{"lexical error", []string{"-c", "x = 0b12\n"}, "", exitDiagnostics, "ERROR"},
		{"missing file", []string{filepath.Join(dir, "missing.py")}, "", exitUsage, ""},
		{"two files", []string{file, file}, "", exitUsage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCmd(t, noEnv, tt.stdin, append([]string{"tokenize"}, tt.args...)...)
			if code != tt.wantCode {
				t.Fatalf("exit = %d, want %d\nstderr: %s", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Errorf("stdout missing %q:\n%s", tt.want, stdout)
			}
		})
	}

	_, stdout, _ := runCmd(t, noEnv, "", "tokenize", "-c", "# hi\nx\n")
	if strings.Contains(stdout, "COMMENT") {
		t.Errorf("comments should be dropped without --comments:\n%s", stdout)
	}
}

func TestParse(t *testing.T) {
	code, stdout, stderr := runCmd(t, noEnv, "", "parse", "-c", "x = 1\n")
	if code != exitOK {
		t.Fatalf("exit = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}
	if !strings.Contains(stdout, "Module 0..6") || !strings.Contains(stdout, `id="x"`) {
		t.Errorf("unexpected dump:\n%s", stdout)
	}

	code, _, stderr = runCmd(t, noEnv, "", "parse", "-c", "x = = 1\n")
	if code != exitDiagnostics {
		t.Errorf("exit = %d, want %d", code, exitDiagnostics)
	}
	if !strings.Contains(stderr, "PARSE-") {
		t.Errorf("stderr should hold the diagnostic:\n%s", stderr)
	}

	_, _, stderr = runCmd(t, noEnv, "", "parse", "--json", "-c", "x = = 1\n")
	line := strings.SplitN(strings.TrimSpace(stderr), "\n", 2)[0]
	var diag map[string]any
	if err := json.Unmarshal([]byte(line), &diag); err != nil {
		t.Fatalf("diagnostic is not JSON: %v\n%s", err, stderr)
	}
	if code, _ := diag["code"].(string); !strings.HasPrefix(code, "PARSE-") {
		t.Errorf("code = %v, want a PARSE- code", diag["code"])
	}
}

func TestSymbols(t *testing.T) {
	src := "def load(path):\n    data = path\n    return data\n"

	code, stdout, _ := runCmd(t, noEnv, "", "symbols", "-c", src)
	if code != exitOK {
		t.Fatalf("exit = %d, want %d", code, exitOK)
	}
	for _, want := range []string{"Symbols in global", "Symbols in load", "Parameter"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	at := strings.Index(src, "data =") + 2
	tests := []struct {
		name     string
		symbol   string
		wantCode int
		want     string
	}{
		{"local", "data", exitOK, "data (from function load)"},
		{"parameter", "path", exitOK, "Parameter (__main__:"},
		{"builtin", "dict", exitOK, "Class (builtins:"},
		{"undeclared", "missing", exitDiagnostics, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCmd(t, noEnv, "", "symbols", "--name", tt.symbol, "--at", strconv.Itoa(at), "-c", src)
			if code != tt.wantCode {
				t.Fatalf("exit = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Errorf("stdout missing %q:\n%s", tt.want, stdout)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	dir := project(t)
	src := filepath.Join(dir, "src")

	code, stdout, _ := runCmd(t, noEnv, "", "check", "--quiet", src)
	if code != exitDiagnostics {
		t.Errorf("exit = %d, want %d", code, exitDiagnostics)
	}
	if !strings.Contains(stdout, "broken.py") || !strings.Contains(stdout, "PARSE-") {
		t.Errorf("stdout should report broken.py:\n%s", stdout)
	}
	if strings.Contains(stdout, "app.py") {
		t.Errorf("clean file should not be reported:\n%s", stdout)
	}

	code, stdout, _ = runCmd(t, noEnv, "", "check", "--quiet", filepath.Join(src, "app.py"))
	if code != exitOK {
		t.Errorf("exit for clean file = %d, want %d\n%s", code, exitOK, stdout)
	}

	code, _, stderr := runCmd(t, noEnv, "", "check", "--quiet", filepath.Join(dir, "nowhere"))
	if code != exitUsage {
		t.Errorf("exit for missing root = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr, "does not exist") {
		t.Errorf("expected a missing-root warning:\n%s", stderr)
	}

	_, stdout, _ = runCmd(t, noEnv, "", "check", "--quiet", "--json", src)
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		var diag perrors.ParsingError
		if err := json.Unmarshal([]byte(line), &diag); err != nil {
			t.Fatalf("line is not JSON: %v\n%s", err, line)
		}
		if !strings.HasSuffix(diag.File, "broken.py") {
			t.Errorf("File = %q, want broken.py", diag.File)
		}
	}
}

func TestCheckSortsDiagnostics(t *testing.T) {
	dir := project(t)
	writeFile(t, dir, "src/zed.py", "y = = 2\n")
	writeFile(t, dir, "src/alpha.py", "z = )\n")

	_, stdout, _ := runCmd(t, noEnv, "", "check", "--quiet", "--json", filepath.Join(dir, "src"))
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		var diag perrors.ParsingError
		if err := json.Unmarshal([]byte(line), &diag); err != nil {
			t.Fatalf("line is not JSON: %v\n%s", err, line)
		}
		files = append(files, filepath.Base(diag.File))
	}

	want := []string{"alpha.py", "broken.py", "zed.py"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("diagnostic files = %v, want %v", files, want)
	}
}

func TestCheckLogsSummary(t *testing.T) {
	dir := project(t)
	_, _, stderr := runCmd(t, noEnv, "", "check", "--log-format", "json", filepath.Join(dir, "src"))

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		if strings.Contains(line, "check finished") {
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v\n%s", err, line)
			}
		}
	}
	if entry == nil {
		t.Fatalf("no summary logged:\n%s", stderr)
	}
	if entry["level"] != "info" || entry["run_id"] == "" {
		t.Errorf("entry = %v", entry)
	}
	if files, _ := entry["files"].(float64); files != 2 {
		t.Errorf("files = %v, want 2", entry["files"])
	}
}

func TestIndexAndSearch(t *testing.T) {
	dir := project(t)
	cfg := filepath.Join(dir, "pyfront.yaml")

	code, stdout, stderr := runCmd(t, noEnv, "", "index", "--config", cfg)
	if code != exitOK {
		t.Fatalf("index exit = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}
	if !strings.Contains(stdout, "Indexed 2 file(s): 2 new, 0 changed") {
		t.Errorf("unexpected index output: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.db")); err != nil {
		t.Errorf("index database not created next to the config: %v", err)
	}

	_, stdout, _ = runCmd(t, noEnv, "", "index", "--config", cfg)
	if !strings.Contains(stdout, "0 new, 0 changed, 2 unchanged") {
		t.Errorf("second run should find nothing to do: %s", stdout)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"substring", []string{"load"}, "app.load_config"},
		{"wildcard", []string{"Sett*"}, "app.Settings"},
		{"scoped", []string{"data"}, "app.load_config.data"},
		{"kind filter", []string{"--kind", "Class", "load"}, `No symbols match "load"`},
		{"module filter", []string{"--module", "other", "load"}, "No symbols match"},
		{"since", []string{"--since", "1h", "load"}, "app.load_config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"search", "--config", cfg}, tt.args...)
			code, stdout, stderr := runCmd(t, noEnv, "", args...)
			if code != exitOK {
				t.Fatalf("exit = %d, want %d\nstderr: %s", code, exitOK, stderr)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Errorf("stdout missing %q:\n%s", tt.want, stdout)
			}
		})
	}

	code, _, _ = runCmd(t, noEnv, "", "search", "--config", cfg)
	if code != exitUsage {
		t.Errorf("search without a query: exit = %d, want %d", code, exitUsage)
	}
	code, _, _ = runCmd(t, noEnv, "", "search", "--config", cfg, "--since", "not a date", "x")
	if code != exitUsage {
		t.Errorf("search with a bad date: exit = %d, want %d", code, exitUsage)
	}

	// The config is found through the environment too.
	getenv := func(key string) string {
		if key == "PYFRONT_CONFIG" {
			return cfg
		}
		return ""
	}
	code, stdout, _ = runCmd(t, getenv, "", "index", "--stats")
	if code != exitOK || !strings.Contains(stdout, "Files:        2") || !strings.Contains(stdout, "With errors:  1") {
		t.Errorf("stats exit = %d:\n%s", code, stdout)
	}
}

func TestReport(t *testing.T) {
	dir := project(t)
	cfg := filepath.Join(dir, "pyfront.yaml")

	code, stdout, _ := runCmd(t, noEnv, "", "report", "--config", cfg, "--title", "Nightly")
	if code != exitOK {
		t.Fatalf("exit = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stdout, "Nightly") || !strings.Contains(stdout, "broken.py") {
		t.Errorf("unexpected markdown report:\n%s", stdout)
	}

	out := filepath.Join(dir, "report.html")
	code, _, _ = runCmd(t, noEnv, "", "report", "--config", cfg, "--html", "-o", out)
	if code != exitOK {
		t.Fatalf("exit = %d, want %d", code, exitOK)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") || !strings.Contains(string(data), "<table>") {
		t.Errorf("unexpected html report:\n%s", data)
	}
}

func TestREPL(t *testing.T) {
	code, stdout, _ := runCmd(t, noEnv, "x = 1\n", "repl")
	if code != exitOK {
		t.Errorf("exit = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stdout, "Module 0..6") {
		t.Errorf("repl should print the tree:\n%s", stdout)
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	dir := project(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(ctx, []string{"watch", "--config", filepath.Join(dir, "pyfront.yaml")}, strings.NewReader(""), stdout, stderr, noEnv)
	if code != exitOK {
		t.Errorf("exit = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}
}

func TestExitStatus(t *testing.T) {
	style := &perrors.ParsingError{Class: perrors.ClassStyle}
	syntax := &perrors.ParsingError{Class: perrors.ClassSyntax}
	lexical := &perrors.ParsingError{Class: perrors.ClassLexical}
	ioErr := &perrors.ParsingError{Class: perrors.ClassIO}

	tests := []struct {
		name  string
		diags []*perrors.ParsingError
		want  int
	}{
		{"none", nil, exitOK},
		{"style only", []*perrors.ParsingError{style}, exitOK},
		{"syntax", []*perrors.ParsingError{style, syntax}, exitDiagnostics},
		{"lexical", []*perrors.ParsingError{lexical}, exitDiagnostics},
		{"io wins", []*perrors.ParsingError{syntax, ioErr}, exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitStatus(tt.diags); got != tt.want {
				t.Errorf("exitStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
