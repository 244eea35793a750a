package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sambeau/pyfront/config"
	"github.com/sambeau/pyfront/pkg/logging"
	"github.com/sambeau/pyfront/pkg/python/build"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
)

// Version is set at compile time via -ldflags
var Version = "dev"

// Exit codes.
const (
	exitOK          = 0 // no fatal diagnostics
	exitDiagnostics = 1 // lexical or syntax errors found
	exitUsage       = 2 // bad arguments, configuration or IO
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// env is what one invocation reads from and writes to.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr, getenv: getenv}

	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stdout)
		return exitOK
	case "-V", "--version", "version":
		fmt.Fprintf(stdout, "pyf version %s\n", Version)
		return exitOK
	case "tokenize":
		return runTokenize(e, args[1:])
	case "parse":
		return runParse(e, args[1:])
	case "symbols":
		return runSymbols(e, args[1:])
	case "check":
		return runCheck(ctx, e, args[1:])
	case "index":
		return runIndex(ctx, e, args[1:])
	case "search":
		return runSearch(e, args[1:])
	case "watch":
		return runWatch(ctx, e, args[1:])
	case "report":
		return runReport(ctx, e, args[1:])
	case "repl":
		return runREPL(e, args[1:])
	}

	fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
	printUsage(stderr)
	return exitUsage
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `pyf - Python front end tools

Usage:
  pyf <command> [options] [args...]

Single-file commands:
  tokenize [--comments] [-c CODE | FILE | -]   Print the tokens of a file
  parse [-c CODE | FILE | -]                   Print the syntax tree of a file
  symbols [--name NAME --at OFFSET] [-c CODE | FILE | -]
                                               Print scopes, or resolve a name at an offset

Project commands:
  check [--json] [PATH...]                     Report diagnostics for every source file
  index [--stats] [PATH...]                    Update the symbol index
  search [--kind K] [--module M] [--since WHEN] [--limit N] [--json] QUERY
                                               Find indexed symbols; QUERY may use * and ?
  watch [--index] [PATH...]                    Re-check files as they change
  report [--html] [-o FILE] [--title T] [PATH...]
                                               Write a diagnostics report

Other:
  repl                                         Interactive tokenize/parse/symbols loop
  version                                      Show version
  help                                         Show this help

Project options:
  --config PATH       Path to config file (default: auto-detect)
  --quiet             Only log warnings and errors
  --log-level LEVEL   debug, info, warn or error
  --log-format FMT    text or json
  --workers N         Files analyzed in parallel

Config Resolution:
  1. --config flag
  2. %s environment variable
  3. ./pyfront.yaml
  4. [tool.pyfront] in ./pyproject.toml

Exit status:
  0  no errors
  1  lexical or syntax errors found
  2  usage, configuration or IO error
`, config.EnvVar)
}

func newFlagSet(name string, e *env) *flag.FlagSet {
	fs := flag.NewFlagSet("pyf "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parseFlags parses args and, when parsing should stop the command,
// returns the exit code and false.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitUsage, false
	}
	return exitOK, true
}

// projectOptions are the flags shared by the commands that load the
// project configuration.
type projectOptions struct {
	configPath string
	quiet      bool
	logLevel   string
	logFormat  string
	workers    int
}

func (o *projectOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Path to config file")
	fs.BoolVar(&o.quiet, "quiet", false, "Only log warnings and errors")
	fs.StringVar(&o.logLevel, "log-level", "", "Override the log level")
	fs.StringVar(&o.logFormat, "log-format", "", "Override the log format")
	fs.IntVar(&o.workers, "workers", 0, "Files analyzed in parallel")
}

// setup loads the configuration, applies command-line overrides and
// creates the logger. Non-empty roots replace the configured ones.
func (o *projectOptions) setup(e *env, roots []string) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(o.configPath, e.getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if o.quiet {
		cfg.Logging.Quiet = true
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if o.workers != 0 {
		cfg.Workers = o.workers
	}
	if len(roots) > 0 {
		cfg.Sources.Roots = roots
	}

	// Full validation after CLI overrides applied
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}

	for _, warning := range config.Warnings(cfg) {
		fmt.Fprintf(e.stderr, "warning: %s\n", warning)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Logging.Quiet && level < logging.LevelWarn {
		level = logging.LevelWarn
	}
	logger := logging.New(e.stderr, level, cfg.Logging.Format)
	if cfg.Path != "" {
		logger.Debug("configuration loaded", "path", cfg.Path)
	}
	logger.Debug("sources", "roots", strings.Join(cfg.Sources.Roots, ","), "workers", cfg.Workers)
	return cfg, logger, nil
}

// readInput returns the source named by a -c flag or a single file
// argument. "-" reads standard input.
func readInput(e *env, code string, args []string) (source, name string, err error) {
	if code != "" {
		if len(args) > 0 {
			return "", "", errors.New("-c cannot be combined with a file")
		}
		return code, "<string>", nil
	}
	if len(args) != 1 {
		return "", "", errors.New("expected exactly one file")
	}
	if args[0] == "-" {
		data, err := io.ReadAll(e.stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}

// moduleName names the module for a source read by readInput.
func moduleName(name string) string {
	if strings.HasPrefix(name, "<") {
		return "__main__"
	}
	return build.ModuleName(name)
}

// printDiagnostics writes each diagnostic in its pretty form, or as one
// JSON object per line.
func printDiagnostics(w io.Writer, errs []*perrors.ParsingError, asJSON bool) {
	for _, err := range errs {
		if asJSON {
			data, jerr := err.ToJSON()
			if jerr != nil {
				continue
			}
			fmt.Fprintln(w, string(data))
			continue
		}
		fmt.Fprintln(w, err.PrettyString())
		fmt.Fprintln(w)
	}
}

// exitStatus maps diagnostics to an exit code. IO failures win over
// syntax errors; style notes never fail a run.
func exitStatus(diags []*perrors.ParsingError) int {
	status := exitOK
	for _, d := range diags {
		switch {
		case d.Class == perrors.ClassIO:
			return exitUsage
		case d.IsFatal():
			status = exitDiagnostics
		}
	}
	return status
}

func fail(e *env, err error) int {
	fmt.Fprintf(e.stderr, "Error: %v\n", err)
	return exitUsage
}
