package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sambeau/pyfront/config"
	"github.com/sambeau/pyfront/pkg/index"
	"github.com/sambeau/pyfront/pkg/logging"
	"github.com/sambeau/pyfront/pkg/python/build"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
	"github.com/sambeau/pyfront/pkg/python/format"
	"github.com/sambeau/pyfront/pkg/python/lexer"
	"github.com/sambeau/pyfront/pkg/python/parser"
	"github.com/sambeau/pyfront/pkg/python/repl"
	"github.com/sambeau/pyfront/pkg/python/symbols"
	"github.com/sambeau/pyfront/pkg/report"
	"github.com/sambeau/pyfront/pkg/watch"
)

func runTokenize(e *env, args []string) int {
	fs := newFlagSet("tokenize", e)
	comments := fs.Bool("comments", false, "Include comment tokens")
	code := fs.String("c", "", "Tokenize this code instead of a file")
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}

	source, name, err := readInput(e, *code, fs.Args())
	if err != nil {
		return fail(e, err)
	}

	status := exitOK
	for _, tok := range lexer.Tokenize(source, *comments) {
		fmt.Fprintln(e.stdout, tok)
		if tok.Err != nil {
			fmt.Fprintf(e.stderr, "%s: line %d, column %d: %s\n", name, tok.Line, tok.Column, tok.Err.Error())
			status = exitDiagnostics
		}
	}
	return status
}

func runParse(e *env, args []string) int {
	fs := newFlagSet("parse", e)
	code := fs.String("c", "", "Parse this code instead of a file")
	asJSON := fs.Bool("json", false, "Print diagnostics as JSON")
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}

	source, name, err := readInput(e, *code, fs.Args())
	if err != nil {
		return fail(e, err)
	}

	p := parser.New(source, name)
	module := p.Parse()
	errs := p.StructuredErrors()

	fmt.Fprint(e.stdout, format.Dump(module))
	printDiagnostics(e.stderr, errs, *asJSON)
	return exitStatus(errs)
}

func runSymbols(e *env, args []string) int {
	fs := newFlagSet("symbols", e)
	code := fs.String("c", "", "Analyze this code instead of a file")
	name := fs.String("name", "", "Resolve this name instead of printing every scope")
	at := fs.Int("at", -1, "Byte offset to resolve --name from (default: end of input)")
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}

	source, file, err := readInput(e, *code, fs.Args())
	if err != nil {
		return fail(e, err)
	}

	p := parser.New(source, file)
	module := p.Parse()
	errs := p.StructuredErrors()
	printDiagnostics(e.stderr, errs, false)

	table := symbols.Build(module, moduleName(file))
	if *name == "" {
		fmt.Fprint(e.stdout, table.String())
		return exitStatus(errs)
	}

	pos := *at
	if pos < 0 {
		pos = len(source)
	}
	sym := table.LookupAt(*name, pos)
	if sym == nil {
		fmt.Fprintf(e.stderr, "%s is not declared at offset %d\n", *name, pos)
		return exitDiagnostics
	}
	if scope := table.InnermostScope(pos); scope != nil {
		fmt.Fprintf(e.stdout, "%s (from %s %s)\n", sym.Name, scope.Kind, scope.Name)
	} else {
		fmt.Fprintf(e.stdout, "%s (from module %s)\n", sym.Name, table.ModuleName)
	}
	for _, d := range sym.Declarations {
		fmt.Fprintf(e.stdout, "  %s\n", d)
	}
	if d := sym.DeclarationUntilPosition(pos); d != nil {
		fmt.Fprintf(e.stdout, "in effect: %s\n", d)
	}
	return exitStatus(errs)
}

// analyze discovers and checks every source file under the configured
// roots. Discovery failures are returned next to the states.
func analyze(ctx context.Context, cfg *config.Config, logger *logging.Logger) ([]*build.State, []*perrors.ParsingError, error) {
	files, walkErrs := build.Discover(cfg, cfg.Sources.Roots)
	logger.Debug("discovered sources", "files", len(files), "walk_errors", len(walkErrs))
	states, err := build.NewManager(cfg.Workers, logger).Build(ctx, build.Sources(files))
	return states, walkErrs, err
}

func runCheck(ctx context.Context, e *env, args []string) int {
	fs := newFlagSet("check", e)
	var opts projectOptions
	opts.register(fs)
	asJSON := fs.Bool("json", false, "Print diagnostics as JSON, one per line")
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}

	cfg, logger, err := opts.setup(e, fs.Args())
	if err != nil {
		return fail(e, err)
	}

	start := time.Now()
	states, walkErrs, err := analyze(ctx, cfg, logger)
	if err != nil {
		return fail(e, err)
	}

	diags := append([]*perrors.ParsingError(nil), walkErrs...)
	failed := 0
	for _, state := range states {
		diags = append(diags, state.Errors...)
		if state.HasErrors() {
			failed++
		}
	}
	perrors.Sort(diags)
	printDiagnostics(e.stdout, diags, *asJSON)

	logger.Info("check finished", "files", len(states), "with_errors", failed, "duration", time.Since(start).Round(time.Millisecond))
	return exitStatus(diags)
}

func runIndex(ctx context.Context, e *env, args []string) int {
	fs := newFlagSet("index", e)
	var opts projectOptions
	opts.register(fs)
	showStats := fs.Bool("stats", false, "Show index statistics instead of updating")
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}

	cfg, logger, err := opts.setup(e, fs.Args())
	if err != nil {
		return fail(e, err)
	}

	idx, err := index.Open(cfg, logger)
	if err != nil {
		return fail(e, err)
	}
	defer idx.Close()

	if *showStats {
		return printStats(e, idx)
	}

	files, walkErrs := build.Discover(cfg, cfg.Sources.Roots)
	printDiagnostics(e.stderr, walkErrs, false)

	changes, err := idx.CheckForChanges(files)
	if err != nil {
		return fail(e, err)
	}
	// Only a full run knows which indexed files are gone.
	if len(fs.Args()) == 0 && len(changes.Deleted) > 0 {
		if err := idx.Remove(ctx, changes.Deleted); err != nil {
			return fail(e, err)
		}
	}

	stale := append(append([]string{}, changes.New...), changes.Changed...)
	states, err := build.NewManager(cfg.Workers, logger).Build(ctx, build.Sources(stale))
	if err != nil {
		return fail(e, err)
	}
	stats, err := idx.Update(ctx, logger.RunID(), states)
	if err != nil {
		return fail(e, err)
	}

	logger.Info("index updated", "run_id", stats.RunID, "removed", len(changes.Deleted), "stats", stats.String())
	fmt.Fprintf(e.stdout, "Indexed %d file(s): %d new, %d changed, %d unchanged, %d symbol(s)\n",
		len(files), stats.NewFiles, stats.Changed, len(changes.Unchanged)+stats.Unchanged, stats.Symbols)
	if len(walkErrs) > 0 {
		return exitUsage
	}
	return exitOK
}

func printStats(e *env, idx *index.Index) int {
	stats, err := idx.Stats()
	if err != nil {
		return fail(e, err)
	}

	fmt.Fprintf(e.stdout, "Files:        %d\n", stats.Files)
	fmt.Fprintf(e.stdout, "With errors:  %d\n", stats.WithErrors)
	fmt.Fprintf(e.stdout, "Symbols:      %d\n", stats.Symbols)
	fmt.Fprintf(e.stdout, "Runs:         %d\n", stats.Runs)
	if !stats.LastIndexed.IsZero() {
		fmt.Fprintf(e.stdout, "Last indexed: %s\n", stats.LastIndexed.Format("2006-01-02 15:04:05"))
	}

	kinds := make([]string, 0, len(stats.Kinds))
	for kind := range stats.Kinds {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(e.stdout, "  %-14s %d\n", kind, stats.Kinds[kind])
	}
	return exitOK
}

func runSearch(e *env, args []string) int {
	fs := newFlagSet("search", e)
	var opts projectOptions
	opts.register(fs)
	kind := fs.String("kind", "", "Only declarations of this kind, e.g. Function")
	module := fs.String("module", "", "Only symbols of this module")
	since := fs.String("since", "", "Only files indexed since a date or a duration ago")
	limit := fs.Int("limit", 0, "Maximum number of results")
	offset := fs.Int("offset", 0, "Skip this many results")
	asJSON := fs.Bool("json", false, "Print results as JSON")
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "Error: search needs exactly one query")
		return exitUsage
	}
	query := fs.Arg(0)

	searchOpts := index.DefaultSearchOptions()
	if *limit > 0 {
		searchOpts.Limit = *limit
	}
	searchOpts.Offset = *offset
	searchOpts.Kind = *kind
	searchOpts.Module = *module
	if *since != "" {
		t, err := index.ParseSince(*since, time.Now())
		if err != nil {
			return fail(e, err)
		}
		searchOpts.Since = t
	}

	cfg, logger, err := opts.setup(e, nil)
	if err != nil {
		return fail(e, err)
	}
	idx, err := index.Open(cfg, logger)
	if err != nil {
		return fail(e, err)
	}
	defer idx.Close()

	results, err := idx.Search(query, searchOpts)
	if err != nil {
		return fail(e, err)
	}

	if *asJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fail(e, err)
		}
		fmt.Fprintln(e.stdout, string(data))
		return exitOK
	}

	if len(results.Results) == 0 {
		fmt.Fprintf(e.stdout, "No symbols match %q.\n", query)
		return exitOK
	}
	fmt.Fprintf(e.stdout, "%-40s %-14s %s\n", "LOCATION", "KIND", "NAME")
	fmt.Fprintln(e.stdout, strings.Repeat("-", 80))
	for _, sym := range results.Results {
		fmt.Fprintf(e.stdout, "%-40s %-14s %s\n", fmt.Sprintf("%s:%d", sym.Path, sym.Line), sym.Kind, qualifiedName(sym))
	}
	fmt.Fprintf(e.stdout, "\nShowing %d of %d result(s)\n", len(results.Results), results.Total)
	return exitOK
}

func qualifiedName(sym index.Symbol) string {
	if sym.Scope == "" || sym.Scope == "global" {
		return sym.Module + "." + sym.Name
	}
	return sym.Module + "." + sym.Scope + "." + sym.Name
}

func runWatch(ctx context.Context, e *env, args []string) int {
	fs := newFlagSet("watch", e)
	var opts projectOptions
	opts.register(fs)
	withIndex := fs.Bool("index", false, "Keep the symbol index up to date")
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}

	cfg, logger, err := opts.setup(e, fs.Args())
	if err != nil {
		return fail(e, err)
	}

	var idx *index.Index
	if *withIndex {
		idx, err = index.Open(cfg, logger)
		if err != nil {
			return fail(e, err)
		}
		defer idx.Close()
	}

	manager := build.NewManager(cfg.Workers, logger)
	recheck := func(ctx context.Context, paths []string) {
		var present, removed []string
		for _, path := range paths {
			if _, err := os.Stat(path); err == nil {
				present = append(present, path)
			} else {
				removed = append(removed, path)
			}
		}

		states, err := manager.Build(ctx, build.Sources(present))
		if err != nil {
			logger.Warn("re-check interrupted", "err", err)
			return
		}
		failed := 0
		for _, state := range states {
			printDiagnostics(e.stdout, state.Errors, false)
			if state.HasErrors() {
				failed++
			}
		}
		logger.Info("checked", "files", len(states), "with_errors", failed, "removed", len(removed))

		if idx == nil {
			return
		}
		if len(removed) > 0 {
			if err := idx.Remove(ctx, removed); err != nil {
				logger.Error("index remove failed", "err", err)
			}
		}
		if _, err := idx.Update(ctx, logger.RunID(), states); err != nil {
			logger.Error("index update failed", "err", err)
		}
	}

	files, walkErrs := build.Discover(cfg, cfg.Sources.Roots)
	printDiagnostics(e.stderr, walkErrs, false)
	recheck(ctx, files)

	w, err := watch.New(cfg, recheck, logger)
	if err != nil {
		return fail(e, err)
	}
	defer w.Close()
	if err := w.Start(ctx); err != nil {
		return fail(e, err)
	}

	<-ctx.Done()
	logger.Info("watch stopped", "batches", w.Batches())
	return exitOK
}

func runReport(ctx context.Context, e *env, args []string) int {
	fs := newFlagSet("report", e)
	var opts projectOptions
	opts.register(fs)
	html := fs.Bool("html", false, "Render HTML instead of Markdown")
	output := fs.String("o", "", "Write the report to this file instead of stdout")
	title := fs.String("title", "", "Report title")
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}

	cfg, logger, err := opts.setup(e, fs.Args())
	if err != nil {
		return fail(e, err)
	}

	states, walkErrs, err := analyze(ctx, cfg, logger)
	if err != nil {
		return fail(e, err)
	}
	printDiagnostics(e.stderr, walkErrs, false)

	reportOpts := report.OptionsFromConfig(cfg)
	if *title != "" {
		reportOpts.Title = *title
	}

	var out string
	if *html {
		out, err = report.HTML(states, reportOpts)
		if err != nil {
			return fail(e, err)
		}
	} else {
		out = report.Markdown(states, reportOpts)
	}

	if *output == "" {
		fmt.Fprint(e.stdout, out)
		return exitOK
	}
	if err := os.WriteFile(*output, []byte(out), 0644); err != nil {
		return fail(e, fmt.Errorf("writing report: %w", err))
	}
	logger.Info("report written", "path", *output, "files", len(states))
	return exitOK
}

func runREPL(e *env, args []string) int {
	fs := newFlagSet("repl", e)
	if status, ok := parseFlags(fs, args); !ok {
		return status
	}
	repl.Start(e.stdin, e.stdout, Version)
	return exitOK
}
