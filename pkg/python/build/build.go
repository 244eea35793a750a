// Package build runs the lexer, parser and symbol table builder over many
// files at once.
//
// Each file gets its own pipeline; nothing is shared between files, so the
// files are spread over a fixed number of workers. Results come back in the
// order the sources were given.
package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sambeau/pyfront/pkg/logging"
	"github.com/sambeau/pyfront/pkg/python/ast"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
	"github.com/sambeau/pyfront/pkg/python/parser"
	"github.com/sambeau/pyfront/pkg/python/symbols"
)

// Source is one file to analyze. When Content is nil the file at Path is
// read. An empty Module is replaced by the file stem.
type Source struct {
	Path    string
	Module  string
	Content []byte
}

// State is the result of analyzing one file.
type State struct {
	Path     string
	Module   string
	Source   string
	Tree     *ast.Module         // nil when the file could not be read
	Symbols  *symbols.SymbolTable // nil when the file could not be read
	Errors   []*perrors.ParsingError
	Duration time.Duration
}

// HasErrors reports whether any diagnostic other than a style note was
// recorded.
func (s *State) HasErrors() bool {
	return perrors.CountFatal(s.Errors) > 0
}

// Manager analyzes files with a bounded number of workers.
type Manager struct {
	workers int
	logger  *logging.Logger
}

// NewManager returns a manager running at most workers files at a time.
func NewManager(workers int, logger *logging.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{workers: workers, logger: logger}
}

// ModuleName derives a module name from a file path: its stem.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Build analyzes every source and returns one State per source, in input
// order. It returns early with ctx's error if ctx is cancelled; states of
// files that were not reached are nil.
func (m *Manager) Build(ctx context.Context, sources []Source) ([]*State, error) {
	states := make([]*State, len(sources))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := m.workers
	if workers > len(sources) {
		workers = len(sources)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				states[i] = m.Check(sources[i])
			}
		}()
	}

	var err error
feed:
	for i := range sources {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		m.logger.Warn("build cancelled", "files", len(sources))
		return states, err
	}
	m.logger.Debug("build finished", "files", len(sources), "workers", workers)
	return states, nil
}

// Check analyzes a single source on the calling goroutine.
func (m *Manager) Check(src Source) *State {
	start := time.Now()
	state := &State{Path: src.Path, Module: src.Module}
	if state.Module == "" {
		state.Module = ModuleName(src.Path)
	}

	content := src.Content
	if content == nil {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			state.Errors = append(state.Errors, perrors.New("IO-0001", map[string]any{
				"Path":    src.Path,
				"GoError": err.Error(),
			}).WithFile(src.Path))
			state.Duration = time.Since(start)
			m.logger.Error("read failed", "path", src.Path, "err", err)
			return state
		}
		content = data
	}
	state.Source = string(content)

	p := parser.New(state.Source, src.Path)
	state.Tree = p.Parse()
	state.Errors = append(state.Errors, p.StructuredErrors()...)
	state.Symbols = symbols.Build(state.Tree, state.Module)
	state.Duration = time.Since(start)

	m.logger.Debug("checked", "path", src.Path, "errors", len(state.Errors), "duration", state.Duration)
	return state
}

// Sources turns file paths into sources named after their stems.
func Sources(paths []string) []Source {
	sources := make([]Source, len(paths))
	for i, path := range paths {
		sources[i] = Source{Path: path}
	}
	return sources
}
