package index

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/sambeau/pyfront/pkg/python/build"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
	"github.com/sambeau/pyfront/pkg/python/symbols"
)

// Hash returns the hex BLAKE2b-256 digest used to detect changed files.
func Hash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Symbol is one indexed declaration.
type Symbol struct {
	Path   string `json:"path"`
	Module string `json:"module"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Scope  string `json:"scope"` // "global" or the name of the enclosing def or class
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Line   int    `json:"line"`
	Detail string `json:"detail"`
}

// Snapshot is the stored record of one file.
type Snapshot struct {
	Path      string                  `json:"path"`
	Module    string                  `json:"module"`
	Hash      string                  `json:"hash"`
	IndexedAt time.Time               `json:"indexed_at"`
	RunID     string                  `json:"run_id"`
	Symbols   []Symbol                `json:"symbols"`
	Errors    []*perrors.ParsingError `json:"errors,omitempty"`
}

// Symbols flattens a file's symbol table into index rows, ordered by
// position.
func Symbols(state *build.State) []Symbol {
	if state.Symbols == nil {
		return nil
	}
	var rows []Symbol
	scopes := append([]*symbols.Scope{state.Symbols.GlobalScope()}, state.Symbols.Scopes()...)
	for _, scope := range scopes {
		for _, name := range scope.Names() {
			for _, d := range scope.Lookup(name).Declarations {
				n := d.Path().Node
				rows = append(rows, Symbol{
					Path:   state.Path,
					Module: state.Module,
					Name:   name,
					Kind:   d.Kind().String(),
					Scope:  scope.Name,
					Start:  n.Start,
					End:    n.End,
					Line:   lineOf(state.Source, n.Start),
					Detail: d.String(),
				})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Start < rows[j].Start })
	return rows
}

func lineOf(source string, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return 1 + strings.Count(source[:offset], "\n")
}

// UpdateStats returns statistics about an update operation.
type UpdateStats struct {
	RunID     string
	NewFiles  int
	Changed   int
	Unchanged int
	Symbols   int
	Duration  time.Duration
}

// String formats the stats for logging.
func (s UpdateStats) String() string {
	return fmt.Sprintf("new=%d changed=%d unchanged=%d symbols=%d duration=%v",
		s.NewFiles, s.Changed, s.Unchanged, s.Symbols, s.Duration)
}

// Update stores the analyzed files. Files that could not be read are
// skipped, and files whose content hash matches the stored one are left
// alone. Each file is written in its own transaction.
func (idx *Index) Update(ctx context.Context, runID string, states []*build.State) (*UpdateStats, error) {
	start := time.Now()
	stats := &UpdateStats{RunID: runID}

	stored, err := idx.hashes()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, state := range states {
		if state == nil || state.Tree == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hash := Hash([]byte(state.Source))
		old, exists := stored[state.Path]
		if exists && old == hash {
			stats.Unchanged++
			continue
		}

		snap := &Snapshot{
			Path:      state.Path,
			Module:    state.Module,
			Hash:      hash,
			IndexedAt: now,
			RunID:     runID,
			Symbols:   Symbols(state),
			Errors:    state.Errors,
		}
		if err := idx.store(ctx, snap, len(state.Source)); err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", state.Path, err)
		}

		stats.Symbols += len(snap.Symbols)
		if exists {
			stats.Changed++
		} else {
			stats.NewFiles++
		}
	}

	_, err = idx.db.ExecContext(ctx, idx.rebind(
		"INSERT INTO pyf_runs (id, started_at, files, changed) VALUES (?, ?, ?, ?)"),
		runID, start.Unix(), len(states), stats.NewFiles+stats.Changed)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	stats.Duration = time.Since(start)
	idx.logger.Info("index updated", "run", runID, "new", stats.NewFiles, "changed", stats.Changed, "unchanged", stats.Unchanged)
	return stats, nil
}

func (idx *Index) store(ctx context.Context, snap *Snapshot, size int) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	blob := idx.encoder.EncodeAll(data, nil)

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := idx.deleteFile(ctx, tx, snap.Path); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, idx.rebind(`
		INSERT INTO pyf_files (path, module, hash, size, errors, indexed_at, run_id, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), snap.Path, snap.Module, snap.Hash, size, perrors.CountFatal(snap.Errors), snap.IndexedAt.Unix(), snap.RunID, blob)
	if err != nil {
		return err
	}

	insert := idx.rebind(`
		INSERT INTO pyf_symbols (path, module, name, kind, scope, start_offset, end_offset, line, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, s := range snap.Symbols {
		if _, err := tx.ExecContext(ctx, insert, s.Path, s.Module, s.Name, s.Kind, s.Scope, s.Start, s.End, s.Line, s.Detail); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (idx *Index) deleteFile(ctx context.Context, tx *sql.Tx, path string) error {
	if _, err := tx.ExecContext(ctx, idx.rebind("DELETE FROM pyf_symbols WHERE path = ?"), path); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, idx.rebind("DELETE FROM pyf_files WHERE path = ?"), path)
	return err
}

// Remove deletes files from the index.
func (idx *Index) Remove(ctx context.Context, paths []string) error {
	for _, path := range paths {
		tx, err := idx.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := idx.deleteFile(ctx, tx, path); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) hashes() (map[string]string, error) {
	rows, err := idx.db.Query("SELECT path, hash FROM pyf_files")
	if err != nil {
		return nil, fmt.Errorf("failed to read file hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// ChangeSet contains all changes detected during a check.
type ChangeSet struct {
	New       []string
	Changed   []string
	Unchanged []string
	Deleted   []string // indexed paths that no longer exist
}

// Empty reports whether nothing needs re-indexing.
func (c *ChangeSet) Empty() bool {
	return len(c.New) == 0 && len(c.Changed) == 0 && len(c.Deleted) == 0
}

// CheckForChanges hashes the files at paths and compares them with the
// index. Indexed files missing from paths are reported as deleted only
// when they are gone from disk too.
func (idx *Index) CheckForChanges(paths []string) (*ChangeSet, error) {
	stored, err := idx.hashes()
	if err != nil {
		return nil, err
	}

	changes := &ChangeSet{}
	current := make(map[string]bool, len(paths))
	for _, path := range paths {
		current[path] = true
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		old, exists := stored[path]
		switch {
		case !exists:
			changes.New = append(changes.New, path)
		case old != Hash(data):
			changes.Changed = append(changes.Changed, path)
		default:
			changes.Unchanged = append(changes.Unchanged, path)
		}
	}

	for path := range stored {
		if current[path] {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			changes.Deleted = append(changes.Deleted, path)
		}
	}
	sort.Strings(changes.Deleted)
	return changes, nil
}

// Snapshot returns the stored record of path, or an error wrapping
// sql.ErrNoRows when the file is not indexed.
func (idx *Index) Snapshot(path string) (*Snapshot, error) {
	var blob []byte
	err := idx.db.QueryRow(idx.rebind("SELECT snapshot FROM pyf_files WHERE path = ?"), path).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("snapshot of %s: %w", path, err)
	}
	data, err := idx.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot of %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot of %s: %w", path, err)
	}
	return &snap, nil
}
