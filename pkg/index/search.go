package index

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// SearchOptions contains options for search queries
type SearchOptions struct {
	Limit  int
	Offset int
	Kind   string    // only declarations of this kind, e.g. "Function"
	Module string    // only this module
	Since  time.Time // only files indexed at or after this time
}

// DefaultSearchOptions returns default search options
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit: 50,
	}
}

// SearchResults contains all search results and metadata
type SearchResults struct {
	Query   string
	Total   int
	Limit   int
	Offset  int
	Results []Symbol
}

// Search finds symbols by name. The query may use * and ? wildcards; a
// query without wildcards matches names containing it.
func (idx *Index) Search(query string, opts SearchOptions) (*SearchResults, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchOptions().Limit
	}
	results := &SearchResults{
		Query:   query,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		Results: []Symbol{},
	}
	if strings.TrimSpace(query) == "" {
		return results, nil
	}

	where, args := buildWhere(query, opts)

	countSQL := idx.rebind("SELECT COUNT(*) FROM pyf_symbols s JOIN pyf_files f ON s.path = f.path WHERE " + where)
	if err := idx.db.QueryRow(countSQL, args...).Scan(&results.Total); err != nil {
		return nil, fmt.Errorf("search count failed: %w", err)
	}

	selectSQL := idx.rebind(`
		SELECT s.path, s.module, s.name, s.kind, s.scope, s.start_offset, s.end_offset, s.line, s.detail
		FROM pyf_symbols s
		JOIN pyf_files f ON s.path = f.path
		WHERE ` + where + `
		ORDER BY s.name, s.path, s.start_offset
		LIMIT ? OFFSET ?
	`)
	rows, err := idx.db.Query(selectSQL, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s Symbol
		var detail *string
		if err := rows.Scan(&s.Path, &s.Module, &s.Name, &s.Kind, &s.Scope, &s.Start, &s.End, &s.Line, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if detail != nil {
			s.Detail = *detail
		}
		results.Results = append(results.Results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}

func buildWhere(query string, opts SearchOptions) (string, []any) {
	clauses := []string{"s.name LIKE ?"}
	args := []any{likePattern(query)}

	if opts.Kind != "" {
		clauses = append(clauses, "s.kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.Module != "" {
		clauses = append(clauses, "s.module = ?")
		args = append(args, opts.Module)
	}
	if !opts.Since.IsZero() {
		clauses = append(clauses, "f.indexed_at >= ?")
		args = append(args, opts.Since.Unix())
	}
	return strings.Join(clauses, " AND "), args
}

// likePattern turns a wildcard query into a LIKE pattern.
func likePattern(query string) string {
	query = strings.TrimSpace(query)
	if !strings.ContainsAny(query, "*?") {
		return "%" + query + "%"
	}
	return strings.NewReplacer("*", "%", "?", "_").Replace(query)
}

// ParseSince accepts a date in any common format ("2024-03-01",
// "March 1, 2024", "1709251200") or a duration back from now ("36h").
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	t, err := dateparse.ParseIn(s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Stats describes the contents of the index.
type Stats struct {
	Files       int
	Symbols     int
	Runs        int
	WithErrors  int // files with at least one fatal diagnostic
	LastIndexed time.Time
	Kinds       map[string]int
}

// Stats returns index statistics
func (idx *Index) Stats() (*Stats, error) {
	stats := &Stats{Kinds: make(map[string]int)}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM pyf_files", &stats.Files},
		{"SELECT COUNT(*) FROM pyf_symbols", &stats.Symbols},
		{"SELECT COUNT(*) FROM pyf_runs", &stats.Runs},
		{"SELECT COUNT(*) FROM pyf_files WHERE errors > 0", &stats.WithErrors},
	}
	for _, c := range counts {
		if err := idx.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}

	var last *int64
	if err := idx.db.QueryRow("SELECT MAX(indexed_at) FROM pyf_files").Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to read last index time: %w", err)
	}
	if last != nil && *last > 0 {
		stats.LastIndexed = time.Unix(*last, 0)
	}

	rows, err := idx.db.Query("SELECT kind, COUNT(*) FROM pyf_symbols GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to count kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		stats.Kinds[kind] = n
	}
	return stats, rows.Err()
}
