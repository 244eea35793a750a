// Package index keeps a persistent, queryable record of the symbols found in
// a source tree.
//
// Every analyzed file gets a row in files (content hash, diagnostics count
// and a zstd-compressed JSON snapshot of its symbols) and one row per
// declaration in symbols. Files whose content hash has not changed since the
// last update are skipped.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/sambeau/pyfront/config"
	"github.com/sambeau/pyfront/pkg/logging"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Index is an open symbol index.
type Index struct {
	db      *sql.DB
	driver  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *logging.Logger
}

// driverNames maps configured drivers to database/sql driver names.
var driverNames = map[string]string{
	"sqlite":   "sqlite",
	"postgres": "postgres",
	"mysql":    "mysql",
}

// Open connects to the configured database and creates the tables if they
// do not exist.
func Open(cfg *config.Config, logger *logging.Logger) (*Index, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	ic := cfg.Index
	name, ok := driverNames[ic.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported index driver: %s", ic.Driver)
	}

	dsn := ic.DSN
	if ic.Driver == "sqlite" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	if ic.Driver == "sqlite" {
		// one connection keeps :memory: databases alive and serializes writes
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to index: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel(ic.Compression)))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		encoder.Close()
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}

	idx := &Index{
		db:      db,
		driver:  ic.Driver,
		encoder: encoder,
		decoder: decoder,
		logger:  logger,
	}
	if err := idx.createTables(); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to create index tables: %w", err)
	}
	return idx, nil
}

func encoderLevel(name string) zstd.EncoderLevel {
	switch name {
	case "fastest":
		return zstd.SpeedFastest
	case "better":
		return zstd.SpeedBetterCompression
	case "best":
		return zstd.SpeedBestCompression
	}
	return zstd.SpeedDefault
}

func (idx *Index) blobType() string {
	switch idx.driver {
	case "postgres":
		return "BYTEA"
	case "mysql":
		return "LONGBLOB"
	}
	return "BLOB"
}

func (idx *Index) createTables() error {
	queries := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS pyf_files (
				path VARCHAR(512) PRIMARY KEY,
				module VARCHAR(255) NOT NULL,
				hash VARCHAR(64) NOT NULL,
				size BIGINT NOT NULL,
				errors INTEGER NOT NULL,
				indexed_at BIGINT NOT NULL,
				run_id VARCHAR(64) NOT NULL,
				snapshot %s
			)
		`, idx.blobType()),
		`
			CREATE TABLE IF NOT EXISTS pyf_symbols (
				path VARCHAR(512) NOT NULL,
				module VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				kind VARCHAR(32) NOT NULL,
				scope VARCHAR(255) NOT NULL,
				start_offset INTEGER NOT NULL,
				end_offset INTEGER NOT NULL,
				line INTEGER NOT NULL,
				detail TEXT
			)
		`,
		`
			CREATE TABLE IF NOT EXISTS pyf_runs (
				id VARCHAR(64) NOT NULL,
				started_at BIGINT NOT NULL,
				files INTEGER NOT NULL,
				changed INTEGER NOT NULL
			)
		`,
	}
	for _, query := range queries {
		if _, err := idx.db.Exec(query); err != nil {
			return err
		}
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS
	indexes := []string{
		"CREATE INDEX idx_pyf_symbols_name ON pyf_symbols(name)",
		"CREATE INDEX idx_pyf_symbols_path ON pyf_symbols(path)",
	}
	for _, query := range indexes {
		if idx.driver != "mysql" {
			query = strings.Replace(query, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1)
		}
		if _, err := idx.db.Exec(query); err != nil && !isDuplicateIndex(err) {
			return err
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	return strings.Contains(err.Error(), "Duplicate key name")
}

// rebind rewrites ? placeholders as $1, $2... for PostgreSQL.
func (idx *Index) rebind(query string) string {
	if idx.driver != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// DB returns the underlying database connection
func (idx *Index) DB() *sql.DB {
	return idx.db
}

// Close releases the database and the compressors.
func (idx *Index) Close() error {
	idx.encoder.Close()
	idx.decoder.Close()
	return idx.db.Close()
}
