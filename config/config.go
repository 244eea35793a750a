// Package config holds the pyf project configuration.
package config

import "runtime"

// Config represents the complete pyf configuration
type Config struct {
	BaseDir string `yaml:"-" toml:"-"` // Directory containing the config file, for resolving relative paths
	Path    string `yaml:"-" toml:"-"` // File the configuration was read from, empty for defaults

	Sources SourcesConfig `yaml:"sources" toml:"sources"`
	Workers int           `yaml:"workers" toml:"workers"` // Files analyzed in parallel
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Index   IndexConfig   `yaml:"index" toml:"index"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Report  ReportConfig  `yaml:"report" toml:"report"`
}

// SourcesConfig says which files are analyzed
type SourcesConfig struct {
	Roots      []string `yaml:"roots" toml:"roots"`           // Directories or files to analyze
	Extensions []string `yaml:"extensions" toml:"extensions"` // File extensions treated as Python source
	Exclude    []string `yaml:"exclude" toml:"exclude"`       // Directory names skipped while walking
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // text, json
	Quiet  bool   `yaml:"quiet" toml:"quiet"`   // Suppress info lines
}

// IndexConfig holds the symbol index settings
type IndexConfig struct {
	Driver      string `yaml:"driver" toml:"driver"`           // sqlite, postgres, mysql
	DSN         string `yaml:"dsn" toml:"dsn"`                 // Data source name; a file path for sqlite
	Compression string `yaml:"compression" toml:"compression"` // Snapshot level: fastest, default, better, best
}

// WatchConfig holds file watcher settings
type WatchConfig struct {
	Debounce string `yaml:"debounce" toml:"debounce"` // Quiet period before re-checking, e.g. "100ms"
}

// ReportConfig holds diagnostics report settings
type ReportConfig struct {
	Title  string `yaml:"title" toml:"title"`
	Locale string `yaml:"locale" toml:"locale"` // e.g. en_US, fr_FR
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Sources: SourcesConfig{
			Roots:      []string{"."},
			Extensions: []string{".py", ".pyi"},
			Exclude:    []string{".git", "__pycache__", ".venv", "venv", "node_modules"},
		},
		Workers: runtime.GOMAXPROCS(0),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Index: IndexConfig{
			Driver:      "sqlite",
			DSN:         ".pyfront/index.db",
			Compression: "default",
		},
		Watch: WatchConfig{
			Debounce: "100ms",
		},
		Report: ReportConfig{
			Title:  "Python diagnostics",
			Locale: "en_US",
		},
	}
}

// IsSource reports whether a file name has one of the configured source
// extensions.
func (c *Config) IsSource(name string) bool {
	for _, ext := range c.Sources.Extensions {
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsExcluded reports whether a directory name is skipped.
func (c *Config) IsExcluded(dir string) bool {
	for _, name := range c.Sources.Exclude {
		if dir == name {
			return true
		}
	}
	return false
}
