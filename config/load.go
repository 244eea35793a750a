package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding a config file path.
const EnvVar = "PYFRONT_CONFIG"

// Load reads configuration with ENV interpolation.
// Search order: explicit path > PYFRONT_CONFIG > ./pyfront.yaml >
// [tool.pyfront] in ./pyproject.toml > built-in defaults.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	return load(".", configPath, getenv)
}

func load(dir, configPath string, getenv func(string) string) (*Config, error) {
	path, err := resolveConfigPath(dir, configPath, getenv)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if path == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory: %w", err)
		}
		cfg.BaseDir = abs
		resolvePaths(cfg)
		return cfg, validate(cfg)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg.Path = absPath
	cfg.BaseDir = filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if filepath.Base(path) == "pyproject.toml" || filepath.Ext(path) == ".toml" {
		found, err := decodePyproject(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if !found && configPath == "" {
			cfg.Path = ""
		}
	} else {
		data = interpolateEnv(data, getenv)
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	resolvePaths(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodePyproject decodes the [tool.pyfront] table over cfg. It reports
// whether the table was present.
func decodePyproject(data []byte, cfg *Config) (bool, error) {
	var doc struct {
		Tool map[string]toml.Primitive `toml:"tool"`
	}
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return false, err
	}
	table, ok := doc.Tool["pyfront"]
	if !ok {
		return false, nil
	}
	if err := md.PrimitiveDecode(table, cfg); err != nil {
		return true, err
	}
	return true, nil
}

// resolveConfigPath finds the config file to use. An empty path with a nil
// error means the defaults apply.
func resolveConfigPath(dir, explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv(EnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s file not found: %s", EnvVar, envPath)
		}
		return envPath, nil
	}

	yamlPath := filepath.Join(dir, "pyfront.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, nil
	}

	tomlPath := filepath.Join(dir, "pyproject.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %s: %w", tomlPath, err)
	}

	return "", nil
}

func resolvePaths(cfg *Config) {
	for i, root := range cfg.Sources.Roots {
		if !filepath.IsAbs(root) {
			cfg.Sources.Roots[i] = filepath.Join(cfg.BaseDir, root)
		}
	}
	if cfg.Index.Driver == "sqlite" && cfg.Index.DSN != "" && cfg.Index.DSN != ":memory:" &&
		!strings.HasPrefix(cfg.Index.DSN, "file:") && !filepath.IsAbs(cfg.Index.DSN) {
		cfg.Index.DSN = filepath.Join(cfg.BaseDir, cfg.Index.DSN)
	}
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// Validate checks cfg after command-line overrides have been applied.
func Validate(cfg *Config) error {
	return validate(cfg)
}

func validate(cfg *Config) error {
	var errs []string

	if len(cfg.Sources.Roots) == 0 {
		errs = append(errs, "sources.roots: at least one root is required")
	}
	if len(cfg.Sources.Extensions) == 0 {
		errs = append(errs, "sources.extensions: at least one extension is required")
	}
	for i, ext := range cfg.Sources.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("sources.extensions[%d]: %q must start with a dot", i, ext))
		}
	}

	if cfg.Workers < 1 {
		errs = append(errs, fmt.Sprintf("invalid workers: %d (must be at least 1)", cfg.Workers))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	switch cfg.Index.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("invalid index driver: %s (must be sqlite, postgres, or mysql)", cfg.Index.Driver))
	}
	if cfg.Index.DSN == "" {
		errs = append(errs, "index.dsn is required")
	}
	switch cfg.Index.Compression {
	case "fastest", "default", "better", "best":
	default:
		errs = append(errs, fmt.Sprintf("invalid index compression: %s (must be fastest, default, better, or best)", cfg.Index.Compression))
	}

	if d, err := time.ParseDuration(cfg.Watch.Debounce); err != nil {
		errs = append(errs, fmt.Sprintf("invalid watch debounce: %q", cfg.Watch.Debounce))
	} else if d < 0 {
		errs = append(errs, fmt.Sprintf("invalid watch debounce: %s (must not be negative)", d))
	}

	if cfg.Report.Locale == "" {
		errs = append(errs, "report.locale is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Warnings returns non-fatal configuration issues that should be reported to the user.
func Warnings(cfg *Config) []string {
	var warnings []string

	for _, root := range cfg.Sources.Roots {
		if _, err := os.Stat(root); err != nil {
			warnings = append(warnings, fmt.Sprintf("sources: root %s does not exist", root))
		}
	}

	if cfg.Workers > 4*runtime.NumCPU() {
		warnings = append(warnings, fmt.Sprintf("workers: %d is more than four per CPU - parsing is CPU bound", cfg.Workers))
	}

	if cfg.Index.Driver != "sqlite" && strings.Contains(cfg.Index.DSN, "password=") {
		warnings = append(warnings, "index.dsn contains a plain-text password - consider ${VAR} interpolation")
	}

	if d, err := time.ParseDuration(cfg.Watch.Debounce); err == nil && d == 0 {
		warnings = append(warnings, "watch.debounce is 0 - every write triggers a re-check")
	}

	return warnings
}

// Debounce returns the parsed watch debounce. Validation guarantees it
// parses.
func (c *Config) Debounce() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}
