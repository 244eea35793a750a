package build

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sambeau/pyfront/config"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
)

// Discover expands roots into the sorted list of source files below them.
// A root that is a file is kept as given whatever its extension. Walk
// failures are returned as IO-0002 diagnostics next to the files found.
func Discover(cfg *config.Config, roots []string) ([]string, []*perrors.ParsingError) {
	var files []string
	var errs []*perrors.ParsingError
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, walkError(root, err))
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, walkError(path, err))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && cfg.IsExcluded(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if cfg.IsSource(d.Name()) {
				add(path)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, walkError(root, err))
		}
	}

	sort.Strings(files)
	return files, errs
}

func walkError(path string, err error) *perrors.ParsingError {
	return perrors.New("IO-0002", map[string]any{
		"Path":    path,
		"GoError": err.Error(),
	}).WithFile(path)
}
