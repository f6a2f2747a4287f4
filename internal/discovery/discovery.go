// Package discovery finds dataset files under a directory tree.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vedanthq/SLMGen/internal/dataset"
)

// DiscoveredDataset is a dataset file found during directory traversal.
type DiscoveredDataset struct {
	Name string // path relative to the search root
	Path string // absolute path
	Size int64
}

// Compressed reports whether the file is gzip or zstd compressed.
func (d DiscoveredDataset) Compressed() bool {
	return strings.HasSuffix(d.Path, ".gz") || strings.HasSuffix(d.Path, ".zst")
}

// Discover walks root and returns every file with a dataset extension
// (.jsonl, .jsonl.gz, .jsonl.zst) sorted by relative name. Hidden
// directories, node_modules and vendor are skipped.
func Discover(root string) ([]DiscoveredDataset, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root path: %w", err)
	}

	// Verify root exists before walking
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}

	var found []DiscoveredDataset

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}

		if d.IsDir() {
			if path != absRoot && skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !dataset.IsDatasetName(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = d.Name()
		}
		found = append(found, DiscoveredDataset{
			Name: filepath.ToSlash(rel),
			Path: path,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", absRoot, err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor"
}
