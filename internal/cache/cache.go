// Package cache stores analysis and recommendation reports on disk, keyed by
// a hash of the dataset bytes and the request that produced them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Report kinds used as key namespaces.
const (
	KindAnalysis       = "analysis"
	KindRecommendation = "recommendation"
	KindInsights       = "insights"
)

// Cache is a directory of JSON report files.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a cache rooted at dir. An empty dir disables caching.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Key hashes kind, the dataset content and any extra request parts.
func Key(kind string, dataset []byte, parts ...string) string {
	h := sha256.New()
	_ = writeString(h, kind)
	_ = writeInt(h, len(dataset))
	_, _ = h.Write(dataset)
	for _, p := range parts {
		_ = writeString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FileKey is Key over the contents of the file at path, streamed.
func FileKey(kind, path string, parts ...string) (string, error) {
	h := sha256.New()
	if err := writeString(h, kind); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("hashing dataset: %w", err)
	}
	if err := writeInt(h, int(info.Size())); err != nil {
		return "", err
	}
	if err := hashFile(h, path); err != nil {
		return "", fmt.Errorf("hashing dataset: %w", err)
	}
	for _, p := range parts {
		if err := writeString(h, p); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get decodes the cached report for key into out. It reports false on a miss
// or an unreadable entry.
func (c *Cache) Get(key string, out any) bool {
	if c.dir == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		// Invalid cache entry, treat as miss
		return false
	}
	return true
}

// Put stores v under key.
func (c *Cache) Put(key string, v any) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear removes all cached reports. It refuses to delete a directory that
// holds anything other than cache files.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// writeString writes s with a null delimiter so adjacent parts cannot collide.
func writeString(w io.Writer, s string) error {
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeInt(w io.Writer, i int) error {
	_, err := fmt.Fprintf(w, "%d\x00", i)
	return err
}

func hashFile(h io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	_, err = io.Copy(h, f)
	return err
}
