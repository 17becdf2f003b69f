// Package catalog scans a tablebase root directory and builds the map
// from TableKey to its on-disk file and lazily-opened Table.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/lichess-org/mbtb/material"
	"github.com/lichess-org/mbtb/meta"
	"github.com/lichess-org/mbtb/table"
)

// entry is one registered table: its path and a once-initialized
// handle. Concurrent first callers of OpenTable race through openOnce;
// later callers get a lock-free read of the cached result.
type entry struct {
	path     string
	openOnce sync.Once
	table    *table.Table
	openErr  error
}

// Catalog is the queryable map built by scanning one or more
// tablebase root directories. It is safe for concurrent Table lookups
// once scanning has finished; add_path itself is not safe to call
// concurrently with other add_path calls or lookups.
type Catalog struct {
	mu      sync.RWMutex
	entries map[material.TableKey]*entry
	meta    map[material.DirectoryKey]*meta.Meta
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries: make(map[material.TableKey]*entry),
		meta:    make(map[material.DirectoryKey]*meta.Meta),
	}
}

// AddPath scans the direct subdirectories of dir, registering every
// table file whose name and enclosing directory parse consistently.
// It is idempotent: re-scanning the same root, or a root with
// overlapping keys, overwrites prior registrations for those keys.
// It returns the number of table files registered from this call.
func (c *Catalog) AddPath(dir string) (int, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("catalog: read %s: %w", dir, err)
	}

	count := 0
	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		dirKey, err := material.ParseDirectoryKey(child.Name())
		if err != nil {
			continue
		}
		subdir := filepath.Join(dir, child.Name())

		n, err := c.addDirectory(subdir, dirKey)
		if err != nil {
			return count, err
		}
		count += n
	}
	return count, nil
}

func (c *Catalog) addDirectory(subdir string, dirKey material.DirectoryKey) (int, error) {
	files, err := os.ReadDir(subdir)
	if err != nil {
		return 0, fmt.Errorf("catalog: read %s: %w", subdir, err)
	}

	c.mu.Lock()
	c.meta[dirKey] = meta.Load(filepath.Join(subdir, dirKey.String()+".json"))
	c.mu.Unlock()

	count := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		key, err := material.ParseTableKey(name)
		if err != nil {
			continue
		}
		if key.DirectoryKey() != dirKey {
			slog.Warn("table file does not match its directory key, ignoring", "path", filepath.Join(subdir, name))
			continue
		}

		c.mu.Lock()
		c.entries[key] = &entry{path: filepath.Join(subdir, name)}
		c.mu.Unlock()
		count++
	}
	slog.Info("indexed table directory", "dir", subdir, "tables", humanize.Comma(int64(count)))
	return count, nil
}

// OpenTable returns the opened Table registered under key, opening it
// on first use. The bool is false when key is not registered.
func (c *Catalog) OpenTable(key material.TableKey) (*table.Table, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	e.openOnce.Do(func() {
		e.table, e.openErr = table.Open(e.path, key.TableType == material.Mb)
		if e.openErr != nil {
			slog.Warn("failed to open table", "path", e.path, "error", e.openErr)
		}
	})
	if e.openErr != nil {
		return nil, true, e.openErr
	}
	return e.table, true, nil
}

// Meta returns the metadata recorded for a directory key, if any was
// parsed from its optional JSON file.
func (c *Catalog) Meta(key material.DirectoryKey) (*meta.Meta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.meta[key]
	return m, ok
}

// MetaKeys returns every directory key the catalog has metadata
// recorded for (an entry is present here even when its JSON file was
// missing or failed to parse, with a nil value).
func (c *Catalog) MetaKeys() []material.DirectoryKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]material.DirectoryKey, 0, len(c.meta))
	for k := range c.meta {
		keys = append(keys, k)
	}
	return keys
}
