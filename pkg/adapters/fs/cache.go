package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const indexVersion = 2

// indexEntry is what the listing needs to know about one entry file.
type indexEntry struct {
	Key          string    `json:"key"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"lastModified"`
}

// index represents the persistent cache state.
type index struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"` // keyed by file name, e.g. "python.md"
	dirty   bool
	mu      sync.RWMutex
}

// cache keeps titles of entry files so List does not parse every file.
// A record is trusted only while the file's mtime is unchanged.
type cache struct {
	Path  string // {entries}/{systemDir}/index.json
	index *index
}

func newCache(entriesPath, systemDir string) *cache {
	return &cache{
		Path: filepath.Join(entriesPath, systemDir, "index.json"),
		index: &index{
			Version: indexVersion,
			Entries: make(map[string]*indexEntry),
		},
	}
}

// Load reads the cache from disk. A missing, corrupt or outdated file yields
// an empty index.
func (c *cache) Load() error {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	var loaded struct {
		Version int                    `json:"version"`
		Entries map[string]*indexEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &loaded); err != nil || loaded.Version != indexVersion || loaded.Entries == nil {
		c.index.Entries = make(map[string]*indexEntry)
		c.index.dirty = true
		return nil
	}

	c.index.Entries = loaded.Entries
	c.index.dirty = false
	return nil
}

// Save persists the cache if it changed since the last Load/Save.
func (c *cache) Save() error {
	c.index.mu.RLock()
	if !c.index.dirty {
		c.index.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(c.index, "", "  ")
	c.index.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.index.mu.Lock()
	c.index.dirty = false
	c.index.mu.Unlock()
	return nil
}

// Get returns the record for name if it is fresh for mtime.
func (c *cache) Get(name string, mtime time.Time) (*indexEntry, bool) {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()

	entry, ok := c.index.Entries[name]
	if !ok || !entry.LastModified.Equal(mtime) {
		return nil, false
	}
	return entry, true
}

// Set records name.
func (c *cache) Set(name string, entry *indexEntry) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	c.index.Entries[name] = entry
	c.index.dirty = true
}

// Delete forgets name.
func (c *cache) Delete(name string) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	if _, ok := c.index.Entries[name]; ok {
		delete(c.index.Entries, name)
		c.index.dirty = true
	}
}

// Prune removes records whose file was not seen.
func (c *cache) Prune(keep map[string]bool) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	for name := range c.index.Entries {
		if !keep[name] {
			delete(c.index.Entries, name)
			c.index.dirty = true
		}
	}
}

// Len returns the number of records.
func (c *cache) Len() int {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return len(c.index.Entries)
}
