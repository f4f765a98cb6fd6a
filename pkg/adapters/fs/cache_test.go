package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_Load(t *testing.T) {
	t.Run("Starts Empty if File Missing", func(t *testing.T) {
		tmpDir := t.TempDir()
		c := newCache(tmpDir, ".cache")

		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty entries, got %d", c.Len())
		}
	})

	t.Run("Loads Valid JSON", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		os.MkdirAll(cacheDir, 0755)

		jsonContent := `{
			"version": 2,
			"entries": {
				"CSS.md": {"key": "css", "title": "CSS", "lastModified": "2024-01-02T03:04:05Z"}
			}
		}`
		os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte(jsonContent), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		entry, ok := c.index.Entries["CSS.md"]
		if !ok {
			t.Fatal("Expected entry CSS.md not found")
		}
		if entry.Key != "css" || entry.Title != "CSS" {
			t.Errorf("Unexpected record: %+v", entry)
		}
	})

	t.Run("Resets on Corrupted JSON", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		os.MkdirAll(cacheDir, 0755)
		os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte("{not json"), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load should not fail on corruption: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty entries after corruption, got %d", c.Len())
		}
		if !c.index.dirty {
			t.Error("Expected index to be dirty so it is rewritten")
		}
	})

	t.Run("Resets on Old Version", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		os.MkdirAll(cacheDir, 0755)
		os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte(`{"version":1,"entries":{"a.md":{"id":"a"}}}`), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected version 1 index to be discarded, got %d entries", c.Len())
		}
	})
}

func TestCache_Save(t *testing.T) {
	tmpDir := t.TempDir()
	c := newCache(tmpDir, ".cache")

	mtime := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	c.Set("python.md", &indexEntry{Key: "python", Title: "Python", LastModified: mtime})

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".cache", "index.json")); err != nil {
		t.Fatalf("Expected index file: %v", err)
	}

	reloaded := newCache(tmpDir, ".cache")
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	entry, ok := reloaded.Get("python.md", mtime)
	if !ok {
		t.Fatal("Expected fresh record after reload")
	}
	if entry.Title != "Python" {
		t.Errorf("Expected title Python, got %q", entry.Title)
	}

	t.Run("Skips Write When Clean", func(t *testing.T) {
		path := filepath.Join(tmpDir, ".cache", "index.json")
		os.Remove(path)

		if err := reloaded.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("Expected clean cache not to be written")
		}
	})
}

func TestCache_Get_Set(t *testing.T) {
	c := newCache(t.TempDir(), ".cache")
	mtime := time.Now()

	c.Set("git.md", &indexEntry{Key: "git", Title: "Git", LastModified: mtime})

	if _, ok := c.Get("git.md", mtime); !ok {
		t.Error("Expected hit for matching mtime")
	}
	if _, ok := c.Get("git.md", mtime.Add(time.Second)); ok {
		t.Error("Expected miss for changed mtime")
	}
	if _, ok := c.Get("missing.md", mtime); ok {
		t.Error("Expected miss for unknown file")
	}

	c.Delete("git.md")
	if _, ok := c.Get("git.md", mtime); ok {
		t.Error("Expected miss after Delete")
	}
}

func TestCache_Prune(t *testing.T) {
	c := newCache(t.TempDir(), ".cache")
	now := time.Now()
	c.Set("a.md", &indexEntry{Key: "a", LastModified: now})
	c.Set("b.md", &indexEntry{Key: "b", LastModified: now})

	c.Prune(map[string]bool{"a.md": true})

	if c.Len() != 1 {
		t.Fatalf("Expected 1 entry after prune, got %d", c.Len())
	}
	if _, ok := c.Get("a.md", now); !ok {
		t.Error("Expected a.md to survive prune")
	}
}
