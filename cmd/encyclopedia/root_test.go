package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/encyclopedia/internal/config"
)

func TestResolveDir(t *testing.T) {
	t.Cleanup(func() { entriesDir = "" })

	t.Run("Flag Wins", func(t *testing.T) {
		entriesDir = "from-flag"
		t.Setenv("ENCYCLOPEDIA_ENTRIES_DIR", "from-env")
		assert.Equal(t, "from-flag", resolveDir())
		entriesDir = ""
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("ENCYCLOPEDIA_ENTRIES_DIR", "from-env")
		cfg, err := config.Load()
		require.NoError(t, err)
		settings = cfg
		assert.Equal(t, "from-env", resolveDir())
	})

	t.Run("Enclosing Entries Directory", func(t *testing.T) {
		root := t.TempDir()
		sub := filepath.Join(root, "nested")
		require.NoError(t, os.MkdirAll(filepath.Join(root, ".encyclopedia"), 0755))
		require.NoError(t, os.MkdirAll(sub, 0755))
		t.Chdir(sub)

		settings = config.Config{EntriesDir: "entries"}
		got, err := filepath.EvalSymlinks(resolveDir())
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(root)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Default", func(t *testing.T) {
		t.Chdir(t.TempDir())
		settings = config.Config{EntriesDir: "entries"}
		assert.Equal(t, "entries", resolveDir())
	})
}
