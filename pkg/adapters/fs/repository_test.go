package fs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/encyclopedia/pkg/adapters/fs"
	"github.com/aretw0/encyclopedia/pkg/core"
	"github.com/aretw0/encyclopedia/pkg/git"
)

// setupRepo helps create a repository for testing.
// It returns the repository, the entries directory, and a git client on it.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string, *git.Client) {
	t.Helper()

	entriesPath := filepath.Join(t.TempDir(), "entries")

	cfg := fs.Config{
		Path:     entriesPath,
		AutoInit: true,
		Gitless:  true, // Default to gitless unless overridden
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.Gitless && !git.IsInstalled() {
		t.Skip("git not installed")
	}

	client := git.NewClient(entriesPath, "", nil)
	repo := fs.NewRepository(cfg)
	return repo, entriesPath, client
}

func withGit(c *fs.Config) { c.Gitless = false }

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		repo, path, _ := setupRepo(t)

		require.NoError(t, repo.Initialize(context.Background()))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		info, err = os.Stat(filepath.Join(path, fs.DefaultSystemDir))
		require.NoError(t, err, "system directory marks the entries root")
		assert.True(t, info.IsDir())
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		repo, _, _ := setupRepo(t, func(c *fs.Config) {
			c.MustExist = true
		})

		assert.Error(t, repo.Initialize(context.Background()))
	})

	t.Run("Inits Git Repo and Ignores System Dir", func(t *testing.T) {
		repo, path, client := setupRepo(t, withGit)

		require.NoError(t, repo.Initialize(context.Background()))
		assert.True(t, client.IsRepo())

		ignore, err := os.ReadFile(filepath.Join(path, ".gitignore"))
		require.NoError(t, err)
		assert.Contains(t, string(ignore), ".encyclopedia/")
		assert.Contains(t, string(ignore), ".encyclopedia.lock")

		// A second run does not duplicate the lines.
		require.NoError(t, repo.Initialize(context.Background()))
		again, _ := os.ReadFile(filepath.Join(path, ".gitignore"))
		assert.Equal(t, string(ignore), string(again))
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("Writes Key File With Frontmatter", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(ctx))

		err := repo.Save(ctx, core.Entry{Key: "hello-world", Title: "Hello World", Content: "# Hello World\nHi."})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(path, "hello-world.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "title: Hello World")
		assert.True(t, strings.HasSuffix(string(data), "# Hello World\nHi."))
	})

	t.Run("Updates Legacy File In Place", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(ctx))
		require.NoError(t, os.WriteFile(filepath.Join(path, "CSS.md"), []byte("# CSS\nold"), 0644))

		require.NoError(t, repo.Save(ctx, core.Entry{Key: "css", Title: "CSS", Content: "new"}))

		_, err := os.Stat(filepath.Join(path, "css.md"))
		if err == nil {
			// Case-insensitive filesystems resolve css.md to CSS.md.
			files, _ := os.ReadDir(path)
			var names []string
			for _, f := range files {
				if !f.IsDir() && filepath.Ext(f.Name()) == ".md" {
					names = append(names, f.Name())
				}
			}
			assert.Len(t, names, 1, "must not create a second file for the same key")
		}

		e, err := repo.Get(ctx, "css")
		require.NoError(t, err)
		assert.Equal(t, "new", e.Content)
	})

	t.Run("Rejects Bad Keys", func(t *testing.T) {
		repo, _, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(ctx))

		for _, key := range []string{"", "..", "a/b", `a\b`} {
			err := repo.Save(ctx, core.Entry{Key: key, Content: "x"})
			assert.ErrorIs(t, err, core.ErrInvalidTitle, "key %q", key)
		}
	})

	t.Run("Read Only", func(t *testing.T) {
		repo, path, _ := setupRepo(t, func(c *fs.Config) { c.ReadOnly = true })
		require.NoError(t, os.MkdirAll(path, 0755))
		require.NoError(t, repo.Initialize(ctx))

		err := repo.Save(ctx, core.Entry{Key: "git", Title: "Git", Content: "x"})
		assert.ErrorIs(t, err, core.ErrReadOnly)
		assert.ErrorIs(t, repo.Delete(ctx, "git"), core.ErrReadOnly)
	})

	t.Run("Commits With Change Reason", func(t *testing.T) {
		repo, _, client := setupRepo(t, withGit)
		require.NoError(t, repo.Initialize(ctx))

		reasonCtx := core.WithChangeReason(ctx, "docs(entries): create Git")
		require.NoError(t, repo.Save(reasonCtx, core.Entry{Key: "git", Title: "Git", Content: "# Git"}))

		log, err := client.Log("git.md", 1)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Contains(t, log[0].Subject, "create Git")
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	repo, path, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(ctx))

	t.Run("Save Then Get", func(t *testing.T) {
		titles := []string{"Python", "Hello World", "Go", "Élan"}
		for _, title := range titles {
			key, err := core.Key(title)
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, core.Entry{Key: key, Title: title, Content: "about " + title}))
		}
		for _, title := range titles {
			key, _ := core.Key(title)
			e, err := repo.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, "about "+title, e.Content)
			assert.Equal(t, title, e.Title)
			assert.Equal(t, key, e.Key)
		}
	})

	t.Run("Titles Sharing Letters Stay Apart", func(t *testing.T) {
		contents := map[string]string{
			"C":      "A systems language.",
			"C++":    "C with classes.",
			"C#":     "A Microsoft language.",
			"東京":     "Capital of Japan.",
			"Москва": "Capital of Russia.",
		}
		for title, body := range contents {
			key, err := core.Key(title)
			require.NoError(t, err, title)
			require.NoError(t, repo.Save(ctx, core.Entry{Key: key, Title: title, Content: body}))
		}
		for title, body := range contents {
			key, _ := core.Key(title)
			e, err := repo.Get(ctx, key)
			require.NoError(t, err, title)
			assert.Equal(t, title, e.Title)
			assert.Equal(t, body, e.Content)
		}

		entries, err := repo.List(ctx)
		require.NoError(t, err)
		listed := make(map[string]bool)
		for _, e := range entries {
			listed[e.Title] = true
		}
		for title := range contents {
			assert.True(t, listed[title], "%q missing from listing", title)
		}
	})

	t.Run("Legacy File Uses Stem As Title", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(path, "HTML.md"), []byte("# HTML\nMarkup."), 0644))

		e, err := repo.Get(ctx, "html")
		require.NoError(t, err)
		assert.Equal(t, "HTML", e.Title)
		assert.Equal(t, "# HTML\nMarkup.", e.Content)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := repo.Get(ctx, "nope")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo, path, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(ctx))

	require.NoError(t, repo.Save(ctx, core.Entry{Key: "python", Title: "Python", Content: "x"}))
	require.NoError(t, os.WriteFile(filepath.Join(path, "CSS.md"), []byte("# CSS"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, ".python.md.123.tmp"), []byte("ignored"), 0644))
	require.NoError(t, repo.Save(ctx, core.Entry{Key: ".net", Title: ".NET", Content: "x"}))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "sub", "nested.md"), []byte("ignored"), 0644))

	titles := func() []string {
		entries, err := repo.List(ctx)
		require.NoError(t, err)
		var out []string
		for _, e := range entries {
			out = append(out, e.Title)
		}
		sort.Strings(out)
		return out
	}

	assert.Equal(t, []string{".NET", "CSS", "Python"}, titles())

	t.Run("Persists Index", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(path, ".encyclopedia", "index.json"))
		assert.NoError(t, err)
	})

	t.Run("Served From Index On Second Call", func(t *testing.T) {
		assert.Equal(t, []string{".NET", "CSS", "Python"}, titles())
	})

	t.Run("Notices Removed Files", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(path, "CSS.md")))
		assert.Equal(t, []string{".NET", "Python"}, titles())
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Gitless", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(ctx))
		require.NoError(t, repo.Save(ctx, core.Entry{Key: "git", Title: "Git", Content: "x"}))

		require.NoError(t, repo.Delete(ctx, "git"))

		_, err := os.Stat(filepath.Join(path, "git.md"))
		assert.True(t, os.IsNotExist(err))
		_, err = repo.Get(ctx, "git")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		repo, _, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(ctx))
		assert.ErrorIs(t, repo.Delete(ctx, "ghost"), core.ErrNotFound)
	})

	t.Run("With Git", func(t *testing.T) {
		repo, path, client := setupRepo(t, withGit)
		require.NoError(t, repo.Initialize(ctx))
		require.NoError(t, repo.Save(ctx, core.Entry{Key: "git", Title: "Git", Content: "x"}))

		require.NoError(t, repo.Delete(core.WithChangeReason(ctx, "docs(entries): delete Git"), "git"))

		_, err := os.Stat(filepath.Join(path, "git.md"))
		assert.True(t, os.IsNotExist(err))

		status, err := client.Status()
		require.NoError(t, err)
		assert.Empty(t, strings.TrimSpace(status), "deletion should be committed")
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Rejects Occupied Key", func(t *testing.T) {
		repo, _, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(ctx))
		require.NoError(t, repo.Create(ctx, core.Entry{Key: "go", Title: "Go", Content: "gopher"}))

		err := repo.Create(ctx, core.Entry{Key: "go", Title: "GO", Content: "other"})
		assert.ErrorIs(t, err, core.ErrExists)
		assert.Contains(t, err.Error(), `"Go"`)

		e, err := repo.Get(ctx, "go")
		require.NoError(t, err)
		assert.Equal(t, "gopher", e.Content)
	})

	t.Run("Concurrent Creates Have One Winner", func(t *testing.T) {
		repo, _, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(ctx))

		const workers = 8
		var wg sync.WaitGroup
		var created atomic.Int32
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := repo.Create(ctx, core.Entry{Key: "rust", Title: "Rust", Content: fmt.Sprintf("writer %d", i)})
				if err == nil {
					created.Add(1)
				} else {
					assert.ErrorIs(t, err, core.ErrExists)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("Gitless", func(t *testing.T) {
		repo, _, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(ctx))
		_, err := repo.History(ctx, "go", 5)
		assert.ErrorIs(t, err, core.ErrUnsupported)
	})

	t.Run("Newest First", func(t *testing.T) {
		repo, _, _ := setupRepo(t, withGit)
		require.NoError(t, repo.Initialize(ctx))

		require.NoError(t, repo.Save(core.WithChangeReason(ctx, "docs: first"), core.Entry{Key: "go", Title: "Go", Content: "v1"}))
		require.NoError(t, repo.Save(core.WithChangeReason(ctx, "docs: second"), core.Entry{Key: "go", Title: "Go", Content: "v2"}))

		revs, err := repo.History(ctx, "go", 5)
		require.NoError(t, err)
		require.Len(t, revs, 2)
		assert.Equal(t, "docs: second", revs[0].Subject)
		assert.Equal(t, "docs: first", revs[1].Subject)
		assert.NotEmpty(t, revs[0].ID)

		_, err = repo.History(ctx, "ghost", 5)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestSync_RefusesUncommittedChanges(t *testing.T) {
	ctx := context.Background()
	repo, path, _ := setupRepo(t, withGit)
	require.NoError(t, repo.Initialize(ctx))
	require.NoError(t, repo.Save(ctx, core.Entry{Key: "go", Title: "Go", Content: "v1"}))

	require.NoError(t, os.WriteFile(filepath.Join(path, "go.md"), []byte("edited outside"), 0644))

	err := repo.Sync(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uncommitted changes")
}
