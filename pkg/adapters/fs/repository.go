// Package fs stores encyclopedia entries as Markdown files in one flat
// directory, optionally versioned with git.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/encyclopedia/pkg/core"
	"github.com/aretw0/encyclopedia/pkg/git"
)

// Extension is the file extension of entry files.
const Extension = ".md"

// DefaultSystemDir holds the index cache inside the entries directory.
const DefaultSystemDir = ".encyclopedia"

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	AutoInit     bool
	Gitless      bool
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	SystemDir    string      // e.g. ".encyclopedia"
	ErrorHandler func(error) // receives watcher errors
}

// Repository implements core.Repository on top of the filesystem.
//
// Each entry lives in {Path}/{key}.md. Files written by other tools with a
// different case or spelling of the same key (e.g. "CSS.md" for key "css")
// are found and updated in place.
type Repository struct {
	Path       string
	git        *git.Client
	cache      *cache
	config     Config
	serializer MarkdownSerializer

	writeMu sync.Mutex

	mu            sync.RWMutex
	watcherActive bool
	lastRescan    *time.Time
	activeTx      int
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	return &Repository{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config: config,
		cache:  newCache(config.Path, config.SystemDir),
	}
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	if r.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	return NewTransaction(r), nil
}

// Initialize performs the necessary setup for the repository (mkdir, git init).
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("entries path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("entries path is not a directory: %s", r.Path)
		}
	} else {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create entries directory: %w", err)
		}
		// Marks the directory as an entries root for FindRoot.
		if err := os.MkdirAll(filepath.Join(r.Path, r.config.SystemDir), 0755); err != nil {
			return fmt.Errorf("failed to create system directory: %w", err)
		}
	}

	if r.config.Gitless || r.config.ReadOnly {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(core.FormatChangeReason(core.ChangeTypeChore, "", "configure "+r.config.SystemDir+" ignore", "")); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	return nil
}

// ensureIgnore keeps the system directory and lock file out of git.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	wanted := []string{r.config.SystemDir + "/", r.git.LockName()}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, w := range wanted {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Sync synchronizes the repository with its remote.
func (r *Repository) Sync(ctx context.Context) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if r.config.Gitless {
		return fmt.Errorf("cannot sync in gitless mode")
	}
	if !r.git.IsRepo() {
		return fmt.Errorf("path is not a git repository: %s", r.Path)
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	dirty, err := r.git.HasTrackedChanges()
	if err != nil {
		return fmt.Errorf("failed to read git status: %w", err)
	}
	if dirty {
		return fmt.Errorf("uncommitted changes in %s: commit or discard them before syncing", r.Path)
	}

	return r.git.Sync()
}

// History returns up to limit commits that touched the entry's file.
func (r *Repository) History(ctx context.Context, key string, limit int) ([]core.Revision, error) {
	if r.config.Gitless {
		return nil, fmt.Errorf("%w: history needs versioning", core.ErrUnsupported)
	}
	name, err := r.locate(key)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	commits, err := r.git.Log(name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	revs := make([]core.Revision, 0, len(commits))
	for _, c := range commits {
		revs = append(revs, core.Revision{ID: c.Hash, Time: c.Time, Subject: c.Subject})
	}
	return revs, nil
}

// Get retrieves an entry by key.
func (r *Repository) Get(ctx context.Context, key string) (core.Entry, error) {
	name, err := r.locate(key)
	if err != nil {
		return core.Entry{}, err
	}
	return r.readEntry(name)
}

// Save writes the entry to disk atomically and, unless gitless, commits it.
//
// Workflow:
//  1. Resolve the file that already holds the key, or {key}.md.
//  2. Serialize frontmatter + Markdown and write through a temp file.
//  3. Refresh the index record.
//  4. (If git enabled) 'git add' and 'git commit' with the context change reason.
func (r *Repository) Save(ctx context.Context, e core.Entry) error {
	return r.save(ctx, e, false)
}

// Create is Save for a key that must not exist yet. The check runs under the
// write lock, so concurrent creates of one key have a single winner.
func (r *Repository) Create(ctx context.Context, e core.Entry) error {
	return r.save(ctx, e, true)
}

func (r *Repository) save(ctx context.Context, e core.Entry, exclusive bool) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validKey(e.Key); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var unlock func()
	if !r.config.Gitless {
		var err error
		unlock, err = r.git.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()
	}

	if exclusive {
		if err := r.checkFree(e.Key); err != nil {
			return err
		}
	}

	name, err := r.writeEntry(e)
	if err != nil {
		return err
	}

	if r.config.Logger != nil {
		r.config.Logger.Debug("entry written", "key", e.Key, "file", name)
	}

	if !r.config.Gitless {
		if err := r.git.Add(name); err != nil {
			return fmt.Errorf("failed to git add: %w", err)
		}
		if err := r.git.Commit(core.ChangeReason(ctx, "update "+e.Key)); err != nil {
			return fmt.Errorf("failed to git commit: %w", err)
		}
	}

	r.saveCache()
	return nil
}

// Delete removes an entry.
func (r *Repository) Delete(ctx context.Context, key string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	name, err := r.locate(key)
	if err != nil {
		return err
	}

	if r.config.Gitless {
		if err := os.Remove(filepath.Join(r.Path, name)); err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		r.cache.Delete(name)
		r.saveCache()
		return nil
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := r.removeTracked(name); err != nil {
		return err
	}
	if err := r.git.Commit(core.ChangeReason(ctx, "delete "+key)); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}

	r.cache.Delete(name)
	r.saveCache()
	return nil
}

// List scans the directory for all entries.
//
// Strategy:
//  1. Load the index cache from disk.
//  2. Read the flat entries directory, skipping dirs and non-Markdown files.
//  3. For each file, trust the cached title while its mtime is unchanged,
//     otherwise parse the file and refresh the cache.
//  4. Save the cache back to disk (unless read-only).
func (r *Repository) List(ctx context.Context) ([]core.Entry, error) {
	if err := r.cache.Load(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("index cache unreadable, rebuilding", "error", err)
	}

	files, err := os.ReadDir(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries directory: %w", err)
	}

	var entries []core.Entry
	seen := make(map[string]bool)
	keys := make(map[string]string)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := f.Name()
		if f.IsDir() || !isEntryFile(name) {
			continue
		}

		key, err := core.Key(stem(name))
		if err != nil {
			if r.config.Logger != nil {
				r.config.Logger.Debug("skipping file with unusable name", "file", name)
			}
			continue
		}
		if other, dup := keys[key]; dup {
			if r.config.Logger != nil {
				r.config.Logger.Warn("duplicate entry files for key", "key", key, "kept", other, "skipped", name)
			}
			continue
		}
		keys[key] = name

		info, err := f.Info()
		if err != nil {
			continue
		}
		seen[name] = true

		if rec, hit := r.cache.Get(name, info.ModTime()); hit {
			entries = append(entries, core.Entry{
				Key:     rec.Key,
				Title:   rec.Title,
				ModTime: rec.LastModified,
			})
			continue
		}

		e, err := r.readEntry(name)
		if err != nil {
			if r.config.Logger != nil {
				r.config.Logger.Warn("skipping unparseable entry", "file", name, "error", err)
			}
			continue
		}
		entries = append(entries, e)
	}

	r.cache.Prune(seen)
	r.saveCache()

	return entries, nil
}

// locate returns the file name holding key.
func (r *Repository) locate(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}

	name := key + Extension
	if info, err := os.Stat(filepath.Join(r.Path, name)); err == nil && !info.IsDir() {
		return name, nil
	}

	files, err := os.ReadDir(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", core.ErrNotFound, key)
		}
		return "", fmt.Errorf("failed to read entries directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || !isEntryFile(f.Name()) {
			continue
		}
		if k, err := core.Key(stem(f.Name())); err == nil && k == key {
			return f.Name(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", core.ErrNotFound, key)
}

// readEntry parses the named file and refreshes its index record.
func (r *Repository) readEntry(name string) (core.Entry, error) {
	fullPath := filepath.Join(r.Path, name)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Entry{}, fmt.Errorf("%w: %s", core.ErrNotFound, stem(name))
		}
		return core.Entry{}, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return core.Entry{}, err
	}

	meta, content, err := r.serializer.Parse(data)
	if err != nil {
		return core.Entry{}, fmt.Errorf("failed to parse entry %s: %w", name, err)
	}

	key, err := core.Key(stem(name))
	if err != nil {
		return core.Entry{}, err
	}

	title := stem(name)
	if t, ok := meta["title"].(string); ok && strings.TrimSpace(t) != "" {
		title = t
	}

	r.cache.Set(name, &indexEntry{
		Key:          key,
		Title:        title,
		LastModified: info.ModTime(),
	})

	return core.Entry{
		Key:      key,
		Title:    title,
		Content:  content,
		Metadata: meta,
		ModTime:  info.ModTime(),
	}, nil
}

// writeEntry serializes e into the file currently holding its key (or
// {key}.md) and returns the file name. Callers hold writeMu.
func (r *Repository) writeEntry(e core.Entry) (string, error) {
	name, err := r.locate(e.Key)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return "", err
		}
		name = e.Key + Extension
	}

	data, err := r.serializer.Serialize(e)
	if err != nil {
		return "", fmt.Errorf("failed to serialize entry: %w", err)
	}

	fullPath := filepath.Join(r.Path, name)
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	title := e.Title
	if title == "" {
		title = stem(name)
	}
	if info, err := os.Stat(fullPath); err == nil {
		r.cache.Set(name, &indexEntry{Key: e.Key, Title: title, LastModified: info.ModTime()})
	}
	return name, nil
}

// checkFree fails with core.ErrExists when a file already holds key.
func (r *Repository) checkFree(key string) error {
	name, err := r.locate(key)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	title := stem(name)
	if existing, err := r.readEntry(name); err == nil {
		title = existing.Title
	}
	return fmt.Errorf("%w: %q", core.ErrExists, title)
}

// removeTracked removes name from disk and from the git index.
func (r *Repository) removeTracked(name string) error {
	if err := r.git.Rm(name); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}
	// Untracked files survive 'git rm --ignore-unmatch'.
	if err := os.Remove(filepath.Join(r.Path, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (r *Repository) saveCache() {
	if r.config.ReadOnly {
		return
	}
	if err := r.cache.Save(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("failed to persist index cache", "error", err)
	}
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, "/\\\x00") {
		return fmt.Errorf("%w: bad key %q", core.ErrInvalidTitle, key)
	}
	return nil
}

func isEntryFile(name string) bool {
	return filepath.Ext(name) == Extension && !isTempFile(name)
}

func stem(name string) string {
	return strings.TrimSuffix(filepath.Base(name), Extension)
}

var (
	_ core.Repository    = (*Repository)(nil)
	_ core.Creator       = (*Repository)(nil)
	_ core.Historian     = (*Repository)(nil)
	_ core.Syncable      = (*Repository)(nil)
	_ core.Transactional = (*Repository)(nil)
	_ core.Watchable     = (*Repository)(nil)
)
