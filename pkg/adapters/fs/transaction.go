package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aretw0/encyclopedia/pkg/core"
)

var errTxClosed = errors.New("transaction closed")

// Transaction implements core.Transaction for the filesystem.
//
// Nothing touches the disk until Commit. Commit writes every staged entry
// before removing any file, so an interrupted rename leaves both the old and
// the new entry behind rather than neither.
type Transaction struct {
	repo    *Repository
	staged  map[string]core.Entry // key -> entry
	deleted map[string]bool       // key -> bool
	mu      sync.Mutex
	closed  bool
}

// NewTransaction creates a new transaction.
func NewTransaction(repo *Repository) *Transaction {
	repo.trackTx(1)
	return &Transaction{
		repo:    repo,
		staged:  make(map[string]core.Entry),
		deleted: make(map[string]bool),
	}
}

// Save stages an entry for saving.
func (t *Transaction) Save(ctx context.Context, e core.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}
	if err := validKey(e.Key); err != nil {
		return err
	}

	t.staged[e.Key] = e
	delete(t.deleted, e.Key)
	return nil
}

// Get retrieves an entry, favoring staged changes.
func (t *Transaction) Get(ctx context.Context, key string) (core.Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return core.Entry{}, errTxClosed
	}
	if t.deleted[key] {
		return core.Entry{}, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if e, ok := t.staged[key]; ok {
		return e, nil
	}
	return t.repo.Get(ctx, key)
}

// Delete stages an entry for deletion.
func (t *Transaction) Delete(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}

	t.deleted[key] = true
	delete(t.staged, key)
	return nil
}

// Commit applies all staged changes as a single git commit.
func (t *Transaction) Commit(ctx context.Context, changeReason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}
	defer t.close()

	repo := t.repo
	repo.writeMu.Lock()
	defer repo.writeMu.Unlock()

	if !repo.config.Gitless {
		unlock, err := repo.git.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()
	}

	// Resolve deletions up front; a missing entry fails the whole commit
	// before anything is written.
	var toRemove []string
	for _, key := range sortedKeys(t.deleted) {
		name, err := repo.locate(key)
		if err != nil {
			return err
		}
		toRemove = append(toRemove, name)
	}

	var written []string
	for _, key := range sortedKeys(t.staged) {
		name, err := repo.writeEntry(t.staged[key])
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		written = append(written, name)
	}

	for _, name := range toRemove {
		if repo.config.Gitless {
			if err := os.Remove(filepath.Join(repo.Path, name)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove file %s: %w", name, err)
			}
		} else if err := repo.removeTracked(name); err != nil {
			return err
		}
		repo.cache.Delete(name)
	}

	if !repo.config.Gitless {
		if len(written) > 0 {
			if err := repo.git.Add(written...); err != nil {
				return fmt.Errorf("failed to git add: %w", err)
			}
		}
		msg := changeReason
		if msg == "" {
			msg = core.FormatChangeReason(core.ChangeTypeDocs, "entries", "batch update", "")
		}
		if err := repo.git.Commit(msg); err != nil {
			return fmt.Errorf("failed to git commit: %w", err)
		}
	}

	repo.saveCache()
	return nil
}

// Rollback discards all staged changes.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.close()
	return nil
}

// close must be called with t.mu held.
func (t *Transaction) close() {
	t.staged = nil
	t.deleted = nil
	t.closed = true
	t.repo.trackTx(-1)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
