package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	CacheSize     int        `json:"cache_size"`
	Gitless       bool       `json:"gitless"`
	ReadOnly      bool       `json:"read_only"`
	WatcherActive bool       `json:"watcher_active"`
	LastRescan    *time.Time `json:"last_rescan,omitempty"`
	ActiveTx      int        `json:"active_transactions"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:          r.Path,
		SystemDir:     r.config.SystemDir,
		CacheSize:     r.cache.Len(),
		Gitless:       r.config.Gitless,
		ReadOnly:      r.config.ReadOnly,
		WatcherActive: r.watcherActive,
		LastRescan:    r.lastRescan,
		ActiveTx:      r.activeTx,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordRescan() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastRescan = &now
}

func (r *Repository) trackTx(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeTx += delta
}
