package encyclopedia

import (
	"log/slog"

	"github.com/aretw0/encyclopedia/internal/platform"
	"github.com/aretw0/encyclopedia/pkg/core"
)

// --- Types ---

// Entry is a titled Markdown document.
type Entry = core.Entry

// Service applies the wiki rules on top of a repository.
type Service = core.Service

// --- Configuration ---

// Option defines a functional option for configuring the encyclopedia.
type Option = platform.Option

// WithAutoInit creates the entries directory (and git repository when versioned).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git versioning.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist ensures the entries directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every write with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithSystemDir sets the hidden directory holding the index cache.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithWatcherErrorHandler receives errors from the directory watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithRandomSource replaces the source used by RandomTitle.
func WithRandomSource(intn func(n int) int) Option {
	return platform.WithRandomSource(intn)
}

// --- Factory ---

// New opens the entries directory at path.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init prepares the entries directory at path and returns its repository.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// --- Operations ---

// Sync pulls and pushes a versioned entries directory.
func Sync(path string, opts ...Option) error {
	return platform.Sync(path, opts...)
}

// ErrRootNotFound is returned by FindRoot when no entries directory encloses
// the start directory.
var ErrRootNotFound = platform.ErrRootNotFound

// FindRoot looks upwards from startDir for an entries directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir, "")
}
