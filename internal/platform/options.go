package platform

import (
	"log/slog"

	"github.com/aretw0/encyclopedia/pkg/core"
)

// options holds the internal configuration for the encyclopedia service.
type options struct {
	repository   core.Repository
	logger       *slog.Logger
	autoInit     bool
	versioning   *bool // nil means detect from the directory
	mustExist    bool
	readOnly     bool
	systemDir    string
	errorHandler func(error)
	randomSource func(n int) int
}

// Option defines a functional option for configuring the encyclopedia.
type Option func(*options)

func defaultOptions() *options {
	return &options{}
}

func collect(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAutoInit creates the entries directory (and git repository, when
// versioned) if missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithVersioning enables or disables git versioning of entries.
// When not set, versioning is on exactly when the directory already holds a
// git repository.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithMustExist ensures the entries directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithLogger sets the logger for the service and the storage adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository allows injecting a custom storage adapter (e.g. a mock).
// If provided, the default filesystem adapter is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithSystemDir sets the hidden directory holding the index cache.
// Defaults to ".encyclopedia".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithWatcherErrorHandler registers a callback for errors raised while
// watching the entries directory.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Write operations (Save, Delete, Sync) return core.ErrReadOnly.
// 2. Initialization (mkdir, git init) is skipped; the directory must exist.
// 3. Index cache updates are not persisted to disk.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithRandomSource replaces the source used to pick random entries.
func WithRandomSource(intn func(n int) int) Option {
	return func(o *options) {
		o.randomSource = intn
	}
}
