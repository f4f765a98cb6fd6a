package core

import (
	"context"
	"time"
)

// Repository defines the contract for storing and retrieving entries.
// Implementations address entries by their canonical key (see Key).
type Repository interface {
	// Save persists an entry. It creates if not exists, or updates if it does.
	Save(ctx context.Context, e Entry) error

	// Get retrieves an entry by its key. Missing entries yield ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)

	// List returns all available entries. Content may be left empty when the
	// implementation serves the listing from an index.
	List(ctx context.Context) ([]Entry, error)

	// Delete removes an entry by its key.
	Delete(ctx context.Context, key string) error

	// Initialize ensures the underlying storage is ready (e.g. create directories, git init).
	Initialize(ctx context.Context) error
}

// Creator is implemented by repositories that can store a new entry and
// reject an occupied key in one step. Create fails with ErrExists.
type Creator interface {
	Create(ctx context.Context, e Entry) error
}

// Revision is one recorded change to an entry.
type Revision struct {
	ID      string
	Time    time.Time
	Subject string
}

// Historian is implemented by repositories that record entry history.
type Historian interface {
	// History returns up to limit revisions of key, newest first.
	History(ctx context.Context, key string, limit int) ([]Revision, error)
}

// Syncable defines an interface for repositories that support synchronization with a remote.
type Syncable interface {
	// Sync synchronizes the local state with a remote source (e.g. git pull/push).
	Sync(ctx context.Context) error
}

// Watchable is implemented by repositories that can report external changes.
type Watchable interface {
	// Watch streams change events for keys matching pattern until ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Transaction defines the contract for a unit of work.
type Transaction interface {
	// Save stages an entry for persistence.
	Save(ctx context.Context, e Entry) error

	// Get retrieves an entry, preferring the staged version if it exists in the transaction.
	Get(ctx context.Context, key string) (Entry, error)

	// Delete stages an entry for removal.
	Delete(ctx context.Context, key string) error

	// Commit applies all staged changes. Writes land before removals.
	Commit(ctx context.Context, changeReason string) error

	// Rollback discards all staged changes.
	Rollback(ctx context.Context) error
}

// Transactional is implemented by repositories that support transactions.
type Transactional interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) (Transaction, error)
}

type contextKey string

// ChangeReasonKey is the context key for passing the change reason (commit message)
// to Save and Delete.
const ChangeReasonKey contextKey = "change_reason"

// WithChangeReason returns a context carrying reason, unless ctx already has one.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		return ctx
	}
	return context.WithValue(ctx, ChangeReasonKey, reason)
}

// ChangeReason extracts the change reason from ctx, falling back to def.
func ChangeReason(ctx context.Context, def string) string {
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		return val
	}
	return def
}
