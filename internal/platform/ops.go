package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/encyclopedia/pkg/adapters/fs"
	"github.com/aretw0/encyclopedia/pkg/core"
)

// Init prepares the entries directory at path and returns the repository.
func Init(path string, opts ...Option) (core.Repository, error) {
	o := collect(opts)

	if o.repository != nil {
		return o.repository, nil
	}

	repo := newFS(path, o)
	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// newFS builds the filesystem adapter from the options.
func newFS(path string, o *options) *fs.Repository {
	resolved := path
	if abs, err := filepath.Abs(path); err == nil {
		resolved = abs
	}

	gitless := true
	switch {
	case o.versioning != nil:
		gitless = !*o.versioning
	default:
		if _, err := os.Stat(filepath.Join(resolved, ".git")); err == nil {
			gitless = false
		}
		if o.logger != nil {
			o.logger.Debug("detected versioning mode", "path", resolved, "versioned", !gitless)
		}
	}

	return fs.NewRepository(fs.Config{
		Path:         resolved,
		AutoInit:     o.autoInit,
		Gitless:      gitless,
		MustExist:    o.mustExist || !o.autoInit,
		ReadOnly:     o.readOnly,
		Logger:       o.logger,
		SystemDir:    o.systemDir,
		ErrorHandler: o.errorHandler,
	})
}

// Sync pulls and pushes the versioned entries directory at path.
func Sync(path string, opts ...Option) error {
	o := collect(opts)

	repo := o.repository
	if repo == nil {
		o.mustExist = true
		repo = newFS(path, o)
	}

	syncable, ok := repo.(core.Syncable)
	if !ok {
		return fmt.Errorf("%w: repository does not support synchronization", core.ErrUnsupported)
	}
	return syncable.Sync(context.Background())
}
