package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/encyclopedia/pkg/adapters/fs"
)

// ErrRootNotFound is returned by FindRoot when no entries directory is found.
var ErrRootNotFound = errors.New("entries directory not found")

// FindRoot walks up from startDir looking for an entries directory, i.e. one
// holding the system directory (e.g. ".encyclopedia").
// It returns the absolute path of that directory.
func FindRoot(startDir, systemDir string) (string, error) {
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if info, err := os.Stat(filepath.Join(dir, systemDir)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrRootNotFound
}
