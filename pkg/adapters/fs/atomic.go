package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tempSuffix marks in-flight writes. Temp files never end in Extension, so
// listings and the watcher skip them whatever the entry is called.
const tempSuffix = ".tmp"

// writeFileAtomic replaces filename with data. The bytes go to a hidden
// sibling (".<name>.<random>.tmp") that is synced and renamed over the
// target; the directory is synced afterwards so the rename itself is durable.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*"+tempSuffix)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("replace %s: %w", base, err)
	}
	syncDir(dir)
	return nil
}

// syncDir flushes directory metadata. Some platforms refuse to sync a
// directory handle; the write has already succeeded by then.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// isTempFile reports whether name is an in-flight or abandoned write.
func isTempFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") && strings.HasSuffix(base, tempSuffix)
}
