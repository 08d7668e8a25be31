// Package fsutil contains filesystem helpers shared by the storage and
// remote layers. Everything here is crash-safety plumbing: the journal is
// one JSON document rewritten on every mutation, so a torn write would lose
// the whole dataset.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// WriteAtomic replaces the file at path with data. The data is written to a
// temp file in the same directory, fsynced, and renamed over the target, so
// readers observe either the old or the new content, never a partial write.
//
// Rename over an existing file is atomic on Unix. Windows refuses it, so
// there we remove the destination first (best effort, not atomic).
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	writeErr := func() error {
		if err := tmp.Chmod(perm); err != nil {
			return fmt.Errorf("chmod %s: %w", tmpPath, err)
		}
		if _, err := tmp.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", tmpPath, err)
		}
		if err := tmp.Sync(); err != nil {
			return fmt.Errorf("fsync %s: %w", tmpPath, err)
		}
		return tmp.Close()
	}()
	if writeErr != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return writeErr
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if rmErr := os.Remove(path); rmErr == nil || os.IsNotExist(rmErr) {
				if err2 := os.Rename(tmpPath, path); err2 == nil {
					syncDir(dir)
					return nil
				}
			}
		}
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, path, err)
	}

	syncDir(dir)
	return nil
}

// KeepBackup writes a `.bak` sibling with the current contents of path.
// It never fails the calling operation: a missing or unreadable original
// simply leaves the previous backup in place.
func KeepBackup(path string, perm os.FileMode) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = WriteAtomic(path+".bak", data, perm)
}

func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
