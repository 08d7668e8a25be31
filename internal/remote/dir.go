package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/snagarohit/minimalhabits/internal/fsutil"
)

// Dir is a Store backed by a plain directory, typically one kept in sync
// by an external tool (Dropbox, syncthing, a mounted share). Handles are
// the blob's filename within the directory.
type Dir struct {
	root string
}

// NewDir opens root as a remote store, creating the directory if needed.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("remote directory path is required")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create remote directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the backing directory path.
func (d *Dir) Root() string { return d.root }

func (d *Dir) Find(ctx context.Context, name string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := d.path(name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a blob", name)
	}
	return Handle(name), nil
}

func (d *Dir) Create(ctx context.Context, name string, data []byte) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := d.path(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("blob %s already exists", name)
	}
	if err := fsutil.WriteAtomic(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	return Handle(name), nil
}

func (d *Dir) Update(ctx context.Context, h Handle, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := d.path(string(h))
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ErrNotFound
	}
	if err := fsutil.WriteAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("failed to update %s: %w", h, err)
	}
	return nil
}

func (d *Dir) Read(ctx context.Context, h Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.path(string(h))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", h, err)
	}
	return data, nil
}

// path validates the blob name and joins it under root. Names must be
// bare filenames; separators and traversal are rejected.
func (d *Dir) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("blob name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(d.root, name), nil
}
