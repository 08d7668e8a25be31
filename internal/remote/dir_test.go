package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDir_CreateFindReadUpdate(t *testing.T) {
	d, err := NewDir(filepath.Join(t.TempDir(), "shared"))
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	ctx := context.Background()

	if _, err := d.Find(ctx, "journal.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find() on empty dir error = %v, want ErrNotFound", err)
	}

	h, err := d.Create(ctx, "journal.json", []byte(`{"v":1}`))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := d.Create(ctx, "journal.json", []byte("x")); err == nil {
		t.Error("Create() on existing blob succeeded, want error")
	}

	found, err := d.Find(ctx, "journal.json")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found != h {
		t.Errorf("Find() = %q, want %q", found, h)
	}

	data, err := d.Read(ctx, h)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != `{"v":1}` {
		t.Errorf("Read() = %q", data)
	}

	if err := d.Update(ctx, h, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	data, _ = d.Read(ctx, h)
	if string(data) != `{"v":2}` {
		t.Errorf("Read() after update = %q", data)
	}
}

func TestDir_UpdateMissing(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	if err := d.Update(context.Background(), Handle("gone.json"), []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() on missing blob error = %v, want ErrNotFound", err)
	}
}

func TestDir_RejectsPathyNames(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	ctx := context.Background()
	for _, name := range []string{"", "..", "a/b.json", `a\b.json`} {
		if _, err := d.Create(ctx, name, []byte("x")); err == nil {
			t.Errorf("Create(%q) succeeded, want error", name)
		}
	}
}

func TestDir_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "remote")
	if _, err := NewDir(root); err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}

func TestDir_CanceledContext(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Find(ctx, "journal.json"); !errors.Is(err, context.Canceled) {
		t.Errorf("Find() with canceled ctx error = %v, want context.Canceled", err)
	}
}
