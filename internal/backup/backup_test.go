package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/snagarohit/minimalhabits/internal/store"
)

// writeJournal drops a journal document with n habits into dataDir.
func writeJournal(t *testing.T, dataDir string, habitNames ...string) {
	t.Helper()
	var ds store.Dataset
	ds.FillDefaults()
	for i, name := range habitNames {
		ds.Habits = append(ds.Habits, store.Habit{ID: "h" + string(rune('1'+i)), Name: name})
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, store.JournalFile), data, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAndList(t *testing.T) {
	dataDir := t.TempDir()
	writeJournal(t, dataDir, "Read", "Run")
	m := NewManager(dataDir, "test")

	name, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := parseBackupName(name); err != nil {
		t.Errorf("backup name %q does not parse: %v", name, err)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("List() = %d backups, want 1", len(backups))
	}
	if backups[0].Name != name {
		t.Errorf("List()[0].Name = %q, want %q", backups[0].Name, name)
	}
	if backups[0].Stats["habits"] != 2 {
		t.Errorf("habit count = %d, want 2", backups[0].Stats["habits"])
	}

	copied, err := os.ReadFile(filepath.Join(backups[0].Path, store.JournalFile))
	if err != nil {
		t.Fatalf("backup journal unreadable: %v", err)
	}
	original, _ := os.ReadFile(filepath.Join(dataDir, store.JournalFile))
	if string(copied) != string(original) {
		t.Error("backup journal differs from original")
	}
}

func TestCreate_NoJournal(t *testing.T) {
	m := NewManager(t.TempDir(), "test")
	if _, err := m.Create(); err == nil {
		t.Error("Create() with no journal succeeded, want error")
	}
}

func TestList_Empty(t *testing.T) {
	m := NewManager(t.TempDir(), "test")
	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("List() = %d backups, want 0", len(backups))
	}
}

func TestList_SkipsUnrelatedDirs(t *testing.T) {
	dataDir := t.TempDir()
	writeJournal(t, dataDir, "Read")
	m := NewManager(dataDir, "test")
	if _, err := m.Create(); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, BackupsDir, "not-a-backup"), 0700); err != nil {
		t.Fatal(err)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("List() = %d backups, want 1", len(backups))
	}
}

func TestRestore(t *testing.T) {
	dataDir := t.TempDir()
	writeJournal(t, dataDir, "Read", "Run")
	m := NewManager(dataDir, "test")

	name, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond) // distinct backup timestamps

	// Change the journal, then restore the old state.
	writeJournal(t, dataDir, "OnlyOne")
	if err := m.Restore(name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, store.JournalFile))
	if err != nil {
		t.Fatal(err)
	}
	var ds store.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		t.Fatalf("restored journal invalid: %v", err)
	}
	if len(ds.Habits) != 2 {
		t.Errorf("restored habits = %d, want 2", len(ds.Habits))
	}

	// The pre-restore state was captured as a safety backup.
	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("List() = %d backups after restore, want 2 (original + safety)", len(backups))
	}
}

func TestRestore_InvalidBackupJournal(t *testing.T) {
	dataDir := t.TempDir()
	writeJournal(t, dataDir, "Read")
	m := NewManager(dataDir, "test")

	name, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	// Corrupt the backed-up journal.
	corrupt := filepath.Join(dataDir, BackupsDir, name, store.JournalFile)
	if err := os.WriteFile(corrupt, []byte("{{{"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := m.Restore(name); err == nil {
		t.Error("Restore() of corrupt backup succeeded, want error")
	}
	// Current journal untouched.
	data, _ := os.ReadFile(filepath.Join(dataDir, store.JournalFile))
	var ds store.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		t.Errorf("live journal damaged by failed restore: %v", err)
	}
}

func TestRestoreLatest(t *testing.T) {
	dataDir := t.TempDir()
	m := NewManager(dataDir, "test")

	if err := m.RestoreLatest(); err == nil {
		t.Error("RestoreLatest() with no backups succeeded, want error")
	}

	writeJournal(t, dataDir, "Old")
	if _, err := m.Create(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	writeJournal(t, dataDir, "New", "Newer")
	if _, err := m.Create(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	writeJournal(t, dataDir, "Current")
	if err := m.RestoreLatest(); err != nil {
		t.Fatalf("RestoreLatest() error = %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dataDir, store.JournalFile))
	var ds store.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		t.Fatal(err)
	}
	if len(ds.Habits) != 2 {
		t.Errorf("restored habits = %d, want 2 from the newest backup", len(ds.Habits))
	}
}

func TestPrune(t *testing.T) {
	dataDir := t.TempDir()
	writeJournal(t, dataDir, "Read")
	m := NewManager(dataDir, "test")

	for i := 0; i < 4; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	deleted, err := m.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d, want 2", deleted)
	}

	backups, _ := m.List()
	if len(backups) != 2 {
		t.Errorf("List() = %d after prune, want 2", len(backups))
	}

	if _, err := m.Prune(-1); err == nil {
		t.Error("Prune(-1) succeeded, want error")
	}
}

func TestDeleteAndGet(t *testing.T) {
	dataDir := t.TempDir()
	writeJournal(t, dataDir, "Read")
	m := NewManager(dataDir, "test")

	name, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}

	info, err := m.Get(name)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if info.Stats["habits"] != 1 {
		t.Errorf("Get() stats = %v", info.Stats)
	}

	if err := m.Delete(name); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(name); err == nil {
		t.Error("Get() after delete succeeded, want error")
	}
	if err := m.Delete(name); err == nil {
		t.Error("Delete() of missing backup succeeded, want error")
	}
}

func TestValidateBackupName(t *testing.T) {
	bad := []string{"", "../evil", "a/b", `a\b`, "not-a-timestamp"}
	for _, name := range bad {
		if err := validateBackupName(name); err == nil {
			t.Errorf("validateBackupName(%q) = nil, want error", name)
		}
	}
	good := []string{"2025-12-15_143022", "2025-12-15_143022_001"}
	for _, name := range good {
		if err := validateBackupName(name); err != nil {
			t.Errorf("validateBackupName(%q) = %v", name, err)
		}
	}
}

func TestParseBackupName(t *testing.T) {
	ts, err := parseBackupName("2025-12-15_143022_250")
	if err != nil {
		t.Fatalf("parseBackupName() error = %v", err)
	}
	want := time.Date(2025, 12, 15, 14, 30, 22, 250e6, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("parsed = %v, want %v", ts, want)
	}

	if _, err := parseBackupName("2025-12-15_1430XX_250"); err == nil {
		t.Error("malformed name parsed successfully")
	}
	if strings.Contains("2025-12-15_143022", "_") {
		if _, err := parseBackupName("2025-12-15_143022"); err != nil {
			t.Errorf("plain format rejected: %v", err)
		}
	}
}
