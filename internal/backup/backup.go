// Package backup provides backup and restore functionality for the habits app.
// It manages timestamped backups of the journal document.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/snagarohit/minimalhabits/internal/fsutil"
	"github.com/snagarohit/minimalhabits/internal/store"
)

// Version constants for the backup format.
const (
	ManifestVersion = "1.0"
	ManifestFile    = "manifest.json"
	BackupsDir      = "backups"
)

// Manager handles backup and restore operations.
type Manager struct {
	dataDir    string // Path to data directory (e.g., ~/.habits)
	backupDir  string // Path to backups directory (e.g., ~/.habits/backups)
	appVersion string // Application version for manifest
}

// Manifest contains metadata about a backup.
type Manifest struct {
	Version    string         `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	AppVersion string         `json:"app_version"`
	Stats      map[string]int `json:"stats"`
}

// Info contains summary information about a backup.
type Info struct {
	Name      string         // Directory name (2025-12-15_143022_001)
	Path      string         // Full path to backup directory
	CreatedAt time.Time      // When the backup was created
	Stats     map[string]int // Entity counts (habits, time_blocks, ...)
}

// NewManager creates a new backup manager.
func NewManager(dataDir, appVersion string) *Manager {
	return &Manager{
		dataDir:    dataDir,
		backupDir:  filepath.Join(dataDir, BackupsDir),
		appVersion: appVersion,
	}
}

// Create creates a new backup of the journal.
// Returns the backup name (timestamp format) on success.
func (m *Manager) Create() (string, error) {
	journalPath := filepath.Join(m.dataDir, store.JournalFile)
	data, err := os.ReadFile(journalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("nothing to back up: %s does not exist", store.JournalFile)
		}
		return "", fmt.Errorf("failed to read journal: %w", err)
	}

	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Backup name from current timestamp (with milliseconds for uniqueness)
	now := time.Now()
	name := fmt.Sprintf("%s_%03d", now.Format("2006-01-02_150405"), now.Nanosecond()/1e6)
	backupPath := filepath.Join(m.backupDir, name)

	if err := os.MkdirAll(backupPath, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if err := fsutil.WriteAtomic(filepath.Join(backupPath, store.JournalFile), data, 0600); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("failed to copy journal: %w", err)
	}

	manifest := Manifest{
		Version:    ManifestVersion,
		CreatedAt:  now,
		AppVersion: m.appVersion,
		Stats:      journalStats(data),
	}
	if err := writeJSON(filepath.Join(backupPath, ManifestFile), manifest); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return name, nil
}

// List returns all available backups, sorted by creation time (newest first).
func (m *Manager) List() ([]Info, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return []Info{}, nil
	}

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		backupPath := filepath.Join(m.backupDir, entry.Name())

		var manifest Manifest
		if err := readJSON(filepath.Join(backupPath, ManifestFile), &manifest); err != nil {
			// Fall back to the timestamp encoded in the name.
			createdAt, parseErr := parseBackupName(entry.Name())
			if parseErr != nil {
				continue // Skip unrelated directories
			}
			manifest.CreatedAt = createdAt
			manifest.Stats = make(map[string]int)
		}

		backups = append(backups, Info{
			Name:      entry.Name(),
			Path:      backupPath,
			CreatedAt: manifest.CreatedAt,
			Stats:     manifest.Stats,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Restore restores the journal from a specific backup.
// It creates a safety backup of the current journal first.
func (m *Manager) Restore(name string) error {
	if err := validateBackupName(name); err != nil {
		return err
	}

	backupPath := filepath.Join(m.backupDir, name)
	srcPath := filepath.Join(backupPath, store.JournalFile)

	data, err := os.ReadFile(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup not found: %s", name)
		}
		return fmt.Errorf("failed to read backup: %w", err)
	}

	// Refuse to install a corrupt backup.
	var ds store.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return fmt.Errorf("backup %s holds an invalid journal: %w", name, err)
	}

	safetyName := ""
	if _, err := os.Stat(filepath.Join(m.dataDir, store.JournalFile)); err == nil {
		safetyName, err = m.Create()
		if err != nil {
			return fmt.Errorf("failed to create safety backup: %w", err)
		}
	}

	dstPath := filepath.Join(m.dataDir, store.JournalFile)
	if err := fsutil.WriteAtomic(dstPath, data, 0600); err != nil {
		if safetyName != "" {
			return fmt.Errorf("failed to restore journal (safety backup: %s): %w", safetyName, err)
		}
		return fmt.Errorf("failed to restore journal: %w", err)
	}

	return nil
}

// RestoreLatest restores from the most recent backup.
func (m *Manager) RestoreLatest() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups available")
	}
	return m.Restore(backups[0].Name)
}

// Delete removes a specific backup.
func (m *Manager) Delete(name string) error {
	if err := validateBackupName(name); err != nil {
		return err
	}

	backupPath := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup not found: %s", name)
	}
	return os.RemoveAll(backupPath)
}

// Prune removes old backups, keeping only the N most recent.
func (m *Manager) Prune(keepCount int) (int, error) {
	if keepCount < 0 {
		return 0, fmt.Errorf("keepCount must be non-negative")
	}

	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keepCount {
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keepCount:] {
		if err := m.Delete(b.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Get returns information about a specific backup.
func (m *Manager) Get(name string) (*Info, error) {
	if err := validateBackupName(name); err != nil {
		return nil, err
	}

	backupPath := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("backup not found: %s", name)
	}

	var manifest Manifest
	if err := readJSON(filepath.Join(backupPath, ManifestFile), &manifest); err != nil {
		createdAt, parseErr := parseBackupName(name)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid backup: %s", name)
		}
		manifest.CreatedAt = createdAt
		manifest.Stats = make(map[string]int)
	}

	return &Info{
		Name:      name,
		Path:      backupPath,
		CreatedAt: manifest.CreatedAt,
		Stats:     manifest.Stats,
	}, nil
}

// Helper functions

func validateBackupName(name string) error {
	if name == "" {
		return fmt.Errorf("backup name is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	if _, err := parseBackupName(name); err != nil {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

// journalStats counts the entities inside a journal document.
func journalStats(data []byte) map[string]int {
	var ds store.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return map[string]int{}
	}
	return map[string]int{
		"habits":        len(ds.Habits),
		"groups":        len(ds.Groups),
		"completions":   len(ds.Completions),
		"time_blocks":   len(ds.TimeBlocks),
		"active_timers": len(ds.ActiveTimers),
	}
}

// writeJSON writes a value as JSON to a file.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(path, data, 0600)
}

// readJSON reads JSON from a file into a value.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// parseBackupName parses a backup directory name into a timestamp.
// Supports both the plain format (2006-01-02_150405) and the
// milliseconds-suffixed one (2006-01-02_150405_XXX).
func parseBackupName(name string) (time.Time, error) {
	if len(name) == 21 {
		baseTime, err := time.Parse("2006-01-02_150405", name[:17])
		if err != nil {
			return time.Time{}, err
		}
		if name[17] != '_' {
			return time.Time{}, fmt.Errorf("invalid backup format")
		}
		ms, err := strconv.Atoi(name[18:])
		if err != nil || ms < 0 || ms > 999 {
			return time.Time{}, fmt.Errorf("invalid milliseconds")
		}
		return baseTime.Add(time.Duration(ms) * time.Millisecond), nil
	}

	return time.Parse("2006-01-02_150405", name)
}
