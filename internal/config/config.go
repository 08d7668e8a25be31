// Package config handles configuration loading and defaults for the habits app.
// Configuration is loaded from XDG-compliant paths (typically ~/.config/habits/config.yaml).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/snagarohit/minimalhabits/internal/fsutil"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.habits)
	DataDir string `yaml:"data_dir,omitempty"`

	// Theme customizes the visual appearance
	Theme ThemeConfig `yaml:"theme,omitempty"`

	// Keys customizes keyboard shortcuts
	Keys KeysConfig `yaml:"keys,omitempty"`

	// UX customizes user experience settings
	UX UXConfig `yaml:"ux,omitempty"`

	// Sync configures journal synchronization through a shared folder
	Sync SyncConfig `yaml:"sync,omitempty"`
}

// SyncConfig defines journal synchronization settings.
type SyncConfig struct {
	// Enabled enables/disables sync
	Enabled bool `yaml:"enabled,omitempty"`

	// Dir is the shared directory holding the remote journal blob
	Dir string `yaml:"dir,omitempty"`

	// Blob is the journal blob name within the shared directory
	Blob string `yaml:"blob,omitempty"`

	// FetchOnStartup merges the remote journal when the app starts
	FetchOnStartup bool `yaml:"fetch_on_startup,omitempty"`
}

// ThemeConfig defines color and style settings.
type ThemeConfig struct {
	// Primary color for focused elements (hex, e.g., "#FF5733")
	Primary string `yaml:"primary,omitempty"`

	// Accent color for highlights (hex)
	Accent string `yaml:"accent,omitempty"`

	// Muted color for secondary text (hex)
	Muted string `yaml:"muted,omitempty"`

	// Background color (hex)
	Background string `yaml:"background,omitempty"`

	// Text color (hex)
	Text string `yaml:"text,omitempty"`

	// Tracks are the block colors cycled across habits on the timeline (hex)
	Tracks []string `yaml:"tracks,omitempty"`
}

// KeysConfig defines customizable keyboard shortcuts.
// Each field accepts a comma-separated list of key bindings.
// Examples: "q,ctrl+c", "tab", "j,down"
type KeysConfig struct {
	// Global keys
	Quit     string `yaml:"quit,omitempty"`      // default: "q,ctrl+c"
	Help     string `yaml:"help,omitempty"`      // default: "?"
	NextPane string `yaml:"next_pane,omitempty"` // default: "tab"
	Pane1    string `yaml:"pane_1,omitempty"`    // default: "1"
	Pane2    string `yaml:"pane_2,omitempty"`    // default: "2"
	Pane3    string `yaml:"pane_3,omitempty"`    // default: "3"
	Sync     string `yaml:"sync,omitempty"`      // default: "S"

	// Navigation keys
	Up     string `yaml:"up,omitempty"`     // default: "k,up"
	Down   string `yaml:"down,omitempty"`   // default: "j,down"
	Top    string `yaml:"top,omitempty"`    // default: "g"
	Bottom string `yaml:"bottom,omitempty"` // default: "G"

	// Day navigation
	PrevDay string `yaml:"prev_day,omitempty"` // default: "h,left"
	NextDay string `yaml:"next_day,omitempty"` // default: "l,right"
	Today   string `yaml:"today,omitempty"`    // default: "t"

	// Habit keys
	AddHabit    string `yaml:"add_habit,omitempty"`    // default: "a"
	ToggleHabit string `yaml:"toggle_habit,omitempty"` // default: "d,enter,space"
	DeleteHabit string `yaml:"delete_habit,omitempty"` // default: "x"

	// Timeline keys
	AddBlock    string `yaml:"add_block,omitempty"`    // default: "a"
	DeleteBlock string `yaml:"delete_block,omitempty"` // default: "x"
	GrowBlock   string `yaml:"grow_block,omitempty"`   // default: "+,="
	ShrinkBlock string `yaml:"shrink_block,omitempty"` // default: "-"

	// Timer keys
	ToggleTimer string `yaml:"toggle_timer,omitempty"` // default: "space,enter"
	StopTimer   string `yaml:"stop_timer,omitempty"`   // default: "x"

	// Input keys
	Confirm string `yaml:"confirm,omitempty"` // default: "enter"
	Cancel  string `yaml:"cancel,omitempty"`  // default: "esc"
}

// UXConfig defines user experience settings.
type UXConfig struct {
	// ConfirmDeletions shows confirmation dialogs before deleting items
	ConfirmDeletions bool `yaml:"confirm_deletions,omitempty"` // default: true

	// NarrowLayoutThreshold is the terminal width below which to use stacked layout
	NarrowLayoutThreshold int `yaml:"narrow_layout_threshold,omitempty"` // default: 80
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Theme: ThemeConfig{
			Primary:    "#7C3AED", // Violet
			Accent:     "#10B981", // Emerald
			Muted:      "#6B7280", // Gray
			Background: "",        // Terminal default
			Text:       "",        // Terminal default
			Tracks:     nil,       // Built-in palette
		},
		Keys: KeysConfig{
			// Defaults are empty strings, which means use built-in defaults
		},
		UX: UXConfig{
			ConfirmDeletions:      true,
			NarrowLayoutThreshold: 80,
		},
		Sync: SyncConfig{
			Enabled:        false, // Disabled by default
			Dir:            "",    // No shared folder by default
			Blob:           "",    // Store default (journal.json)
			FetchOnStartup: true,
		},
	}
}

// defaultDataDir returns the default data directory path.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".habits"
	}
	return filepath.Join(home, ".habits")
}

// configDir returns the configuration directory path (XDG compliant).
func configDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "habits")
	}

	// Fall back to ~/.config/habits
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "habits")
}

// configPath returns the path to the config file.
func configPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration from disk, merging with defaults.
// If no config file exists, returns default configuration.
func Load() (*Config, error) {
	cfg := Default()

	path := configPath()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file, use defaults
			return cfg, nil
		}
		return nil, err
	}

	// Parse YAML and merge with defaults
	var userCfg Config
	if err := yaml.Unmarshal(data, &userCfg); err != nil {
		return nil, err
	}

	var doc yaml.Node
	_ = yaml.Unmarshal(data, &doc) // best-effort; fall back to conservative merge if this fails

	// Merge user config with defaults (presence-aware for booleans/slices)
	cfg.mergeFromYAML(&userCfg, &doc)

	return cfg, nil
}

// mergeNonEmpty applies non-empty values from other to c.
// It intentionally does not touch booleans or slices (those require presence-aware merging).
func (c *Config) mergeNonEmpty(other *Config) {
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	// Theme merging
	if other.Theme.Primary != "" {
		c.Theme.Primary = other.Theme.Primary
	}
	if other.Theme.Accent != "" {
		c.Theme.Accent = other.Theme.Accent
	}
	if other.Theme.Muted != "" {
		c.Theme.Muted = other.Theme.Muted
	}
	if other.Theme.Background != "" {
		c.Theme.Background = other.Theme.Background
	}
	if other.Theme.Text != "" {
		c.Theme.Text = other.Theme.Text
	}

	// Keys merging
	if other.Keys.Quit != "" {
		c.Keys.Quit = other.Keys.Quit
	}
	if other.Keys.Help != "" {
		c.Keys.Help = other.Keys.Help
	}
	if other.Keys.NextPane != "" {
		c.Keys.NextPane = other.Keys.NextPane
	}
	if other.Keys.Pane1 != "" {
		c.Keys.Pane1 = other.Keys.Pane1
	}
	if other.Keys.Pane2 != "" {
		c.Keys.Pane2 = other.Keys.Pane2
	}
	if other.Keys.Pane3 != "" {
		c.Keys.Pane3 = other.Keys.Pane3
	}
	if other.Keys.Sync != "" {
		c.Keys.Sync = other.Keys.Sync
	}
	if other.Keys.Up != "" {
		c.Keys.Up = other.Keys.Up
	}
	if other.Keys.Down != "" {
		c.Keys.Down = other.Keys.Down
	}
	if other.Keys.Top != "" {
		c.Keys.Top = other.Keys.Top
	}
	if other.Keys.Bottom != "" {
		c.Keys.Bottom = other.Keys.Bottom
	}
	if other.Keys.PrevDay != "" {
		c.Keys.PrevDay = other.Keys.PrevDay
	}
	if other.Keys.NextDay != "" {
		c.Keys.NextDay = other.Keys.NextDay
	}
	if other.Keys.Today != "" {
		c.Keys.Today = other.Keys.Today
	}
	if other.Keys.AddHabit != "" {
		c.Keys.AddHabit = other.Keys.AddHabit
	}
	if other.Keys.ToggleHabit != "" {
		c.Keys.ToggleHabit = other.Keys.ToggleHabit
	}
	if other.Keys.DeleteHabit != "" {
		c.Keys.DeleteHabit = other.Keys.DeleteHabit
	}
	if other.Keys.AddBlock != "" {
		c.Keys.AddBlock = other.Keys.AddBlock
	}
	if other.Keys.DeleteBlock != "" {
		c.Keys.DeleteBlock = other.Keys.DeleteBlock
	}
	if other.Keys.GrowBlock != "" {
		c.Keys.GrowBlock = other.Keys.GrowBlock
	}
	if other.Keys.ShrinkBlock != "" {
		c.Keys.ShrinkBlock = other.Keys.ShrinkBlock
	}
	if other.Keys.ToggleTimer != "" {
		c.Keys.ToggleTimer = other.Keys.ToggleTimer
	}
	if other.Keys.StopTimer != "" {
		c.Keys.StopTimer = other.Keys.StopTimer
	}
	if other.Keys.Confirm != "" {
		c.Keys.Confirm = other.Keys.Confirm
	}
	if other.Keys.Cancel != "" {
		c.Keys.Cancel = other.Keys.Cancel
	}

	// UX ints (presence-aware in mergeFromYAML)
	if other.UX.NarrowLayoutThreshold > 0 {
		c.UX.NarrowLayoutThreshold = other.UX.NarrowLayoutThreshold
	}

	// Sync strings (presence-aware in mergeFromYAML)
	if other.Sync.Dir != "" {
		c.Sync.Dir = other.Sync.Dir
	}
	if other.Sync.Blob != "" {
		c.Sync.Blob = other.Sync.Blob
	}
}

func (c *Config) mergeFromYAML(other *Config, doc *yaml.Node) {
	// Fall back to conservative behavior if we can't inspect presence.
	if doc == nil || len(doc.Content) == 0 {
		// Avoid clobbering defaults with zero-values: only apply non-empty strings and non-zero ints.
		c.mergeNonEmpty(other)
		if len(other.Theme.Tracks) > 0 {
			c.Theme.Tracks = other.Theme.Tracks
		}
		return
	}

	// First apply all non-empty string-ish merges.
	c.mergeNonEmpty(other)

	// Now re-apply booleans and slices only when present in YAML.
	if yamlHasPath(doc, "theme", "tracks") {
		c.Theme.Tracks = other.Theme.Tracks
	}

	if yamlHasPath(doc, "ux", "confirm_deletions") {
		c.UX.ConfirmDeletions = other.UX.ConfirmDeletions
	}
	if yamlHasPath(doc, "ux", "narrow_layout_threshold") && other.UX.NarrowLayoutThreshold > 0 {
		c.UX.NarrowLayoutThreshold = other.UX.NarrowLayoutThreshold
	}

	if yamlHasPath(doc, "sync", "enabled") {
		c.Sync.Enabled = other.Sync.Enabled
	}
	if yamlHasPath(doc, "sync", "fetch_on_startup") {
		c.Sync.FetchOnStartup = other.Sync.FetchOnStartup
	}
	if yamlHasPath(doc, "sync", "dir") {
		c.Sync.Dir = other.Sync.Dir
	}
	if yamlHasPath(doc, "sync", "blob") {
		c.Sync.Blob = other.Sync.Blob
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	// Document -> root mapping.
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			v := n.Content[i+1]
			if k.Kind == yaml.ScalarNode && k.Value == key {
				next = v
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	path := configPath()
	if path == "" {
		return nil
	}

	// Create config directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return fsutil.WriteAtomic(path, data, 0600)
}

// GetDataDir returns the resolved data directory path.
func (c *Config) GetDataDir() string {
	if c.DataDir != "" {
		return expandHome(c.DataDir)
	}
	return defaultDataDir()
}

// GetSyncDir returns the resolved shared sync directory path, empty when
// sync has no directory configured.
func (c *Config) GetSyncDir() string {
	if c.Sync.Dir == "" {
		return ""
	}
	return expandHome(c.Sync.Dir)
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return path
	}

	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err == nil {
			trimmed := strings.TrimPrefix(path, "~/")
			trimmed = strings.TrimPrefix(trimmed, `~\`)
			trimmed = strings.TrimPrefix(trimmed, `\`)
			return filepath.Join(home, trimmed)
		}
	}
	return path
}
