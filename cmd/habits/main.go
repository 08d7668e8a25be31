// Package main is the entry point for the habits application.
// It loads configuration, opens the journal store, and starts the TUI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/snagarohit/minimalhabits/internal/config"
	"github.com/snagarohit/minimalhabits/internal/remote"
	"github.com/snagarohit/minimalhabits/internal/store"
	"github.com/snagarohit/minimalhabits/internal/sync"
	"github.com/snagarohit/minimalhabits/internal/ui"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const helpText = `habits - A personal time journal for your terminal

USAGE:
    habits [OPTIONS]
    habits <command> [ARGS]

COMMANDS:
    backup           Create a backup of the journal
    backup --list    List available backups
    restore NAME     Restore from a specific backup
    restore --latest Restore from the most recent backup
    export           Generate a daily report (Markdown)
    export --weekly  Generate a weekly report
    export -f json   Output report as JSON
    sync             Fetch and merge the shared journal
    sync --push      Push the local journal to the shared folder
    sync --status    Show sync configuration and state

OPTIONS:
    -h, --help       Show this help message
    -v, --version    Show version information

DESCRIPTION:
    habits is a terminal-based time journal that combines a daily timeline,
    habit tracking, and per-habit timers in a single keyboard-driven
    interface. Days are drawn as three 8-hour columns of 15-minute slots;
    overlapping blocks share the column in side-by-side lanes.

FEATURES:
    • Timeline   - Log time blocks on a 3x8h grid, grow/shrink by slot
    • Timer      - One running timer per habit, stop rounds up to 15 min
    • Habits     - Daily tracking with week view and streak counting
    • Local Data - One plain JSON journal in ~/.habits/
    • Sync       - Optional merge through any shared folder (Dropbox,
                   Syncthing, a mounted drive)

KEYBINDINGS:
    Global:
        Tab          Switch between panes
        1, 2, 3      Jump to specific pane
        S            Sync now
        ?            Show help overlay
        q            Quit

    Timeline Pane:
        j/k, ↓/↑     Select block
        a            Add block
        x            Delete block
        + / -        Grow / shrink by 15 minutes
        h/l, ←/→     Previous / next day
        t            Jump to today

    Timer Pane:
        Space        Start/stop timer
        x            Stop timer

    Habits Pane:
        j/k, ↓/↑     Navigate
        a            Add habit
        d/Space      Toggle today's completion
        x            Delete habit

DATA STORAGE:
    All data lives in a single journal file:
        ~/.habits/journal.json

CONFIGURATION:
    Optional config file: ~/.config/habits/config.yaml
    See documentation for configuration options.

EXAMPLES:
    # Start the app
    habits

    # Create a backup
    habits backup

    # Restore from a backup
    habits restore --latest

    # Generate today's report
    habits export

    # Generate weekly report as JSON
    habits export --weekly --format json

    # Merge with the shared journal
    habits sync

    # Show version
    habits --version
`

func main() {
	// Check for subcommands first (before flag parsing)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "backup":
			runBackup(os.Args[2:])
			return
		case "restore":
			runRestore(os.Args[2:])
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "sync":
			runSync(os.Args[2:])
			return
		}
	}

	// Define flags
	showVersion := flag.Bool("version", false, "show version information")
	flag.BoolVar(showVersion, "v", false, "show version information (shorthand)")

	showHelp := flag.Bool("help", false, "show help message")
	flag.BoolVar(showHelp, "h", false, "show help message (shorthand)")

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, helpText)
	}

	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("habits version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	// Handle help flag
	if *showHelp {
		fmt.Print(helpText)
		os.Exit(0)
	}

	// Reject unknown arguments
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unknown arguments: %v\n\n", flag.Args())
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration (from ~/.config/habits/config.yaml or defaults)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Open the journal store in the configured data directory. A non-nil
	// store alongside an error means a corrupt journal was recovered; the
	// run can continue.
	st, err := store.Open(cfg.GetDataDir())
	if err != nil {
		if st == nil {
			fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Set up folder sync if enabled
	engine, err := newSyncEngine(cfg, st)
	if err != nil {
		// Local data is still valid without sync; warn and continue.
		fmt.Fprintf(os.Stderr, "Warning: sync disabled: %v\n", err)
	}
	if engine != nil {
		st.SetOnSave(engine.OnSave)
	}

	// Create styles from theme config
	styles := ui.NewStylesFromTheme(&cfg.Theme)

	// Create app config with keys and UX settings
	appCfg := &ui.AppConfig{
		Keys:                  &cfg.Keys,
		ConfirmDeletions:      cfg.UX.ConfirmDeletions,
		NarrowLayoutThreshold: cfg.UX.NarrowLayoutThreshold,
		FetchOnStartup:        cfg.Sync.FetchOnStartup,
	}

	// Run the TUI with the optional sync engine for status display
	if err := ui.Run(st, engine, styles, appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}

	// Push any pending journal changes before exit
	if engine != nil {
		if err := engine.Flush(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: final sync push failed: %v\n", err)
		}
	}
}

// newSyncEngine builds the sync engine from config, nil when sync is
// disabled or has no directory configured.
func newSyncEngine(cfg *config.Config, st *store.Store) (*sync.Engine, error) {
	if !cfg.Sync.Enabled {
		return nil, nil
	}
	dir := cfg.GetSyncDir()
	if dir == "" {
		return nil, fmt.Errorf("sync.enabled is set but sync.dir is empty")
	}
	r, err := remote.NewDir(dir)
	if err != nil {
		return nil, err
	}
	return sync.New(r, cfg.Sync.Blob, st.Snapshot, st.ReplaceDataset), nil
}
