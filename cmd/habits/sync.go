// Package main is the entry point for the habits application.
// This file contains the sync subcommand handler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/snagarohit/minimalhabits/internal/config"
	"github.com/snagarohit/minimalhabits/internal/store"
)

// syncHelpText is the help message for the sync subcommand.
const syncHelpText = `habits sync - Shared-folder synchronization for your journal

USAGE:
    habits sync [OPTIONS]

OPTIONS:
    --push         Push the local journal to the shared folder
    --status       Show sync configuration and state
    -h, --help     Show this help message

DESCRIPTION:
    Merges your journal with a copy in a shared folder. Point sync.dir at
    any directory that reaches your other machines (Dropbox, Syncthing, a
    mounted drive) and each device reconciles against the same blob:
    habits and groups union by id, completions keep the higher value,
    overlapping time blocks merge per habit and day.

    Without options, sync fetches the shared journal, merges it with the
    local one, and writes the result back when the merge added anything.

SETUP:
    Enable sync in your config (~/.config/habits/config.yaml):
        sync:
          enabled: true
          dir: ~/Dropbox/habits
          fetch_on_startup: true

EXAMPLES:
    # Two-way merge with the shared folder
    habits sync

    # Push the local journal as-is
    habits sync --push

    # Check sync configuration and state
    habits sync --status
`

// runSync handles the "habits sync" subcommand.
func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	pushFlag := fs.Bool("push", false, "push the local journal")
	statusFlag := fs.Bool("status", false, "show sync status")
	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, syncHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(syncHelpText)
		os.Exit(0)
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *statusFlag {
		runSyncStatus(cfg)
		return
	}

	st, err := store.Open(cfg.GetDataDir())
	if err != nil {
		if st == nil {
			fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	engine, err := newSyncEngine(cfg, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if engine == nil {
		fmt.Fprintln(os.Stderr, "Error: sync is not enabled.")
		fmt.Fprintln(os.Stderr, "Enable it in ~/.config/habits/config.yaml:")
		fmt.Fprintln(os.Stderr, "  sync:")
		fmt.Fprintln(os.Stderr, "    enabled: true")
		fmt.Fprintln(os.Stderr, "    dir: <shared folder>")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *pushFlag {
		fmt.Println("Pushing journal to the shared folder...")
		if err := engine.Push(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Push complete.")
		return
	}

	// Default: fetch and merge
	fmt.Println("Merging with the shared journal...")
	changed, err := engine.FetchMerge(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if changed {
		fmt.Println("Merge complete: journal updated.")
	} else {
		fmt.Println("Already up to date.")
	}
}

// runSyncStatus shows the sync configuration and journal state.
func runSyncStatus(cfg *config.Config) {
	fmt.Println("Sync Status")
	fmt.Println("───────────")

	if cfg.Sync.Enabled {
		fmt.Println("Sync:       enabled")
	} else {
		fmt.Println("Sync:       disabled")
	}

	fmt.Printf("Data dir:   %s\n", cfg.GetDataDir())

	dir := cfg.GetSyncDir()
	if dir == "" {
		fmt.Println("Shared dir: not configured")
		fmt.Println()
		fmt.Println("Set sync.dir in ~/.config/habits/config.yaml to enable.")
		return
	}
	fmt.Printf("Shared dir: %s\n", dir)

	blob := cfg.Sync.Blob
	if blob == "" {
		blob = store.JournalFile
	}
	fmt.Printf("Blob:       %s\n", blob)
	fmt.Printf("On startup: fetch=%v\n", cfg.Sync.FetchOnStartup)

	if info, err := os.Stat(dir); err != nil {
		fmt.Printf("State:      shared dir unreachable (%v)\n", err)
	} else if !info.IsDir() {
		fmt.Println("State:      sync.dir is not a directory")
	} else {
		fmt.Println("State:      shared dir reachable")
	}
}
