// Package main is the entry point for the habits application.
// This file contains the backup subcommand handler.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/snagarohit/minimalhabits/internal/backup"
	"github.com/snagarohit/minimalhabits/internal/config"
)

// backupHelpText is the help message for the backup subcommand.
const backupHelpText = `habits backup - Create and manage backups

USAGE:
    habits backup [OPTIONS]

OPTIONS:
    -l, --list       List available backups
    --prune N        Remove old backups, keeping the N most recent
    -h, --help       Show this help message

DESCRIPTION:
    Creates a timestamped backup of the journal file. Backups are stored
    in ~/.habits/backups/ and can be restored later.

EXAMPLES:
    # Create a new backup
    habits backup

    # List all available backups
    habits backup --list

    # Keep only the 10 most recent backups
    habits backup --prune 10
`

// runBackup handles the "habits backup" subcommand.
func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)

	listFlag := fs.Bool("list", false, "list available backups")
	fs.BoolVar(listFlag, "l", false, "list available backups (shorthand)")

	pruneFlag := fs.Int("prune", -1, "remove old backups, keeping N")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, backupHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(backupHelpText)
		os.Exit(0)
	}

	// Load config to get data directory
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	manager := backup.NewManager(cfg.GetDataDir(), version)

	switch {
	case *pruneFlag >= 0:
		pruneBackups(manager, *pruneFlag)
	case *listFlag:
		listBackups(manager)
	default:
		createBackup(manager)
	}
}

// createBackup creates a new backup and displays the result.
func createBackup(manager *backup.Manager) {
	name, err := manager.Create()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating backup: %v\n", err)
		os.Exit(1)
	}

	info, err := manager.Get(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading backup info: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Backup created: %s\n", name)
	fmt.Printf("  Habits: %d, Blocks: %d, Completions: %d\n",
		info.Stats["habits"], info.Stats["time_blocks"], info.Stats["completions"])
	fmt.Printf("  Location: %s\n", info.Path)
}

// listBackups lists all available backups.
func listBackups(manager *backup.Manager) {
	backups, err := manager.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing backups: %v\n", err)
		os.Exit(1)
	}

	if len(backups) == 0 {
		fmt.Println("No backups available.")
		fmt.Println("Run 'habits backup' to create one.")
		return
	}

	fmt.Println("Available backups:")
	for _, b := range backups {
		age := formatAge(b.CreatedAt)
		fmt.Printf("  %s  (%s)   Habits: %d, Blocks: %d\n",
			b.Name, age, b.Stats["habits"], b.Stats["time_blocks"])
	}
}

// pruneBackups removes old backups, keeping the most recent N.
func pruneBackups(manager *backup.Manager, keep int) {
	removed, err := manager.Prune(keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning backups: %v\n", err)
		os.Exit(1)
	}
	if removed == 0 {
		fmt.Println("Nothing to prune.")
		return
	}
	fmt.Printf("✓ Removed %d old backup(s), kept %d.\n", removed, keep)
}

// formatAge returns a human-readable age string.
func formatAge(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
}
