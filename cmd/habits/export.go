// Package main is the entry point for the habits application.
// This file contains the export subcommand handler.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/snagarohit/minimalhabits/internal/config"
	"github.com/snagarohit/minimalhabits/internal/fsutil"
	"github.com/snagarohit/minimalhabits/internal/reports"
	"github.com/snagarohit/minimalhabits/internal/store"
)

// exportHelpText is the help message for the export subcommand.
const exportHelpText = `habits export - Generate journal reports

USAGE:
    habits export [OPTIONS] [DATE]

OPTIONS:
    -d, --daily        Generate daily report (default)
    -w, --weekly       Generate weekly report
    -f, --format FMT   Output format: markdown (default) or json
    -o, --output FILE  Write to file instead of stdout
    -h, --help         Show this help message

ARGUMENTS:
    DATE               Date for report (YYYY-MM-DD). Defaults to today.
                       For weekly reports, any day within the week.

DESCRIPTION:
    Generates reports summarizing tracked time and habit completions.
    Reports can be output as Markdown (human-readable) or JSON
    (machine-readable).

EXAMPLES:
    # Today's report in Markdown
    habits export

    # Specific date
    habits export 2026-08-14

    # Weekly report
    habits export --weekly

    # JSON format
    habits export --format json

    # Save to file
    habits export --output report.md

    # Weekly JSON report to file
    habits export --weekly --format json --output weekly.json
`

// runExport handles the "habits export" subcommand.
func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	dailyFlag := fs.Bool("daily", false, "generate daily report")
	fs.BoolVar(dailyFlag, "d", false, "generate daily report (shorthand)")

	weeklyFlag := fs.Bool("weekly", false, "generate weekly report")
	fs.BoolVar(weeklyFlag, "w", false, "generate weekly report (shorthand)")

	formatFlag := fs.String("format", "markdown", "output format: markdown or json")
	fs.StringVar(formatFlag, "f", "markdown", "output format (shorthand)")

	outputFlag := fs.String("output", "", "write to file instead of stdout")
	fs.StringVar(outputFlag, "o", "", "write to file (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, exportHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(exportHelpText)
		os.Exit(0)
	}

	// Validate format
	format := *formatFlag
	if format != "markdown" && format != "json" && format != "md" {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q. Use 'markdown' or 'json'.\n", format)
		os.Exit(1)
	}
	if format == "md" {
		format = "markdown"
	}

	// Parse date argument
	date := time.Now()
	if fs.NArg() > 0 {
		parsedDate, err := time.ParseInLocation("2006-01-02", fs.Arg(0), time.Local)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q. Use YYYY-MM-DD format.\n", fs.Arg(0))
			os.Exit(1)
		}
		date = parsedDate
	}

	// Load config and open the journal
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.GetDataDir())
	if err != nil {
		if st == nil {
			fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	gen := reports.NewGenerator(st)

	// Generate report (daily unless --weekly is set)
	var output string
	if *weeklyFlag {
		report, err := gen.GenerateWeekly(date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating weekly report: %v\n", err)
			os.Exit(1)
		}

		if format == "json" {
			data, err := reports.FormatWeeklyJSON(report)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting JSON: %v\n", err)
				os.Exit(1)
			}
			output = string(data)
		} else {
			output = reports.FormatWeeklyMarkdown(report)
		}
	} else {
		report, err := gen.GenerateDaily(date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating daily report: %v\n", err)
			os.Exit(1)
		}

		if format == "json" {
			data, err := reports.FormatDailyJSON(report)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting JSON: %v\n", err)
				os.Exit(1)
			}
			output = string(data)
		} else {
			output = reports.FormatDailyMarkdown(report)
		}
	}

	// Write output
	if *outputFlag != "" {
		if err := os.MkdirAll(filepath.Dir(*outputFlag), 0700); err != nil && filepath.Dir(*outputFlag) != "." {
			fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
			os.Exit(1)
		}
		if err := fsutil.WriteAtomic(*outputFlag, []byte(output), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", *outputFlag)
	} else {
		fmt.Print(output)
	}
}
