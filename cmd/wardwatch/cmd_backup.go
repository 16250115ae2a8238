package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wardwatch/wardwatch/internal/backup"
)

// runBackup implements the "backup" subcommand: archive the database and an
// optional config file into a portable tar.gz. Run it against a stopped
// server so the snapshot is consistent.
func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath(), "path to the WardWatch database")
	cfgPath := fs.String("config", "", "config file to include in the archive")
	out := fs.String("out", "", "output archive path (default wardwatch-backup-<timestamp>.tar.gz)")
	_ = fs.Parse(args)

	archivePath := *out
	if archivePath == "" {
		archivePath = fmt.Sprintf("wardwatch-backup-%s.tar.gz", time.Now().UTC().Format("20060102-150405"))
	}

	if err := backup.Backup(context.Background(), *dbPath, *cfgPath, archivePath); err != nil {
		fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("backup written to %s\n", archivePath)
}

// runRestore implements the "restore" subcommand: unpack an archive produced
// by "backup" into a target directory.
func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	target := fs.String("target", ".", "directory to restore into")
	force := fs.Bool("force", false, "overwrite existing files")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: wardwatch restore [-target dir] [-force] <archive.tar.gz>")
		os.Exit(2)
	}

	if err := backup.Restore(context.Background(), fs.Arg(0), *target, *force); err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("restored into %s\n", *target)
}

// defaultDBPath mirrors the server's database.path default, honoring the
// WARDWATCH_DATABASE_PATH environment override.
func defaultDBPath() string {
	if p := os.Getenv("WARDWATCH_DATABASE_PATH"); p != "" {
		return p
	}
	return "./data/wardwatch.db"
}
