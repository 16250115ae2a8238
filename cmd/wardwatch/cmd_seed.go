package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wardwatch/wardwatch/internal/seed"
	"github.com/wardwatch/wardwatch/internal/store"
	"github.com/wardwatch/wardwatch/internal/telemetry"
	"github.com/wardwatch/wardwatch/pkg/plugin"
)

// runSeed implements the "seed" subcommand: fill the database with a demo
// ward so the API and detection pipeline have data to work with. Safe to
// re-run; an already-seeded database is left alone.
func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath(), "path to the WardWatch database")
	_ = fs.Parse(args)

	ctx := context.Background()

	db, err := store.New(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// A bare Telemetry module applies its migrations and gives the seeder
	// the live ingestion path, with no bus or server attached.
	tel := telemetry.New()
	if err := tel.Init(ctx, plugin.Dependencies{Logger: zap.NewNop(), Store: db}); err != nil {
		fmt.Fprintf(os.Stderr, "init telemetry: %v\n", err)
		os.Exit(1)
	}

	sum, err := seed.SeedDemoWard(ctx, tel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	if sum.Skipped {
		fmt.Println("database already contains demo data; nothing to do")
		return
	}
	fmt.Printf("seeded %d devices with %d readings into %s\n", sum.Devices, sum.Readings, *dbPath)
}
