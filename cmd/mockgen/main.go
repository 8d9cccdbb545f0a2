package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"packhouse-temporal/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", engine.Clean, "Scenario to generate: clean, sparse, messy")
	client := flag.String("client", "demo", "Client slug for the reference files")
	outDir := flag.String("out", "./data", "Output directory for rows.json and the tenant files")
	days := flag.Int("days", 14, "Number of days to generate")
	rowsPerDay := flag.Int("rows-per-day", 40, "Rows per day")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	switch *scenario {
	case engine.Clean, engine.Sparse, engine.Messy:
	default:
		fmt.Fprintf(os.Stderr, "Unknown scenario %q\n", *scenario)
		os.Exit(2)
	}

	cfg := engine.GeneratorConfig{
		Scenario:   *scenario,
		Client:     *client,
		Days:       *days,
		RowsPerDay: *rowsPerDay,
		Now:        time.Now(),
		Seed:       *seed,
	}

	fmt.Printf("Generating scenario '%s' for client '%s' (%d days x %d rows) to %s...\n", cfg.Scenario, cfg.Client, cfg.Days, cfg.RowsPerDay, *outDir)

	rows := engine.Generate(cfg)
	if err := engine.Save(*outDir, cfg.Client, rows); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
