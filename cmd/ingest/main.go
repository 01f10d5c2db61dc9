// Package main loads the raw CSV tables into PostgreSQL so the
// pipeline can read them relationally.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"retail-anomaly-lab/internal/storage/csvdir"
	"retail-anomaly-lab/internal/storage/migrations"
	"retail-anomaly-lab/internal/storage/postgres"
)

func main() {
	dataDir := flag.String("data-dir", "data/raw", "Directory with the raw CSV tables")
	postgresDSN := flag.String("postgres-dsn", "", "Target Postgres DSN (required)")
	flag.Parse()

	if *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling ingest...\n", sig)
		cancel()
	}()

	if err := run(ctx, *dataDir, *postgresDSN); err != nil {
		fmt.Fprintf(os.Stderr, "Ingest error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dataDir, dsn string) error {
	src := csvdir.New(dataDir)
	defer src.Close()

	ds, err := src.Load(ctx)
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return err
	}

	if err := postgres.NewLoader(pool).LoadDataset(ctx, ds); err != nil {
		return err
	}

	fmt.Println("Ingest completed:")
	fmt.Printf("  Orders:    %d\n", len(ds.Orders))
	fmt.Printf("  Items:     %d\n", len(ds.Items))
	fmt.Printf("  Payments:  %d\n", len(ds.Payments))
	fmt.Printf("  Customers: %d\n", len(ds.Customers))
	fmt.Printf("  Products:  %d\n", len(ds.Products))
	fmt.Printf("  Sellers:   %d\n", len(ds.Sellers))
	return nil
}
