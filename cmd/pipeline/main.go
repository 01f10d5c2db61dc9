// Package main runs the anomaly scoring pipeline:
// join -> scale -> isolation forest -> statistical flags -> report
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"retail-anomaly-lab/internal/pipeline"
	"retail-anomaly-lab/internal/reporting"
	"retail-anomaly-lab/internal/storage"
	"retail-anomaly-lab/internal/storage/clickhouse"
	"retail-anomaly-lab/internal/storage/csvdir"
	"retail-anomaly-lab/internal/storage/migrations"
	"retail-anomaly-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	dataDir := flag.String("data-dir", "data/raw", "Directory with the raw CSV tables")
	postgresDSN := flag.String("postgres-dsn", "", "Read raw tables from Postgres instead of CSV")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Export scored orders to ClickHouse (optional)")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	contamination := flag.Float64("contamination", pipeline.DefaultConfig().Contamination, "Expected anomalous fraction, in (0,1)")
	trees := flag.Int("trees", pipeline.DefaultConfig().Trees, "Isolation forest ensemble size")
	seed := flag.Int64("seed", pipeline.DefaultConfig().Seed, "Random seed")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	cfg := pipeline.DefaultConfig()
	cfg.Contamination = *contamination
	cfg.Trees = *trees
	cfg.Seed = *seed
	cfg.Verbose = *verbose

	if err := run(ctx, cfg, *dataDir, *postgresDSN, *clickhouseDSN, *outputDir); err != nil {
		if errors.Is(err, storage.ErrMissingInput) {
			printSetupInstructions(*dataDir, err)
		} else {
			fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg pipeline.Config, dataDir, postgresDSN, clickhouseDSN, outputDir string) error {
	// Acquire the dataset handle; released on every exit path.
	store, err := openDatasetStore(ctx, dataDir, postgresDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	detector := pipeline.NewDetector(cfg)
	if err := detector.Run(ctx, store); err != nil {
		return err
	}

	records, err := detector.Records()
	if err != nil {
		return err
	}
	summary, err := detector.Summary()
	if err != nil {
		return err
	}

	fmt.Println("=== Anomaly Detection Results ===")
	fmt.Printf("  Orders scored:    %d\n", summary.TotalOrders)
	fmt.Printf("  ML anomalies:     %d (%.2f%%)\n", summary.MLAnomalyCount, summary.MLAnomalyRate)
	fmt.Printf("  IQR anomalies:    %d\n", summary.IQRAnomalyCount)
	fmt.Printf("  Anomaly revenue:  %.2f\n", summary.AnomalyRevenue)

	if err := writeOutputs(detector, cfg, outputDir); err != nil {
		return err
	}
	fmt.Printf("\nReports written to %s:\n", outputDir)
	fmt.Println("  - ANOMALY_REPORT.md")
	fmt.Println("  - scored_orders.csv")
	fmt.Println("  - state_rollup.csv")
	fmt.Println("  - monthly_rollup.csv")

	if clickhouseDSN != "" {
		if err := exportClickhouse(ctx, detector, clickhouseDSN); err != nil {
			return fmt.Errorf("export to clickhouse: %w", err)
		}
		fmt.Printf("\nExported %d scored orders to ClickHouse\n", len(records))
	}

	return nil
}

// openDatasetStore picks the backing source: Postgres when a DSN is
// given, the CSV directory otherwise.
func openDatasetStore(ctx context.Context, dataDir, postgresDSN string) (storage.DatasetStore, error) {
	if postgresDSN != "" {
		pool, err := postgres.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, err
		}
		return postgres.NewDatasetStore(pool), nil
	}
	return csvdir.New(dataDir), nil
}

func writeOutputs(detector *pipeline.Detector, cfg pipeline.Config, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	records, err := detector.Records()
	if err != nil {
		return err
	}
	states, err := detector.ByState()
	if err != nil {
		return err
	}
	monthly, err := detector.Monthly()
	if err != nil {
		return err
	}

	report := reporting.NewGenerator(cfg.Contamination, cfg.Trees, cfg.Seed).Generate(records)

	files := map[string]string{
		"ANOMALY_REPORT.md":  reporting.RenderMarkdown(report),
		"scored_orders.csv":  reporting.RenderScoredOrdersCSV(records),
		"state_rollup.csv":   reporting.RenderStateRollupCSV(states),
		"monthly_rollup.csv": reporting.RenderMonthlyRollupCSV(monthly),
	}
	for name, content := range files {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func exportClickhouse(ctx context.Context, detector *pipeline.Detector, dsn string) error {
	conn, err := clickhouse.NewConn(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		return err
	}
	return detector.Export(ctx, clickhouse.NewScoredOrderStore(conn))
}

// printSetupInstructions shows the dataset file status when a required
// input is missing, instead of a bare error.
func printSetupInstructions(dataDir string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
	fmt.Fprintf(os.Stderr, "Dataset file status in %s:\n", dataDir)

	status := csvdir.CheckDataFiles(dataDir)
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mark := "missing"
		if status[name] {
			mark = "found"
		}
		fmt.Fprintf(os.Stderr, "  %-42s %s\n", name, mark)
	}

	fmt.Fprintln(os.Stderr, "\nDownload the Olist e-commerce dataset and place the CSV files")
	fmt.Fprintf(os.Stderr, "in %s, or point --postgres-dsn at an ingested database.\n", dataDir)
}
