package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/proshopdata/salespipe/internal/config"
	"github.com/proshopdata/salespipe/internal/ingest"
	"github.com/proshopdata/salespipe/internal/logging"
	"github.com/proshopdata/salespipe/internal/postgres"
	"github.com/proshopdata/salespipe/internal/report"
	"github.com/proshopdata/salespipe/internal/source"
)

func main() {
	seed := flag.Bool("seed", false, "insert the sample dataset before ingesting")
	dataDir := flag.String("data", "", "directory with source CSV files (overrides INGEST_DATA_DIR)")
	flag.Parse()

	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	dir := cfg.Ingest.DataDir
	if *dataDir != "" {
		dir = *dataDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Ingest.Timeout)
	defer cancel()

	pool, err := connect(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *seed {
		if err := postgres.Seed(ctx, pool); err != nil {
			slog.Error("failed to seed sample data", "error", err)
			os.Exit(1)
		}
		slog.Info("sample data seeded")
	}

	sources := source.Discover(dir, cfg.Ingest.MaxFileSize)
	if len(sources) == 0 {
		slog.Info("no source files found", "dir", dir)
	} else {
		if err := run(ctx, pool, sources); err != nil {
			slog.Error("ingestion failed", "error", err)
			os.Exit(1)
		}
	}

	if err := printReports(ctx, postgres.NewReports(pool)); err != nil {
		slog.Error("failed to print reports", "error", err)
		os.Exit(1)
	}
}

// connect builds the pgx pool from config and verifies the connection.
func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	return pool, nil
}

// run executes the full pipeline inside one transaction: all four stages
// commit together, and rejected rows never abort the batch.
func run(ctx context.Context, pool *pgxpool.Pool, sources map[string]ingest.RowSource) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	runner, err := ingest.NewRunner(postgres.NewStore(tx), ingest.SlogSink{})
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, sources)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.Info("ingestion committed",
		"run_id", result.RunID,
		"inserted", result.Inserted(),
		"rejected", result.Rejected(),
		"duration", result.Duration,
	)
	for _, e := range result.Entities {
		slog.Info("entity summary",
			"entity", e.Entity,
			"source", e.Source,
			"total", e.Total,
			"inserted", e.Inserted,
			"duplicates", e.Duplicates,
			"rejected", e.Rejected,
		)
	}
	return nil
}

// printReports writes the three aggregations and the order listing to
// stdout.
func printReports(ctx context.Context, reports *postgres.Reports) error {
	customers, err := reports.CustomerTotals(ctx)
	if err != nil {
		return fmt.Errorf("customer totals: %w", err)
	}
	fmt.Println("\nTotal spent per customer:")
	for _, c := range customers {
		fmt.Printf("  %-30s %10.2f\n", c.Name, c.Total)
	}

	daily, err := reports.DailyTotals(ctx)
	if err != nil {
		return fmt.Errorf("daily totals: %w", err)
	}
	fmt.Println("\nRevenue per day:")
	printPeriods(daily, "2006-01-02")

	weekly, err := reports.WeeklyTotals(ctx)
	if err != nil {
		return fmt.Errorf("weekly totals: %w", err)
	}
	fmt.Println("\nRevenue per week (week starting):")
	printPeriods(weekly, "2006-01-02")

	orders, err := reports.Orders(ctx)
	if err != nil {
		return fmt.Errorf("orders: %w", err)
	}
	fmt.Println("\nOrders:")
	for _, o := range orders {
		fmt.Printf("  #%-6d %-30s %s\n", o.OrderID, o.Customer, o.OrderDate.Format("2006-01-02 15:04"))
	}

	return nil
}

func printPeriods(totals []report.PeriodTotal, layout string) {
	for _, p := range totals {
		fmt.Printf("  %s %10.2f\n", p.Start.Format(layout), p.Total)
	}
}
