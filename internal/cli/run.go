//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ecomdw/internal/config"
	"github.com/pgEdge/pgedge-ecomdw/internal/db"
	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
	"github.com/pgEdge/pgedge-ecomdw/internal/source"
	"github.com/pgEdge/pgedge-ecomdw/internal/store/memory"
	"github.com/pgEdge/pgedge-ecomdw/internal/store/postgres"
	"github.com/pgEdge/pgedge-ecomdw/internal/store/sqlite"
	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

var (
	runBatchSize   int
	runSeasonRule  string
	runNoCache     bool
	runMetricsFile string
	runSQLitePath  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recreate the warehouse schema and load every stage",
	Long: `Drop and recreate the warehouse schema, then load the customer, seller,
product, date, order, order item, payment and feedback stages in that
order. Each stage runs in its own transaction; a failing stage stops the
run and leaves the stages before it committed.

Schema setup failures are logged and the loads are attempted against
whatever schema already exists.

Example:
  pgedge-ecomdw run --source ./ecommerce_dataset
  pgedge-ecomdw run --driver sqlite --sqlite-path warehouse.db
  pgedge-ecomdw run --source s3://datasets/ecommerce --season-rule legacy`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 0,
		"rows per bulk statement")
	runCmd.Flags().StringVar(&runSeasonRule, "season-rule", "",
		"season rule for the date dimension: calendar or legacy")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false,
		"disable the per-run surrogate key cache")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "",
		"write stage metrics in Prometheus textfile format to this path")
	runCmd.Flags().StringVar(&runSQLitePath, "sqlite-path", "",
		"warehouse file for the sqlite driver")
}

// warehouseTarget bundles what a pipeline needs from a storage driver.
type warehouseTarget struct {
	schema warehouse.SchemaManager
	open   func(ctx context.Context) (warehouse.Store, error)
	close  func()

	// pool is set for PostgreSQL once the store has been opened.
	pool *pgxpool.Pool
}

func newTarget(c *config.Config) (*warehouseTarget, error) {
	t := &warehouseTarget{close: func() {}}

	switch c.Storage.Driver {
	case config.DriverPostgres:
		pg := c.Storage.Postgres
		t.schema = &postgres.Schema{
			URL:       c.PostgresURL(),
			SystemURL: c.SystemURL(),
			Database:  pg.Database,
			Recreate:  pg.RecreateDatabase,
		}
		// The pool is created after the schema step, which may drop and
		// recreate the database.
		t.open = func(ctx context.Context) (warehouse.Store, error) {
			pool, err := db.Connect(ctx, c.PostgresURL())
			if err != nil {
				return nil, err
			}
			t.pool = pool
			return postgres.Open(ctx, pool)
		}
		t.close = func() {
			if t.pool != nil {
				t.pool.Close()
			}
		}

	case config.DriverSQLite:
		path := c.Storage.SQLite.Path
		t.schema = &sqlite.Schema{Path: path}
		t.open = func(ctx context.Context) (warehouse.Store, error) {
			return sqlite.Open(ctx, path)
		}

	case config.DriverMemory:
		store := memory.New()
		t.schema = store
		t.open = func(context.Context) (warehouse.Store, error) {
			return store, nil
		}

	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	return t, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runBatchSize > 0 {
		cfg.ETL.BatchSize = runBatchSize
	}
	if runSeasonRule != "" {
		cfg.ETL.SeasonRule = runSeasonRule
	}
	if runNoCache {
		cfg.ETL.CacheKeys = false
	}
	if runMetricsFile != "" {
		cfg.MetricsFile = runMetricsFile
	}
	if runSQLitePath != "" {
		cfg.Storage.SQLite.Path = runSQLitePath
	}

	// Validate configuration
	if err := cfg.ValidateRun(); err != nil {
		return err
	}
	rule, err := warehouse.ParseSeasonRule(cfg.ETL.SeasonRule)
	if err != nil {
		return err
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	opener, err := source.NewOpener(ctx, cfg.Source.Dir, s3Options(cfg))
	if err != nil {
		return err
	}

	target, err := newTarget(cfg)
	if err != nil {
		return err
	}
	defer target.close()

	metrics := warehouse.NewMetrics()
	pipeline := &warehouse.Pipeline{
		Schema: target.schema,
		Open:   target.open,
		Source: source.NewReader(opener),
		Options: warehouse.Options{
			BatchSize:  cfg.ETL.BatchSize,
			SeasonRule: rule,
			CacheKeys:  cfg.ETL.CacheKeys,
		},
		Metrics: metrics,
	}

	logging.Info().
		Str("source", opener.Location()).
		Str("driver", cfg.Storage.Driver).
		Int("batch_size", cfg.ETL.BatchSize).
		Str("season_rule", string(rule)).
		Bool("cache_keys", cfg.ETL.CacheKeys).
		Msg("Starting warehouse load")

	result, runErr := pipeline.Run(ctx)
	warehouse.PrintSummary(result)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logging.Warn().Err(err).Str("file", cfg.MetricsFile).Msg("Failed to write metrics")
		}
	}

	if runErr != nil {
		return runErr
	}

	if target.pool != nil {
		rows := make(map[string]int64, len(result.Stages))
		for _, s := range result.Stages {
			rows[s.Table] = s.Rows
		}
		if err := db.SaveRunMetadata(ctx, target.pool, opener.Location(), rows); err != nil {
			logging.Warn().Err(err).Msg("Failed to save run metadata")
		}
	}

	return nil
}

func s3Options(c *config.Config) source.S3Options {
	return source.S3Options{
		Region:          c.Source.S3.Region,
		Endpoint:        c.Source.S3.Endpoint,
		PathStyle:       c.Source.S3.PathStyle,
		AccessKeyID:     c.Source.S3.AccessKeyID,
		SecretAccessKey: c.Source.S3.SecretAccessKey,
	}
}
