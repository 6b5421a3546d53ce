//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-ecomdw.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ecomdw/internal/config"
	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
	"github.com/pgEdge/pgedge-ecomdw/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string
	sourceDir  string
	driver     string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-ecomdw",
		Short: "E-commerce data warehouse loader",
		Long: `pgedge-ecomdw loads raw e-commerce extracts (customers, sellers,
products, orders, order items, payments and feedback) into a star-schema
warehouse with four dimensions, a date dimension and three fact tables.

Each run recreates the schema and then loads every stage in a fixed
order, one transaction per stage. The warehouse can live in PostgreSQL,
in an embedded SQLite file, or in memory for dry runs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-ecomdw.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string for the warehouse")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&sourceDir, "source", "",
		"dataset directory or s3://bucket/prefix")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "",
		"warehouse storage driver (postgres, sqlite, memory)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(statusCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if sourceDir != "" {
		cfg.Source.Dir = sourceDir
	}
	if driver != "" {
		cfg.Storage.Driver = driver
	}

	// Reinitialize logger with config
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		File:   cfg.LogFile,
	}); err != nil {
		logging.Warn().Err(err).Str("file", cfg.LogFile).Msg("Run log disabled")
	}

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the load stages in execution order",
	Long: `List the schema step and the load stages in the order a run executes
them, with the extract each stage reads and the table it fills.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Stages:")
		cmd.Println()
		cmd.Printf("  %-11s %-24s %s\n", warehouse.StageSchema, "-", "drop and create all tables")
		for _, s := range warehouse.Stages() {
			line := fmt.Sprintf("  %-11s %-24s %s", s.Name, s.Source, s.Table)
			if len(s.DependsOn) > 0 {
				line += " (after " + strings.Join(s.DependsOn, ", ") + ")"
			}
			cmd.Println(line)
		}
	},
}
