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

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

var profileOutput string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile the raw extracts",
	Long: `Read every CSV extract in the source directory and write a report with
the row and column counts, null cells, duplicate rows and unique values per
column of each file.

Example:
  pgedge-ecomdw profile --source ./ecommerce_dataset --output report.txt`,
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileOutput, "output", "data_preprocessing.txt",
		"report file")
}

func runProfile(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	opener, err := source.NewOpener(ctx, cfg.Source.Dir, s3Options(cfg))
	if err != nil {
		return err
	}

	f, err := os.Create(profileOutput)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	profiles, err := source.Profile(ctx, opener, f)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logging.Info().
		Str("source", opener.Location()).
		Int("files", len(profiles)).
		Str("output", profileOutput).
		Msg("Profile written")

	return nil
}
