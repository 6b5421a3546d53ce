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
	"sort"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ecomdw/internal/db"
)

var statusKey string

func init() {
	statusCmd.Flags().StringVar(&statusKey, "key", "",
		"print only this ledger entry (e.g. completed_at, dim_order_rows)")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the ledger of the last completed PostgreSQL load",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		pool, err := db.Connect(ctx, cfg.PostgresURL())
		if err != nil {
			return err
		}
		defer pool.Close()

		exists, err := db.MetadataExists(ctx, pool)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("no completed load recorded; run 'pgedge-ecomdw run' first")
		}

		if statusKey != "" {
			value, err := db.GetMetadataValue(ctx, pool, statusKey)
			if err != nil {
				return err
			}
			cmd.Println(value)
			return nil
		}

		metadata, err := db.GetAllMetadata(ctx, pool)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("  %-22s %s\n", k, metadata[k])
		}
		return nil
	},
}
