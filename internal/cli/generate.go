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
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ecomdw/internal/datagen"
	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
)

var (
	genOutDir    string
	genCustomers int
	genSellers   int
	genProducts  int
	genOrders    int
	genDirtyRate float64
	genSeed      uint64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic e-commerce dataset",
	Long: `Generate the seven CSV extracts of a synthetic e-commerce dataset.
A share of the rows is deliberately dirty (unknown references, missing
dates, missing product categories) so that every drop path of a load is
exercised. The same seed always produces the same files.

Example:
  pgedge-ecomdw generate --out ./ecommerce_dataset --orders 50000
  pgedge-ecomdw generate --out ./sample --seed 42 --dirty-rate 0.1`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genOutDir, "out", "",
		"output directory")
	generateCmd.Flags().IntVar(&genCustomers, "customers", 0,
		"number of customers")
	generateCmd.Flags().IntVar(&genSellers, "sellers", 0,
		"number of sellers")
	generateCmd.Flags().IntVar(&genProducts, "products", 0,
		"number of products")
	generateCmd.Flags().IntVar(&genOrders, "orders", 0,
		"number of orders")
	generateCmd.Flags().Float64Var(&genDirtyRate, "dirty-rate", -1,
		"share of rows with data quality defects (0-1)")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed (0 = random)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if genOutDir != "" {
		cfg.Generate.OutDir = genOutDir
	}
	if genCustomers > 0 {
		cfg.Generate.Customers = genCustomers
	}
	if genSellers > 0 {
		cfg.Generate.Sellers = genSellers
	}
	if genProducts > 0 {
		cfg.Generate.Products = genProducts
	}
	if genOrders > 0 {
		cfg.Generate.Orders = genOrders
	}
	if genDirtyRate >= 0 {
		cfg.Generate.DirtyRate = genDirtyRate
	}
	if genSeed != 0 {
		cfg.Generate.Seed = genSeed
	}

	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	g := cfg.Generate
	gen, err := datagen.NewGenerator(datagen.Config{
		Customers: g.Customers,
		Sellers:   g.Sellers,
		Products:  g.Products,
		Orders:    g.Orders,
		DirtyRate: g.DirtyRate,
		Seed:      g.Seed,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	ds, err := gen.Generate(context.Background())
	if err != nil {
		return err
	}

	size, err := datagen.WriteCSV(g.OutDir, ds)
	if err != nil {
		return err
	}

	logging.Info().
		Str("dir", g.OutDir).
		Str("size", datagen.FormatSize(size)).
		Dur("duration", time.Since(start)).
		Msg("Dataset written")

	return nil
}
