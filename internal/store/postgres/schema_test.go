//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	got, err := migrateURL("postgres://etl:secret@db:5432/ecommerce_dw?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://etl:secret@db:5432/ecommerce_dw?sslmode=disable", got)

	got, err = migrateURL("postgresql://db/dw")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://db/dw", got)

	_, err = migrateURL("host=db dbname=dw")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"000001_create_warehouse.down.sql",
		"000001_create_warehouse.up.sql",
	}, names)
}

func TestDropSchemaFallsBackToTablesWhenRecreateFails(t *testing.T) {
	s := &Schema{
		URL:       "mysql://not-a-postgres-url/warehouse",
		SystemURL: "postgres://postgres@127.0.0.1:1/postgres?connect_timeout=2",
		Database:  "warehouse",
		Recreate:  true,
	}

	// The recreate error is logged; the table drop is attempted next and
	// fails on the warehouse URL instead.
	err := s.DropSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres:// URL")
	assert.NotContains(t, err.Error(), "system database")
}
