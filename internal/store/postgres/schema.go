//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package postgres implements the warehouse storage interfaces on
// PostgreSQL using pgx. The schema is managed with golang-migrate.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// driver

	"github.com/pgEdge/pgedge-ecomdw/internal/db"
	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
	"github.com/pgEdge/pgedge-ecomdw/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Schema drops and creates the warehouse tables.
type Schema struct {
	// URL is the postgres:// URL of the warehouse database.
	URL string

	// SystemURL, when set together with Recreate, is used to drop and
	// create the whole database before the tables are touched.
	SystemURL string
	Database  string
	Recreate  bool
}

// DropSchema drops every warehouse table. When recreation is enabled the
// whole database is recreated first; a failed recreation is logged and the
// tables are still dropped.
func (s *Schema) DropSchema(ctx context.Context) error {
	if s.Recreate && s.SystemURL != "" {
		if err := db.RecreateDatabase(ctx, s.SystemURL, s.Database); err != nil {
			logging.Error().Err(err).Str("database", s.Database).Msg("Failed to recreate database")
		}
	}
	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)
	return store.Down(m)
}

// CreateSchema creates every warehouse table.
func (s *Schema) CreateSchema(ctx context.Context) error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)
	return store.Up(m)
}

func (s *Schema) migrator() (*migrate.Migrate, error) {
	dbURL, err := migrateURL(s.URL)
	if err != nil {
		return nil, err
	}
	src, err := store.Source(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logging.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("Failed to close migrator")
	}
}

// migrateURL rewrites a postgres:// URL for the pgx/v5 migrate driver.
func migrateURL(connString string) (string, error) {
	u, err := url.Parse(connString)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return "", fmt.Errorf("schema migrations need a postgres:// URL connection string")
	}
	u.Scheme = "pgx5"
	return u.String(), nil
}
