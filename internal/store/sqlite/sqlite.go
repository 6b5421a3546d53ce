//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package sqlite implements the warehouse storage interfaces on an
// embedded SQLite database file (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
	"github.com/pgEdge/pgedge-ecomdw/internal/store"
	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

//go:embed migrations/*.sql
var migrations embed.FS

// dsn enables foreign keys on every connection.
func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return db, nil
}

// Schema manages the warehouse tables of a database file.
type Schema struct {
	Path string
}

// DropSchema drops every warehouse table.
func (s *Schema) DropSchema(ctx context.Context) error {
	return s.withMigrator(ctx, store.Down)
}

// CreateSchema creates every warehouse table.
func (s *Schema) CreateSchema(ctx context.Context) error {
	return s.withMigrator(ctx, store.Up)
}

func (s *Schema) withMigrator(ctx context.Context, fn func(*migrate.Migrate) error) error {
	db, err := openDB(ctx, s.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	src, err := store.Source(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	// Not closed: closing the migrator would close db, which is closed above.
	return fn(m)
}

// Store is a warehouse in a SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	logging.Debug().Str("path", path).Msg("Opened SQLite warehouse")
	return &Store{db: db, path: path}, nil
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (warehouse.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &session{tx: tx}, nil
}

// Close closes the database file.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

// constraintError marks SQLite constraint failures.
type constraintError struct {
	err error
}

func (e *constraintError) Error() string             { return e.err.Error() }
func (e *constraintError) Unwrap() error             { return e.err }
func (e *constraintError) ConstraintViolation() bool { return true }

func translate(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &constraintError{err: err}
	}
	return err
}
