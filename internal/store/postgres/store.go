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
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

// Store holds the single pooled connection used by a run.
type Store struct {
	conn *pgxpool.Conn
}

// Open acquires a connection from pool for the lifetime of the store.
func Open(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Begin starts a transaction on the store's connection.
func (s *Store) Begin(ctx context.Context) (warehouse.Session, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &session{tx: tx}, nil
}

// Close returns the connection to the pool.
func (s *Store) Close(_ context.Context) error {
	s.conn.Release()
	return nil
}
