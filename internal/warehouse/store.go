//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"time"

	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

// SchemaManager drops and recreates the warehouse schema. Both calls are
// idempotent at the database level.
type SchemaManager interface {
	DropSchema(ctx context.Context) error
	CreateSchema(ctx context.Context) error
}

// Store hands out sessions over the single storage connection of a run.
type Store interface {
	// Begin starts a transaction. Only one session is open at a time.
	Begin(ctx context.Context) (Session, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Session is one stage's transaction. Writes become visible to later
// sessions only after Commit.
type Session interface {
	// Lookup returns the surrogate key for a natural key, reporting
	// false when the row does not exist.
	Lookup(ctx context.Context, dim Dimension, naturalKey string) (int64, bool, error)

	// LookupDate returns the surrogate key of the dim_date row for key.
	LookupDate(ctx context.Context, key time.Time) (int64, bool, error)

	// EnsureDate inserts rec unless a row with the same key exists and
	// returns the key of the row, in one atomic statement.
	EnsureDate(ctx context.Context, rec DateRecord) (int64, error)

	// UpsertCustomers and UpsertSellers overwrite attributes of rows that
	// already exist.
	UpsertCustomers(ctx context.Context, rows []CustomerRow) error
	UpsertSellers(ctx context.Context, rows []SellerRow) error

	// InsertDates skips rows whose key already exists.
	InsertDates(ctx context.Context, rows []DateRecord) error

	// The remaining inserts fail on a repeated natural key.
	InsertProducts(ctx context.Context, rows []ProductRow) error
	InsertOrders(ctx context.Context, rows []OrderRow) error
	InsertOrderItems(ctx context.Context, rows []OrderItemRow) error
	InsertPayments(ctx context.Context, rows []PaymentRow) error
	InsertFeedback(ctx context.Context, rows []FeedbackRow) error

	// Count returns the number of rows in a warehouse table.
	Count(ctx context.Context, table string) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Dataset supplies the decoded extracts. *source.Reader implements it.
type Dataset interface {
	Customers(ctx context.Context) ([]source.Customer, error)
	Sellers(ctx context.Context) ([]source.Seller, error)
	Products(ctx context.Context) ([]source.Product, error)
	Orders(ctx context.Context) ([]source.Order, error)
	OrderItems(ctx context.Context) ([]source.OrderItem, error)
	Payments(ctx context.Context) ([]source.Payment, error)
	Feedback(ctx context.Context) ([]source.Feedback, error)
}
