//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides fixtures and database helpers for tests.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-ecomdw/internal/datagen"
	"github.com/pgEdge/pgedge-ecomdw/internal/db"
	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

const (
	// DefaultTestConnString is the default connection string for tests.
	// Override with PGEDGE_TEST_CONN environment variable.
	DefaultTestConnString = "postgres://postgres@localhost:5432/postgres"

	// TestDBPrefix is the prefix for test databases.
	TestDBPrefix = "ecomdw_test_"
)

// Dataset is a set of source extracts.
type Dataset = datagen.Dataset

func str(s string) *string         { return &s }
func f64(v float64) *float64       { return &v }
func i64(v int64) *int64           { return &v }
func ts(s string) source.Timestamp { return source.ParseTimestamp(s) }

// SmallDataset returns one customer, seller, product and order, with an
// order item, payment and feedback for that order. The feedback answer date
// is missing.
func SmallDataset() *Dataset {
	return &Dataset{
		Customers: []source.Customer{
			{UserName: "alice", ZipCode: str("10001"), City: str("NYC"), State: str("NY")},
		},
		Sellers: []source.Seller{
			{SellerID: "s1", ZipCode: str("13023"), City: str("campinas"), State: str("SP")},
		},
		Products: []source.Product{
			{ProductID: "p1", Category: str("toys"), WeightG: f64(225)},
		},
		Orders: []source.Order{{
			OrderID:           "o1",
			UserName:          "alice",
			Status:            "delivered",
			OrderDate:         ts("2018-01-10 08:00:00"),
			ApprovedDate:      ts("2018-01-10 09:30:00"),
			PickupDate:        ts("2018-01-12 14:00:00"),
			DeliveredDate:     ts("2018-01-20 17:45:00"),
			EstimatedDelivery: ts("2018-01-25 00:00:00"),
		}},
		OrderItems: []source.OrderItem{
			{OrderID: "o1", OrderItemID: "1", ProductID: "p1", SellerID: "s1",
				PickupLimitDate: ts("2018-01-11 10:00:00"), Price: f64(58.9), ShippingCost: f64(13.29)},
		},
		Payments: []source.Payment{
			{OrderID: "o1", Sequential: i64(1), Type: str("credit_card"), Installments: i64(2), Value: f64(72.19)},
		},
		Feedback: []source.Feedback{
			{FeedbackID: "f1", OrderID: "o1", Score: i64(5), FormSentDate: ts("2018-01-21 00:00:00")},
		},
	}
}

// WriteDataset writes ds as CSV extracts into a temporary directory and
// returns its path.
func WriteDataset(t *testing.T, ds *Dataset) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := datagen.WriteCSV(dir, ds); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}
	return dir
}

// PostgresAvailable checks if PostgreSQL is available for testing.
// Returns the connection string if available, empty string otherwise.
func PostgresAvailable() string {
	connStr := os.Getenv("PGEDGE_TEST_CONN")
	if connStr == "" {
		connStr = DefaultTestConnString
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return ""
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return ""
	}

	return connStr
}

// SkipIfNoPostgres skips the test if PostgreSQL is not available.
func SkipIfNoPostgres(t *testing.T) string {
	connStr := PostgresAvailable()
	if connStr == "" {
		t.Skip("PostgreSQL not available, skipping integration test")
	}
	return connStr
}

// CreateTestDB creates an empty, uniquely named database and returns its
// connection string together with a cleanup function.
func CreateTestDB(t *testing.T) (string, func()) {
	t.Helper()

	baseConnStr := SkipIfNoPostgres(t)

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		t.Fatalf("Failed to generate random database name: %v", err)
	}
	dbName := TestDBPrefix + hex.EncodeToString(randomBytes)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.RecreateDatabase(ctx, baseConnStr, dbName); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	config, err := pgx.ParseConfig(baseConnStr)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}

	// ConnString() returns the original string, so build the new one
	// from the parsed parts.
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(config.Host, strconv.Itoa(int(config.Port))),
		Path:   "/" + dbName,
	}
	if config.Password != "" {
		u.User = url.UserPassword(config.User, config.Password)
	} else {
		u.User = url.User(config.User)
	}

	cleanup := NewTestCleanup(t, baseConnStr, dbName)
	return u.String(), cleanup.Cleanup
}

// DropTestDB drops the test database.
func DropTestDB(t *testing.T, baseConnStr, dbName string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, baseConnStr)
	if err != nil {
		t.Logf("Warning: Failed to connect to drop test database: %v", err)
		return
	}
	defer pool.Close()

	name := pgx.Identifier{dbName}.Sanitize()
	_, err = pool.Exec(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)")
	if err != nil {
		t.Logf("Warning: Failed to drop test database: %v", err)
	}
}

// TestCleanup is a helper that cleans up test resources.
type TestCleanup struct {
	t           *testing.T
	baseConnStr string
	dbName      string
}

// NewTestCleanup creates a new test cleanup helper.
func NewTestCleanup(t *testing.T, baseConnStr, dbName string) *TestCleanup {
	return &TestCleanup{
		t:           t,
		baseConnStr: baseConnStr,
		dbName:      dbName,
	}
}

// Cleanup performs the cleanup.
// The database is only dropped if the test passed; on failure it remains
// for diagnostic purposes.
func (tc *TestCleanup) Cleanup() {
	if tc.t.Failed() {
		tc.t.Logf("Test failed - keeping database %s for diagnostics", tc.dbName)
		return
	}
	DropTestDB(tc.t, tc.baseConnStr, tc.dbName)
}
