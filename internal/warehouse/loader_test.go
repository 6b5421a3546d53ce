//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-ecomdw/internal/source"
	"github.com/pgEdge/pgedge-ecomdw/internal/store/memory"
	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

func TestUpsertCustomersConverges(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rows := []warehouse.CustomerRow{
		{CustomerID: "alice", ZipCode: str("10001"), City: str("NYC"), State: str("NY")},
		{CustomerID: "bob", City: str("Boston")},
	}

	load := func() int64 {
		s, err := store.Begin(ctx)
		require.NoError(t, err)
		n, err := warehouse.BulkApply(ctx, s, warehouse.TableCustomer, rows, 1, s.UpsertCustomers)
		require.NoError(t, err)
		require.NoError(t, s.Commit(ctx))
		return n
	}

	first := load()
	second := load()
	assert.Equal(t, int64(2), first)
	assert.Equal(t, first, second)

	alice, ok := store.Customer("alice")
	require.True(t, ok)
	assert.Equal(t, "NYC", *alice.City)
}

func TestUpsertSellersOverwritesAttributes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s, err := store.Begin(ctx)
	require.NoError(t, err)

	n, err := warehouse.BulkApply(ctx, s, warehouse.TableSeller, []warehouse.SellerRow{
		{SellerID: "s1", City: str("campinas")},
		{SellerID: "s1", City: str("santos")},
	}, 10, s.UpsertSellers)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx))

	assert.Equal(t, int64(1), n)
	seller, ok := store.Seller("s1")
	require.True(t, ok)
	assert.Equal(t, "santos", *seller.City)
}

func TestInsertDatesIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s, err := store.Begin(ctx)
	require.NoError(t, err)

	rec := warehouse.Normalize(time.Date(2018, 6, 21, 13, 0, 0, 0, time.UTC), warehouse.SeasonCalendar)
	n, err := warehouse.BulkApply(ctx, s, warehouse.TableDate, []warehouse.DateRecord{rec, rec}, 1, s.InsertDates)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = warehouse.BulkApply(ctx, s, warehouse.TableDate, []warehouse.DateRecord{rec}, 1, s.InsertDates)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, s.Commit(ctx))
}

func TestBulkApplyStopsOnConstraintViolation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s, err := store.Begin(ctx)
	require.NoError(t, err)
	defer s.Rollback(ctx)

	_, err = warehouse.BulkApply(ctx, s, warehouse.TableProduct, []warehouse.ProductRow{
		{ProductID: "p1"}, {ProductID: "p2"}, {ProductID: "p1"},
	}, 2, s.InsertProducts)
	require.Error(t, err)
	assert.True(t, warehouse.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "rows 2-2")
}

func TestProductRowsDefaults(t *testing.T) {
	rows := warehouse.ProductRows([]source.Product{
		{ProductID: "p1", Category: str("toys"), WeightG: f64(225)},
		{ProductID: "p2"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "toys", rows[0].Category)
	assert.Equal(t, 225.0, rows[0].WeightG)
	assert.Zero(t, rows[0].WidthCM)
	assert.Equal(t, "Unknown", rows[1].Category)
	assert.Zero(t, rows[1].PhotosQty)
}
