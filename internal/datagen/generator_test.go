//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

func generate(t *testing.T, cfg Config) *Dataset {
	t.Helper()
	g, err := NewGenerator(cfg)
	require.NoError(t, err)
	ds, err := g.Generate(context.Background())
	require.NoError(t, err)
	return ds
}

func TestNewGeneratorValidates(t *testing.T) {
	_, err := NewGenerator(Config{Customers: 0, Sellers: 1, Products: 1})
	assert.Error(t, err)

	_, err = NewGenerator(Config{Customers: 1, Sellers: 1, Products: 1, DirtyRate: 1.5})
	assert.Error(t, err)

	_, err = NewGenerator(Config{Customers: 1, Sellers: 1, Products: 1, Orders: 0})
	assert.NoError(t, err)
}

func TestGenerateCleanDataset(t *testing.T) {
	ds := generate(t, Config{Customers: 20, Sellers: 5, Products: 30, Orders: 100, Seed: 7})

	assert.Len(t, ds.Customers, 20)
	assert.Len(t, ds.Sellers, 5)
	assert.Len(t, ds.Products, 30)
	assert.Len(t, ds.Orders, 100)
	assert.GreaterOrEqual(t, len(ds.OrderItems), 100)
	assert.GreaterOrEqual(t, len(ds.Payments), 100)

	users := map[string]bool{}
	for _, c := range ds.Customers {
		assert.False(t, users[c.UserName], "duplicate user %s", c.UserName)
		users[c.UserName] = true
	}
	products := map[string]bool{}
	for _, p := range ds.Products {
		products[p.ProductID] = true
		assert.NotNil(t, p.Category)
	}
	orders := map[string]bool{}
	for _, o := range ds.Orders {
		orders[o.OrderID] = true
		assert.True(t, users[o.UserName], "order %s references unknown user", o.OrderID)
		assert.True(t, o.OrderDate.Valid)
		assert.False(t, o.ApprovedDate.Time.Before(o.OrderDate.Time))
		if o.Status == "delivered" {
			assert.True(t, o.DeliveredDate.Valid)
		}
	}
	for _, item := range ds.OrderItems {
		assert.True(t, orders[item.OrderID])
		assert.True(t, products[item.ProductID])
	}
	for _, f := range ds.Feedback {
		assert.True(t, orders[f.OrderID])
		assert.True(t, f.AnswerDate.Valid)
	}
}

func TestGenerateDirtyDataset(t *testing.T) {
	ds := generate(t, Config{Customers: 3, Sellers: 2, Products: 4, Orders: 10, DirtyRate: 1, Seed: 3})

	users := map[string]bool{}
	for _, c := range ds.Customers {
		users[c.UserName] = true
	}
	for _, o := range ds.Orders {
		assert.False(t, users[o.UserName])
		assert.False(t, o.DeliveredDate.Valid)
	}
	for _, p := range ds.Products {
		assert.Nil(t, p.Category)
	}
	for _, f := range ds.Feedback {
		assert.False(t, f.AnswerDate.Valid)
	}
}

func TestGenerateCancelled(t *testing.T) {
	g, err := NewGenerator(Config{Customers: 1, Sellers: 1, Products: 1, Orders: 10})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func readAll(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	out := map[string][]byte{}
	for _, name := range []string{
		source.CustomerFile, source.SellerFile, source.ProductFile, source.OrderFile,
		source.OrderItemFile, source.PaymentFile, source.FeedbackFile,
	} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		out[name] = b
	}
	return out
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	cfg := Config{Customers: 5, Sellers: 2, Products: 5, Orders: 25, DirtyRate: 0.2, Seed: 99}

	dir1, dir2 := t.TempDir(), t.TempDir()
	_, err := WriteCSV(dir1, generate(t, cfg))
	require.NoError(t, err)
	_, err = WriteCSV(dir2, generate(t, cfg))
	require.NoError(t, err)

	assert.Equal(t, readAll(t, dir1), readAll(t, dir2))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	ds := generate(t, Config{Customers: 5, Sellers: 3, Products: 6, Orders: 30, DirtyRate: 0.3, Seed: 11})

	dir := t.TempDir()
	n, err := WriteCSV(dir, ds)
	require.NoError(t, err)
	assert.Positive(t, n)

	ctx := context.Background()
	reader := source.NewReader(source.DirOpener{Root: dir})

	back := &Dataset{}
	back.Customers, err = reader.Customers(ctx)
	require.NoError(t, err)
	back.Sellers, err = reader.Sellers(ctx)
	require.NoError(t, err)
	back.Products, err = reader.Products(ctx)
	require.NoError(t, err)
	back.Orders, err = reader.Orders(ctx)
	require.NoError(t, err)
	back.OrderItems, err = reader.OrderItems(ctx)
	require.NoError(t, err)
	back.Payments, err = reader.Payments(ctx)
	require.NoError(t, err)
	back.Feedback, err = reader.Feedback(ctx)
	require.NoError(t, err)

	assert.Len(t, back.Orders, len(ds.Orders))
	assert.Len(t, back.OrderItems, len(ds.OrderItems))
	assert.Len(t, back.Feedback, len(ds.Feedback))
	for i, o := range ds.Orders {
		assert.Equal(t, o.OrderID, back.Orders[i].OrderID)
		assert.Equal(t, o.DeliveredDate.Valid, back.Orders[i].DeliveredDate.Valid)
		assert.True(t, o.OrderDate.Time.Equal(back.Orders[i].OrderDate.Time))
	}

	// Decoding and re-encoding must not change a single byte.
	again := t.TempDir()
	_, err = WriteCSV(again, back)
	require.NoError(t, err)
	first, second := readAll(t, dir), readAll(t, again)
	for name := range first {
		assert.True(t, bytes.Equal(first[name], second[name]), "%s differs after round trip", name)
	}
}

func TestWriteCSVHeaders(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteCSV(dir, &Dataset{})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, source.PaymentFile))
	require.NoError(t, err)
	assert.Equal(t, "order_id,payment_sequential,payment_type,payment_installments,payment_value\n", string(b))
}
