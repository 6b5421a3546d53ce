//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

func begin(t *testing.T, s *Store) warehouse.Session {
	t.Helper()
	sess, err := s.Begin(context.Background())
	require.NoError(t, err)
	return sess
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	sess := begin(t, s)
	require.NoError(t, sess.UpsertCustomers(ctx, []warehouse.CustomerRow{{CustomerID: "alice"}}))
	require.NoError(t, sess.Rollback(ctx))
	assert.Zero(t, s.Count(warehouse.TableCustomer))

	sess = begin(t, s)
	require.NoError(t, sess.UpsertCustomers(ctx, []warehouse.CustomerRow{{CustomerID: "alice"}}))
	id, ok, err := sess.Lookup(ctx, warehouse.DimCustomer, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), id, "keys are not reused after a rollback")
	require.NoError(t, sess.Commit(ctx))
	assert.Equal(t, 1, s.Count(warehouse.TableCustomer))
}

func TestSingleSession(t *testing.T) {
	ctx := context.Background()
	s := New()
	sess := begin(t, s)

	_, err := s.Begin(ctx)
	assert.ErrorIs(t, err, ErrSessionOpen)

	require.NoError(t, sess.Commit(ctx))
	assert.Error(t, sess.Commit(ctx))
	_, err = sess.Count(ctx, warehouse.TableCustomer)
	assert.Error(t, err)

	begin(t, s)
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	sess := begin(t, New())

	require.NoError(t, sess.InsertProducts(ctx, []warehouse.ProductRow{{ProductID: "p1"}}))
	err := sess.InsertProducts(ctx, []warehouse.ProductRow{{ProductID: "p1"}})

	var ce *ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, warehouse.TableProduct, ce.Table)
	assert.True(t, warehouse.IsConstraintViolation(err))
}

func TestForeignKeys(t *testing.T) {
	ctx := context.Background()
	sess := begin(t, New())

	err := sess.InsertOrders(ctx, []warehouse.OrderRow{{OrderID: "o1", CustomerKey: 42}})
	require.Error(t, err)
	assert.True(t, warehouse.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), warehouse.TableCustomer)

	err = sess.InsertPayments(ctx, []warehouse.PaymentRow{{OrderKey: 7}})
	assert.True(t, warehouse.IsConstraintViolation(err))
}

func TestPaymentsWithoutSequenceDoNotConflict(t *testing.T) {
	ctx := context.Background()
	sess := begin(t, New())

	require.NoError(t, sess.UpsertCustomers(ctx, []warehouse.CustomerRow{{CustomerID: "alice"}}))
	customer, _, err := sess.Lookup(ctx, warehouse.DimCustomer, "alice")
	require.NoError(t, err)
	day, err := sess.EnsureDate(ctx, warehouse.Normalize(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), warehouse.SeasonCalendar))
	require.NoError(t, err)

	require.NoError(t, sess.InsertOrders(ctx, []warehouse.OrderRow{{
		OrderID: "o1", CustomerKey: customer,
		OrderDateKey: day, ApprovedDateKey: day, PickupDateKey: day, DeliveredDateKey: day, EstimatedDeliveryKey: day,
	}}))
	order, ok, err := sess.Lookup(ctx, warehouse.DimOrder, "o1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, sess.InsertPayments(ctx, []warehouse.PaymentRow{{OrderKey: order}, {OrderKey: order}}))

	seq := int64(1)
	require.NoError(t, sess.InsertPayments(ctx, []warehouse.PaymentRow{{OrderKey: order, Sequential: &seq}}))
	err = sess.InsertPayments(ctx, []warehouse.PaymentRow{{OrderKey: order, Sequential: &seq}})
	assert.True(t, warehouse.IsConstraintViolation(err))
}

func TestDropSchema(t *testing.T) {
	ctx := context.Background()
	s := New()
	sess := begin(t, s)
	require.NoError(t, sess.UpsertSellers(ctx, []warehouse.SellerRow{{SellerID: "s1"}}))
	require.NoError(t, sess.Commit(ctx))

	require.NoError(t, s.DropSchema(ctx))
	_, err := s.Begin(ctx)
	assert.Error(t, err)

	require.NoError(t, s.CreateSchema(ctx))
	assert.Zero(t, s.Count(warehouse.TableSeller))
	_, ok := s.Seller("s1")
	assert.False(t, ok)
}
