//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

const (
	upsertCustomerSQL = `
INSERT INTO dim_customer (customer_id, customer_zip_code, customer_city, customer_state)
VALUES (?, ?, ?, ?)
ON CONFLICT (customer_id) DO UPDATE SET
    customer_zip_code = excluded.customer_zip_code,
    customer_city     = excluded.customer_city,
    customer_state    = excluded.customer_state`

	upsertSellerSQL = `
INSERT INTO dim_seller (seller_id, seller_zip_code, seller_city, seller_state)
VALUES (?, ?, ?, ?)
ON CONFLICT (seller_id) DO UPDATE SET
    seller_zip_code = excluded.seller_zip_code,
    seller_city     = excluded.seller_city,
    seller_state    = excluded.seller_state`

	insertDateSQL = `
INSERT INTO dim_date (date_key, date_year, date_quarter, date_season, date_month,
    date_month_name, date_day, date_day_name, date_hour, date_am_or_pm)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (date_key) DO NOTHING`

	// ensureDateSQL turns a conflict into a no-op update so RETURNING
	// yields the existing row's key.
	ensureDateSQL = `
INSERT INTO dim_date (date_key, date_year, date_quarter, date_season, date_month,
    date_month_name, date_day, date_day_name, date_hour, date_am_or_pm)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (date_key) DO UPDATE SET date_key = excluded.date_key
RETURNING id`

	insertProductSQL = `
INSERT INTO dim_product (product_id, product_category_name, product_name_length,
    product_description_length, product_photos_qty, product_weight_g, product_length_cm,
    product_height_cm, product_width_cm)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertOrderSQL = `
INSERT INTO dim_order (order_id, customer_id, order_status, order_date, order_approved_date,
    pickup_date, delivered_date, estimated_time_delivery)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertOrderItemSQL = `
INSERT INTO fact_order_item (order_item_id, order_id, product_id, seller_id,
    pickup_limit_date, price, shipping_cost)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertPaymentSQL = `
INSERT INTO fact_payment (order_id, payment_sequential, payment_type,
    payment_installments, payment_value)
VALUES (?, ?, ?, ?, ?)`

	insertFeedbackSQL = `
INSERT INTO fact_feedback (feedback_id, order_id, feedback_score,
    feedback_form_sent_date, feedback_answer_date)
VALUES (?, ?, ?, ?, ?)`
)

var lookupSQL = map[warehouse.Dimension]string{
	warehouse.DimCustomer: `SELECT id FROM dim_customer WHERE customer_id = ?`,
	warehouse.DimSeller:   `SELECT id FROM dim_seller WHERE seller_id = ?`,
	warehouse.DimProduct:  `SELECT id FROM dim_product WHERE product_id = ?`,
	warehouse.DimOrder:    `SELECT id FROM dim_order WHERE order_id = ?`,
}

type session struct {
	tx *sql.Tx
}

// dateParam stores timestamps as fixed-width UTC text so equality lookups
// and the unique constraint compare like values.
func dateParam(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.000000")
}

func (s *session) Lookup(ctx context.Context, dim warehouse.Dimension, naturalKey string) (int64, bool, error) {
	query, ok := lookupSQL[dim]
	if !ok {
		return 0, false, fmt.Errorf("unknown dimension %q", dim)
	}
	return s.lookup(ctx, query, naturalKey)
}

func (s *session) LookupDate(ctx context.Context, key time.Time) (int64, bool, error) {
	return s.lookup(ctx, `SELECT id FROM dim_date WHERE date_key = ?`, dateParam(key))
}

func (s *session) lookup(ctx context.Context, query string, arg any) (int64, bool, error) {
	var id int64
	err := s.tx.QueryRowContext(ctx, query, arg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func dateArgs(r warehouse.DateRecord) []any {
	return []any{dateParam(r.Key), r.Year, r.Quarter, r.Season, r.Month, r.MonthName, r.Day, r.DayName, r.Hour, r.AMPM}
}

func (s *session) EnsureDate(ctx context.Context, rec warehouse.DateRecord) (int64, error) {
	var id int64
	if err := s.tx.QueryRowContext(ctx, ensureDateSQL, dateArgs(rec)...).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

// execEach runs a prepared statement once per row.
func execEach[T any](ctx context.Context, tx *sql.Tx, query string, rows []T, args func(T) []any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, args(r)...); err != nil {
			return translate(err)
		}
	}
	return nil
}

func (s *session) UpsertCustomers(ctx context.Context, rows []warehouse.CustomerRow) error {
	return execEach(ctx, s.tx, upsertCustomerSQL, rows, func(r warehouse.CustomerRow) []any {
		return []any{r.CustomerID, r.ZipCode, r.City, r.State}
	})
}

func (s *session) UpsertSellers(ctx context.Context, rows []warehouse.SellerRow) error {
	return execEach(ctx, s.tx, upsertSellerSQL, rows, func(r warehouse.SellerRow) []any {
		return []any{r.SellerID, r.ZipCode, r.City, r.State}
	})
}

func (s *session) InsertDates(ctx context.Context, rows []warehouse.DateRecord) error {
	return execEach(ctx, s.tx, insertDateSQL, rows, dateArgs)
}

func (s *session) InsertProducts(ctx context.Context, rows []warehouse.ProductRow) error {
	return execEach(ctx, s.tx, insertProductSQL, rows, func(r warehouse.ProductRow) []any {
		return []any{r.ProductID, r.Category, r.NameLength, r.DescriptionLength,
			r.PhotosQty, r.WeightG, r.LengthCM, r.HeightCM, r.WidthCM}
	})
}

func (s *session) InsertOrders(ctx context.Context, rows []warehouse.OrderRow) error {
	return execEach(ctx, s.tx, insertOrderSQL, rows, func(r warehouse.OrderRow) []any {
		return []any{r.OrderID, r.CustomerKey, r.Status, r.OrderDateKey, r.ApprovedDateKey,
			r.PickupDateKey, r.DeliveredDateKey, r.EstimatedDeliveryKey}
	})
}

func (s *session) InsertOrderItems(ctx context.Context, rows []warehouse.OrderItemRow) error {
	return execEach(ctx, s.tx, insertOrderItemSQL, rows, func(r warehouse.OrderItemRow) []any {
		return []any{r.OrderItemID, r.OrderKey, r.ProductKey, r.SellerKey,
			r.PickupLimitDateKey, r.Price, r.ShippingCost}
	})
}

func (s *session) InsertPayments(ctx context.Context, rows []warehouse.PaymentRow) error {
	return execEach(ctx, s.tx, insertPaymentSQL, rows, func(r warehouse.PaymentRow) []any {
		return []any{r.OrderKey, r.Sequential, r.Type, r.Installments, r.Value}
	})
}

func (s *session) InsertFeedback(ctx context.Context, rows []warehouse.FeedbackRow) error {
	return execEach(ctx, s.tx, insertFeedbackSQL, rows, func(r warehouse.FeedbackRow) []any {
		return []any{r.FeedbackID, r.OrderKey, r.Score, r.FormSentDateKey, r.AnswerDateKey}
	})
}

func (s *session) Count(ctx context.Context, table string) (int64, error) {
	known := false
	for _, t := range warehouse.Tables {
		known = known || t == table
	}
	if !known {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	err := s.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

func (s *session) Commit(_ context.Context) error {
	return translate(s.tx.Commit())
}

func (s *session) Rollback(_ context.Context) error {
	err := s.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
