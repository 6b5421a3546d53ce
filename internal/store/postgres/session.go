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
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

const (
	upsertCustomerSQL = `
INSERT INTO dim_customer (customer_id, customer_zip_code, customer_city, customer_state)
VALUES ($1, $2, $3, $4)
ON CONFLICT (customer_id) DO UPDATE SET
    customer_zip_code = EXCLUDED.customer_zip_code,
    customer_city     = EXCLUDED.customer_city,
    customer_state    = EXCLUDED.customer_state`

	upsertSellerSQL = `
INSERT INTO dim_seller (seller_id, seller_zip_code, seller_city, seller_state)
VALUES ($1, $2, $3, $4)
ON CONFLICT (seller_id) DO UPDATE SET
    seller_zip_code = EXCLUDED.seller_zip_code,
    seller_city     = EXCLUDED.seller_city,
    seller_state    = EXCLUDED.seller_state`

	insertDateSQL = `
INSERT INTO dim_date (date_key, date_year, date_quarter, date_season, date_month,
    date_month_name, date_day, date_day_name, date_hour, date_am_or_pm)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (date_key) DO NOTHING`

	// ensureDateSQL inserts the date if absent and returns the key of the
	// new or existing row.
	ensureDateSQL = `
WITH ins AS (
    INSERT INTO dim_date (date_key, date_year, date_quarter, date_season, date_month,
        date_month_name, date_day, date_day_name, date_hour, date_am_or_pm)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    ON CONFLICT (date_key) DO NOTHING
    RETURNING id
)
SELECT id FROM ins
UNION ALL
SELECT id FROM dim_date WHERE date_key = $1
LIMIT 1`

	selectDateSQL = `SELECT id FROM dim_date WHERE date_key = $1`
)

var lookupSQL = map[warehouse.Dimension]string{
	warehouse.DimCustomer: `SELECT id FROM dim_customer WHERE customer_id = $1`,
	warehouse.DimSeller:   `SELECT id FROM dim_seller WHERE seller_id = $1`,
	warehouse.DimProduct:  `SELECT id FROM dim_product WHERE product_id = $1`,
	warehouse.DimOrder:    `SELECT id FROM dim_order WHERE order_id = $1`,
}

var knownTables = func() map[string]bool {
	m := make(map[string]bool, len(warehouse.Tables))
	for _, t := range warehouse.Tables {
		m[t] = true
	}
	return m
}()

type session struct {
	tx pgx.Tx
}

func (s *session) Lookup(ctx context.Context, dim warehouse.Dimension, naturalKey string) (int64, bool, error) {
	query, ok := lookupSQL[dim]
	if !ok {
		return 0, false, fmt.Errorf("unknown dimension %q", dim)
	}
	return s.lookup(ctx, query, naturalKey)
}

func (s *session) LookupDate(ctx context.Context, key time.Time) (int64, bool, error) {
	return s.lookup(ctx, selectDateSQL, key)
}

func (s *session) lookup(ctx context.Context, query string, arg any) (int64, bool, error) {
	var id int64
	err := s.tx.QueryRow(ctx, query, arg).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func dateArgs(r warehouse.DateRecord) []any {
	return []any{r.Key, r.Year, r.Quarter, r.Season, r.Month, r.MonthName, r.Day, r.DayName, r.Hour, r.AMPM}
}

func (s *session) EnsureDate(ctx context.Context, rec warehouse.DateRecord) (int64, error) {
	var id int64
	if err := s.tx.QueryRow(ctx, ensureDateSQL, dateArgs(rec)...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// sendBatch queues one statement per row and runs them in a single round
// trip. The first failing statement aborts the batch.
func sendBatch[T any](ctx context.Context, tx pgx.Tx, query string, rows []T, args func(T) []any) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(query, args(r)...)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (s *session) UpsertCustomers(ctx context.Context, rows []warehouse.CustomerRow) error {
	return sendBatch(ctx, s.tx, upsertCustomerSQL, rows, func(r warehouse.CustomerRow) []any {
		return []any{r.CustomerID, r.ZipCode, r.City, r.State}
	})
}

func (s *session) UpsertSellers(ctx context.Context, rows []warehouse.SellerRow) error {
	return sendBatch(ctx, s.tx, upsertSellerSQL, rows, func(r warehouse.SellerRow) []any {
		return []any{r.SellerID, r.ZipCode, r.City, r.State}
	})
}

func (s *session) InsertDates(ctx context.Context, rows []warehouse.DateRecord) error {
	return sendBatch(ctx, s.tx, insertDateSQL, rows, dateArgs)
}

// copyRows bulk loads rows with COPY. Any constraint violation fails the
// whole call.
func copyRows[T any](ctx context.Context, tx pgx.Tx, table string, columns []string, rows []T, values func(T) []any) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return values(rows[i]), nil
		}))
	return err
}

func (s *session) InsertProducts(ctx context.Context, rows []warehouse.ProductRow) error {
	return copyRows(ctx, s.tx, warehouse.TableProduct, []string{
		"product_id", "product_category_name", "product_name_length", "product_description_length",
		"product_photos_qty", "product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm",
	}, rows, func(r warehouse.ProductRow) []any {
		return []any{r.ProductID, r.Category, r.NameLength, r.DescriptionLength,
			r.PhotosQty, r.WeightG, r.LengthCM, r.HeightCM, r.WidthCM}
	})
}

func (s *session) InsertOrders(ctx context.Context, rows []warehouse.OrderRow) error {
	return copyRows(ctx, s.tx, warehouse.TableOrder, []string{
		"order_id", "customer_id", "order_status", "order_date", "order_approved_date",
		"pickup_date", "delivered_date", "estimated_time_delivery",
	}, rows, func(r warehouse.OrderRow) []any {
		return []any{r.OrderID, r.CustomerKey, r.Status, r.OrderDateKey, r.ApprovedDateKey,
			r.PickupDateKey, r.DeliveredDateKey, r.EstimatedDeliveryKey}
	})
}

func (s *session) InsertOrderItems(ctx context.Context, rows []warehouse.OrderItemRow) error {
	return copyRows(ctx, s.tx, warehouse.TableOrderItem, []string{
		"order_item_id", "order_id", "product_id", "seller_id", "pickup_limit_date", "price", "shipping_cost",
	}, rows, func(r warehouse.OrderItemRow) []any {
		return []any{r.OrderItemID, r.OrderKey, r.ProductKey, r.SellerKey,
			r.PickupLimitDateKey, r.Price, r.ShippingCost}
	})
}

func (s *session) InsertPayments(ctx context.Context, rows []warehouse.PaymentRow) error {
	return copyRows(ctx, s.tx, warehouse.TablePayment, []string{
		"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value",
	}, rows, func(r warehouse.PaymentRow) []any {
		return []any{r.OrderKey, r.Sequential, r.Type, r.Installments, r.Value}
	})
}

func (s *session) InsertFeedback(ctx context.Context, rows []warehouse.FeedbackRow) error {
	return copyRows(ctx, s.tx, warehouse.TableFeedback, []string{
		"feedback_id", "order_id", "feedback_score", "feedback_form_sent_date", "feedback_answer_date",
	}, rows, func(r warehouse.FeedbackRow) []any {
		return []any{r.FeedbackID, r.OrderKey, r.Score, r.FormSentDateKey, r.AnswerDateKey}
	})
}

func (s *session) Count(ctx context.Context, table string) (int64, error) {
	if !knownTables[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	err := s.tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n)
	return n, err
}

func (s *session) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

func (s *session) Rollback(ctx context.Context) error {
	err := s.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
