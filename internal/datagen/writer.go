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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

const timestampLayout = "2006-01-02 15:04:05"

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func timestamp(ts source.Timestamp) string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.UTC().Format(timestampLayout)
}

// WriteCSV writes the seven extracts of ds into dir, creating it if needed,
// and returns the number of bytes written.
func WriteCSV(dir string, ds *Dataset) (int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{source.CustomerFile, mapRows(ds.Customers, func(c source.Customer) []string {
			return []string{c.UserName, optString(c.ZipCode), optString(c.City), optString(c.State)}
		})},
		{source.SellerFile, mapRows(ds.Sellers, func(s source.Seller) []string {
			return []string{s.SellerID, optString(s.ZipCode), optString(s.City), optString(s.State)}
		})},
		{source.ProductFile, mapRows(ds.Products, func(p source.Product) []string {
			return []string{p.ProductID, optString(p.Category), optFloat(p.NameLength),
				optFloat(p.DescriptionLength), optFloat(p.PhotosQty), optFloat(p.WeightG),
				optFloat(p.LengthCM), optFloat(p.HeightCM), optFloat(p.WidthCM)}
		})},
		{source.OrderFile, mapRows(ds.Orders, func(o source.Order) []string {
			return []string{o.OrderID, o.UserName, o.Status, timestamp(o.OrderDate),
				timestamp(o.ApprovedDate), timestamp(o.PickupDate), timestamp(o.DeliveredDate),
				timestamp(o.EstimatedDelivery)}
		})},
		{source.OrderItemFile, mapRows(ds.OrderItems, func(i source.OrderItem) []string {
			return []string{i.OrderID, i.OrderItemID, i.ProductID, i.SellerID,
				timestamp(i.PickupLimitDate), optFloat(i.Price), optFloat(i.ShippingCost)}
		})},
		{source.PaymentFile, mapRows(ds.Payments, func(p source.Payment) []string {
			return []string{p.OrderID, optInt(p.Sequential), optString(p.Type),
				optInt(p.Installments), optFloat(p.Value)}
		})},
		{source.FeedbackFile, mapRows(ds.Feedback, func(f source.Feedback) []string {
			return []string{f.FeedbackID, f.OrderID, optInt(f.Score),
				timestamp(f.FormSentDate), timestamp(f.AnswerDate)}
		})},
	}

	var total int64
	for _, file := range files {
		n, err := writeFile(filepath.Join(dir, file.name), source.Columns(file.name), file.rows)
		if err != nil {
			return total, err
		}
		total += n
		logging.Debug().Str("file", file.name).Int("rows", len(file.rows)).Msg("Wrote extract")
	}
	return total, nil
}

func mapRows[T any](in []T, fn func(T) []string) [][]string {
	out := make([][]string, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

func writeFile(path string, header []string, rows [][]string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), f.Close()
}
