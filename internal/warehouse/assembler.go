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

	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

// unknownCategory replaces a missing product category.
const unknownCategory = "Unknown"

// CustomerRows maps decoded customers to dimension rows.
func CustomerRows(in []source.Customer) []CustomerRow {
	out := make([]CustomerRow, 0, len(in))
	for _, c := range in {
		out = append(out, CustomerRow{CustomerID: c.UserName, ZipCode: c.ZipCode, City: c.City, State: c.State})
	}
	return out
}

// SellerRows maps decoded sellers to dimension rows.
func SellerRows(in []source.Seller) []SellerRow {
	out := make([]SellerRow, 0, len(in))
	for _, s := range in {
		out = append(out, SellerRow{SellerID: s.SellerID, ZipCode: s.ZipCode, City: s.City, State: s.State})
	}
	return out
}

// ProductRows maps decoded products to dimension rows, defaulting a
// missing category to "Unknown" and missing measurements to zero.
func ProductRows(in []source.Product) []ProductRow {
	out := make([]ProductRow, 0, len(in))
	for _, p := range in {
		category := unknownCategory
		if p.Category != nil {
			category = *p.Category
		}
		out = append(out, ProductRow{
			ProductID:         p.ProductID,
			Category:          category,
			NameLength:        orZero(p.NameLength),
			DescriptionLength: orZero(p.DescriptionLength),
			PhotosQty:         orZero(p.PhotosQty),
			WeightG:           orZero(p.WeightG),
			LengthCM:          orZero(p.LengthCM),
			HeightCM:          orZero(p.HeightCM),
			WidthCM:           orZero(p.WidthCM),
		})
	}
	return out
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// DateRows normalizes the five timestamps of every order, in column order.
// Repeated dates are kept; the loader skips them.
func DateRows(orders []source.Order, rule SeasonRule) []DateRecord {
	out := make([]DateRecord, 0, len(orders)*5)
	for _, o := range orders {
		for _, ts := range o.Timestamps() {
			out = append(out, Normalize(ts.OrSentinel(), rule))
		}
	}
	return out
}

// AssembleOrders resolves the customer and the five dates of every order.
// Orders with any unresolved reference are dropped; the drop count is
// returned alongside the rows.
func AssembleOrders(ctx context.Context, r *Resolver, in []source.Order) ([]OrderRow, int, error) {
	var out []OrderRow
	dropped := 0
	for _, o := range in {
		customer, ok, err := r.Resolve(ctx, DimCustomer, o.UserName)
		if err != nil {
			return nil, dropped, err
		}
		if !ok {
			dropped++
			continue
		}

		var dates [5]int64
		resolved := true
		for i, ts := range o.Timestamps() {
			id, found, err := r.LookupDate(ctx, ts)
			if err != nil {
				return nil, dropped, err
			}
			if !found {
				resolved = false
				break
			}
			dates[i] = id
		}
		if !resolved {
			dropped++
			continue
		}

		out = append(out, OrderRow{
			OrderID:              o.OrderID,
			CustomerKey:          customer,
			Status:               o.Status,
			OrderDateKey:         dates[0],
			ApprovedDateKey:      dates[1],
			PickupDateKey:        dates[2],
			DeliveredDateKey:     dates[3],
			EstimatedDeliveryKey: dates[4],
		})
	}
	return out, dropped, nil
}

// AssembleOrderItems creates the pickup-limit date of every item if needed,
// then resolves its order, product and seller.
func AssembleOrderItems(ctx context.Context, r *Resolver, in []source.OrderItem) ([]OrderItemRow, int, error) {
	var out []OrderItemRow
	dropped := 0
	for _, item := range in {
		pickup, err := r.EnsureDate(ctx, item.PickupLimitDate)
		if err != nil {
			return nil, dropped, err
		}

		keys, ok, err := resolveAll(ctx, r,
			ref{DimOrder, item.OrderID},
			ref{DimProduct, item.ProductID},
			ref{DimSeller, item.SellerID},
		)
		if err != nil {
			return nil, dropped, err
		}
		if !ok {
			dropped++
			continue
		}

		out = append(out, OrderItemRow{
			OrderItemID:        item.OrderItemID,
			OrderKey:           keys[0],
			ProductKey:         keys[1],
			SellerKey:          keys[2],
			PickupLimitDateKey: pickup,
			Price:              item.Price,
			ShippingCost:       item.ShippingCost,
		})
	}
	return out, dropped, nil
}

// AssemblePayments resolves the order of every payment.
func AssemblePayments(ctx context.Context, r *Resolver, in []source.Payment) ([]PaymentRow, int, error) {
	var out []PaymentRow
	dropped := 0
	for _, p := range in {
		order, ok, err := r.Resolve(ctx, DimOrder, p.OrderID)
		if err != nil {
			return nil, dropped, err
		}
		if !ok {
			dropped++
			continue
		}
		out = append(out, PaymentRow{
			OrderKey:     order,
			Sequential:   p.Sequential,
			Type:         p.Type,
			Installments: p.Installments,
			Value:        p.Value,
		})
	}
	return out, dropped, nil
}

// AssembleFeedback creates the sent and answer dates of every feedback row
// if needed, then resolves its order.
func AssembleFeedback(ctx context.Context, r *Resolver, in []source.Feedback) ([]FeedbackRow, int, error) {
	var out []FeedbackRow
	dropped := 0
	for _, f := range in {
		sent, err := r.EnsureDate(ctx, f.FormSentDate)
		if err != nil {
			return nil, dropped, err
		}
		answer, err := r.EnsureDate(ctx, f.AnswerDate)
		if err != nil {
			return nil, dropped, err
		}

		order, ok, err := r.Resolve(ctx, DimOrder, f.OrderID)
		if err != nil {
			return nil, dropped, err
		}
		if !ok {
			dropped++
			continue
		}

		out = append(out, FeedbackRow{
			FeedbackID:      f.FeedbackID,
			OrderKey:        order,
			Score:           f.Score,
			FormSentDateKey: sent,
			AnswerDateKey:   answer,
		})
	}
	return out, dropped, nil
}

type ref struct {
	dim Dimension
	key string
}

// resolveAll resolves refs in order and stops at the first miss.
func resolveAll(ctx context.Context, r *Resolver, refs ...ref) ([]int64, bool, error) {
	keys := make([]int64, len(refs))
	for i, rf := range refs {
		id, ok, err := r.Resolve(ctx, rf.dim, rf.key)
		if err != nil || !ok {
			return nil, false, err
		}
		keys[i] = id
	}
	return keys, true, nil
}
