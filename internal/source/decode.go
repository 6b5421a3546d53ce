//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package source

import (
	"fmt"
	"io"
)

// Extract file names.
const (
	CustomerFile  = "user_dataset.csv"
	SellerFile    = "seller_dataset.csv"
	ProductFile   = "products_dataset.csv"
	OrderFile     = "order_dataset.csv"
	OrderItemFile = "order_item_dataset.csv"
	PaymentFile   = "payment_dataset.csv"
	FeedbackFile  = "feedback_dataset.csv"
)

// Column sets per extract. The misspelled product length columns match the
// published dataset.
var (
	customerColumns = []string{"user_name", "customer_zip_code", "customer_city", "customer_state"}
	sellerColumns   = []string{"seller_id", "seller_zip_code", "seller_city", "seller_state"}
	productColumns  = []string{
		"product_id", "product_category", "product_name_lenght", "product_description_lenght",
		"product_photos_qty", "product_weight_g", "product_length_cm", "product_height_cm",
		"product_width_cm",
	}
	orderColumns = []string{
		"order_id", "user_name", "order_status", "order_date", "order_approved_date",
		"pickup_date", "delivered_date", "estimated_time_delivery",
	}
	orderItemColumns = []string{
		"order_id", "order_item_id", "product_id", "seller_id", "pickup_limit_date",
		"price", "shipping_cost",
	}
	paymentColumns = []string{
		"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value",
	}
	feedbackColumns = []string{
		"feedback_id", "order_id", "feedback_score", "feedback_form_sent_date", "feedback_answer_date",
	}
)

// Columns returns the required header of the named extract.
func Columns(file string) []string {
	switch file {
	case CustomerFile:
		return customerColumns
	case SellerFile:
		return sellerColumns
	case ProductFile:
		return productColumns
	case OrderFile:
		return orderColumns
	case OrderItemFile:
		return orderItemColumns
	case PaymentFile:
		return paymentColumns
	case FeedbackFile:
		return feedbackColumns
	}
	return nil
}

func keyOf(col string) func(row) string {
	return func(r row) string { return r.get(col) }
}

// DecodeCustomers reads user_dataset.csv content. Rows without a user name
// are dropped.
func DecodeCustomers(r io.Reader) ([]Customer, int, error) {
	var out []Customer
	skipped, err := decodeTable(r, customerColumns, keyOf("user_name"), func(rec row) {
		out = append(out, Customer{
			UserName: rec.get("user_name"),
			ZipCode:  optString(rec.get("customer_zip_code")),
			City:     optString(rec.get("customer_city")),
			State:    optString(rec.get("customer_state")),
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", CustomerFile, err)
	}
	return out, skipped, nil
}

// DecodeSellers reads seller_dataset.csv content. Rows without a seller id
// are dropped.
func DecodeSellers(r io.Reader) ([]Seller, int, error) {
	var out []Seller
	skipped, err := decodeTable(r, sellerColumns, keyOf("seller_id"), func(rec row) {
		out = append(out, Seller{
			SellerID: rec.get("seller_id"),
			ZipCode:  optString(rec.get("seller_zip_code")),
			City:     optString(rec.get("seller_city")),
			State:    optString(rec.get("seller_state")),
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", SellerFile, err)
	}
	return out, skipped, nil
}

// DecodeProducts reads products_dataset.csv content. Rows without a product
// id are dropped.
func DecodeProducts(r io.Reader) ([]Product, int, error) {
	var out []Product
	skipped, err := decodeTable(r, productColumns, keyOf("product_id"), func(rec row) {
		out = append(out, Product{
			ProductID:         rec.get("product_id"),
			Category:          optString(rec.get("product_category")),
			NameLength:        optFloat(rec.get("product_name_lenght")),
			DescriptionLength: optFloat(rec.get("product_description_lenght")),
			PhotosQty:         optFloat(rec.get("product_photos_qty")),
			WeightG:           optFloat(rec.get("product_weight_g")),
			LengthCM:          optFloat(rec.get("product_length_cm")),
			HeightCM:          optFloat(rec.get("product_height_cm")),
			WidthCM:           optFloat(rec.get("product_width_cm")),
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", ProductFile, err)
	}
	return out, skipped, nil
}

// DecodeOrders reads order_dataset.csv content. Rows without an order id
// are dropped.
func DecodeOrders(r io.Reader) ([]Order, int, error) {
	var out []Order
	skipped, err := decodeTable(r, orderColumns, keyOf("order_id"), func(rec row) {
		out = append(out, Order{
			OrderID:           rec.get("order_id"),
			UserName:          rec.get("user_name"),
			Status:            rec.get("order_status"),
			OrderDate:         ParseTimestamp(rec.get("order_date")),
			ApprovedDate:      ParseTimestamp(rec.get("order_approved_date")),
			PickupDate:        ParseTimestamp(rec.get("pickup_date")),
			DeliveredDate:     ParseTimestamp(rec.get("delivered_date")),
			EstimatedDelivery: ParseTimestamp(rec.get("estimated_time_delivery")),
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", OrderFile, err)
	}
	return out, skipped, nil
}

// DecodeOrderItems reads order_item_dataset.csv content. Rows missing any of
// the order, item, product or seller ids are dropped.
func DecodeOrderItems(r io.Reader) ([]OrderItem, int, error) {
	var out []OrderItem
	key := func(rec row) string {
		for _, col := range []string{"order_id", "order_item_id", "product_id", "seller_id"} {
			if rec.get(col) == "" {
				return ""
			}
		}
		return rec.get("order_item_id")
	}
	skipped, err := decodeTable(r, orderItemColumns, key, func(rec row) {
		out = append(out, OrderItem{
			OrderID:         rec.get("order_id"),
			OrderItemID:     rec.get("order_item_id"),
			ProductID:       rec.get("product_id"),
			SellerID:        rec.get("seller_id"),
			PickupLimitDate: ParseTimestamp(rec.get("pickup_limit_date")),
			Price:           optFloat(rec.get("price")),
			ShippingCost:    optFloat(rec.get("shipping_cost")),
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", OrderItemFile, err)
	}
	return out, skipped, nil
}

// DecodePayments reads payment_dataset.csv content. Rows without an order
// id are dropped.
func DecodePayments(r io.Reader) ([]Payment, int, error) {
	var out []Payment
	skipped, err := decodeTable(r, paymentColumns, keyOf("order_id"), func(rec row) {
		out = append(out, Payment{
			OrderID:      rec.get("order_id"),
			Sequential:   optInt(rec.get("payment_sequential")),
			Type:         optString(rec.get("payment_type")),
			Installments: optInt(rec.get("payment_installments")),
			Value:        optFloat(rec.get("payment_value")),
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", PaymentFile, err)
	}
	return out, skipped, nil
}

// DecodeFeedback reads feedback_dataset.csv content. Rows without a
// feedback id are dropped.
func DecodeFeedback(r io.Reader) ([]Feedback, int, error) {
	var out []Feedback
	skipped, err := decodeTable(r, feedbackColumns, keyOf("feedback_id"), func(rec row) {
		out = append(out, Feedback{
			FeedbackID:   rec.get("feedback_id"),
			OrderID:      rec.get("order_id"),
			Score:        optInt(rec.get("feedback_score")),
			FormSentDate: ParseTimestamp(rec.get("feedback_form_sent_date")),
			AnswerDate:   ParseTimestamp(rec.get("feedback_answer_date")),
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", FeedbackFile, err)
	}
	return out, skipped, nil
}
