//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source decodes the raw e-commerce extracts into typed records.
//
// Each extract is a CSV file with a header row. Columns are located by name,
// extra columns are ignored, and a missing required column is an error.
// Values that are known to be absent in real extracts are modelled as
// pointers (nil means NULL) or, for timestamps, as a Timestamp whose Valid
// flag is false.
package source

import "time"

// SentinelDate stands in for missing or unparseable timestamps.
var SentinelDate = time.Date(1900, time.December, 31, 0, 0, 0, 0, time.UTC)

// Timestamp is a source timestamp. Valid is false for not-a-date values.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// OrSentinel returns the timestamp, or SentinelDate when it is not a date.
func (t Timestamp) OrSentinel() time.Time {
	if !t.Valid {
		return SentinelDate
	}
	return t.Time
}

// Customer is a row of user_dataset.csv.
type Customer struct {
	UserName string
	ZipCode  *string
	City     *string
	State    *string
}

// Seller is a row of seller_dataset.csv.
type Seller struct {
	SellerID string
	ZipCode  *string
	City     *string
	State    *string
}

// Product is a row of products_dataset.csv.
type Product struct {
	ProductID         string
	Category          *string
	NameLength        *float64
	DescriptionLength *float64
	PhotosQty         *float64
	WeightG           *float64
	LengthCM          *float64
	HeightCM          *float64
	WidthCM           *float64
}

// Order is a row of order_dataset.csv.
type Order struct {
	OrderID           string
	UserName          string
	Status            string
	OrderDate         Timestamp
	ApprovedDate      Timestamp
	PickupDate        Timestamp
	DeliveredDate     Timestamp
	EstimatedDelivery Timestamp
}

// Timestamps returns the order's five dates in column order.
func (o Order) Timestamps() [5]Timestamp {
	return [5]Timestamp{o.OrderDate, o.ApprovedDate, o.PickupDate, o.DeliveredDate, o.EstimatedDelivery}
}

// OrderItem is a row of order_item_dataset.csv.
type OrderItem struct {
	OrderID         string
	OrderItemID     string
	ProductID       string
	SellerID        string
	PickupLimitDate Timestamp
	Price           *float64
	ShippingCost    *float64
}

// Payment is a row of payment_dataset.csv.
type Payment struct {
	OrderID      string
	Sequential   *int64
	Type         *string
	Installments *int64
	Value        *float64
}

// Feedback is a row of feedback_dataset.csv.
type Feedback struct {
	FeedbackID   string
	OrderID      string
	Score        *int64
	FormSentDate Timestamp
	AnswerDate   Timestamp
}
