//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse loads decoded e-commerce extracts into a star schema.
//
// The package owns the transformation rules (date normalization, key
// resolution, fact assembly) and the stage sequence. Storage is reached
// only through the Store, Session and SchemaManager interfaces, so the
// same pipeline runs against PostgreSQL, SQLite or the in-memory store.
package warehouse

import "time"

// Dimension names a table whose rows are referenced by surrogate key.
type Dimension string

// Dimensions resolvable by natural key.
const (
	DimCustomer Dimension = "customer"
	DimSeller   Dimension = "seller"
	DimProduct  Dimension = "product"
	DimOrder    Dimension = "order"
)

// Warehouse table names.
const (
	TableCustomer  = "dim_customer"
	TableSeller    = "dim_seller"
	TableProduct   = "dim_product"
	TableDate      = "dim_date"
	TableOrder     = "dim_order"
	TableOrderItem = "fact_order_item"
	TablePayment   = "fact_payment"
	TableFeedback  = "fact_feedback"
)

// Tables lists every warehouse table in load order.
var Tables = []string{
	TableCustomer,
	TableSeller,
	TableProduct,
	TableDate,
	TableOrder,
	TableOrderItem,
	TablePayment,
	TableFeedback,
}

// CustomerRow is a dim_customer row keyed by customer name.
type CustomerRow struct {
	CustomerID string
	ZipCode    *string
	City       *string
	State      *string
}

// SellerRow is a dim_seller row.
type SellerRow struct {
	SellerID string
	ZipCode  *string
	City     *string
	State    *string
}

// ProductRow is a dim_product row with missing values already defaulted.
type ProductRow struct {
	ProductID         string
	Category          string
	NameLength        float64
	DescriptionLength float64
	PhotosQty         float64
	WeightG           float64
	LengthCM          float64
	HeightCM          float64
	WidthCM           float64
}

// DateRecord is a dim_date row. Every field is derived from Key.
type DateRecord struct {
	Key       time.Time
	Year      int
	Quarter   int
	Season    string
	Month     int
	MonthName string
	Day       int
	DayName   string
	Hour      int
	AMPM      string
}

// OrderRow is a dim_order row with all references resolved.
type OrderRow struct {
	OrderID              string
	CustomerKey          int64
	Status               string
	OrderDateKey         int64
	ApprovedDateKey      int64
	PickupDateKey        int64
	DeliveredDateKey     int64
	EstimatedDeliveryKey int64
}

// OrderItemRow is a fact_order_item row.
type OrderItemRow struct {
	OrderItemID        string
	OrderKey           int64
	ProductKey         int64
	SellerKey          int64
	PickupLimitDateKey int64
	Price              *float64
	ShippingCost       *float64
}

// PaymentRow is a fact_payment row.
type PaymentRow struct {
	OrderKey     int64
	Sequential   *int64
	Type         *string
	Installments *int64
	Value        *float64
}

// FeedbackRow is a fact_feedback row.
type FeedbackRow struct {
	FeedbackID      string
	OrderKey        int64
	Score           *int64
	FormSentDateKey int64
	AnswerDateKey   int64
}
