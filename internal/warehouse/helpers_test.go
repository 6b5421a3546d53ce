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
	"errors"

	"github.com/pgEdge/pgedge-ecomdw/internal/source"
	"github.com/pgEdge/pgedge-ecomdw/internal/store/memory"
	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

type dataset struct {
	customers   []source.Customer
	sellers     []source.Seller
	products    []source.Product
	orders      []source.Order
	orderItems  []source.OrderItem
	payments    []source.Payment
	feedback    []source.Feedback
	feedbackErr error
}

func (d *dataset) Customers(context.Context) ([]source.Customer, error) { return d.customers, nil }
func (d *dataset) Sellers(context.Context) ([]source.Seller, error)     { return d.sellers, nil }
func (d *dataset) Products(context.Context) ([]source.Product, error)   { return d.products, nil }
func (d *dataset) Orders(context.Context) ([]source.Order, error)       { return d.orders, nil }
func (d *dataset) OrderItems(context.Context) ([]source.OrderItem, error) {
	return d.orderItems, nil
}
func (d *dataset) Payments(context.Context) ([]source.Payment, error) { return d.payments, nil }
func (d *dataset) Feedback(context.Context) ([]source.Feedback, error) {
	return d.feedback, d.feedbackErr
}

func str(s string) *string         { return &s }
func f64(v float64) *float64       { return &v }
func i64(v int64) *int64           { return &v }
func ts(s string) source.Timestamp { return source.ParseTimestamp(s) }

// smallDataset has one customer, seller, product and order, with the order
// item, payment and feedback all pointing at that order.
func smallDataset() *dataset {
	return &dataset{
		customers: []source.Customer{
			{UserName: "alice", ZipCode: str("10001"), City: str("NYC"), State: str("NY")},
		},
		sellers: []source.Seller{
			{SellerID: "s1", ZipCode: str("13023"), City: str("campinas"), State: str("SP")},
		},
		products: []source.Product{
			{ProductID: "p1", Category: str("toys"), WeightG: f64(225)},
		},
		orders: []source.Order{{
			OrderID:           "o1",
			UserName:          "alice",
			Status:            "delivered",
			OrderDate:         ts("2018-01-10 08:00:00"),
			ApprovedDate:      ts("2018-01-10 09:30:00"),
			PickupDate:        ts("2018-01-12 14:00:00"),
			DeliveredDate:     ts("2018-01-20 17:45:00"),
			EstimatedDelivery: ts("2018-01-25 00:00:00"),
		}},
		orderItems: []source.OrderItem{
			{OrderID: "o1", OrderItemID: "1", ProductID: "p1", SellerID: "s1",
				PickupLimitDate: ts("2018-01-11 10:00:00"), Price: f64(58.9), ShippingCost: f64(13.29)},
		},
		payments: []source.Payment{
			{OrderID: "o1", Sequential: i64(1), Type: str("credit_card"), Installments: i64(2), Value: f64(72.19)},
		},
		feedback: []source.Feedback{
			{FeedbackID: "f1", OrderID: "o1", Score: i64(5),
				FormSentDate: ts("2018-01-21 00:00:00"), AnswerDate: ts("not a date")},
		},
	}
}

func newPipeline(store *memory.Store, ds warehouse.Dataset) *warehouse.Pipeline {
	return &warehouse.Pipeline{
		Schema: store,
		Open: func(context.Context) (warehouse.Store, error) {
			return store, nil
		},
		Source:  ds,
		Options: warehouse.Options{BatchSize: 2, CacheKeys: true},
	}
}

// failingSchema reports an error for every schema call.
type failingSchema struct{}

func (failingSchema) DropSchema(context.Context) error {
	return errors.New("database is being accessed by other users")
}

func (failingSchema) CreateSchema(context.Context) error {
	return errors.New("permission denied")
}
