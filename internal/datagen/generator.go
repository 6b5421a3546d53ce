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
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

// Config sizes a generated dataset.
type Config struct {
	Customers int
	Sellers   int
	Products  int
	Orders    int

	// DirtyRate is the share of rows given a data-quality defect: a
	// reference to an unknown entity, a missing date or a missing
	// product category.
	DirtyRate float64

	// Seed makes the output reproducible; zero picks a random seed.
	Seed uint64

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// Dataset holds one generated extract per source file.
type Dataset struct {
	Customers  []source.Customer
	Sellers    []source.Seller
	Products   []source.Product
	Orders     []source.Order
	OrderItems []source.OrderItem
	Payments   []source.Payment
	Feedback   []source.Feedback
}

// ProgressReporter tracks and reports data generation progress.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	if interval <= 0 {
		interval = 100000
	}
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rows int64) {
	oldRow := p.currentRow
	p.currentRow += rows

	// Check if we crossed a progress interval
	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(max(p.totalRows, 1)) * 100
		logging.Info().
			Str("file", p.tableName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating data")
	}
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("file", p.tableName).
		Int64("rows", p.currentRow).
		Msg("File complete")
}

var (
	orderStatuses = []string{"delivered", "shipped", "canceled", "invoiced", "processing", "unavailable"}
	statusWeights = []int{90, 4, 2, 2, 1, 1}

	paymentTypes   = []string{"credit_card", "boleto", "voucher", "debit_card"}
	paymentWeights = []int{74, 19, 5, 2}

	windowStart = time.Date(2016, time.September, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2018, time.August, 31, 23, 59, 59, 0, time.UTC)
)

// Generator builds synthetic datasets.
type Generator struct {
	faker *Faker
	cfg   Config
}

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Customers < 1 || cfg.Sellers < 1 || cfg.Products < 1 || cfg.Orders < 0 {
		return nil, fmt.Errorf("need at least one customer, seller and product")
	}
	if cfg.DirtyRate < 0 || cfg.DirtyRate > 1 || math.IsNaN(cfg.DirtyRate) {
		return nil, fmt.Errorf("dirty rate must be between 0 and 1, got %v", cfg.DirtyRate)
	}

	faker := NewFaker()
	if cfg.Seed != 0 {
		faker = NewFakerWithSeed(cfg.Seed)
	}
	return &Generator{faker: faker, cfg: cfg}, nil
}

// Generate produces a full dataset. Dimensions are generated first so that
// facts reference existing natural keys, except for the dirty share.
func (g *Generator) Generate(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{}

	ds.Customers = g.customers()
	ds.Sellers = g.sellers()
	ds.Products = g.products()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	progress := NewProgressReporter(source.OrderFile, int64(g.cfg.Orders), g.cfg.ProgressInterval)
	for i := 0; i < g.cfg.Orders; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		g.order(ds, i)
		progress.Update(1)
	}
	progress.Done()

	logging.Info().
		Int("customers", len(ds.Customers)).
		Int("sellers", len(ds.Sellers)).
		Int("products", len(ds.Products)).
		Int("orders", len(ds.Orders)).
		Int("order_items", len(ds.OrderItems)).
		Int("payments", len(ds.Payments)).
		Int("feedback", len(ds.Feedback)).
		Msg("Generated dataset")

	return ds, nil
}

func (g *Generator) dirty() bool {
	return g.faker.Chance(g.cfg.DirtyRate)
}

func ptr[T any](v T) *T { return &v }

func (g *Generator) customers() []source.Customer {
	out := make([]source.Customer, 0, g.cfg.Customers)
	for i := 0; i < g.cfg.Customers; i++ {
		out = append(out, source.Customer{
			UserName: g.faker.UserName(i),
			ZipCode:  ptr(g.faker.Zip()),
			City:     ptr(g.faker.City()),
			State:    ptr(g.faker.State()),
		})
	}
	return out
}

func (g *Generator) sellers() []source.Seller {
	out := make([]source.Seller, 0, g.cfg.Sellers)
	for i := 0; i < g.cfg.Sellers; i++ {
		out = append(out, source.Seller{
			SellerID: g.faker.ID(),
			ZipCode:  ptr(g.faker.Zip()),
			City:     ptr(g.faker.City()),
			State:    ptr(g.faker.State()),
		})
	}
	return out
}

func (g *Generator) products() []source.Product {
	out := make([]source.Product, 0, g.cfg.Products)
	for i := 0; i < g.cfg.Products; i++ {
		p := source.Product{
			ProductID:         g.faker.ID(),
			Category:          ptr(g.faker.ProductCategory()),
			NameLength:        ptr(float64(g.faker.Int(5, 76))),
			DescriptionLength: ptr(float64(g.faker.Int(4, 3992))),
			PhotosQty:         ptr(float64(g.faker.Int(1, 20))),
			WeightG:           ptr(float64(g.faker.Int(50, 30000))),
			LengthCM:          ptr(float64(g.faker.Int(7, 105))),
			HeightCM:          ptr(float64(g.faker.Int(2, 105))),
			WidthCM:           ptr(float64(g.faker.Int(6, 118))),
		}
		if g.dirty() {
			p.Category = nil
			p.NameLength = nil
			p.WeightG = nil
		}
		out = append(out, p)
	}
	return out
}

func valid(t time.Time) source.Timestamp {
	return source.Timestamp{Time: t, Valid: true}
}

func (g *Generator) order(ds *Dataset, n int) {
	f := g.faker
	orderID := f.ID()
	user := Choose(f, ds.Customers).UserName
	if g.dirty() {
		user = fmt.Sprintf("unknown_user_%d", n)
	}

	placed := f.DateRange(windowStart, windowEnd)
	approved := placed.Add(time.Duration(f.Int(5, 600)) * time.Minute)
	pickup := approved.Add(time.Duration(f.Int(12, 120)) * time.Hour)
	delivered := pickup.Add(time.Duration(f.Int(24, 480)) * time.Hour)
	estimated := time.Date(placed.Year(), placed.Month(), placed.Day()+f.Int(10, 40), 0, 0, 0, 0, time.UTC)

	status := ChooseWeighted(f, orderStatuses, statusWeights)
	o := source.Order{
		OrderID:           orderID,
		UserName:          user,
		Status:            status,
		OrderDate:         valid(placed),
		ApprovedDate:      valid(approved),
		PickupDate:        valid(pickup),
		DeliveredDate:     valid(delivered),
		EstimatedDelivery: valid(estimated),
	}
	if status != "delivered" || g.dirty() {
		o.DeliveredDate = source.Timestamp{}
	}
	ds.Orders = append(ds.Orders, o)

	total := 0.0
	items := f.Int(1, 3)
	for i := 1; i <= items; i++ {
		item := source.OrderItem{
			OrderID:         orderID,
			OrderItemID:     fmt.Sprint(i),
			ProductID:       Choose(f, ds.Products).ProductID,
			SellerID:        Choose(f, ds.Sellers).SellerID,
			PickupLimitDate: valid(placed.Add(time.Duration(f.Int(48, 240)) * time.Hour)),
			Price:           ptr(f.Price(5, 1500)),
			ShippingCost:    ptr(f.Price(0, 80)),
		}
		if g.dirty() {
			item.ProductID = f.ID()
		}
		total += *item.Price + *item.ShippingCost
		ds.OrderItems = append(ds.OrderItems, item)
	}

	payments := 1
	if f.Chance(0.05) {
		payments = 2
	}
	for seq := 1; seq <= payments; seq++ {
		ds.Payments = append(ds.Payments, source.Payment{
			OrderID:      orderID,
			Sequential:   ptr(int64(seq)),
			Type:         ptr(ChooseWeighted(f, paymentTypes, paymentWeights)),
			Installments: ptr(int64(f.Int(1, 10))),
			Value:        ptr(math.Round(total/float64(payments)*100) / 100),
		})
	}

	if f.Chance(0.9) {
		sent := time.Date(delivered.Year(), delivered.Month(), delivered.Day()+1, 0, 0, 0, 0, time.UTC)
		fb := source.Feedback{
			FeedbackID:   f.ID(),
			OrderID:      orderID,
			Score:        ptr(int64(ChooseWeighted(f, []int{1, 2, 3, 4, 5}, []int{11, 3, 8, 19, 59}))),
			FormSentDate: valid(sent),
			AnswerDate:   valid(sent.Add(time.Duration(f.Int(1, 96)) * time.Hour)),
		}
		if g.dirty() {
			fb.AnswerDate = source.Timestamp{}
		}
		ds.Feedback = append(ds.Feedback, fb)
	}
}
