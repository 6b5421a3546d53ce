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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-ecomdw/internal/source"
	"github.com/pgEdge/pgedge-ecomdw/internal/store/memory"
	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

func TestPipelineSmallDataset(t *testing.T) {
	store := memory.New()
	result, err := newPipeline(store, smallDataset()).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Completed)
	require.Len(t, result.Stages, 8)

	assert.Equal(t, 1, store.Count(warehouse.TableCustomer))
	assert.Equal(t, 1, store.Count(warehouse.TableSeller))
	assert.Equal(t, 1, store.Count(warehouse.TableProduct))
	assert.Equal(t, 1, store.Count(warehouse.TableOrder))
	assert.Equal(t, 1, store.Count(warehouse.TableOrderItem))
	assert.Equal(t, 1, store.Count(warehouse.TablePayment))
	assert.Equal(t, 1, store.Count(warehouse.TableFeedback))

	// Five order dates, the pickup limit, the sent date and the sentinel
	// standing in for the unparseable answer date.
	assert.Equal(t, int64(5), result.Rows(warehouse.TableDate))
	assert.Equal(t, 8, store.Count(warehouse.TableDate))

	dates := store.Dates()
	assert.Equal(t, source.SentinelDate, dates[0].Key)
	assert.Equal(t, "Winter", dates[0].Season)

	customer, ok := store.Customer("alice")
	require.True(t, ok)
	assert.Equal(t, "10001", *customer.ZipCode)
	assert.Equal(t, "NYC", *customer.City)
	assert.Equal(t, "NY", *customer.State)
}

func TestPipelineCollidingOrderDates(t *testing.T) {
	ds := smallDataset()
	same := ts("2018-02-01 12:00:00")
	ds.orders[0].OrderDate = same
	ds.orders[0].ApprovedDate = same
	ds.orders[0].PickupDate = source.Timestamp{}
	ds.orders[0].DeliveredDate = source.Timestamp{}

	store := memory.New()
	result, err := newPipeline(store, ds).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.Rows(warehouse.TableDate))
	assert.Equal(t, 1, store.Count(warehouse.TableOrder))
}

func TestPipelineDropsUnresolvedFacts(t *testing.T) {
	ds := smallDataset()
	ds.orders = append(ds.orders, source.Order{
		OrderID: "o2", UserName: "mallory", Status: "delivered",
		OrderDate: ts("2018-03-01 10:00:00"),
	})
	ds.orderItems = append(ds.orderItems,
		source.OrderItem{OrderID: "o1", OrderItemID: "2", ProductID: "missing", SellerID: "s1",
			PickupLimitDate: ts("2018-01-11 10:00:00")},
		source.OrderItem{OrderID: "o9", OrderItemID: "1", ProductID: "p1", SellerID: "s1"},
		source.OrderItem{OrderID: "o1", OrderItemID: "3", ProductID: "p1", SellerID: "unknown"},
	)
	ds.payments = append(ds.payments, source.Payment{OrderID: "o2", Sequential: i64(1)})
	ds.feedback = append(ds.feedback, source.Feedback{FeedbackID: "f2", OrderID: "o2",
		FormSentDate: ts("2018-04-01 00:00:00"), AnswerDate: ts("2018-04-02 15:00:00")})

	store := memory.New()
	result, err := newPipeline(store, ds).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, store.Count(warehouse.TableOrder))
	assert.Equal(t, 1, store.Count(warehouse.TableOrderItem))
	assert.Equal(t, 1, store.Count(warehouse.TablePayment))
	assert.Equal(t, 1, store.Count(warehouse.TableFeedback))

	dropped := map[string]int{}
	for _, s := range result.Stages {
		dropped[s.Stage] = s.Dropped
	}
	assert.Equal(t, 1, dropped["order"])
	assert.Equal(t, 3, dropped["order_item"])
	assert.Equal(t, 1, dropped["payment"])
	assert.Equal(t, 1, dropped["feedback"])

	items := store.OrderItems()
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].OrderItemID)

	// Dates of dropped feedback rows are still created.
	found := false
	for _, d := range store.Dates() {
		if d.Key.Equal(time.Date(2018, 4, 2, 15, 0, 0, 0, time.UTC)) {
			found = true
			assert.Equal(t, "PM", d.AMPM)
		}
	}
	assert.True(t, found)
}

func TestPipelineDuplicateProductStopsRun(t *testing.T) {
	ds := smallDataset()
	ds.products = append(ds.products, source.Product{ProductID: "p1"})

	store := memory.New()
	result, err := newPipeline(store, ds).Run(context.Background())
	require.Error(t, err)
	assert.False(t, result.Completed)

	var stageErr *warehouse.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "product", stageErr.Stage)
	assert.True(t, errors.Is(err, warehouse.ErrStageFailed))
	assert.True(t, warehouse.IsConstraintViolation(err))

	// Committed stages survive; the failed and later stages do not.
	require.Len(t, result.Stages, 2)
	assert.Equal(t, 1, store.Count(warehouse.TableCustomer))
	assert.Equal(t, 1, store.Count(warehouse.TableSeller))
	assert.Equal(t, 0, store.Count(warehouse.TableProduct))
	assert.Equal(t, 0, store.Count(warehouse.TableDate))
	assert.Equal(t, 0, store.Count(warehouse.TableOrder))
}

func TestPipelineDuplicateFactStopsRun(t *testing.T) {
	ds := smallDataset()
	ds.feedback = append(ds.feedback, ds.feedback[0])

	store := memory.New()
	result, err := newPipeline(store, ds).Run(context.Background())
	require.Error(t, err)
	assert.True(t, warehouse.IsConstraintViolation(err))
	assert.Len(t, result.Stages, 7)
	assert.Equal(t, 0, store.Count(warehouse.TableFeedback))
	assert.Equal(t, 1, store.Count(warehouse.TablePayment))
}

func TestPipelineSourceErrorStopsRun(t *testing.T) {
	ds := smallDataset()
	ds.feedbackErr = errors.New("feedback_dataset.csv: missing required column \"order_id\"")

	store := memory.New()
	result, err := newPipeline(store, ds).Run(context.Background())
	require.Error(t, err)
	assert.False(t, warehouse.IsConstraintViolation(err))

	var stageErr *warehouse.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "feedback", stageErr.Stage)
	assert.Len(t, result.Stages, 7)
}

func TestPipelineIsDeterministic(t *testing.T) {
	ds := smallDataset()
	store := memory.New()
	p := newPipeline(store, ds)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, second.Stages, len(first.Stages))
	for i := range first.Stages {
		assert.Equal(t, first.Stages[i].Rows, second.Stages[i].Rows, first.Stages[i].Stage)
		assert.Equal(t, first.Stages[i].Dropped, second.Stages[i].Dropped, first.Stages[i].Stage)
	}
	for _, table := range warehouse.Tables {
		assert.NotZero(t, store.Count(table), table)
	}
}

func TestPipelineWithoutSchemaRefreshRejectsReload(t *testing.T) {
	store := memory.New()
	p := newPipeline(store, smallDataset())
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	p.Schema = nil
	_, err = p.Run(context.Background())
	var stageErr *warehouse.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "product", stageErr.Stage)
}

func TestPipelineSchemaFailureIsSwallowed(t *testing.T) {
	store := memory.New()
	p := newPipeline(store, smallDataset())
	p.Schema = failingSchema{}

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Completed)
}

func TestPipelineOpenFailure(t *testing.T) {
	p := &warehouse.Pipeline{
		Open: func(context.Context) (warehouse.Store, error) {
			return nil, errors.New("connection refused")
		},
		Source: smallDataset(),
	}
	result, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, warehouse.ErrStageFailed))
	assert.Empty(t, result.Stages)
}

func TestPipelineLegacySeasons(t *testing.T) {
	store := memory.New()
	p := newPipeline(store, smallDataset())
	p.Options.SeasonRule = warehouse.SeasonLegacy

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	for _, d := range store.Dates() {
		if d.Key.Equal(time.Date(2018, 1, 25, 0, 0, 0, 0, time.UTC)) {
			assert.Equal(t, "Fall", d.Season)
			return
		}
	}
	t.Fatal("estimated delivery date not loaded")
}

func TestPipelineMetrics(t *testing.T) {
	store := memory.New()
	p := newPipeline(store, smallDataset())
	p.Metrics = warehouse.NewMetrics()

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ecomdw.prom")
	require.NoError(t, p.Metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ecomdw_stage_rows{stage="order_item"} 1`)
	assert.Contains(t, string(data), `ecomdw_stage_dropped_rows{stage="order"} 0`)
	assert.Contains(t, string(data), "ecomdw_stage_duration_seconds")
}

func TestStages(t *testing.T) {
	var names []string
	for _, s := range warehouse.Stages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"customer", "seller", "product", "date", "order", "order_item", "payment", "feedback",
	}, names)
}
