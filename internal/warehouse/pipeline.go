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
	"errors"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

// StageSchema is the isolated schema setup step that precedes the loads.
const StageSchema = "schema"

// Options tunes a pipeline run.
type Options struct {
	BatchSize  int
	SeasonRule SeasonRule
	CacheKeys  bool
}

// StageInfo describes a load stage.
type StageInfo struct {
	Name      string
	Source    string
	Table     string
	DependsOn []string
}

// StageResult is the outcome of one committed stage.
type StageResult struct {
	Stage    string
	Table    string
	Rows     int64
	Dropped  int
	Duration time.Duration
}

// Result summarizes a run.
type Result struct {
	Stages    []StageResult
	Completed bool
	CacheHits int
	Duration  time.Duration
}

// Rows returns the final row count of table, or zero if its stage did not
// commit.
func (r *Result) Rows(table string) int64 {
	for _, s := range r.Stages {
		if s.Table == table {
			return s.Rows
		}
	}
	return 0
}

// Pipeline runs the schema step followed by the eight load stages.
type Pipeline struct {
	// Schema is optional; when nil the existing schema is used.
	Schema SchemaManager

	// Open acquires the run's storage handle.
	Open func(ctx context.Context) (Store, error)

	Source  Dataset
	Options Options

	// Metrics is optional.
	Metrics *Metrics
}

type stage struct {
	StageInfo
	run func(ctx context.Context, st *runState, s Session) (int64, int, error)
}

// runState carries data shared between the stages of one run.
type runState struct {
	opts   Options
	source Dataset
	cache  *KeyCache
	orders []source.Order
}

func (st *runState) resolver(s Session) *Resolver {
	return NewResolver(s, st.opts.SeasonRule, st.cache)
}

// loadOrders reads the order extract once for the date and order stages.
func (st *runState) loadOrders(ctx context.Context) ([]source.Order, error) {
	if st.orders == nil {
		orders, err := st.source.Orders(ctx)
		if err != nil {
			return nil, err
		}
		st.orders = orders
	}
	return st.orders, nil
}

var stages = []stage{
	{
		StageInfo: StageInfo{Name: "customer", Source: source.CustomerFile, Table: TableCustomer},
		run: func(ctx context.Context, st *runState, s Session) (int64, int, error) {
			in, err := st.source.Customers(ctx)
			if err != nil {
				return 0, 0, err
			}
			n, err := BulkApply(ctx, s, TableCustomer, CustomerRows(in), st.opts.BatchSize, s.UpsertCustomers)
			return n, 0, err
		},
	},
	{
		StageInfo: StageInfo{Name: "seller", Source: source.SellerFile, Table: TableSeller},
		run: func(ctx context.Context, st *runState, s Session) (int64, int, error) {
			in, err := st.source.Sellers(ctx)
			if err != nil {
				return 0, 0, err
			}
			n, err := BulkApply(ctx, s, TableSeller, SellerRows(in), st.opts.BatchSize, s.UpsertSellers)
			return n, 0, err
		},
	},
	{
		StageInfo: StageInfo{Name: "product", Source: source.ProductFile, Table: TableProduct},
		run: func(ctx context.Context, st *runState, s Session) (int64, int, error) {
			in, err := st.source.Products(ctx)
			if err != nil {
				return 0, 0, err
			}
			n, err := BulkApply(ctx, s, TableProduct, ProductRows(in), st.opts.BatchSize, s.InsertProducts)
			return n, 0, err
		},
	},
	{
		StageInfo: StageInfo{Name: "date", Source: source.OrderFile, Table: TableDate},
		run: func(ctx context.Context, st *runState, s Session) (int64, int, error) {
			orders, err := st.loadOrders(ctx)
			if err != nil {
				return 0, 0, err
			}
			rows := DateRows(orders, st.opts.SeasonRule)
			n, err := BulkApply(ctx, s, TableDate, rows, st.opts.BatchSize, s.InsertDates)
			return n, 0, err
		},
	},
	{
		StageInfo: StageInfo{Name: "order", Source: source.OrderFile, Table: TableOrder,
			DependsOn: []string{"customer", "date"}},
		run: func(ctx context.Context, st *runState, s Session) (int64, int, error) {
			orders, err := st.loadOrders(ctx)
			if err != nil {
				return 0, 0, err
			}
			rows, dropped, err := AssembleOrders(ctx, st.resolver(s), orders)
			if err != nil {
				return 0, dropped, err
			}
			n, err := BulkApply(ctx, s, TableOrder, rows, st.opts.BatchSize, s.InsertOrders)
			return n, dropped, err
		},
	},
	{
		StageInfo: StageInfo{Name: "order_item", Source: source.OrderItemFile, Table: TableOrderItem,
			DependsOn: []string{"order", "product", "seller", "date"}},
		run: func(ctx context.Context, st *runState, s Session) (int64, int, error) {
			in, err := st.source.OrderItems(ctx)
			if err != nil {
				return 0, 0, err
			}
			rows, dropped, err := AssembleOrderItems(ctx, st.resolver(s), in)
			if err != nil {
				return 0, dropped, err
			}
			n, err := BulkApply(ctx, s, TableOrderItem, rows, st.opts.BatchSize, s.InsertOrderItems)
			return n, dropped, err
		},
	},
	{
		StageInfo: StageInfo{Name: "payment", Source: source.PaymentFile, Table: TablePayment,
			DependsOn: []string{"order"}},
		run: func(ctx context.Context, st *runState, s Session) (int64, int, error) {
			in, err := st.source.Payments(ctx)
			if err != nil {
				return 0, 0, err
			}
			rows, dropped, err := AssemblePayments(ctx, st.resolver(s), in)
			if err != nil {
				return 0, dropped, err
			}
			n, err := BulkApply(ctx, s, TablePayment, rows, st.opts.BatchSize, s.InsertPayments)
			return n, dropped, err
		},
	},
	{
		StageInfo: StageInfo{Name: "feedback", Source: source.FeedbackFile, Table: TableFeedback,
			DependsOn: []string{"order", "date"}},
		run: func(ctx context.Context, st *runState, s Session) (int64, int, error) {
			in, err := st.source.Feedback(ctx)
			if err != nil {
				return 0, 0, err
			}
			rows, dropped, err := AssembleFeedback(ctx, st.resolver(s), in)
			if err != nil {
				return 0, dropped, err
			}
			n, err := BulkApply(ctx, s, TableFeedback, rows, st.opts.BatchSize, s.InsertFeedback)
			return n, dropped, err
		},
	},
}

// Stages returns the load stages in execution order, after the schema step.
func Stages() []StageInfo {
	out := make([]StageInfo, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.StageInfo)
	}
	return out
}

// Run executes the schema step and every load stage in order. A failing
// load stage stops the run with a *StageError; stages committed before it
// stay committed. The returned Result is never nil.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	if p.Open == nil || p.Source == nil {
		return result, errors.New("pipeline requires a store and a source")
	}

	logging.Info().Msg("Start ETL process")
	p.setupSchema(ctx)

	store, err := p.Open(ctx)
	if err != nil {
		return result, &StageError{Stage: "connect", Err: fmt.Errorf("failed to open store: %w", err)}
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	opts := p.Options
	if opts.SeasonRule == "" {
		opts.SeasonRule = SeasonCalendar
	}
	st := &runState{opts: opts, source: p.Source}
	if opts.CacheKeys {
		st.cache = NewKeyCache()
	}

	for _, stg := range stages {
		res, err := p.runStage(ctx, st, store, stg)
		if err != nil {
			result.CacheHits = st.cache.Hits()
			result.Duration = time.Since(start)
			return result, err
		}
		result.Stages = append(result.Stages, res)
	}

	result.Completed = true
	result.CacheHits = st.cache.Hits()
	result.Duration = time.Since(start)
	logging.Info().Dur("duration", result.Duration).Msg("Finished ETL process successfully")
	return result, nil
}

// setupSchema drops and recreates the schema. Failures are logged and
// swallowed so the loads can still run against an existing schema.
func (p *Pipeline) setupSchema(ctx context.Context) {
	if p.Schema == nil {
		return
	}
	logging.Info().Str("stage", StageSchema).Msg("Start schema setup")
	if err := p.Schema.DropSchema(ctx); err != nil {
		logging.Error().Err(err).Str("stage", StageSchema).Msg("Failed to drop schema")
		return
	}
	if err := p.Schema.CreateSchema(ctx); err != nil {
		logging.Error().Err(err).Str("stage", StageSchema).Msg("Failed to create schema")
		return
	}
	logging.Info().Str("stage", StageSchema).Msg("Finish schema setup")
}

func (p *Pipeline) runStage(ctx context.Context, st *runState, store Store, stg stage) (StageResult, error) {
	start := time.Now()
	res := StageResult{Stage: stg.Name, Table: stg.Table}
	logging.Info().Str("stage", stg.Name).Msg("Start ETL " + stg.Name)

	fail := func(err error) (StageResult, error) {
		p.Metrics.stageFailed(stg.Name, time.Since(start))
		logging.Error().
			Err(err).
			Str("stage", stg.Name).
			Bool("constraint_violation", IsConstraintViolation(err)).
			Msg("ETL stage failed")
		return res, &StageError{Stage: stg.Name, Err: err}
	}

	session, err := store.Begin(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to begin transaction: %w", err))
	}

	rows, dropped, err := stg.run(ctx, st, session)
	if err != nil {
		if rbErr := session.Rollback(ctx); rbErr != nil {
			logging.Warn().Err(rbErr).Str("stage", stg.Name).Msg("Rollback failed")
		}
		return fail(err)
	}
	if err := session.Commit(ctx); err != nil {
		return fail(fmt.Errorf("failed to commit: %w", err))
	}

	res.Rows = rows
	res.Dropped = dropped
	res.Duration = time.Since(start)
	p.Metrics.observeStage(res)

	logging.Info().
		Str("stage", stg.Name).
		Str("table", stg.Table).
		Int64("rows", rows).
		Int("dropped", dropped).
		Dur("duration", res.Duration).
		Msg("Finish ETL " + stg.Name)
	return res, nil
}

// PrintSummary logs the row counts of a run.
func PrintSummary(r *Result) {
	logging.Info().
		Bool("completed", r.Completed).
		Int("stages", len(r.Stages)).
		Int("cache_hits", r.CacheHits).
		Dur("duration", r.Duration).
		Msg("Final summary")

	for _, s := range r.Stages {
		logging.Info().
			Str("stage", s.Stage).
			Str("table", s.Table).
			Int64("rows", s.Rows).
			Int("dropped", s.Dropped).
			Dur("duration", s.Duration).
			Msg("")
	}
}
