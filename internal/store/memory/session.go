//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package memory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

var errSessionDone = errors.New("memory store: session already finished")

type session struct {
	store *Store
	st    state
	done  bool
}

var dimensionTables = map[warehouse.Dimension]string{
	warehouse.DimCustomer: warehouse.TableCustomer,
	warehouse.DimSeller:   warehouse.TableSeller,
	warehouse.DimProduct:  warehouse.TableProduct,
	warehouse.DimOrder:    warehouse.TableOrder,
}

func (s *session) table(name string) (*table, error) {
	if s.done {
		return nil, errSessionDone
	}
	t, ok := s.st[name]
	if !ok {
		return nil, errors.New("memory store: unknown table " + name)
	}
	return t, nil
}

// insert appends row under key. An empty key is not indexed.
func (s *session) insert(name, key string, row any) (int64, error) {
	t, err := s.table(name)
	if err != nil {
		return 0, err
	}
	if key != "" {
		if _, dup := t.byKey[key]; dup {
			return 0, &ConstraintError{Table: name, Constraint: "unique", Key: key}
		}
	}
	id := s.store.next(name)
	t.records = append(t.records, record{id: id, row: row})
	t.byID[id] = len(t.records) - 1
	if key != "" {
		t.byKey[key] = len(t.records) - 1
	}
	return id, nil
}

// upsert replaces the row stored under key, keeping its surrogate key.
func (s *session) upsert(name, key string, row any) error {
	t, err := s.table(name)
	if err != nil {
		return err
	}
	if i, ok := t.byKey[key]; ok {
		t.records[i].row = row
		return nil
	}
	_, err = s.insert(name, key, row)
	return err
}

// references checks that every id exists in the referenced table.
func (s *session) references(from, to string, ids ...int64) error {
	t, err := s.table(to)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !t.has(id) {
			return &ConstraintError{Table: from, Constraint: "foreign key to " + to, Key: strconv.FormatInt(id, 10)}
		}
	}
	return nil
}

func (s *session) Lookup(_ context.Context, dim warehouse.Dimension, naturalKey string) (int64, bool, error) {
	name, ok := dimensionTables[dim]
	if !ok {
		return 0, false, errors.New("memory store: unknown dimension " + string(dim))
	}
	t, err := s.table(name)
	if err != nil {
		return 0, false, err
	}
	i, ok := t.byKey[naturalKey]
	if !ok {
		return 0, false, nil
	}
	return t.records[i].id, true, nil
}

func (s *session) LookupDate(_ context.Context, key time.Time) (int64, bool, error) {
	t, err := s.table(warehouse.TableDate)
	if err != nil {
		return 0, false, err
	}
	i, ok := t.byKey[dateKey(key)]
	if !ok {
		return 0, false, nil
	}
	return t.records[i].id, true, nil
}

func (s *session) EnsureDate(ctx context.Context, rec warehouse.DateRecord) (int64, error) {
	if id, ok, err := s.LookupDate(ctx, rec.Key); err != nil || ok {
		return id, err
	}
	return s.insert(warehouse.TableDate, dateKey(rec.Key), rec)
}

func (s *session) UpsertCustomers(_ context.Context, rows []warehouse.CustomerRow) error {
	for _, r := range rows {
		if err := s.upsert(warehouse.TableCustomer, r.CustomerID, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) UpsertSellers(_ context.Context, rows []warehouse.SellerRow) error {
	for _, r := range rows {
		if err := s.upsert(warehouse.TableSeller, r.SellerID, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) InsertDates(_ context.Context, rows []warehouse.DateRecord) error {
	t, err := s.table(warehouse.TableDate)
	if err != nil {
		return err
	}
	for _, r := range rows {
		key := dateKey(r.Key)
		if _, exists := t.byKey[key]; exists {
			continue
		}
		if _, err := s.insert(warehouse.TableDate, key, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) InsertProducts(_ context.Context, rows []warehouse.ProductRow) error {
	for _, r := range rows {
		if _, err := s.insert(warehouse.TableProduct, r.ProductID, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) InsertOrders(_ context.Context, rows []warehouse.OrderRow) error {
	for _, r := range rows {
		if err := s.references(warehouse.TableOrder, warehouse.TableCustomer, r.CustomerKey); err != nil {
			return err
		}
		if err := s.references(warehouse.TableOrder, warehouse.TableDate, r.OrderDateKey, r.ApprovedDateKey,
			r.PickupDateKey, r.DeliveredDateKey, r.EstimatedDeliveryKey); err != nil {
			return err
		}
		if _, err := s.insert(warehouse.TableOrder, r.OrderID, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) InsertOrderItems(_ context.Context, rows []warehouse.OrderItemRow) error {
	for _, r := range rows {
		checks := []struct {
			to string
			id int64
		}{
			{warehouse.TableOrder, r.OrderKey},
			{warehouse.TableProduct, r.ProductKey},
			{warehouse.TableSeller, r.SellerKey},
			{warehouse.TableDate, r.PickupLimitDateKey},
		}
		for _, c := range checks {
			if err := s.references(warehouse.TableOrderItem, c.to, c.id); err != nil {
				return err
			}
		}
		key := r.OrderItemID + "/" + strconv.FormatInt(r.OrderKey, 10)
		if _, err := s.insert(warehouse.TableOrderItem, key, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) InsertPayments(_ context.Context, rows []warehouse.PaymentRow) error {
	for _, r := range rows {
		if err := s.references(warehouse.TablePayment, warehouse.TableOrder, r.OrderKey); err != nil {
			return err
		}
		// A NULL sequence number never conflicts.
		key := ""
		if r.Sequential != nil {
			key = strconv.FormatInt(r.OrderKey, 10) + "/" + strconv.FormatInt(*r.Sequential, 10)
		}
		if _, err := s.insert(warehouse.TablePayment, key, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) InsertFeedback(_ context.Context, rows []warehouse.FeedbackRow) error {
	for _, r := range rows {
		if err := s.references(warehouse.TableFeedback, warehouse.TableOrder, r.OrderKey); err != nil {
			return err
		}
		if err := s.references(warehouse.TableFeedback, warehouse.TableDate, r.FormSentDateKey, r.AnswerDateKey); err != nil {
			return err
		}
		if _, err := s.insert(warehouse.TableFeedback, r.FeedbackID, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) Count(_ context.Context, name string) (int64, error) {
	t, err := s.table(name)
	if err != nil {
		return 0, err
	}
	return int64(len(t.records)), nil
}

func (s *session) Commit(_ context.Context) error {
	if s.done {
		return errSessionDone
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.state = s.st
	s.store.session = false
	s.done = true
	return nil
}

func (s *session) Rollback(_ context.Context) error {
	if s.done {
		return nil
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.session = false
	s.done = true
	return nil
}
