//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package memory implements the warehouse storage interfaces in process
// memory. It enforces the same unique and foreign-key constraints as the
// SQL schema, which makes it suitable for tests and dry runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pgEdge/pgedge-ecomdw/internal/warehouse"
)

// ConstraintError is returned when a write would violate a constraint.
type ConstraintError struct {
	Table      string
	Constraint string
	Key        string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s violated by %q", e.Table, e.Constraint, e.Key)
}

// ConstraintViolation always reports true.
func (e *ConstraintError) ConstraintViolation() bool { return true }

// ErrSessionOpen is returned by Begin while another session is active.
var ErrSessionOpen = errors.New("memory store: a session is already open")

type record struct {
	id  int64
	row any
}

type table struct {
	records []record
	byKey   map[string]int
	byID    map[int64]int
}

func newTable() *table {
	return &table{byKey: make(map[string]int), byID: make(map[int64]int)}
}

func (t *table) clone() *table {
	c := &table{
		records: append([]record(nil), t.records...),
		byKey:   make(map[string]int, len(t.byKey)),
		byID:    make(map[int64]int, len(t.byID)),
	}
	for k, v := range t.byKey {
		c.byKey[k] = v
	}
	for k, v := range t.byID {
		c.byID[k] = v
	}
	return c
}

func (t *table) has(id int64) bool {
	_, ok := t.byID[id]
	return ok
}

type state map[string]*table

func newState() state {
	st := make(state, len(warehouse.Tables))
	for _, name := range warehouse.Tables {
		st[name] = newTable()
	}
	return st
}

func (st state) clone() state {
	c := make(state, len(st))
	for k, v := range st {
		c[k] = v.clone()
	}
	return c
}

// Store is an in-memory warehouse. Surrogate keys come from per-table
// sequences that are never rewound, so keys are not reused even after a
// rollback.
type Store struct {
	mu      sync.Mutex
	state   state
	seq     map[string]int64
	session bool
}

// New returns an empty store with every table created.
func New() *Store {
	return &Store{state: newState(), seq: make(map[string]int64)}
}

// DropSchema discards every table.
func (s *Store) DropSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}

// CreateSchema creates any missing table.
func (s *Store) CreateSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		s.state = newState()
	}
	return nil
}

// Begin opens a session on a private copy of the committed state.
func (s *Store) Begin(_ context.Context) (warehouse.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session {
		return nil, ErrSessionOpen
	}
	if s.state == nil {
		return nil, errors.New("memory store: schema does not exist")
	}
	s.session = true
	return &session{store: s, st: s.state.clone()}, nil
}

// Close is a no-op; committed data stays readable.
func (s *Store) Close(_ context.Context) error {
	return nil
}

// Count returns the committed row count of table.
func (s *Store) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state[name]
	if !ok {
		return 0
	}
	return len(t.records)
}

// Customer returns the committed customer with the given natural key.
func (s *Store) Customer(id string) (warehouse.CustomerRow, bool) {
	return committed[warehouse.CustomerRow](s, warehouse.TableCustomer, id)
}

// Seller returns the committed seller with the given natural key.
func (s *Store) Seller(id string) (warehouse.SellerRow, bool) {
	return committed[warehouse.SellerRow](s, warehouse.TableSeller, id)
}

// Dates returns the committed date rows ordered by key.
func (s *Store) Dates() []warehouse.DateRecord {
	rows := all[warehouse.DateRecord](s, warehouse.TableDate)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key.Before(rows[j].Key) })
	return rows
}

// OrderItems returns the committed order items in insertion order.
func (s *Store) OrderItems() []warehouse.OrderItemRow {
	return all[warehouse.OrderItemRow](s, warehouse.TableOrderItem)
}

func committed[T any](s *Store, name, key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	t, ok := s.state[name]
	if !ok {
		return zero, false
	}
	i, ok := t.byKey[key]
	if !ok {
		return zero, false
	}
	return t.records[i].row.(T), true
}

func all[T any](s *Store, name string) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state[name]
	if !ok {
		return nil
	}
	out := make([]T, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r.row.(T))
	}
	return out
}

func (s *Store) next(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[name]++
	return s.seq[name]
}

func dateKey(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}
