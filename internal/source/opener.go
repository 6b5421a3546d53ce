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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pgEdge/pgedge-ecomdw/internal/logging"
)

// Opener provides read access to the extract files of one dataset.
type Opener interface {
	// Open returns the content of the named extract.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns the names of all CSV extracts, sorted.
	List(ctx context.Context) ([]string, error)

	// Location describes where the dataset lives, for logs.
	Location() string
}

// S3Options configures access to s3:// datasets.
type S3Options struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// NewOpener returns an S3 opener for s3://bucket/prefix locations and a
// directory opener otherwise.
func NewOpener(ctx context.Context, location string, opts S3Options) (Opener, error) {
	if strings.HasPrefix(location, "s3://") {
		return NewS3Opener(ctx, location, opts)
	}
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", location)
	}
	return DirOpener{Root: location}, nil
}

// DirOpener reads extracts from a local directory.
type DirOpener struct {
	Root string
}

// Open opens Root/name.
func (d DirOpener) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.Root, name))
}

// List returns the CSV files directly under Root.
func (d DirOpener) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Location returns the directory path.
func (d DirOpener) Location() string {
	return d.Root
}

// Reader decodes the seven extracts of a dataset on demand.
type Reader struct {
	opener Opener
}

// NewReader creates a Reader over the given opener.
func NewReader(opener Opener) *Reader {
	return &Reader{opener: opener}
}

// Customers reads the customer extract.
func (r *Reader) Customers(ctx context.Context) ([]Customer, error) {
	return readFile(ctx, r.opener, CustomerFile, DecodeCustomers)
}

// Sellers reads the seller extract.
func (r *Reader) Sellers(ctx context.Context) ([]Seller, error) {
	return readFile(ctx, r.opener, SellerFile, DecodeSellers)
}

// Products reads the product extract.
func (r *Reader) Products(ctx context.Context) ([]Product, error) {
	return readFile(ctx, r.opener, ProductFile, DecodeProducts)
}

// Orders reads the order extract.
func (r *Reader) Orders(ctx context.Context) ([]Order, error) {
	return readFile(ctx, r.opener, OrderFile, DecodeOrders)
}

// OrderItems reads the order item extract.
func (r *Reader) OrderItems(ctx context.Context) ([]OrderItem, error) {
	return readFile(ctx, r.opener, OrderItemFile, DecodeOrderItems)
}

// Payments reads the payment extract.
func (r *Reader) Payments(ctx context.Context) ([]Payment, error) {
	return readFile(ctx, r.opener, PaymentFile, DecodePayments)
}

// Feedback reads the feedback extract.
func (r *Reader) Feedback(ctx context.Context) ([]Feedback, error) {
	return readFile(ctx, r.opener, FeedbackFile, DecodeFeedback)
}

func readFile[T any](ctx context.Context, opener Opener, name string,
	decode func(io.Reader) ([]T, int, error)) ([]T, error) {
	rc, err := opener.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	records, skipped, err := decode(rc)
	if err != nil {
		return nil, err
	}

	logging.Debug().
		Str("file", name).
		Int("rows", len(records)).
		Int("missing_key", skipped).
		Msg("Read source extract")

	return records, nil
}
