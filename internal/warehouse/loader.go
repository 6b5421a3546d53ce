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
	"fmt"
)

// DefaultBatchSize is used when a non-positive batch size is configured.
const DefaultBatchSize = 1000

// BulkApply writes rows to table in batches of batchSize through apply and
// returns the table's row count afterwards. It does not open or close a
// transaction; the caller's session owns the boundary. The first failing
// batch aborts the call.
func BulkApply[T any](ctx context.Context, s Session, table string, rows []T, batchSize int,
	apply func(context.Context, []T) error) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := apply(ctx, rows[start:end]); err != nil {
			return 0, fmt.Errorf("failed to load %s rows %d-%d: %w", table, start, end-1, err)
		}
	}

	count, err := s.Count(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}
