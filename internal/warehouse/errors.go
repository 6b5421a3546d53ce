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
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStageFailed is matched by every error returned for a failed stage.
var ErrStageFailed = errors.New("stage failed")

// StageError reports the stage that stopped a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

// Unwrap exposes both ErrStageFailed and the cause.
func (e *StageError) Unwrap() []error {
	return []error{ErrStageFailed, e.Err}
}

// IsConstraintViolation reports whether err was caused by a unique,
// foreign-key or not-null constraint. Store errors opt in through a
// ConstraintViolation method; PostgreSQL errors are matched on SQLSTATE
// class 23.
func IsConstraintViolation(err error) bool {
	var cv interface{ ConstraintViolation() bool }
	if errors.As(err, &cv) {
		return cv.ConstraintViolation()
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}
