//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitAppendsToRunLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.log")
	var console bytes.Buffer

	for i := 0; i < 2; i++ {
		if err := Init(Config{Level: "info", File: path, Console: &console}); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		Info().Msg("Start ETL process")
		Error().Msg("stage failed")
		if err := Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
	t.Cleanup(func() { _ = Init(DefaultConfig()) })

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read run log: %v", err)
	}
	text := string(data)
	if got := strings.Count(text, "Start ETL process"); got != 2 {
		t.Errorf("Expected 2 appended start lines, got %d", got)
	}
	if !strings.Contains(text, "INF") || !strings.Contains(text, "ERR") {
		t.Errorf("Expected level markers in run log, got %q", text)
	}
	if !strings.Contains(console.String(), "stage failed") {
		t.Error("Expected console output to receive the same records")
	}
}

func TestInitLevelFiltering(t *testing.T) {
	var console bytes.Buffer
	if err := Init(Config{Level: "warn", Console: &console}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = Init(DefaultConfig()) })

	Info().Msg("hidden")
	Warn().Msg("shown")

	if strings.Contains(console.String(), "hidden") {
		t.Error("Info record should be filtered at warn level")
	}
	if !strings.Contains(console.String(), "shown") {
		t.Error("Warn record should be written at warn level")
	}
}

func TestInitBadRunLogPath(t *testing.T) {
	err := Init(Config{Level: "info", File: filepath.Join(t.TempDir(), "missing", "x.log"), Console: &bytes.Buffer{}})
	t.Cleanup(func() { _ = Init(DefaultConfig()) })
	if err == nil {
		t.Error("Expected error for unwritable run log path")
	}
}
