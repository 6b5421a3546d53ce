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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TableProfile summarizes one extract.
type TableProfile struct {
	Name       string
	Rows       int
	Columns    []string
	Kinds      []string
	NullCells  int
	Duplicates int
	Unique     []int
}

// ProfileTable reads a whole CSV extract and computes its profile.
func ProfileTable(name string, r io.Reader) (TableProfile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	p := TableProfile{Name: strings.TrimSuffix(name, ".csv")}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return p, nil
		}
		return p, fmt.Errorf("%s: %w", name, err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		p.Columns = append(p.Columns, strings.TrimSpace(h))
	}

	width := len(p.Columns)
	distinct := make([]map[string]struct{}, width)
	kinds := make([]columnKind, width)
	for i := range distinct {
		distinct[i] = make(map[string]struct{})
	}
	seen := make(map[string]struct{})

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p, fmt.Errorf("%s: %w", name, err)
		}
		p.Rows++

		fingerprint := strings.Join(rec, "\x1f")
		if _, dup := seen[fingerprint]; dup {
			p.Duplicates++
		} else {
			seen[fingerprint] = struct{}{}
		}

		for i := 0; i < width; i++ {
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			if v == "" {
				p.NullCells++
				continue
			}
			distinct[i][v] = struct{}{}
			kinds[i] = kinds[i].observe(v)
		}
	}

	for i := 0; i < width; i++ {
		p.Unique = append(p.Unique, len(distinct[i]))
		p.Kinds = append(p.Kinds, kinds[i].String())
	}
	return p, nil
}

// columnKind is the narrowest type seen so far in a column, roughly
// following pandas dtype inference.
type columnKind int

const (
	kindEmpty columnKind = iota
	kindInt
	kindFloat
	kindDatetime
	kindObject
)

func (k columnKind) observe(v string) columnKind {
	var got columnKind
	switch {
	case isInt(v):
		got = kindInt
	case isFloat(v):
		got = kindFloat
	case ParseTimestamp(v).Valid:
		got = kindDatetime
	default:
		got = kindObject
	}
	switch {
	case k == kindEmpty:
		return got
	case k == got:
		return k
	case (k == kindInt && got == kindFloat) || (k == kindFloat && got == kindInt):
		return kindFloat
	default:
		return kindObject
	}
}

func (k columnKind) String() string {
	switch k {
	case kindInt:
		return "int64"
	case kindFloat:
		return "float64"
	case kindDatetime:
		return "datetime64"
	default:
		return "object"
	}
}

func isInt(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isFloat(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// Profile profiles every CSV extract the opener lists and writes a
// plain-text report to w.
func Profile(ctx context.Context, opener Opener, w io.Writer) ([]TableProfile, error) {
	names, err := opener.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracts: %w", err)
	}

	var profiles []TableProfile
	for _, name := range names {
		rc, err := opener.Open(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		p, err := ProfileTable(name, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
		writeProfile(w, p)
	}
	return profiles, nil
}

func writeProfile(w io.Writer, p TableProfile) {
	fmt.Fprintf(w, "Dataset Name: %s\n", p.Name)
	fmt.Fprintf(w, "Number of rows: %d\n", p.Rows)
	fmt.Fprintf(w, "Number of columns: %d\n", len(p.Columns))
	fmt.Fprintf(w, "Columns: [%s]\n", strings.Join(p.Columns, ", "))
	fmt.Fprintf(w, "Columns data types: [%s]\n", strings.Join(p.Kinds, ", "))
	fmt.Fprintf(w, "Number of null values: %d\n", p.NullCells)
	fmt.Fprintf(w, "Number of duplicates: %d\n", p.Duplicates)
	fmt.Fprintln(w, "Number of unique values for each column:")
	for i, col := range p.Columns {
		fmt.Fprintf(w, "  %-32s %d\n", col, p.Unique[i])
	}
	fmt.Fprintln(w)
}
