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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customersCSV = "user_name,customer_zip_code,customer_city,customer_state\nalice,10001,NYC,NY\n"

func TestDirOpener(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CustomerFile), []byte(customersCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

	opener, err := NewOpener(context.Background(), dir, S3Options{})
	require.NoError(t, err)
	assert.Equal(t, dir, opener.Location())

	names, err := opener.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{CustomerFile}, names)

	customers, err := NewReader(opener).Customers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "alice", customers[0].UserName)

	_, err = NewReader(opener).Sellers(context.Background())
	assert.Error(t, err, "missing extract must fail the read")
}

func TestNewOpenerRejectsMissingDir(t *testing.T) {
	_, err := NewOpener(context.Background(), filepath.Join(t.TempDir(), "absent"), S3Options{})
	assert.Error(t, err)
}

func TestParseS3Location(t *testing.T) {
	bucket, prefix, err := parseS3Location("s3://raw/exports/2024/")
	require.NoError(t, err)
	assert.Equal(t, "raw", bucket)
	assert.Equal(t, "exports/2024", prefix)

	_, _, err = parseS3Location("s3:///nobucket")
	assert.Error(t, err)
}

// fakeS3 serves path-style GetObject and ListObjectsV2 for a single bucket.
func fakeS3(t *testing.T, bucket string, objects map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/"+bucket)
		path = strings.TrimPrefix(path, "/")

		if r.URL.Query().Get("list-type") == "2" {
			prefix := r.URL.Query().Get("prefix")
			var b strings.Builder
			b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
			b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
			fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><IsTruncated>false</IsTruncated>", bucket, prefix)
			for key, body := range objects {
				if strings.HasPrefix(key, prefix) {
					fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", key, len(body))
				}
			}
			b.WriteString("</ListBucketResult>")
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, b.String())
			return
		}

		body, ok := objects[path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		_, _ = io.WriteString(w, body)
	}))
}

func TestS3Opener(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	srv := fakeS3(t, "extracts", map[string]string{
		"daily/" + CustomerFile: customersCSV,
		"daily/readme.md":       "not a csv",
		"daily/old/" + SellerFile: "seller_id,seller_zip_code,seller_city,seller_state\n",
	})
	defer srv.Close()

	ctx := context.Background()
	opener, err := NewOpener(ctx, "s3://extracts/daily", S3Options{
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		PathStyle:       true,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://extracts/daily", opener.Location())

	names, err := opener.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{CustomerFile}, names)

	customers, err := NewReader(opener).Customers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "NYC", *customers[0].City)

	_, err = opener.Open(ctx, PaymentFile)
	assert.Error(t, err)
}
