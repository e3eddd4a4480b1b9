package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/david/opportunity-sync/internal/auth"
	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushUploadsFiles(t *testing.T) {
	quotes := writeFixture(t, "quotes.csv", quotesFixture)

	var gotSecret, gotDryRun, gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get(auth.AdminSecretHeader)
		gotDryRun = r.URL.Query().Get("dry_run")
		if _, fh, err := r.FormFile("quotes"); err == nil {
			gotName = fh.Filename
		}
		_ = json.NewEncoder(w).Encode(ingest.ImportResult{
			Success:       true,
			Opportunities: ingest.UpsertCounts{Total: 2},
			Errors:        []ingest.ImportError{},
		})
	}))
	defer srv.Close()

	t.Setenv("ADMIN_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"push", "--server", srv.URL, "--quotes", quotes, "--dry-run"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, "true", gotDryRun)
	assert.Equal(t, "quotes.csv", gotName)
}

func TestPushReportsServerError(t *testing.T) {
	quotes := writeFixture(t, "quotes.csv", quotesFixture)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"An import is already running"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"push", "--server", srv.URL, "--quotes", quotes, "--token", "abc"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
