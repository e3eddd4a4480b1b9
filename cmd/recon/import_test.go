package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quotesFixture = `Quote #,Client name,Service street,Status,Total ($),Drafted date
101,Jane Smith,12 Oak St,Converted,"$1,000.00",2024-01-05
102,Jane Smith,12 Oak St.,Draft,$500,2024-01-09
103,Bob Jones,4 Elm Rd,Archived,$250,2024-02-01
`

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImportDryRun(t *testing.T) {
	t.Setenv("COLUMN_MAP_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	quotes := writeFixture(t, "quotes.csv", quotesFixture)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"import", "--quotes", quotes, "--dry-run"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "dry run complete")
	assert.Contains(t, out.String(), "ENTITY")
}

func TestImportRequiresQuotes(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"import", "--dry-run"})

	assert.Error(t, root.ExecuteContext(context.Background()))
}

func TestRenderResult_ListsErrors(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	renderResult(cmd, ingest.ImportResult{
		Opportunities: ingest.UpsertCounts{Total: 2, New: 1, Updated: 1},
		Quotes:        ingest.UpsertCounts{Total: 3, New: 3},
		Errors: []ingest.ImportError{
			{File: ingest.FileQuotes, Row: 4, Field: "quote_number", Message: "missing identity field"},
		},
	})

	assert.Contains(t, out.String(), "quote_number")
	assert.Contains(t, out.String(), "missing identity field")
}
