package db

import (
	"strings"
	"testing"

	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpsertSQL(t *testing.T) {
	query, err := buildUpsertSQL(ingest.TableQuotes, []string{"client_name", "quote_number", "total"})
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO "quotes" ("client_name", "quote_number", "total") VALUES ($1, $2, $3) `+
			`ON CONFLICT ("quote_number") DO UPDATE SET "client_name" = EXCLUDED."client_name", "total" = EXCLUDED."total", "updated_at" = NOW() `+
			`RETURNING (xmax = 0)`,
		query)
	assert.NotContains(t, query, `"quote_number" = EXCLUDED`)
}

func TestBuildUpsertSQL_RequiresConflictKey(t *testing.T) {
	_, err := buildUpsertSQL(ingest.TableJobs, []string{"title"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job_number")

	_, err = buildUpsertSQL(ingest.Table{}, []string{"x"})
	assert.Error(t, err)
}

func TestBuildUpsertSQL_QuotesIdentifiers(t *testing.T) {
	query, err := buildUpsertSQL(ingest.Table{Name: "requests", ConflictKey: "request_key"}, []string{"request_key", `bad"col`})
	require.NoError(t, err)
	assert.Contains(t, query, `"bad""col"`)
}

func TestBatchColumns(t *testing.T) {
	cols := batchColumns([]map[string]any{
		{"b": 1, "a": 2},
		{"c": 3, "a": 4},
	})
	assert.Equal(t, []string{"a", "b", "c"}, cols)
}

func TestBuildListWhere(t *testing.T) {
	where, args := buildListWhere(ListParams{})
	assert.Equal(t, "WHERE 1=1", where)
	assert.Empty(t, args)

	where, args = buildListWhere(ListParams{Status: "won", MinValue: decimal.NewFromInt(1000)})
	assert.Equal(t, "WHERE 1=1 AND status = $1 AND total_quoted_value >= $2", where)
	assert.Equal(t, []any{"WON", "1000"}, args)

	where, _ = buildListWhere(ListParams{Status: "all"})
	assert.False(t, strings.Contains(where, "status"))
}

func TestBuildOrderBy(t *testing.T) {
	assert.Contains(t, buildOrderBy("value_desc"), "total_quoted_value DESC")
	assert.Contains(t, buildOrderBy("first_sent"), "first_sent_date ASC NULLS LAST")
	assert.Contains(t, buildOrderBy(""), "updated_at DESC")
	assert.Equal(t, buildOrderBy("newest"), buildOrderBy("bogus"))
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, RunStatusCompleted, RunStatus(ingest.ImportResult{Success: true}))

	partial := ingest.ImportResult{
		Quotes: ingest.UpsertCounts{Total: 4, New: 2},
		Errors: []ingest.ImportError{{File: ingest.FileQuotes, Row: 2, Field: "batch", Message: "boom"}},
	}
	assert.Equal(t, RunStatusPartial, RunStatus(partial))

	failed := ingest.ImportResult{Errors: []ingest.ImportError{{File: ingest.FileQuotes, Message: "bad file"}}}
	assert.Equal(t, RunStatusFailed, RunStatus(failed))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "", formatDate(nil))
	assert.Equal(t, "", deref(nil))
	assert.True(t, parseNumeric("12.50").Equal(decimal.RequireFromString("12.5")))
	assert.True(t, parseNumeric("").IsZero())
}
