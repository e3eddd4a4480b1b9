package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadColumnMaps_Embedded(t *testing.T) {
	maps, err := LoadColumnMaps("")
	require.NoError(t, err)
	assert.Contains(t, maps.Quotes, "quote_number")
	assert.Contains(t, maps.Quotes, "lead_source_fallback")
	assert.Contains(t, maps.Jobs, "job_number")
	assert.Contains(t, maps.Requests, "quote_numbers")
}

func TestLoadColumnMaps_Override(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "columns.yaml")
	content := "quotes:\n  quote_number: [\"Estimate ID\"]\njobs:\n  job_number: [\"Work order\"]\nrequests:\n  client_name: [\"Customer\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	maps, err := LoadColumnMaps(path)
	require.NoError(t, err)
	assert.Equal(t, "17", maps.Quotes.Value(testRecord(map[string]string{"Estimate ID": "17"}), "quote_number"))
}

func TestLoadColumnMaps_Errors(t *testing.T) {
	_, err := LoadColumnMaps(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quotes:\n  quote_number: [\"Quote #\"]\n"), 0o600))
	_, err = LoadColumnMaps(path)
	assert.Error(t, err)
}

func TestColumnMapValue(t *testing.T) {
	m := ColumnMap{"total": {"Total ($)", "Total"}}
	assert.Equal(t, "5", m.Value(testRecord(map[string]string{"Total ($)": "5", "Total": "6"}), "total"))
	assert.Equal(t, "6", m.Value(testRecord(map[string]string{"Total": "6"}), "total"))
	assert.Equal(t, "7", m.Value(testRecord(map[string]string{" total ($) ": "7"}), "total"))
	assert.Equal(t, "", m.Value(testRecord(map[string]string{"Other": "1"}), "total"))
	assert.Equal(t, "", m.Value(testRecord(map[string]string{"Total": "1"}), "unknown"))
}

func TestColumnMapValue_LooseMatchUsesLeftmostColumn(t *testing.T) {
	m := ColumnMap{"job_number": {"Job #"}}
	records, err := DecodeTable("jobs.csv", strings.NewReader("Job#,job #,Title\n88,99,Roof\n"), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	for i := 0; i < 20; i++ {
		assert.Equal(t, "88", m.Value(records[0], "job_number"))
	}
}
