package ingest

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/columns.yaml
var columnsYAML embed.FS

// ColumnMap maps a canonical field name to the export headers that may carry it.
type ColumnMap map[string][]string

// ColumnMaps holds one column map per source file.
type ColumnMaps struct {
	Quotes   ColumnMap `yaml:"quotes"`
	Jobs     ColumnMap `yaml:"jobs"`
	Requests ColumnMap `yaml:"requests"`
}

var headerKeyReplacer = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "", "/", "", "(", "", ")", "", "$", "")

// LoadColumnMaps reads the embedded columns.yaml. A non-empty path overrides
// the embedded copy with a file on disk.
func LoadColumnMaps(path string) (*ColumnMaps, error) {
	data, err := columnsYAML.ReadFile("config/columns.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded column map: %w", err)
	}
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read column map %s: %w", path, err)
		}
	}

	var maps ColumnMaps
	if err := yaml.Unmarshal(data, &maps); err != nil {
		return nil, fmt.Errorf("decode column map: %w", err)
	}
	for name, m := range map[SourceFile]ColumnMap{FileQuotes: maps.Quotes, FileJobs: maps.Jobs, FileRequests: maps.Requests} {
		if len(m) == 0 {
			return nil, fmt.Errorf("column map for %s is empty", name)
		}
	}
	return &maps, nil
}

// DefaultColumnMaps returns the embedded maps and panics if they are broken,
// which can only happen at build time.
func DefaultColumnMaps() *ColumnMaps {
	maps, err := LoadColumnMaps("")
	if err != nil {
		panic(err)
	}
	return maps
}

// Value returns the raw cell for field, trying aliases in order. Exact header
// matches win; otherwise headers are compared loosely and the leftmost
// matching column is used.
func (m ColumnMap) Value(rec Record, field string) string {
	aliases := m[field]
	for _, alias := range aliases {
		if v, ok := rec.Values[alias]; ok {
			return v
		}
	}
	for _, alias := range aliases {
		want := normalizeHeaderKey(alias)
		for _, header := range rec.Headers {
			if normalizeHeaderKey(header) == want {
				return rec.Values[header]
			}
		}
	}
	return ""
}

func normalizeHeaderKey(raw string) string {
	return strings.ToLower(headerKeyReplacer.Replace(strings.TrimSpace(raw)))
}
