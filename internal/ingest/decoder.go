package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrTooManyRows is returned when an export exceeds the configured row cap.
var ErrTooManyRows = errors.New("too many rows")

const utf8BOM = "\ufeff"

// DecodeTable turns an uploaded export into ordered records keyed by header.
// Files named *.xlsx are read from their first sheet; everything else is
// treated as CSV. Blank lines are skipped and short rows are padded. maxRows
// of zero disables the cap.
func DecodeTable(name string, r io.Reader, maxRows int) ([]Record, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		rows, err = readWorkbook(r)
	} else {
		rows, err = readCSV(r)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return rowsToRecords(name, rows, maxRows)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func rowsToRecords(name string, rows [][]string, maxRows int) ([]Record, error) {
	start := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return []Record{}, nil
	}

	header := make([]string, len(rows[start]))
	headers := make([]string, 0, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range rows[start] {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		if _, dup := seen[h]; dup || h == "" {
			// the first of a repeated header wins
			continue
		}
		seen[h] = struct{}{}
		header[i] = h
		headers = append(headers, h)
	}

	records := make([]Record, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if isBlankRow(row) {
			continue
		}
		if maxRows > 0 && len(records) >= maxRows {
			return nil, fmt.Errorf("decode %s: %w (limit %d)", name, ErrTooManyRows, maxRows)
		}
		rec := Record{Headers: headers, Values: make(map[string]string, len(headers))}
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec.Values[h] = row[i]
			} else {
				rec.Values[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
