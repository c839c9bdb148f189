// Package csvtable parses the CSV fragments that SEM results embed inside
// their JSON payload. The first record is the header; cells are typed the
// way a spreadsheet would guess them.
package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmpty is returned when the CSV text has no header row.
var ErrEmpty = errors.New("csv content is empty")

// Table is a parsed CSV fragment.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row maps header names to typed cell values: float64, bool, string, or nil
// for empty cells.
type Row map[string]any

// Parse reads CSV text with a header row. Rows shorter than the header are
// padded with nil; extra cells are dropped. A blank first header (the pandas
// index column) is named "index".
func Parse(content string) (*Table, error) {
	content = strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))
	if content == "" {
		return nil, ErrEmpty
	}

	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			if i == 0 {
				header[i] = "index"
			} else {
				header[i] = fmt.Sprintf("column_%d", i+1)
			}
		}
	}

	t := &Table{Headers: header}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = typed(rec[i])
			} else {
				row[h] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// typed converts a raw cell to float64, bool or string. Empty cells are nil.
func typed(cell string) any {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Filter returns the rows whose column equals value (string comparison after trimming).
func (t *Table) Filter(column, value string) []Row {
	var out []Row
	for _, row := range t.Rows {
		if s, ok := row[column].(string); ok && strings.TrimSpace(s) == value {
			out = append(out, row)
		}
	}
	return out
}

// Has reports whether the table has the named column.
func (t *Table) Has(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// Without returns the headers minus the named columns, preserving order.
func (t *Table) Without(columns ...string) []string {
	skip := make(map[string]bool, len(columns))
	for _, c := range columns {
		skip[c] = true
	}
	var out []string
	for _, h := range t.Headers {
		if !skip[h] {
			out = append(out, h)
		}
	}
	return out
}
