package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/bookdata-explorer/bookdata/internal/record"
)

// CoerceCell converts a text cell from a spreadsheet or CSV file to the type of its
// column. Blank cells become nil. Cells that do not parse as their column's type are
// kept as text.
func CoerceCell(column, cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}

	typ, _ := record.TypeOf(column)
	switch typ {
	case record.TypeInteger:
		if n, ok := parseInteger(trimmed); ok {
			return n
		}
	case record.TypeFloat:
		if f, ok := parseFloat(trimmed); ok {
			return f
		}
	case record.TypeBool:
		if b, ok := parseBool(trimmed); ok {
			return b
		}
	}
	return cell
}

// CoerceValue converts an already-typed value (from JSON or Parquet) to the type of
// its column.
func CoerceValue(column string, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return CoerceCell(column, x)
	case json.Number:
		return CoerceCell(column, x.String())
	}

	typ, _ := record.TypeOf(column)
	switch typ {
	case record.TypeInteger:
		if f, ok := v.(float64); ok && f == math.Trunc(f) {
			if n, ok := record.ToInt(f); ok {
				return n
			}
		}
		if n, ok := v.(int); ok {
			return int64(n)
		}
	case record.TypeFloat:
		if _, isBool := v.(bool); !isBool {
			if f, ok := record.ToFloat(v); ok {
				return f
			}
		}
	case record.TypeBool:
		if n, ok := v.(float64); ok && (n == 0 || n == 1) {
			return n == 1
		}
	}
	return v
}

func parseInteger(s string) (int64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	// Spreadsheets often store counts as "1500.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return record.ToInt(f)
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "1", "1.0":
		return true, true
	case "false", "no", "0", "0.0":
		return false, true
	}
	return false, false
}
