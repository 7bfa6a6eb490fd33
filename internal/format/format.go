// Package format renders raw record values into display strings according to the
// field rules of a taxonomy.Mapping.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bookdata-explorer/bookdata/internal/record"
	"github.com/bookdata-explorer/bookdata/internal/taxonomy"
)

// NotAvailable is shown for missing values.
const NotAvailable = "N/A"

const starGlyph = "⭐"

// maxStars bounds the glyph run for out-of-range ratings.
const maxStars = 10

// FormatField renders value for the field name. It never fails: values a variant
// cannot handle fall back to their plain string form.
func FormatField(name string, value any, m *taxonomy.Mapping) string {
	if value == nil {
		return NotAvailable
	}
	if s, ok := value.(string); ok && s == "" {
		return NotAvailable
	}

	rule, ok := m.FieldRule(name)
	if !ok {
		return Plain(value)
	}

	switch rule.Format {
	case taxonomy.FormatCurrency:
		return currency(value)
	case taxonomy.FormatRating:
		return rating(value)
	case taxonomy.FormatCount:
		return count(value)
	case taxonomy.FormatFlag:
		return flag(value, rule.TrueLabel, rule.FalseLabel)
	case taxonomy.FormatList:
		return list(value)
	case taxonomy.FormatDate:
		if s, ok := value.(string); ok {
			if d, ok := ReleaseDate(s); ok {
				return d
			}
		}
		return Plain(value)
	default:
		return Plain(value)
	}
}

func currency(v any) string {
	f, ok := record.ToFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return Plain(v)
	}
	return fmt.Sprintf("$%.2f", f)
}

func rating(v any) string {
	r, ok := record.ToFloat(v)
	if !ok || math.IsNaN(r) || math.IsInf(r, 0) {
		return Plain(v)
	}
	stars := 0
	if r > 0 {
		stars = int(math.Min(math.Floor(r), maxStars))
	}
	return strings.Repeat(starGlyph, stars) + fmt.Sprintf(" %.1f", r)
}

func count(v any) string {
	n, ok := record.ToInt(v)
	if !ok {
		return Plain(v)
	}
	return humanize.Comma(n)
}

func flag(v any, yes, no string) string {
	b, ok := v.(bool)
	if !ok {
		return Plain(v)
	}
	if b {
		return yes
	}
	return no
}

func list(v any) string {
	s, ok := v.(string)
	if !ok {
		return Plain(v)
	}

	var sep string
	switch {
	case strings.Contains(s, "|"):
		sep = "|"
	case strings.Contains(s, "#"):
		sep = "#"
	default:
		return s
	}

	var parts []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Plain returns the unadorned string form of a scalar.
func Plain(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		return plainFloat(x)
	case float32:
		return plainFloat(float64(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	default:
		return fmt.Sprint(x)
	}
}

func plainFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
