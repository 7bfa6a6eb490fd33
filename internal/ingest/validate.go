package ingest

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookdata-explorer/bookdata/internal/format"
	"github.com/bookdata-explorer/bookdata/internal/record"
)

// RequiredColumns must be present in every input file.
var RequiredColumns = []string{record.Title, record.ASIN, record.Author}

// Validate reports data quality issues in a loaded file. Issues are advisory: they
// are logged and never stop an ingest.
func Validate(t Table, filename string) []string {
	var issues []string

	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}

	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, "Missing columns: "+strings.Join(missing, ", "))
	}

	if len(t.Rows) == 0 {
		issues = append(issues, "Empty file")
	}

	if present[record.ASIN] {
		seen := map[string]bool{}
		dups := 0
		for _, r := range t.Rows {
			key := "\x00nil"
			if v := r[record.ASIN]; v != nil {
				key = format.Plain(v)
			}
			if seen[key] {
				dups++
			}
			seen[key] = true
		}
		if dups > 0 {
			issues = append(issues, fmt.Sprintf("Found %d duplicate ASINs", dups))
		}
	}

	for _, col := range []string{record.Title, record.Author} {
		if !present[col] {
			continue
		}
		n := 0
		for _, r := range t.Rows {
			if !r.Has(col) {
				n++
			}
		}
		if n > 0 {
			issues = append(issues, fmt.Sprintf("%d missing values in %s", n, col))
		}
	}

	if len(issues) > 0 {
		slog.Warn("Data quality issues", "file", filename, "issues", strings.Join(issues, "; "))
	}
	return issues
}
