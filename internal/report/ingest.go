package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/bookdata-explorer/bookdata/internal/ingest"
	"github.com/bookdata-explorer/bookdata/internal/store"
)

// IngestSummary prints the post-ingest report: table totals, the genre distribution,
// price and rating ranges, and which files were processed.
func IngestSummary(w io.Writer, res *ingest.Result, sum store.Summary, dbPath string) error {
	fmt.Fprintln(w)
	banner(w, "DATABASE CREATION SUMMARY")

	fmt.Fprintf(w, "Total books: %s\n", humanize.Comma(int64(sum.TotalBooks)))

	fmt.Fprintln(w, "\nGenre distribution:")
	for _, g := range sum.Genres {
		fmt.Fprintf(w, "  %s: %s\n", g.Genre, humanize.Comma(int64(g.Count)))
	}

	if sum.Price.Valid {
		fmt.Fprintf(w, "\nPrice range: %s - %s\n", money(sum.Price.Min), money(sum.Price.Max))
		fmt.Fprintf(w, "Average price: %s\n", money(sum.Price.Avg))
	}
	if sum.Rating.Valid {
		fmt.Fprintf(w, "\nRating range: %.1f - %.1f\n", sum.Rating.Min, sum.Rating.Max)
		fmt.Fprintf(w, "Average rating: %.2f\n", sum.Rating.Avg)
	}

	if res == nil {
		return nil
	}

	issues := 0
	for _, f := range res.Files {
		issues += len(f.Issues)
	}
	if issues > 0 {
		fmt.Fprintf(w, "\nData quality issues (%d):\n", issues)
		for _, f := range res.Files {
			for _, issue := range f.Issues {
				fmt.Fprintf(w, "  - %s: %s\n", f.Name, issue)
			}
		}
	}

	if len(res.Failed) > 0 {
		fmt.Fprintf(w, "\n⚠️  Failed to process %d files:\n", len(res.Failed))
		for _, f := range res.Failed {
			fmt.Fprintf(w, "  - %s (%v)\n", f.Name, f.Err)
		}
	}

	fmt.Fprintf(w, "\n✅ Successfully processed %d/%d files\n", res.Processed, res.Total)
	fmt.Fprintf(w, "📁 Database saved: %s\n", dbPath)
	fmt.Fprintf(w, "Run: %s\n", res.RunID)
	return nil
}
