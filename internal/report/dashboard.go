package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/bookdata-explorer/bookdata/internal/market"
	"github.com/bookdata-explorer/bookdata/internal/store"
	"github.com/bookdata-explorer/bookdata/internal/taxonomy"
)

// Dashboard is the overview of the whole table: totals, prices, the per-genre summary and
// the number of authors writing in each genre.
type Dashboard struct {
	TotalBooks int                   `json:"total_books" yaml:"total_books"`
	Genres     []string              `json:"genres" yaml:"genres"`
	Price      market.PriceSummary   `json:"price" yaml:"price"`
	Overview   []store.GenreOverview `json:"overview" yaml:"overview"`
	Authors    []store.AuthorCount   `json:"authors" yaml:"authors"`

	// Missing are taxonomy genres with no ingested books, by display name.
	Missing []string `json:"missing_genres" yaml:"missing_genres"`
}

// MissingGenres returns the display names of the taxonomy genres absent from ingested.
func MissingGenres(m *taxonomy.Mapping, ingested []string) []string {
	have := make(map[string]bool, len(ingested))
	for _, g := range ingested {
		have[g] = true
	}
	var out []string
	for _, code := range m.Genres() {
		if name := m.GenreDisplayName(code); !have[name] && !have[code] {
			out = append(out, name)
		}
	}
	return out
}

// RenderDashboard renders a Dashboard.
func RenderDashboard(w io.Writer, f Format, d *Dashboard) error {
	switch f {
	case JSON:
		return writeJSON(w, d)
	case YAML:
		return writeYAML(w, d)
	case CSV:
		authors := make(map[string]int, len(d.Authors))
		for _, a := range d.Authors {
			authors[a.Genre] = a.UniqueAuthors
		}
		rows := make([][]string, 0, len(d.Overview))
		for _, o := range d.Overview {
			rows = append(rows, []string{
				o.Genre,
				strconv.Itoa(o.BookCount),
				strconv.Itoa(authors[o.Genre]),
				fmt.Sprintf("%.2f", o.AvgPrice),
				fmt.Sprintf("%.2f", o.AvgRating),
				strconv.FormatInt(o.TotalReviews, 10),
			})
		}
		return writeCSV(w, []string{"genre", "book_count", "unique_authors", "avg_price", "avg_rating", "total_reviews"}, rows)
	}

	if d.TotalBooks == 0 {
		fmt.Fprintln(w, "No books in the database.")
		return nil
	}

	banner(w, "Book Market Dashboard")
	fmt.Fprintf(w, "Total books:   %s\n", humanize.Comma(int64(d.TotalBooks)))
	fmt.Fprintf(w, "Genres:        %d\n", len(d.Genres))
	if d.Price.Count > 0 {
		fmt.Fprintf(w, "Average price: %s\n", money(d.Price.Average))
		fmt.Fprintf(w, "Median price:  %s\n", money(d.Price.Median))
	}

	if len(d.Overview) > 0 {
		fmt.Fprintln(w, "\nGenre overview:")
		tw := newTable(w)
		row(tw, "GENRE", "BOOKS", "AVG PRICE", "AVG RATING", "TOTAL REVIEWS")
		for _, o := range d.Overview {
			row(tw, o.Genre, humanize.Comma(int64(o.BookCount)), money(o.AvgPrice), fmt.Sprintf("%.2f", o.AvgRating), humanize.Comma(o.TotalReviews))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(d.Authors) > 0 {
		fmt.Fprintln(w, "\nUnique authors by genre:")
		tw := newTable(w)
		for _, a := range d.Authors {
			row(tw, "  "+a.Genre, strconv.Itoa(a.UniqueAuthors))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(d.Missing) > 0 {
		fmt.Fprintln(w, "\nGenres in the data mapping with no books:")
		for _, g := range d.Missing {
			fmt.Fprintf(w, "  - %s\n", g)
		}
	}
	return nil
}
