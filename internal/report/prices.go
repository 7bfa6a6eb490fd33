package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/bookdata-explorer/bookdata/internal/market"
	"github.com/bookdata-explorer/bookdata/internal/store"
)

// GenrePrices is the price summary of one genre.
type GenrePrices struct {
	Genre   string              `json:"genre" yaml:"genre"`
	Summary market.PriceSummary `json:"summary" yaml:"summary"`
}

// PriceReport is the pricing view: the overall summary, a summary per genre, and the
// derived insights.
type PriceReport struct {
	Overall  market.PriceSummary `json:"overall" yaml:"overall"`
	ByGenre  []GenrePrices       `json:"by_genre" yaml:"by_genre"`
	Insights []string            `json:"insights" yaml:"insights"`
}

// NewPriceReport groups per-book prices by genre, ordered by genre name. Insights are only
// derived when the overall summary has prices.
func NewPriceReport(overall market.PriceSummary, prices []store.GenrePrice) *PriceReport {
	groups := map[string][]float64{}
	for _, p := range prices {
		groups[p.Genre] = append(groups[p.Genre], p.Price)
	}
	genres := make([]string, 0, len(groups))
	for g := range groups {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	r := &PriceReport{Overall: overall, ByGenre: make([]GenrePrices, 0, len(genres))}
	for _, g := range genres {
		r.ByGenre = append(r.ByGenre, GenrePrices{Genre: g, Summary: market.SummarizePrices(groups[g])})
	}
	if overall.Count > 0 {
		r.Insights = market.PriceInsights(overall)
	}
	return r
}

// Prices renders a PriceReport.
func Prices(w io.Writer, f Format, r *PriceReport) error {
	switch f {
	case JSON:
		return writeJSON(w, r)
	case YAML:
		return writeYAML(w, r)
	case CSV:
		rows := make([][]string, 0, len(r.ByGenre)+1)
		rows = append(rows, priceRow("ALL", r.Overall))
		for _, g := range r.ByGenre {
			rows = append(rows, priceRow(g.Genre, g.Summary))
		}
		return writeCSV(w, []string{"genre", "count", "min", "max", "average", "median"}, rows)
	}

	if r.Overall.Count == 0 {
		fmt.Fprintln(w, "No price data available.")
		return nil
	}

	banner(w, "Price Analysis")
	fmt.Fprintf(w, "Books with a price: %d\n", r.Overall.Count)
	fmt.Fprintf(w, "Average price:      %s\n", money(r.Overall.Average))
	fmt.Fprintf(w, "Median price:       %s\n", money(r.Overall.Median))
	fmt.Fprintf(w, "Price range:        %s - %s\n", money(r.Overall.Min), money(r.Overall.Max))

	if len(r.ByGenre) > 0 {
		fmt.Fprintln(w, "\nBy genre (books under $100):")
		tw := newTable(w)
		row(tw, "GENRE", "BOOKS", "MIN", "MEDIAN", "AVERAGE", "MAX")
		for _, g := range r.ByGenre {
			s := g.Summary
			row(tw, g.Genre, fmt.Sprintf("%d", s.Count), money(s.Min), money(s.Median), money(s.Average), money(s.Max))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nInsights:")
	for _, insight := range r.Insights {
		fmt.Fprintf(w, "  - %s\n", insight)
	}
	return nil
}

func priceRow(genre string, s market.PriceSummary) []string {
	return []string{
		genre,
		fmt.Sprintf("%d", s.Count),
		fmt.Sprintf("%.2f", s.Min),
		fmt.Sprintf("%.2f", s.Max),
		fmt.Sprintf("%.2f", s.Average),
		fmt.Sprintf("%.2f", s.Median),
	}
}
