package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/bookdata-explorer/bookdata/internal/market"
	"github.com/bookdata-explorer/bookdata/internal/store"
)

// Analysis is the market analytics view of a genre selection.
type Analysis struct {
	Metrics         []market.GenreMetrics   `json:"metrics" yaml:"metrics"`
	Highlights      *market.Highlights      `json:"highlights,omitempty" yaml:"highlights,omitempty"`
	Recommendations []market.Recommendation `json:"recommendations" yaml:"recommendations"`
}

// NewAnalysis augments stats, orders the rows by key and derives the highlights and
// recommendations.
func NewAnalysis(stats []market.GenreStats, key market.SortKey) (*Analysis, error) {
	ms, err := market.Augment(stats)
	if err != nil {
		return nil, err
	}
	market.Sort(ms, key)

	a := &Analysis{Metrics: ms, Recommendations: market.Recommendations(ms)}
	if h, ok := market.ComputeHighlights(ms); ok {
		a.Highlights = &h
	}
	return a, nil
}

// Analytics renders an Analysis.
func Analytics(w io.Writer, f Format, a *Analysis) error {
	switch f {
	case JSON:
		return writeJSON(w, a)
	case YAML:
		return writeYAML(w, a)
	case CSV:
		return analyticsCSV(w, a)
	}

	banner(w, "Market Analytics")
	tw := newTable(w)
	row(tw, "GENRE", "BOOKS", "AVG PRICE", "AVG RATING", "AVG REVIEWS", "OPPORTUNITY", "COMPETITION", "QUALITY", "REVENUE", "ENTRY")
	for _, m := range a.Metrics {
		row(tw,
			m.Genre,
			humanize.Comma(int64(m.BookCount)),
			money(m.AvgPrice),
			fmt.Sprintf("%.2f", m.AvgRating),
			humanize.Comma(int64(m.AvgReviews)),
			fmt.Sprintf("%.0f", m.MarketOpportunity),
			fmt.Sprintf("%.1f%%", m.CompetitionLevel),
			fmt.Sprintf("%.2f", m.QualityThreshold),
			money(m.RevenuePotential),
			fmt.Sprintf("%.1f (%s)", m.EntryDifficulty, market.EntryBand(m.EntryDifficulty)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if h := a.Highlights; h != nil {
		fmt.Fprintln(w, "\nHighlights:")
		fmt.Fprintf(w, "  Best opportunity:  %s (MOI %.0f)\n", h.BestOpportunity.Genre, h.BestOpportunity.MarketOpportunity)
		fmt.Fprintf(w, "  Highest revenue:   %s (%s)\n", h.HighestRevenue.Genre, money(h.HighestRevenue.RevenuePotential))
		fmt.Fprintf(w, "  Least competitive: %s (%.1f%%)\n", h.LeastCompetitive.Genre, h.LeastCompetitive.CompetitionLevel)
		fmt.Fprintf(w, "  Easiest entry:     %s (%.1f, %s)\n", h.EasiestEntry.Genre, h.EasiestEntry.EntryDifficulty, market.EntryBand(h.EasiestEntry.EntryDifficulty))
	}

	if len(a.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, r := range a.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r.Message)
		}
	}
	return nil
}

func analyticsCSV(w io.Writer, a *Analysis) error {
	header := []string{"genre", "book_count", "avg_price", "avg_rating", "avg_reviews",
		"market_opportunity", "competition_level", "quality_threshold", "revenue_potential",
		"entry_difficulty", "entry_band"}
	rows := make([][]string, 0, len(a.Metrics))
	for _, m := range a.Metrics {
		rows = append(rows, []string{
			m.Genre,
			fmt.Sprintf("%d", m.BookCount),
			fmt.Sprintf("%.2f", m.AvgPrice),
			fmt.Sprintf("%.2f", m.AvgRating),
			fmt.Sprintf("%.0f", m.AvgReviews),
			fmt.Sprintf("%.4f", m.MarketOpportunity),
			fmt.Sprintf("%.4f", m.CompetitionLevel),
			fmt.Sprintf("%.4f", m.QualityThreshold),
			fmt.Sprintf("%.4f", m.RevenuePotential),
			fmt.Sprintf("%.4f", m.EntryDifficulty),
			market.EntryBand(m.EntryDifficulty),
		})
	}
	return writeCSV(w, header, rows)
}

// Stats renders the per-genre aggregate table.
func Stats(w io.Writer, f Format, stats []market.GenreStats) error {
	switch f {
	case JSON:
		return writeJSON(w, stats)
	case YAML:
		return writeYAML(w, stats)
	case CSV:
		rows := make([][]string, 0, len(stats))
		for _, s := range stats {
			rows = append(rows, []string{
				s.Genre,
				fmt.Sprintf("%d", s.BookCount),
				fmt.Sprintf("%.2f", s.AvgPrice),
				fmt.Sprintf("%.2f", s.AvgRating),
				fmt.Sprintf("%.0f", s.AvgReviews),
			})
		}
		return writeCSV(w, []string{"genre", "book_count", "avg_price", "avg_rating", "avg_reviews"}, rows)
	}

	tw := newTable(w)
	row(tw, "GENRE", "BOOKS", "AVG PRICE", "AVG RATING", "AVG REVIEWS")
	for _, s := range stats {
		row(tw, s.Genre, humanize.Comma(int64(s.BookCount)), money(s.AvgPrice), fmt.Sprintf("%.2f", s.AvgRating), humanize.Comma(int64(s.AvgReviews)))
	}
	return tw.Flush()
}

// Genres renders the ingested genre codes.
func Genres(w io.Writer, f Format, codes []store.GenreCode) error {
	switch f {
	case JSON:
		return writeJSON(w, codes)
	case YAML:
		return writeYAML(w, codes)
	case CSV:
		rows := make([][]string, 0, len(codes))
		for _, c := range codes {
			rows = append(rows, []string{c.Code, c.Display, fmt.Sprintf("%d", c.BookCount)})
		}
		return writeCSV(w, []string{"code", "display", "book_count"}, rows)
	}

	tw := newTable(w)
	row(tw, "CODE", "DISPLAY NAME", "BOOKS")
	for _, c := range codes {
		row(tw, c.Code, c.Display, humanize.Comma(int64(c.BookCount)))
	}
	return tw.Flush()
}
