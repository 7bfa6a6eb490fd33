package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/bookdata-explorer/bookdata/internal/market"
)

// GenreStats aggregates priced and rated books per genre, largest genre first.
// avg_price and avg_rating are rounded to cents, avg_reviews to a whole number.
func (s *Store) GenreStats(ctx context.Context, genres []string) ([]market.GenreStats, error) {
	cond, args := genreFilter(genres)
	q := `
		SELECT
			COALESCE("genre_display", "genre") AS g,
			COUNT(*) AS book_count,
			ROUND(AVG("price"), 2),
			ROUND(AVG("reviewAverage"), 2),
			ROUND(AVG(CASE WHEN `+numeric("nReviews")+` THEN "nReviews" END), 0)
		FROM books` +
		where(numeric("price")+" AND "+numeric("reviewAverage"), cond) + `
		GROUP BY g
		ORDER BY book_count DESC, g`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query genre stats: %w", err)
	}
	defer rows.Close()

	var out []market.GenreStats
	for rows.Next() {
		var (
			g                   sql.NullString
			gs                  market.GenreStats
			price, rating, revs sql.NullFloat64
		)
		if err := rows.Scan(&g, &gs.BookCount, &price, &rating, &revs); err != nil {
			return nil, fmt.Errorf("failed to scan genre stats: %w", err)
		}
		gs.Genre = g.String
		gs.AvgPrice = price.Float64
		gs.AvgRating = rating.Float64
		gs.AvgReviews = revs.Float64
		out = append(out, gs)
	}
	return out, rows.Err()
}

// PriceStats summarizes the positive prices of the selected genres. Average and median
// are rounded to cents.
func (s *Store) PriceStats(ctx context.Context, genres []string) (market.PriceSummary, error) {
	cond, args := genreFilter(genres)
	q := `SELECT "price" FROM books` + where(numeric("price")+` AND "price" > 0`, cond)

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return market.PriceSummary{}, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return market.PriceSummary{}, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return market.PriceSummary{}, err
	}

	ps := market.SummarizePrices(prices)
	ps.Average = roundCents(ps.Average)
	ps.Median = roundCents(ps.Median)
	return ps, nil
}

// GenrePrice is one book price tagged with its genre.
type GenrePrice struct {
	Genre string
	Price float64
}

// PricesByGenre returns every price strictly between 0 and 100 in the selected genres.
func (s *Store) PricesByGenre(ctx context.Context, genres []string) ([]GenrePrice, error) {
	cond, args := genreFilter(genres)
	q := `SELECT COALESCE("genre_display", "genre"), "price" FROM books` +
		where(numeric("price")+` AND "price" > 0 AND "price" < 100`, cond) +
		" ORDER BY rowid"

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query genre prices: %w", err)
	}
	defer rows.Close()

	var out []GenrePrice
	for rows.Next() {
		var g sql.NullString
		var gp GenrePrice
		if err := rows.Scan(&g, &gp.Price); err != nil {
			return nil, fmt.Errorf("failed to scan genre price: %w", err)
		}
		gp.Genre = g.String
		out = append(out, gp)
	}
	return out, rows.Err()
}

// GenreOverview is one row of the genre_summary view. Averages skip unparseable cells.
type GenreOverview struct {
	Genre        string  `json:"genre" yaml:"genre"`
	BookCount    int     `json:"book_count" yaml:"book_count"`
	AvgPrice     float64 `json:"avg_price" yaml:"avg_price"`
	AvgRating    float64 `json:"avg_rating" yaml:"avg_rating"`
	TotalReviews int64   `json:"total_reviews" yaml:"total_reviews"`
}

// GenreOverview reads the genre_summary view for the selected genres, largest genre first.
func (s *Store) GenreOverview(ctx context.Context, genres []string) ([]GenreOverview, error) {
	var cond string
	var args []any
	if len(genres) > 0 {
		cond = `"genre" IN (` + placeholders(len(genres)) + ")"
		for _, g := range genres {
			args = append(args, g)
		}
	}
	q := `SELECT "genre", "book_count", "avg_price", "avg_rating", "total_reviews"
		FROM genre_summary` + where(cond) + `
		ORDER BY "book_count" DESC, "genre"`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query genre summary: %w", err)
	}
	defer rows.Close()

	var out []GenreOverview
	for rows.Next() {
		var (
			g             sql.NullString
			o             GenreOverview
			price, rating sql.NullFloat64
			reviews       sql.NullInt64
		)
		if err := rows.Scan(&g, &o.BookCount, &price, &rating, &reviews); err != nil {
			return nil, fmt.Errorf("failed to scan genre summary: %w", err)
		}
		o.Genre = g.String
		o.AvgPrice = roundCents(price.Float64)
		o.AvgRating = roundCents(rating.Float64)
		o.TotalReviews = reviews.Int64
		out = append(out, o)
	}
	return out, rows.Err()
}

// GenreCount is a genre and its number of books.
type GenreCount struct {
	Genre string `json:"genre" yaml:"genre"`
	Count int    `json:"count" yaml:"count"`
}

// Range is a min/max/avg triple. Valid is false when no row had a value.
type Range struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Avg   float64 `json:"avg" yaml:"avg"`
	Valid bool    `json:"valid" yaml:"valid"`
}

// Summary is the post-ingest report of the whole table.
type Summary struct {
	TotalBooks int          `json:"total_books" yaml:"total_books"`
	Genres     []GenreCount `json:"genres" yaml:"genres"`
	Price      Range        `json:"price" yaml:"price"`
	Rating     Range        `json:"rating" yaml:"rating"`
}

// Summary computes totals, the genre distribution and the price and rating ranges.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary

	total, err := s.BooksCount(ctx, nil)
	if err != nil {
		return sum, err
	}
	sum.TotalBooks = total

	rows, err := s.query(ctx, `
		SELECT COALESCE("genre", ''), COUNT(*) AS n
		FROM books
		GROUP BY "genre"
		ORDER BY n DESC, "genre"`)
	if err != nil {
		return sum, fmt.Errorf("failed to query genre distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var gc GenreCount
		if err := rows.Scan(&gc.Genre, &gc.Count); err != nil {
			return sum, fmt.Errorf("failed to scan genre distribution: %w", err)
		}
		sum.Genres = append(sum.Genres, gc)
	}
	if err := rows.Err(); err != nil {
		return sum, err
	}

	if sum.Price, err = s.columnRange(ctx, "price"); err != nil {
		return sum, err
	}
	if sum.Rating, err = s.columnRange(ctx, "reviewAverage"); err != nil {
		return sum, err
	}
	return sum, nil
}

// columnRange is only called with known column names.
func (s *Store) columnRange(ctx context.Context, column string) (Range, error) {
	col := quote(column)
	q := "SELECT MIN(" + col + "), MAX(" + col + "), AVG(" + col + ") FROM books WHERE " + numeric(column)

	var lo, hi, avg sql.NullFloat64
	if err := s.queryRow(ctx, q).Scan(&lo, &hi, &avg); err != nil {
		return Range{}, fmt.Errorf("failed to query %s range: %w", column, s.wrapErr(ctx, err))
	}
	return Range{Min: lo.Float64, Max: hi.Float64, Avg: avg.Float64, Valid: lo.Valid}, nil
}

// numeric matches rows whose column holds a number; unparseable cells are stored as text.
func numeric(column string) string {
	return "typeof(" + quote(column) + ") IN ('integer', 'real')"
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}
