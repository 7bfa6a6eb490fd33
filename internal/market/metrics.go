// Package market derives comparative market metrics from per-genre aggregates.
package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrPrecondition is wrapped by every error Augment returns.
var ErrPrecondition = errors.New("market metrics precondition violated")

// GenreStats is one aggregate row per genre.
type GenreStats struct {
	Genre      string  `json:"genre" yaml:"genre"`
	BookCount  int     `json:"book_count" yaml:"book_count"`
	AvgPrice   float64 `json:"avg_price" yaml:"avg_price"`
	AvgRating  float64 `json:"avg_rating" yaml:"avg_rating"`
	AvgReviews float64 `json:"avg_reviews" yaml:"avg_reviews"`
}

// GenreMetrics is a GenreStats row plus the derived comparative metrics.
type GenreMetrics struct {
	GenreStats `yaml:",inline"`

	MarketOpportunity float64 `json:"market_opportunity" yaml:"market_opportunity"`
	CompetitionLevel  float64 `json:"competition_level" yaml:"competition_level"`
	QualityThreshold  float64 `json:"quality_threshold" yaml:"quality_threshold"`
	RevenuePotential  float64 `json:"revenue_potential" yaml:"revenue_potential"`
	EntryDifficulty   float64 `json:"entry_difficulty" yaml:"entry_difficulty"`
}

// PreconditionError describes a row that cannot be scored.
type PreconditionError struct {
	Genre  string
	Reason string
}

func (e *PreconditionError) Error() string {
	if e.Genre == "" {
		return fmt.Sprintf("%v: %s", ErrPrecondition, e.Reason)
	}
	return fmt.Sprintf("%v: genre %q: %s", ErrPrecondition, e.Genre, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// Augment computes the comparative metrics for every row. The competition and quality
// metrics are relative to the maxima of the whole input, so callers pass the full
// selection at once. The input slice is not modified.
//
//	market_opportunity = avg_price * avg_reviews * avg_rating / book_count
//	competition_level  = book_count / max(book_count) * 100
//	quality_threshold  = avg_rating * avg_reviews / max(avg_reviews)   (0 when the max is 0)
//	revenue_potential  = avg_price * avg_reviews
//	entry_difficulty   = (competition_level + quality_threshold * 20) / 2
func Augment(stats []GenreStats) ([]GenreMetrics, error) {
	if len(stats) == 0 {
		return nil, &PreconditionError{Reason: "no genres to compare"}
	}

	maxCount, maxReviews := 0, 0.0
	for _, s := range stats {
		if err := check(s); err != nil {
			return nil, err
		}
		if s.BookCount > maxCount {
			maxCount = s.BookCount
		}
		maxReviews = math.Max(maxReviews, s.AvgReviews)
	}

	out := make([]GenreMetrics, len(stats))
	for i, s := range stats {
		m := GenreMetrics{GenreStats: s}
		m.MarketOpportunity = s.AvgPrice * s.AvgReviews * s.AvgRating / float64(s.BookCount)
		m.CompetitionLevel = float64(s.BookCount) / float64(maxCount) * 100
		if maxReviews > 0 {
			m.QualityThreshold = s.AvgRating * (s.AvgReviews / maxReviews)
		}
		m.RevenuePotential = s.AvgPrice * s.AvgReviews
		m.EntryDifficulty = (m.CompetitionLevel + m.QualityThreshold*20) / 2
		out[i] = m
	}
	return out, nil
}

func check(s GenreStats) error {
	if s.BookCount <= 0 {
		return &PreconditionError{Genre: s.Genre, Reason: fmt.Sprintf("book_count must be positive, got %d", s.BookCount)}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"avg_price", s.AvgPrice},
		{"avg_rating", s.AvgRating},
		{"avg_reviews", s.AvgReviews},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return &PreconditionError{Genre: s.Genre, Reason: fmt.Sprintf("%s must be a non-negative number, got %v", f.name, f.value)}
		}
	}
	return nil
}

// SortKey names a metric the analytics view can be ordered by.
type SortKey string

const (
	SortOpportunity SortKey = "opportunity"
	SortCompetition SortKey = "competition"
	SortRevenue     SortKey = "revenue"
	SortEntry       SortKey = "entry"
)

// ParseSortKey validates a sort key.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortOpportunity, SortCompetition, SortRevenue, SortEntry:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want opportunity, competition, revenue or entry)", s)
	}
}

// Sort orders metrics in place. Opportunity and revenue sort descending, competition
// and entry difficulty ascending, so the most attractive genre is always first.
func Sort(ms []GenreMetrics, key SortKey) {
	var less func(a, b GenreMetrics) bool
	switch key {
	case SortCompetition:
		less = func(a, b GenreMetrics) bool { return a.CompetitionLevel < b.CompetitionLevel }
	case SortRevenue:
		less = func(a, b GenreMetrics) bool { return a.RevenuePotential > b.RevenuePotential }
	case SortEntry:
		less = func(a, b GenreMetrics) bool { return a.EntryDifficulty < b.EntryDifficulty }
	default:
		less = func(a, b GenreMetrics) bool { return a.MarketOpportunity > b.MarketOpportunity }
	}
	sort.SliceStable(ms, func(i, j int) bool { return less(ms[i], ms[j]) })
}

// Median returns the median of xs, averaging the two middle values for even lengths.
// It returns 0 for an empty slice and does not modify xs.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
