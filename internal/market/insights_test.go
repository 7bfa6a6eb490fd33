package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeGenres(t *testing.T) []GenreMetrics {
	t.Helper()
	ms, err := Augment([]GenreStats{
		{Genre: "Cozy Mystery", BookCount: 100, AvgPrice: 4.0, AvgRating: 4.6, AvgReviews: 1000},
		{Genre: "Thriller", BookCount: 50, AvgPrice: 6.0, AvgRating: 4.0, AvgReviews: 500},
		{Genre: "Romance", BookCount: 20, AvgPrice: 3.0, AvgRating: 4.8, AvgReviews: 300},
	})
	require.NoError(t, err)
	return ms
}

func TestComputeHighlights(t *testing.T) {
	h, ok := ComputeHighlights(threeGenres(t))
	require.True(t, ok)

	// opportunity: cozy 184, thriller 240, romance 216
	assert.Equal(t, "Thriller", h.BestOpportunity.Genre)
	assert.Equal(t, "Cozy Mystery", h.HighestRevenue.Genre)
	assert.Equal(t, "Romance", h.LeastCompetitive.Genre)
	assert.Equal(t, "Romance", h.EasiestEntry.Genre)

	_, ok = ComputeHighlights(nil)
	assert.False(t, ok)
}

func TestEntryBand(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "beginner friendly"},
		{25, "beginner friendly"},
		{25.5, "moderate"},
		{50, "moderate"},
		{75, "challenging"},
		{76, "expert level"},
		{140, "expert level"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EntryBand(tt.in), "difficulty %v", tt.in)
	}
}

func TestRecommendations(t *testing.T) {
	recs := Recommendations(threeGenres(t))
	require.Len(t, recs, 5)

	assert.Equal(t, RecOpportunity, recs[0].Kind)
	assert.Equal(t, []string{"Thriller"}, recs[0].Genres)
	assert.Equal(t, "Thriller shows strong market opportunity (MOI: 240) with $6.00 average pricing", recs[0].Message)
	assert.Equal(t, []string{"Romance"}, recs[1].Genres)

	// competition: cozy 100, thriller 50, romance 20; only romance is below the median
	assert.Equal(t, RecLowCompetition, recs[2].Kind)
	assert.Equal(t, "Romance has lower competition (20%) with good revenue potential", recs[2].Message)

	assert.Equal(t, RecQuality, recs[3].Kind)
	assert.Equal(t, []string{"Cozy Mystery", "Romance"}, recs[3].Genres)
	assert.Equal(t, "High-quality genres like Cozy Mystery, Romance expect 4.7+ star ratings", recs[3].Message)

	assert.Equal(t, RecPricing, recs[4].Kind)
	assert.Equal(t, "Optimal pricing ranges from $3.00 to $6.00, with most genres averaging $4.00", recs[4].Message)
}

func TestRecommendationsSingleGenre(t *testing.T) {
	ms, err := Augment([]GenreStats{{Genre: "Horror", BookCount: 5, AvgPrice: 2, AvgRating: 3.9, AvgReviews: 10}})
	require.NoError(t, err)

	recs := Recommendations(ms)
	require.Len(t, recs, 2, "no low-competition or quality line for a lone average genre")
	assert.Equal(t, RecOpportunity, recs[0].Kind)
	assert.Equal(t, RecPricing, recs[1].Kind)

	assert.Nil(t, Recommendations(nil))
}

func TestSummarizePrices(t *testing.T) {
	ps := SummarizePrices([]float64{0.99, 4.99, 2.99, 9.99})
	assert.Equal(t, 4, ps.Count)
	assert.InDelta(t, 0.99, ps.Min, 1e-9)
	assert.InDelta(t, 9.99, ps.Max, 1e-9)
	assert.InDelta(t, 4.74, ps.Average, 1e-9)
	assert.InDelta(t, 3.99, ps.Median, 1e-9)

	assert.Equal(t, PriceSummary{}, SummarizePrices(nil))
}

func TestPriceInsights(t *testing.T) {
	tests := []struct {
		name string
		in   PriceSummary
		want []string
	}{
		{
			name: "outliers wide budget",
			in:   PriceSummary{Min: 0.99, Max: 29.99, Average: 5.5, Median: 3.99},
			want: []string{
				"High-value outliers detected: premium pricing opportunities exist in these genres",
				"Wide price range: multiple market segments from budget ($0.99) to premium ($29.99)",
				"Budget market dominance: consider competitive pricing under $4.99 for maximum reach",
			},
		},
		{
			name: "budget focused narrow premium",
			in:   PriceSummary{Min: 10, Max: 20, Average: 15.5, Median: 16.5},
			want: []string{
				"Budget-focused market: most books are priced below average, suggesting price-sensitive readers",
				"Narrow price range: concentrated market with limited pricing flexibility",
				"Premium market: readers willing to pay $16.50+, focus on value and quality",
			},
		},
		{
			name: "balanced mid market",
			in:   PriceSummary{Min: 5, Max: 12, Average: 8.2, Median: 8.0},
			want: []string{
				"Balanced pricing: the market shows a healthy distribution across price points",
				"Narrow price range: concentrated market with limited pricing flexibility",
				"Mid-market sweet spot: the $6.00-$10.00 range balances accessibility and value",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceInsights(tt.in))
		})
	}
}
