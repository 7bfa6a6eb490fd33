package market

import (
	"fmt"
	"sort"
	"strings"
)

// Highlights names the standout genre for each headline metric.
type Highlights struct {
	BestOpportunity  GenreMetrics `json:"best_opportunity" yaml:"best_opportunity"`
	HighestRevenue   GenreMetrics `json:"highest_revenue" yaml:"highest_revenue"`
	LeastCompetitive GenreMetrics `json:"least_competitive" yaml:"least_competitive"`
	EasiestEntry     GenreMetrics `json:"easiest_entry" yaml:"easiest_entry"`
}

// ComputeHighlights picks the highlight rows. Ties go to the earlier row. It reports
// false for an empty input.
func ComputeHighlights(ms []GenreMetrics) (Highlights, bool) {
	if len(ms) == 0 {
		return Highlights{}, false
	}
	h := Highlights{ms[0], ms[0], ms[0], ms[0]}
	for _, m := range ms[1:] {
		if m.MarketOpportunity > h.BestOpportunity.MarketOpportunity {
			h.BestOpportunity = m
		}
		if m.RevenuePotential > h.HighestRevenue.RevenuePotential {
			h.HighestRevenue = m
		}
		if m.CompetitionLevel < h.LeastCompetitive.CompetitionLevel {
			h.LeastCompetitive = m
		}
		if m.EntryDifficulty < h.EasiestEntry.EntryDifficulty {
			h.EasiestEntry = m
		}
	}
	return h, true
}

// EntryBand labels an entry difficulty score.
func EntryBand(difficulty float64) string {
	switch {
	case difficulty <= 25:
		return "beginner friendly"
	case difficulty <= 50:
		return "moderate"
	case difficulty <= 75:
		return "challenging"
	default:
		return "expert level"
	}
}

// Recommendation kinds.
const (
	RecOpportunity    = "opportunity"
	RecLowCompetition = "low_competition"
	RecQuality        = "quality"
	RecPricing        = "pricing"
)

// highQualityRating is the average rating above which a genre counts as high-standard.
const highQualityRating = 4.5

// Recommendation is one actionable line of the analytics view.
type Recommendation struct {
	Kind    string   `json:"kind" yaml:"kind"`
	Genres  []string `json:"genres" yaml:"genres"`
	Message string   `json:"message" yaml:"message"`
}

// Recommendations derives the analytics recommendations from augmented metrics.
func Recommendations(ms []GenreMetrics) []Recommendation {
	if len(ms) == 0 {
		return nil
	}
	var recs []Recommendation

	byOpportunity := append([]GenreMetrics(nil), ms...)
	sort.SliceStable(byOpportunity, func(i, j int) bool {
		return byOpportunity[i].MarketOpportunity > byOpportunity[j].MarketOpportunity
	})
	for _, m := range byOpportunity[:min(2, len(byOpportunity))] {
		recs = append(recs, Recommendation{
			Kind:    RecOpportunity,
			Genres:  []string{m.Genre},
			Message: fmt.Sprintf("%s shows strong market opportunity (MOI: %.0f) with $%.2f average pricing", m.Genre, m.MarketOpportunity, m.AvgPrice),
		})
	}

	competition := make([]float64, len(ms))
	for i, m := range ms {
		competition[i] = m.CompetitionLevel
	}
	medianCompetition := Median(competition)
	var best *GenreMetrics
	for i := range ms {
		if ms[i].CompetitionLevel >= medianCompetition {
			continue
		}
		if best == nil || ms[i].RevenuePotential > best.RevenuePotential {
			best = &ms[i]
		}
	}
	if best != nil {
		recs = append(recs, Recommendation{
			Kind:    RecLowCompetition,
			Genres:  []string{best.Genre},
			Message: fmt.Sprintf("%s has lower competition (%.0f%%) with good revenue potential", best.Genre, best.CompetitionLevel),
		})
	}

	var highNames []string
	var highSum float64
	var highCount int
	for _, m := range ms {
		if m.AvgRating > highQualityRating {
			if len(highNames) < 2 {
				highNames = append(highNames, m.Genre)
			}
			highSum += m.AvgRating
			highCount++
		}
	}
	if highCount > 0 {
		recs = append(recs, Recommendation{
			Kind:    RecQuality,
			Genres:  highNames,
			Message: fmt.Sprintf("High-quality genres like %s expect %.1f+ star ratings", strings.Join(highNames, ", "), highSum/float64(highCount)),
		})
	}

	prices := make([]float64, len(ms))
	for i, m := range ms {
		prices[i] = m.AvgPrice
	}
	ps := SummarizePrices(prices)
	recs = append(recs, Recommendation{
		Kind:    RecPricing,
		Message: fmt.Sprintf("Optimal pricing ranges from $%.2f to $%.2f, with most genres averaging $%.2f", ps.Min, ps.Max, ps.Median),
	})

	return recs
}

// PriceSummary describes a set of prices.
type PriceSummary struct {
	Count   int     `json:"count" yaml:"count"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Average float64 `json:"average" yaml:"average"`
	Median  float64 `json:"median" yaml:"median"`
}

// SummarizePrices computes a PriceSummary. An empty input yields the zero summary.
func SummarizePrices(prices []float64) PriceSummary {
	if len(prices) == 0 {
		return PriceSummary{}
	}
	ps := PriceSummary{Count: len(prices), Min: prices[0], Max: prices[0]}
	var sum float64
	for _, p := range prices {
		sum += p
		ps.Min = min(ps.Min, p)
		ps.Max = max(ps.Max, p)
	}
	ps.Average = sum / float64(len(prices))
	ps.Median = Median(prices)
	return ps
}

// Price thresholds of the pricing insights, in dollars.
const (
	outlierGap     = 1.0
	budgetGap      = -0.5
	wideSpread     = 20.0
	budgetMedian   = 5.0
	premiumMedian  = 15.0
	midMarketWidth = 2.0
)

// PriceInsights returns the three pricing observations for a summary: the shape of the
// distribution, its breadth, and the market tier by median.
func PriceInsights(ps PriceSummary) []string {
	insights := make([]string, 0, 3)

	switch gap := ps.Average - ps.Median; {
	case gap > outlierGap:
		insights = append(insights, "High-value outliers detected: premium pricing opportunities exist in these genres")
	case gap < budgetGap:
		insights = append(insights, "Budget-focused market: most books are priced below average, suggesting price-sensitive readers")
	default:
		insights = append(insights, "Balanced pricing: the market shows a healthy distribution across price points")
	}

	if ps.Max-ps.Min > wideSpread {
		insights = append(insights, fmt.Sprintf("Wide price range: multiple market segments from budget ($%.2f) to premium ($%.2f)", ps.Min, ps.Max))
	} else {
		insights = append(insights, "Narrow price range: concentrated market with limited pricing flexibility")
	}

	switch {
	case ps.Median < budgetMedian:
		insights = append(insights, fmt.Sprintf("Budget market dominance: consider competitive pricing under $%.2f for maximum reach", ps.Median+1))
	case ps.Median > premiumMedian:
		insights = append(insights, fmt.Sprintf("Premium market: readers willing to pay $%.2f+, focus on value and quality", ps.Median))
	default:
		insights = append(insights, fmt.Sprintf("Mid-market sweet spot: the $%.2f-$%.2f range balances accessibility and value", ps.Median-midMarketWidth, ps.Median+midMarketWidth))
	}

	return insights
}
