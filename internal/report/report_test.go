package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdata-explorer/bookdata/internal/enhance"
	"github.com/bookdata-explorer/bookdata/internal/ingest"
	"github.com/bookdata-explorer/bookdata/internal/market"
	"github.com/bookdata-explorer/bookdata/internal/record"
	"github.com/bookdata-explorer/bookdata/internal/store"
	"github.com/bookdata-explorer/bookdata/internal/taxonomy"
)

var testStats = []market.GenreStats{
	{Genre: "Beta", BookCount: 20, AvgPrice: 3, AvgRating: 4.6, AvgReviews: 200},
	{Genre: "Alpha", BookCount: 10, AvgPrice: 5, AvgRating: 4.0, AvgReviews: 100},
}

func testMapping() *taxonomy.Mapping {
	return taxonomy.New(
		map[string]string{"cozy_mystery": "Cozy Mystery"},
		[]taxonomy.FieldRule{
			{Name: record.Title, DisplayName: "Title"},
			{Name: record.Price, DisplayName: "Price"},
			{Name: record.ReviewAverage, DisplayName: "Rating"},
			{Name: record.NReviews, DisplayName: "Reviews"},
			{Name: record.TopicTags, DisplayName: "Topics"},
			{Name: record.SubcatsList, DisplayName: "Subcategories"},
			{Name: record.CoverImage, Display: taxonomy.KindIgnore},
		},
	)
}

func testBook() record.Record {
	return record.Record{
		record.Title:         "Murder at the Bakery",
		record.ASIN:          "B000000001",
		record.Author:        "[Jane Doe](https://example.com/author/B0AUTHOR001)",
		record.Genre:         "cozy_mystery",
		record.Price:         4.99,
		record.ReviewAverage: 4.6,
		record.NReviews:      int64(1500),
		record.TopicTags:     "cats|baking",
		record.SubcatsList:   "[#3 in Cozy Culinary](https://example.com/c/1)",
		record.SourceFile:    "20250811_cozy_mystery_raw_data.xlsx",
		"customColumn":       "kept",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", Text, false},
		{"text", Text, false},
		{"JSON", JSON, false},
		{" csv ", CSV, false},
		{"yaml", YAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAnalysis(t *testing.T) {
	a, err := NewAnalysis(testStats, market.SortOpportunity)
	require.NoError(t, err)

	require.Len(t, a.Metrics, 2)
	assert.Equal(t, "Alpha", a.Metrics[0].Genre)
	assert.InDelta(t, 200, a.Metrics[0].MarketOpportunity, 1e-9)
	require.NotNil(t, a.Highlights)
	assert.Equal(t, "Alpha", a.Highlights.BestOpportunity.Genre)
	assert.Equal(t, "Beta", a.Highlights.HighestRevenue.Genre)
	assert.NotEmpty(t, a.Recommendations)

	_, err = NewAnalysis(nil, market.SortOpportunity)
	assert.True(t, errors.Is(err, market.ErrPrecondition))
}

func TestAnalyticsFormats(t *testing.T) {
	a, err := NewAnalysis(testStats, market.SortOpportunity)
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Analytics(&buf, Text, a))
		out := buf.String()
		assert.Contains(t, out, "Market Analytics")
		assert.Contains(t, out, "Best opportunity:  Alpha (MOI 200)")
		assert.Contains(t, out, "Highest revenue:   Beta ($600.00)")
		assert.Contains(t, out, "45.0 (moderate)")
		assert.Contains(t, out, "Recommendations:")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Analytics(&buf, CSV, a))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "genre,book_count,avg_price"))
		assert.Equal(t, "Alpha,10,5.00,4.00,100,200.0000,50.0000,2.0000,500.0000,45.0000,moderate", lines[1])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Analytics(&buf, JSON, a))
		var got Analysis
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got.Metrics, 2)
		assert.Equal(t, "Alpha", got.Metrics[0].Genre)
		assert.Equal(t, 10, got.Metrics[0].BookCount)
		require.NotNil(t, got.Highlights)
		assert.Equal(t, "Alpha", got.Highlights.EasiestEntry.Genre)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Analytics(&buf, YAML, a))
		out := buf.String()
		assert.Contains(t, out, "genre: Alpha")
		assert.Contains(t, out, "market_opportunity: 200")
		assert.Contains(t, out, "recommendations:")
	})
}

func TestStatsAndGenres(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Stats(&buf, Text, []market.GenreStats{{Genre: "Thriller", BookCount: 1200, AvgPrice: 4.5, AvgRating: 4.25, AvgReviews: 3400}}))
	out := buf.String()
	assert.Contains(t, out, "AVG PRICE")
	assert.Contains(t, out, "Thriller")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "$4.50")
	assert.Contains(t, out, "3,400")

	buf.Reset()
	require.NoError(t, Genres(&buf, CSV, []store.GenreCode{{Code: "cozy_mystery", Display: "Cozy Mystery", BookCount: 3}}))
	assert.Equal(t, "code,display,book_count\ncozy_mystery,Cozy Mystery,3\n", buf.String())
}

func TestBooks(t *testing.T) {
	m := testMapping()
	books := enhance.New(m).EnhanceAll([]record.Record{testBook()})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Books(&buf, Text, books, m))
		out := buf.String()
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, "Murder at the Bakery")
		assert.Contains(t, out, "Jane Doe")
		assert.Contains(t, out, "Cozy Mystery")
		assert.Contains(t, out, "$4.99")
		assert.Contains(t, out, "1,500")
		assert.Contains(t, out, "1 books")
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Books(&buf, Text, nil, m))
		assert.Equal(t, "No books found.\n", buf.String())

		buf.Reset()
		require.NoError(t, Books(&buf, JSON, nil, m))
		assert.Equal(t, "[]\n", buf.String())
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Books(&buf, CSV, books, m))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "Title,ASIN,kuStatus,Author"))
		assert.True(t, strings.HasSuffix(lines[0], "author_name,author_url,author_isbn"))
		assert.Contains(t, lines[1], "Murder at the Bakery,B000000001")
		assert.Contains(t, lines[1], ",Jane Doe,https://example.com/author/B0AUTHOR001,B0AUTHOR001")
	})
}

func TestBookCard(t *testing.T) {
	m := testMapping()
	b := enhance.New(m).Enhance(testBook())

	var buf bytes.Buffer
	require.NoError(t, Book(&buf, Text, b, m))
	out := buf.String()

	assert.Contains(t, out, "Murder at the Bakery")
	assert.Contains(t, out, "Price:")
	assert.Contains(t, out, "$4.99")
	assert.Contains(t, out, "Genre:               Cozy Mystery")
	assert.Contains(t, out, "Report Date:         8/11/25")
	assert.Contains(t, out, "#3 in Cozy Culinary (https://example.com/c/1)")
	assert.Contains(t, out, "cats, baking")
	assert.Contains(t, out, "customColumn:")
	assert.Contains(t, out, "Author Page:         https://example.com/author/B0AUTHOR001")
	assert.Equal(t, 1, strings.Count(out, "Murder at the Bakery"), "the title is only shown in the banner")
}

func TestBookCardMoreDetails(t *testing.T) {
	m := taxonomy.New(nil, []taxonomy.FieldRule{
		{Name: record.Price, DisplayName: "Price"},
		{Name: record.SalesRank, DisplayName: "Sales Rank"},
		{Name: record.KUStatus, DisplayName: "Kindle Unlimited"},
		{Name: record.CoverImage, Display: taxonomy.KindIgnore},
	})
	b := testBook()
	b[record.SalesRank] = int64(5120)
	b[record.CoverImage] = "https://example.com/cover.jpg"

	var buf bytes.Buffer
	require.NoError(t, Book(&buf, Text, enhance.New(m).Enhance(b), m))
	out := buf.String()

	assert.Contains(t, out, "More Details")
	assert.Contains(t, out, "Sales Rank:")
	assert.NotContains(t, out, "Kindle Unlimited", "absent fields are skipped")
	assert.NotContains(t, out, "cover.jpg")
	assert.Equal(t, 1, strings.Count(out, "Price:"), "card fields are not repeated")

	buf.Reset()
	require.NoError(t, Book(&buf, Text, enhance.New(testMapping()).Enhance(testBook()), testMapping()))
	assert.NotContains(t, buf.String(), "More Details")
}

func TestDashboard(t *testing.T) {
	m := taxonomy.New(map[string]string{"cozy_mystery": "Cozy Mystery", "space_opera": "Space Opera"}, nil)
	d := &Dashboard{
		TotalBooks: 1234,
		Genres:     []string{"Cozy Mystery", "Thriller"},
		Price:      market.SummarizePrices([]float64{0.99, 2.99, 9.99}),
		Overview: []store.GenreOverview{
			{Genre: "Cozy Mystery", BookCount: 1200, AvgPrice: 2.5, AvgRating: 4.4, TotalReviews: 56000},
			{Genre: "Thriller", BookCount: 34, AvgPrice: 6.99, AvgRating: 4.1, TotalReviews: 900},
		},
		Authors: []store.AuthorCount{{Genre: "Cozy Mystery", UniqueAuthors: 410}, {Genre: "Thriller", UniqueAuthors: 20}},
	}
	d.Missing = MissingGenres(m, d.Genres)
	assert.Equal(t, []string{"Space Opera"}, d.Missing)

	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, Text, d))
	out := buf.String()
	assert.Contains(t, out, "Total books:   1,234")
	assert.Contains(t, out, "Genres:        2")
	assert.Contains(t, out, "Median price:  $2.99")
	assert.Contains(t, out, "56,000")
	assert.Contains(t, out, "Unique authors by genre:")
	assert.Contains(t, out, "410")
	assert.Contains(t, out, "  - Space Opera")

	buf.Reset()
	require.NoError(t, RenderDashboard(&buf, CSV, d))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "genre,book_count,unique_authors,avg_price,avg_rating,total_reviews", lines[0])
	assert.Equal(t, "Cozy Mystery,1200,410,2.50,4.40,56000", lines[1])

	buf.Reset()
	require.NoError(t, RenderDashboard(&buf, Text, &Dashboard{}))
	assert.Equal(t, "No books in the database.\n", buf.String())
}

func TestPrices(t *testing.T) {
	overall := market.SummarizePrices([]float64{0.99, 2.99, 4.99, 9.99})
	r := NewPriceReport(overall, []store.GenrePrice{
		{Genre: "Thriller", Price: 9.99},
		{Genre: "Cozy Mystery", Price: 0.99},
		{Genre: "Cozy Mystery", Price: 2.99},
		{Genre: "Cozy Mystery", Price: 4.99},
	})

	require.Len(t, r.ByGenre, 2)
	assert.Equal(t, "Cozy Mystery", r.ByGenre[0].Genre)
	assert.Equal(t, 3, r.ByGenre[0].Summary.Count)
	assert.InDelta(t, 2.99, r.ByGenre[0].Summary.Median, 1e-9)
	assert.Len(t, r.Insights, 3)

	var buf bytes.Buffer
	require.NoError(t, Prices(&buf, Text, r))
	out := buf.String()
	assert.Contains(t, out, "Books with a price: 4")
	assert.Contains(t, out, "Median price:       $3.99")
	assert.Contains(t, out, "Price range:        $0.99 - $9.99")
	assert.Contains(t, out, "Cozy Mystery")
	assert.Contains(t, out, "Insights:")

	buf.Reset()
	require.NoError(t, Prices(&buf, CSV, r))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ALL,4,0.99,9.99,4.74,3.99", lines[1])

	empty := NewPriceReport(market.PriceSummary{}, nil)
	assert.Empty(t, empty.Insights)
	buf.Reset()
	require.NoError(t, Prices(&buf, Text, empty))
	assert.Equal(t, "No price data available.\n", buf.String())
}

func TestIngestSummary(t *testing.T) {
	sum := store.Summary{
		TotalBooks: 1234,
		Genres:     []store.GenreCount{{Genre: "cozy_mystery", Count: 1200}, {Genre: "thriller", Count: 34}},
		Price:      store.Range{Min: 0.99, Max: 9.99, Avg: 3.5, Valid: true},
		Rating:     store.Range{Min: 3.2, Max: 4.9, Avg: 4.456, Valid: true},
	}
	res := &ingest.Result{
		RunID:     "run-1",
		Total:     2,
		Processed: 1,
		Files:     []ingest.FileResult{{Name: "a.xlsx", Genre: "cozy_mystery", Rows: 1234, Issues: []string{"Found 2 duplicate ASINs"}}},
		Failed:    []ingest.FailedFile{{Name: "b.xlsx", Err: errors.New("bad zip")}},
		Rows:      1234,
	}

	var buf bytes.Buffer
	require.NoError(t, IngestSummary(&buf, res, sum, "data/processed/books_data.db"))
	out := buf.String()

	assert.Contains(t, out, "DATABASE CREATION SUMMARY")
	assert.Contains(t, out, "Total books: 1,234")
	assert.Contains(t, out, "  cozy_mystery: 1,200")
	assert.Contains(t, out, "Price range: $0.99 - $9.99")
	assert.Contains(t, out, "Average price: $3.50")
	assert.Contains(t, out, "Rating range: 3.2 - 4.9")
	assert.Contains(t, out, "Average rating: 4.46")
	assert.Contains(t, out, "a.xlsx: Found 2 duplicate ASINs")
	assert.Contains(t, out, "Failed to process 1 files")
	assert.Contains(t, out, "b.xlsx (bad zip)")
	assert.Contains(t, out, "Successfully processed 1/2 files")
	assert.Contains(t, out, "Database saved: data/processed/books_data.db")
}
