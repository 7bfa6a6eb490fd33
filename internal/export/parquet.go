// Package export writes books and genre metrics to Parquet files.
package export

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/bookdata-explorer/bookdata/internal/market"
	"github.com/bookdata-explorer/bookdata/internal/record"
)

// BookRow is the Parquet layout of a book. Every column is optional.
type BookRow struct {
	Title               *string  `parquet:"Title,optional"`
	ASIN                *string  `parquet:"ASIN,optional"`
	KUStatus            *string  `parquet:"kuStatus,optional"`
	Author              *string  `parquet:"Author,optional"`
	Series              *string  `parquet:"Series,optional"`
	NReviews            *int64   `parquet:"nReviews,optional"`
	ReviewAverage       *float64 `parquet:"reviewAverage,optional"`
	Price               *float64 `parquet:"price,optional"`
	SalesRank           *int64   `parquet:"salesRank,optional"`
	ReleaseDate         *string  `parquet:"releaseDate,optional"`
	NPages              *int64   `parquet:"nPages,optional"`
	Publisher           *string  `parquet:"publisher,optional"`
	IsTrad              *bool    `parquet:"isTrad,optional"`
	BlurbText           *string  `parquet:"blurbText,optional"`
	CoverImage          *string  `parquet:"coverImage,optional"`
	BookURL             *string  `parquet:"bookURL,optional"`
	TopicTags           *string  `parquet:"topicTags,optional"`
	BlurbKeyphrases     *string  `parquet:"blurbKeyphrases,optional"`
	SubcatsList         *string  `parquet:"subcatsList,optional"`
	IsFree              *bool    `parquet:"isFree,optional"`
	IsDuplicateASIN     *bool    `parquet:"isDuplicateASIN,optional"`
	EstimatedBlurbPOV   *string  `parquet:"estimatedBlurbPOV,optional"`
	HasSupernatural     *bool    `parquet:"hasSupernatural,optional"`
	HasRomance          *bool    `parquet:"hasRomance,optional"`
	Genre               *string  `parquet:"genre,optional"`
	GenreDisplay        *string  `parquet:"genre_display,optional"`
	SourceFile          *string  `parquet:"source_file,optional"`
	IngestedDate        *string  `parquet:"ingested_date,optional"`
	ProcessingTimestamp *string  `parquet:"processing_timestamp,optional"`
	IngestRun           *string  `parquet:"ingest_run,optional"`
}

// MetricsRow is the Parquet layout of one genre's market metrics.
type MetricsRow struct {
	Genre             string  `parquet:"genre"`
	BookCount         int64   `parquet:"book_count"`
	AvgPrice          float64 `parquet:"avg_price"`
	AvgRating         float64 `parquet:"avg_rating"`
	AvgReviews        float64 `parquet:"avg_reviews"`
	MarketOpportunity float64 `parquet:"market_opportunity"`
	CompetitionLevel  float64 `parquet:"competition_level"`
	QualityThreshold  float64 `parquet:"quality_threshold"`
	RevenuePotential  float64 `parquet:"revenue_potential"`
	EntryDifficulty   float64 `parquet:"entry_difficulty"`
	EntryBand         string  `parquet:"entry_band"`
}

// WriteBooks writes records to path. Values whose type does not match the column are
// written as null; columns outside the known set are not exported.
func WriteBooks(path string, records []record.Record) error {
	rows := make([]BookRow, len(records))
	for i, r := range records {
		rows[i] = NewBookRow(r)
	}
	if err := write(path, rows); err != nil {
		return err
	}
	slog.Info("Exported books", "path", path, "rows", len(rows))
	return nil
}

// WriteMetrics writes one row per genre to path.
func WriteMetrics(path string, metrics []market.GenreMetrics) error {
	rows := make([]MetricsRow, len(metrics))
	for i, m := range metrics {
		rows[i] = MetricsRow{
			Genre:             m.Genre,
			BookCount:         int64(m.BookCount),
			AvgPrice:          m.AvgPrice,
			AvgRating:         m.AvgRating,
			AvgReviews:        m.AvgReviews,
			MarketOpportunity: m.MarketOpportunity,
			CompetitionLevel:  m.CompetitionLevel,
			QualityThreshold:  m.QualityThreshold,
			RevenuePotential:  m.RevenuePotential,
			EntryDifficulty:   m.EntryDifficulty,
			EntryBand:         market.EntryBand(m.EntryDifficulty),
		}
	}
	if err := write(path, rows); err != nil {
		return err
	}
	slog.Info("Exported genre metrics", "path", path, "rows", len(rows))
	return nil
}

func write[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return f.Close()
}

// NewBookRow converts a record to its Parquet layout.
func NewBookRow(r record.Record) BookRow {
	return BookRow{
		Title:               str(r, record.Title),
		ASIN:                str(r, record.ASIN),
		KUStatus:            str(r, record.KUStatus),
		Author:              str(r, record.Author),
		Series:              str(r, record.Series),
		NReviews:            integer(r, record.NReviews),
		ReviewAverage:       float(r, record.ReviewAverage),
		Price:               float(r, record.Price),
		SalesRank:           integer(r, record.SalesRank),
		ReleaseDate:         str(r, record.ReleaseDate),
		NPages:              integer(r, record.NPages),
		Publisher:           str(r, record.Publisher),
		IsTrad:              boolean(r, record.IsTrad),
		BlurbText:           str(r, record.BlurbText),
		CoverImage:          str(r, record.CoverImage),
		BookURL:             str(r, record.BookURL),
		TopicTags:           str(r, record.TopicTags),
		BlurbKeyphrases:     str(r, record.BlurbKeyphrases),
		SubcatsList:         str(r, record.SubcatsList),
		IsFree:              boolean(r, record.IsFree),
		IsDuplicateASIN:     boolean(r, record.IsDuplicateASIN),
		EstimatedBlurbPOV:   str(r, record.EstimatedBlurbPOV),
		HasSupernatural:     boolean(r, record.HasSupernatural),
		HasRomance:          boolean(r, record.HasRomance),
		Genre:               str(r, record.Genre),
		GenreDisplay:        str(r, record.GenreDisplay),
		SourceFile:          str(r, record.SourceFile),
		IngestedDate:        str(r, record.IngestedDate),
		ProcessingTimestamp: str(r, record.ProcessingTimestamp),
		IngestRun:           str(r, record.IngestRun),
	}
}

// Record converts a Parquet row back to a record. Null columns are present as nil.
func (b BookRow) Record() record.Record {
	r := record.Record{}
	set := func(key string, v any) { r[key] = v }

	set(record.Title, deref(b.Title))
	set(record.ASIN, deref(b.ASIN))
	set(record.KUStatus, deref(b.KUStatus))
	set(record.Author, deref(b.Author))
	set(record.Series, deref(b.Series))
	set(record.NReviews, deref(b.NReviews))
	set(record.ReviewAverage, deref(b.ReviewAverage))
	set(record.Price, deref(b.Price))
	set(record.SalesRank, deref(b.SalesRank))
	set(record.ReleaseDate, deref(b.ReleaseDate))
	set(record.NPages, deref(b.NPages))
	set(record.Publisher, deref(b.Publisher))
	set(record.IsTrad, deref(b.IsTrad))
	set(record.BlurbText, deref(b.BlurbText))
	set(record.CoverImage, deref(b.CoverImage))
	set(record.BookURL, deref(b.BookURL))
	set(record.TopicTags, deref(b.TopicTags))
	set(record.BlurbKeyphrases, deref(b.BlurbKeyphrases))
	set(record.SubcatsList, deref(b.SubcatsList))
	set(record.IsFree, deref(b.IsFree))
	set(record.IsDuplicateASIN, deref(b.IsDuplicateASIN))
	set(record.EstimatedBlurbPOV, deref(b.EstimatedBlurbPOV))
	set(record.HasSupernatural, deref(b.HasSupernatural))
	set(record.HasRomance, deref(b.HasRomance))
	set(record.Genre, deref(b.Genre))
	set(record.GenreDisplay, deref(b.GenreDisplay))
	set(record.SourceFile, deref(b.SourceFile))
	set(record.IngestedDate, deref(b.IngestedDate))
	set(record.ProcessingTimestamp, deref(b.ProcessingTimestamp))
	set(record.IngestRun, deref(b.IngestRun))
	return r
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func str(r record.Record, key string) *string {
	s, ok := r.String(key)
	if !ok {
		return nil
	}
	return &s
}

func integer(r record.Record, key string) *int64 {
	if _, isString := r[key].(string); isString {
		return nil
	}
	n, ok := r.Int(key)
	if !ok {
		return nil
	}
	return &n
}

func float(r record.Record, key string) *float64 {
	if _, isString := r[key].(string); isString {
		return nil
	}
	f, ok := r.Float(key)
	if !ok {
		return nil
	}
	return &f
}

func boolean(r record.Record, key string) *bool {
	b, ok := r.Bool(key)
	if !ok {
		return nil
	}
	return &b
}
