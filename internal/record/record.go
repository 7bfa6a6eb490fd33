// Package record defines the loosely-typed book row that flows between ingestion,
// the store, and the display helpers.
//
// A Record is an open mapping from column name to a scalar value (string, integer,
// float, bool or nil). Nothing about its shape is guaranteed, so every accessor is a
// presence check that reports whether a usable value was found.
package record

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is one book row keyed by column name.
type Record map[string]any

// Known columns of the spreadsheet exports plus the metadata columns added at ingest.
const (
	Title               = "Title"
	ASIN                = "ASIN"
	KUStatus            = "kuStatus"
	Author              = "Author"
	Series              = "Series"
	NReviews            = "nReviews"
	ReviewAverage       = "reviewAverage"
	Price               = "price"
	SalesRank           = "salesRank"
	ReleaseDate         = "releaseDate"
	NPages              = "nPages"
	Publisher           = "publisher"
	IsTrad              = "isTrad"
	BlurbText           = "blurbText"
	CoverImage          = "coverImage"
	BookURL             = "bookURL"
	TopicTags           = "topicTags"
	BlurbKeyphrases     = "blurbKeyphrases"
	SubcatsList         = "subcatsList"
	IsFree              = "isFree"
	IsDuplicateASIN     = "isDuplicateASIN"
	EstimatedBlurbPOV   = "estimatedBlurbPOV"
	HasSupernatural     = "hasSupernatural"
	HasRomance          = "hasRomance"
	Genre               = "genre"
	GenreDisplay        = "genre_display"
	SourceFile          = "source_file"
	IngestedDate        = "ingested_date"
	ProcessingTimestamp = "processing_timestamp"
	IngestRun           = "ingest_run"

	// Derived by the enhancer.
	AuthorName = "author_name"
	AuthorURL  = "author_url"
	AuthorISBN = "author_isbn"
)

// FormattedSuffix is appended to a field name to hold its display string.
const FormattedSuffix = "_formatted"

// ColumnType is the storage type of a known column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeFloat
	TypeBool
)

// Column describes one known column.
type Column struct {
	Name string
	Type ColumnType
}

// Columns is the known superset of book columns, in table order.
var Columns = []Column{
	{Title, TypeText},
	{ASIN, TypeText},
	{KUStatus, TypeText},
	{Author, TypeText},
	{Series, TypeText},
	{NReviews, TypeInteger},
	{ReviewAverage, TypeFloat},
	{Price, TypeFloat},
	{SalesRank, TypeInteger},
	{ReleaseDate, TypeText},
	{NPages, TypeInteger},
	{Publisher, TypeText},
	{IsTrad, TypeBool},
	{BlurbText, TypeText},
	{CoverImage, TypeText},
	{BookURL, TypeText},
	{TopicTags, TypeText},
	{BlurbKeyphrases, TypeText},
	{SubcatsList, TypeText},
	{IsFree, TypeBool},
	{IsDuplicateASIN, TypeBool},
	{EstimatedBlurbPOV, TypeText},
	{HasSupernatural, TypeBool},
	{HasRomance, TypeBool},
	{Genre, TypeText},
	{GenreDisplay, TypeText},
	{SourceFile, TypeText},
	{IngestedDate, TypeText},
	{ProcessingTimestamp, TypeText},
	{IngestRun, TypeText},
}

var columnTypes = func() map[string]ColumnType {
	m := make(map[string]ColumnType, len(Columns))
	for _, c := range Columns {
		m[c.Name] = c.Type
	}
	return m
}()

// TypeOf returns the type of a known column and whether the column is known.
// Unknown columns are reported as text.
func TypeOf(name string) (ColumnType, bool) {
	t, ok := columnTypes[name]
	return t, ok
}

// Get returns the raw value stored under key. A nil value is reported as present.
func (r Record) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String returns the value under key if it is a string.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Float returns the value under key as a float64 if it is numeric or a numeric string.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Int returns the value under key as an int64 if it is integral or an integer string.
func (r Record) Int(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	return ToInt(v)
}

// Bool returns the value under key if it is a bool.
func (r Record) Bool(key string) (bool, bool) {
	b, ok := r[key].(bool)
	return b, ok
}

// Clone returns a shallow copy. Values are scalars, so the copy is independent.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the record's keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToFloat converts numeric values and numeric strings to float64.
// Booleans are not numbers here.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToInt converts integral values, finite floats (truncated toward zero) and integer
// strings to int64.
func ToInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
