// Package enhance turns raw book records into display-ready records.
package enhance

import (
	"github.com/bookdata-explorer/bookdata/internal/author"
	"github.com/bookdata-explorer/bookdata/internal/format"
	"github.com/bookdata-explorer/bookdata/internal/record"
	"github.com/bookdata-explorer/bookdata/internal/taxonomy"
)

// Enhancer adds derived and formatted fields to records.
type Enhancer struct {
	Mapping *taxonomy.Mapping
}

// New returns an Enhancer over m.
func New(m *taxonomy.Mapping) *Enhancer {
	return &Enhancer{Mapping: m}
}

// Enhance returns a copy of r with genre_display, the author fields, and a
// "<field>_formatted" entry for every field that has a rule. Derived keys are only
// added: a key already present in r keeps its value. r is not modified.
func (e *Enhancer) Enhance(r record.Record) record.Record {
	out := r.Clone()

	if g, ok := out[record.Genre]; ok && g != nil {
		setDefault(out, record.GenreDisplay, e.Mapping.GenreDisplayName(format.Plain(g)))
	}

	if a, ok := out[record.Author]; ok {
		var text string
		if a != nil {
			text = format.Plain(a)
		}
		ref := author.Extract(text)
		setDefault(out, record.AuthorName, ref.Name)
		setDefault(out, record.AuthorURL, optional(ref.URL))
		setDefault(out, record.AuthorISBN, optional(ref.CatalogID))
	}

	// Keys are snapshotted first so formatted entries are never themselves formatted.
	for _, key := range out.Keys() {
		if _, ok := e.Mapping.FieldRule(key); ok {
			setDefault(out, key+record.FormattedSuffix, format.FormatField(key, out[key], e.Mapping))
		}
	}

	return out
}

func setDefault(r record.Record, key string, v any) {
	if _, ok := r[key]; !ok {
		r[key] = v
	}
}

// EnhanceAll enhances each record in order.
func (e *Enhancer) EnhanceAll(rs []record.Record) []record.Record {
	out := make([]record.Record, len(rs))
	for i, r := range rs {
		out[i] = e.Enhance(r)
	}
	return out
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
