package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bookdata-explorer/bookdata/internal/format"
	"github.com/bookdata-explorer/bookdata/internal/record"
	"github.com/bookdata-explorer/bookdata/internal/taxonomy"
)

// bookColumns are the columns of the book list table.
var bookColumns = []string{record.Title, record.AuthorName, record.GenreDisplay, record.Price, record.ReviewAverage, record.NReviews}

// Books renders a list of enhanced records.
func Books(w io.Writer, f Format, books []record.Record, m *taxonomy.Mapping) error {
	switch f {
	case JSON:
		return writeJSON(w, nonNil(books))
	case YAML:
		return writeYAML(w, nonNil(books))
	case CSV:
		return booksCSV(w, books)
	}

	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return nil
	}

	tw := newTable(w)
	header := make([]string, len(bookColumns))
	for i, c := range bookColumns {
		header[i] = strings.ToUpper(label(c, m))
	}
	row(tw, header...)
	for _, b := range books {
		cells := make([]string, len(bookColumns))
		for i, c := range bookColumns {
			cells[i] = format.Truncate(display(b, c, m), 50)
		}
		row(tw, cells...)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d books\n", len(books))
	return nil
}

func booksCSV(w io.Writer, books []record.Record) error {
	header := make([]string, 0, len(record.Columns)+3)
	for _, c := range record.Columns {
		header = append(header, c.Name)
	}
	header = append(header, record.AuthorName, record.AuthorURL, record.AuthorISBN)

	rows := make([][]string, 0, len(books))
	for _, b := range books {
		cells := make([]string, len(header))
		for i, c := range header {
			if v, ok := b[c]; ok && v != nil {
				cells[i] = format.Plain(v)
			}
		}
		rows = append(rows, cells)
	}
	return writeCSV(w, header, rows)
}

// Book renders one enhanced record as a card: primary fields, secondary fields, then the
// expandable long-form fields. Text output only; other formats emit the record itself.
func Book(w io.Writer, f Format, b record.Record, m *taxonomy.Mapping) error {
	switch f {
	case JSON:
		return writeJSON(w, b)
	case YAML:
		return writeYAML(w, b)
	case CSV:
		return booksCSV(w, []record.Record{b})
	}

	card := m.CardDisplay()
	title, _ := b.String(record.Title)
	banner(w, title)

	printFields := func(names []string) {
		for _, name := range names {
			if name == record.Title || ignored(name, m) {
				continue
			}
			fmt.Fprintf(w, "%-20s %s\n", label(name, m)+":", display(b, name, m))
		}
	}
	printFields(card.Primary)
	if g, ok := b[record.GenreDisplay]; ok && g != nil {
		fmt.Fprintf(w, "%-20s %s\n", "Genre:", format.Plain(g))
	}
	if src, ok := b.String(record.SourceFile); ok {
		if date, ok := format.ReportDate(src); ok {
			fmt.Fprintf(w, "%-20s %s\n", "Report Date:", date)
		}
	}

	fmt.Fprintln(w)
	printFields(card.Secondary)

	if details := moreDetails(b, m, card); len(details) > 0 {
		fmt.Fprintln(w, "\nMore Details")
		fmt.Fprintln(w, strings.Repeat("-", 50))
		printFields(details)
	}

	for _, name := range card.Expandable {
		if ignored(name, m) || !b.Has(name) {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", label(name, m))
		fmt.Fprintln(w, strings.Repeat("-", 50))
		text := format.Plain(b[name])
		switch name {
		case record.SubcatsList:
			if subs := format.Subcategories(text); len(subs) > 0 {
				for _, s := range subs {
					if s.Rank > 0 {
						fmt.Fprintf(w, "  #%d in %s (%s)\n", s.Rank, s.Category, s.URL)
					} else {
						fmt.Fprintf(w, "  %s (%s)\n", s.Category, s.URL)
					}
				}
				continue
			}
		case record.TopicTags:
			if topics := format.Topics(text); len(topics) > 0 {
				fmt.Fprintf(w, "  %s\n", strings.Join(topics, ", "))
				continue
			}
		}
		fmt.Fprintln(w, text)
	}

	if extra := extraKeys(b); len(extra) > 0 {
		fmt.Fprintln(w, "\nOther Fields")
		fmt.Fprintln(w, strings.Repeat("-", 50))
		for _, k := range extra {
			fmt.Fprintf(w, "%-20s %s\n", k+":", display(b, k, m))
		}
	}

	if u, ok := b.String(record.AuthorURL); ok {
		fmt.Fprintf(w, "\n%-20s %s\n", "Author Page:", u)
	}
	if u, ok := b.String(record.BookURL); ok && !ignored(record.BookURL, m) {
		fmt.Fprintf(w, "%-20s %s\n", "Book Page:", u)
	}
	return nil
}

// moreDetails lists the mapped display fields present in b that the card layout leaves out.
func moreDetails(b record.Record, m *taxonomy.Mapping, card taxonomy.CardDisplay) []string {
	shown := map[string]bool{
		record.Title:        true,
		record.Author:       true,
		record.AuthorName:   true,
		record.GenreDisplay: true,
		record.BookURL:      true,
	}
	for _, names := range [][]string{card.Primary, card.Secondary, card.Expandable} {
		for _, n := range names {
			shown[n] = true
		}
	}

	var out []string
	for _, r := range m.DisplayFields() {
		if !shown[r.Name] && b.Has(r.Name) {
			out = append(out, r.Name)
		}
	}
	return out
}

// display prefers the enhancer's formatted value and falls back to formatting directly.
func display(b record.Record, name string, m *taxonomy.Mapping) string {
	if s, ok := b.String(name + record.FormattedSuffix); ok {
		return s
	}
	return format.FormatField(name, b[name], m)
}

func label(name string, m *taxonomy.Mapping) string {
	switch name {
	case record.AuthorName:
		return "Author"
	case record.GenreDisplay:
		return "Genre"
	}
	if rule, ok := m.FieldRule(name); ok && rule.DisplayName != "" {
		return rule.DisplayName
	}
	return name
}

func ignored(name string, m *taxonomy.Mapping) bool {
	rule, ok := m.FieldRule(name)
	return ok && rule.Display == taxonomy.KindIgnore
}

func nonNil(books []record.Record) []record.Record {
	if books == nil {
		return []record.Record{}
	}
	return books
}

// extraKeys lists the keys of b that are not known columns or derived fields, sorted.
func extraKeys(b record.Record) []string {
	var keys []string
	for k := range b {
		if _, known := record.TypeOf(k); known {
			continue
		}
		if strings.HasSuffix(k, record.FormattedSuffix) || strings.HasPrefix(k, "author_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
