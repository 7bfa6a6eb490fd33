package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bookdata-explorer/bookdata/internal/record"
)

// InsertBooks appends records to the books table in a single transaction and returns
// the number of rows written. Columns outside the known set are kept in the extra column.
func (s *Store) InsertBooks(ctx context.Context, records []record.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	stmtSQL := "INSERT INTO books (" + selectColumns + ") VALUES (" + placeholders(len(record.Columns)+1) + ")"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", s.wrapErr(ctx, err))
	}
	defer stmt.Close()

	args := make([]any, len(record.Columns)+1)
	for i, r := range records {
		for j, c := range record.Columns {
			args[j] = toColumn(r[c.Name])
		}
		extra, err := extraJSON(r)
		if err != nil {
			return 0, fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		args[len(args)-1] = extra

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit books: %w", err)
	}

	s.logger.Debug("Inserted books", "rows", len(records))
	return len(records), nil
}

// BooksCount counts the books in the selected genres, or all books when genres is empty.
func (s *Store) BooksCount(ctx context.Context, genres []string) (int, error) {
	cond, args := genreFilter(genres)
	q := "SELECT COUNT(*) FROM books" + where(cond)

	var n int
	if err := s.queryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", s.wrapErr(ctx, err))
	}
	return n, nil
}

// Genres returns the distinct genre display names, sorted.
func (s *Store) Genres(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, `
		SELECT DISTINCT COALESCE("genre_display", "genre") AS g
		FROM books
		WHERE COALESCE("genre_display", "genre") IS NOT NULL
		ORDER BY g`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GenreCode is one ingested genre with its stored display name.
type GenreCode struct {
	Code      string `json:"code" yaml:"code"`
	Display   string `json:"display" yaml:"display"`
	BookCount int    `json:"book_count" yaml:"book_count"`
}

// GenreCodes lists the ingested genre codes with their display names and sizes.
func (s *Store) GenreCodes(ctx context.Context) ([]GenreCode, error) {
	rows, err := s.query(ctx, `
		SELECT COALESCE("genre", ''), COALESCE("genre_display", "genre", ''), COUNT(*)
		FROM books
		GROUP BY "genre", "genre_display"
		ORDER BY "genre"`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genre codes: %w", err)
	}
	defer rows.Close()

	var out []GenreCode
	for rows.Next() {
		var gc GenreCode
		if err := rows.Scan(&gc.Code, &gc.Display, &gc.BookCount); err != nil {
			return nil, fmt.Errorf("failed to scan genre code: %w", err)
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

// TopBooks returns the best-rated books with more than 100 reviews, highest rating
// first and review count breaking ties.
func (s *Store) TopBooks(ctx context.Context, limit int, genres []string) ([]record.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	cond, args := genreFilter(genres)
	q := "SELECT " + selectColumns + " FROM books" +
		where(numeric("reviewAverage")+" AND "+numeric("nReviews")+` AND "nReviews" > 100`, cond) +
		` ORDER BY "reviewAverage" DESC, "nReviews" DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top books: %w", err)
	}
	return scanRecords(rows)
}

// SearchParams filters a book search. Nil bounds are not applied.
type SearchParams struct {
	Title  string
	Author string

	// Query matches any of Fields. Fields outside the known columns are ignored.
	Query     string
	Fields    []string
	Genres    []string
	MinRating *float64
	MaxRating *float64
	MinPrice  *float64
	MaxPrice  *float64
	Limit     int
	Offset    int
}

// DefaultSearchLimit caps a search when no limit is given.
const DefaultSearchLimit = 100

// Search finds books by case-insensitive title, author and free-text substrings plus
// genre, rating and price bounds, ordered like TopBooks.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]record.Record, error) {
	var conds []string
	var args []any

	if p.Title != "" {
		conds = append(conds, `LOWER("Title") LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(p.Title))
	}
	if p.Author != "" {
		conds = append(conds, `LOWER("Author") LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(p.Author))
	}
	if p.Query != "" {
		var matches []string
		for _, f := range p.Fields {
			if _, known := record.TypeOf(f); !known {
				continue
			}
			matches = append(matches, "LOWER("+quote(f)+`) LIKE ? ESCAPE '\'`)
			args = append(args, likePattern(p.Query))
		}
		if len(matches) == 0 {
			return nil, nil
		}
		conds = append(conds, "("+strings.Join(matches, " OR ")+")")
	}
	if cond, gargs := genreFilter(p.Genres); cond != "" {
		conds = append(conds, cond)
		args = append(args, gargs...)
	}
	for _, b := range []struct {
		cond  string
		value *float64
	}{
		{`"reviewAverage" >= ?`, p.MinRating},
		{`"reviewAverage" <= ?`, p.MaxRating},
		{`"price" >= ?`, p.MinPrice},
		{`"price" <= ?`, p.MaxPrice},
	} {
		if b.value != nil {
			conds = append(conds, b.cond)
			args = append(args, *b.value)
		}
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := "SELECT " + selectColumns + " FROM books" + where(conds...) +
		` ORDER BY "reviewAverage" DESC, "nReviews" DESC, rowid LIMIT ? OFFSET ?`
	args = append(args, limit, max(p.Offset, 0))

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return scanRecords(rows)
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// BookByASIN returns the first book with the given ASIN.
func (s *Store) BookByASIN(ctx context.Context, asin string) (record.Record, error) {
	rows, err := s.query(ctx, "SELECT "+selectColumns+` FROM books WHERE "ASIN" = ? LIMIT 1`, asin)
	if err != nil {
		return nil, fmt.Errorf("failed to look up book: %w", err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("book %q: %w", asin, ErrNotFound)
	}
	return recs[0], nil
}

// AllBooks returns every book in the selected genres in insertion order.
func (s *Store) AllBooks(ctx context.Context, genres []string) ([]record.Record, error) {
	cond, args := genreFilter(genres)
	rows, err := s.query(ctx, "SELECT "+selectColumns+" FROM books"+where(cond)+" ORDER BY rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return scanRecords(rows)
}

// AuthorCount is the number of distinct authors in one genre.
type AuthorCount struct {
	Genre         string `json:"genre" yaml:"genre"`
	UniqueAuthors int    `json:"unique_authors" yaml:"unique_authors"`
}

// AuthorsByGenre counts distinct authors per genre, largest first.
func (s *Store) AuthorsByGenre(ctx context.Context, genres []string) ([]AuthorCount, error) {
	cond, args := genreFilter(genres)
	q := `SELECT COALESCE("genre_display", "genre") AS g, COUNT(DISTINCT "Author") AS n FROM books` +
		where(`"Author" IS NOT NULL`, cond) +
		` GROUP BY g ORDER BY n DESC, g`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count authors: %w", err)
	}
	defer rows.Close()

	var out []AuthorCount
	for rows.Next() {
		var ac AuthorCount
		var g sql.NullString
		if err := rows.Scan(&g, &ac.UniqueAuthors); err != nil {
			return nil, fmt.Errorf("failed to scan author count: %w", err)
		}
		ac.Genre = g.String
		out = append(out, ac)
	}
	return out, rows.Err()
}
