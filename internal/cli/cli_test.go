package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdata-explorer/bookdata/internal/export"
)

const cozyCSV = `Title,ASIN,Author,price,nReviews,reviewAverage,isFree,topicTags
Murder at the Bakery,B000000001,[Jane Doe](https://example.com/author/B0AUTHOR001),4.99,1500,4.6,false,cozy|cats
Poison Pie,B000000002,Jane Doe,2.99,300,4.2,false,
Knit One,B000000003,Ann Other,0.99,50,4.8,false,
`

const thrillerCSV = `Title,ASIN,Author,price,nReviews,reviewAverage
Silent Witness,B000000004,Sam Stone,9.99,8000,4.4
Dark Water,B000000005,Lee Park,14.99,120,3.9
`

const testMapping = `genres:
  cozy_mystery: Cozy Mystery
fields:
  price:
    display_name: Price
    kind: currency
  nReviews:
    display_name: Reviews
    kind: count
`

type env struct {
	dir     string
	db      string
	mapping string
	data    string
}

func newEnv(t *testing.T) env {
	t.Helper()
	for _, key := range []string{"DB_PATH", "DATA_DIR", "MAPPING_PATH", "LOG_LEVEL", "LOG_FORMAT", "LOG_QUERIES", "MAX_SEARCH_RESULTS", "DEFAULT_PAGE_SIZE", "ENABLE_EXPORT"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	e := env{
		dir:     dir,
		db:      filepath.Join(dir, "processed", "books.db"),
		mapping: filepath.Join(dir, "data_map.yaml"),
		data:    filepath.Join(dir, "raw"),
	}
	require.NoError(t, os.MkdirAll(e.data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.data, "20250811_cozy_mystery_raw_data.csv"), []byte(cozyCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.data, "20250811_thriller_raw_data.csv"), []byte(thrillerCSV), 0o644))
	require.NoError(t, os.WriteFile(e.mapping, []byte(testMapping), 0o644))
	return e
}

// run executes one command line against a fresh root command.
func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := e.runWithLogs(t, args...)
	return out, err
}

// runWithLogs is run that also returns what was logged to stderr.
func (e env) runWithLogs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	app := &App{}
	root := &cobra.Command{
		Use:          "bookdata",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init(cmd)
		},
	}
	app.BindFlags(root)
	root.AddCommand(NewCommands(app)...)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append(args, "--db", e.db, "--mapping", e.mapping))

	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (e env) ingest(t *testing.T) {
	t.Helper()
	_, err := e.run(t, "ingest", "--data-dir", e.data)
	require.NoError(t, err)
}

func TestIngestCommand(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "ingest", "--data-dir", e.data)
	require.NoError(t, err)
	assert.Contains(t, out, "DATABASE CREATION SUMMARY")
	assert.Contains(t, out, "Total books: 5")
	assert.Contains(t, out, "Successfully processed 2/2 files")

	// Replacing keeps the count stable, appending doubles it.
	_, err = e.run(t, "ingest", "--data-dir", e.data)
	require.NoError(t, err)
	out, err = e.run(t, "ingest", "--data-dir", e.data, "--replace=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Total books: 10")

	_, err = e.run(t, "ingest", "--data-dir", filepath.Join(e.dir, "empty"))
	assert.Error(t, err)
}

func TestReadCommandsNeedDatabase(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
}

func TestConfigWarningsAreLogged(t *testing.T) {
	e := newEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, logs, err := e.runWithLogs(t, "stats")
	require.Error(t, err)
	assert.Contains(t, logs, "Invalid log level: loud")
	assert.Contains(t, logs, "Database file not found")

	_, logs, err = e.runWithLogs(t, "ingest", "--data-dir", e.data)
	require.NoError(t, err)
	assert.Contains(t, logs, "Invalid log level: loud")
	assert.NotContains(t, logs, "Database file not found")
}

func TestQueryCommands(t *testing.T) {
	e := newEnv(t)
	e.ingest(t)

	t.Run("genres", func(t *testing.T) {
		out, err := e.run(t, "genres", "--format", "csv")
		require.NoError(t, err)
		assert.Equal(t, "code,display,book_count\ncozy_mystery,Cozy Mystery,3\nthriller,Thriller,2\n", out)
	})

	t.Run("stats", func(t *testing.T) {
		out, err := e.run(t, "stats", "--genre", "Thriller")
		require.NoError(t, err)
		assert.Contains(t, out, "Thriller")
		assert.NotContains(t, out, "Cozy Mystery")
	})

	t.Run("analytics", func(t *testing.T) {
		out, err := e.run(t, "analytics", "--format", "yaml", "--sort", "competition")
		require.NoError(t, err)
		assert.Contains(t, out, "metrics:")
		assert.Contains(t, out, "highlights:")
		assert.Less(t, strings.Index(out, "genre: Thriller"), strings.Index(out, "genre: Cozy Mystery"), "least competitive first")

		_, err = e.run(t, "analytics", "--sort", "bogus")
		assert.Error(t, err)

		_, err = e.run(t, "analytics", "--genre", "Nonexistent")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot compute market metrics")
	})

	t.Run("top", func(t *testing.T) {
		out, err := e.run(t, "top", "--limit", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "Murder at the Bakery")
		assert.Contains(t, out, "Silent Witness")
		assert.NotContains(t, out, "Knit One", "50 reviews is below the threshold")
		assert.Contains(t, out, "$4.99")
		assert.Contains(t, out, "1,500")
	})

	t.Run("search", func(t *testing.T) {
		out, err := e.run(t, "search", "--title", "POISON", "--format", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"Title": "Poison Pie"`)
		assert.NotContains(t, out, "Bakery")

		out, err = e.run(t, "search", "--min-price", "5")
		require.NoError(t, err)
		assert.Contains(t, out, "Silent Witness")
		assert.Contains(t, out, "Dark Water")
		assert.Contains(t, out, "2 books")

		out, err = e.run(t, "search", "--author", "nobody")
		require.NoError(t, err)
		assert.Equal(t, "No books found.\n", out)
	})

	t.Run("search query and pages", func(t *testing.T) {
		out, err := e.run(t, "search", "--query", "COZY")
		require.NoError(t, err)
		assert.Contains(t, out, "Murder at the Bakery", "topic tags are searchable")
		assert.Contains(t, out, "1 books")

		out, err = e.run(t, "search", "--query", "jane", "--format", "csv")
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

		t.Setenv("DEFAULT_PAGE_SIZE", "2")
		out, err = e.run(t, "search", "--page", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "Silent Witness")
		assert.Contains(t, out, "Poison Pie")
		assert.NotContains(t, out, "Knit One")
		assert.Contains(t, out, "2 books")

		out, err = e.run(t, "search", "--page", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "Dark Water")
		assert.Contains(t, out, "1 books")

		_, err = e.run(t, "search", "--page", "-1")
		assert.Error(t, err)
	})

	t.Run("dashboard", func(t *testing.T) {
		out, err := e.run(t, "dashboard")
		require.NoError(t, err)
		assert.Contains(t, out, "Total books:   5")
		assert.Contains(t, out, "Genres:        2")
		assert.Contains(t, out, "Unique authors by genre:")
		assert.NotContains(t, out, "with no books")

		out, err = e.run(t, "dashboard", "--format", "csv")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Cozy Mystery,3,3,2.99,4.53,1850", lines[1])

		out, err = e.run(t, "dashboard", "--genre", "Thriller", "--format", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"total_books": 2`)
		assert.NotContains(t, out, `"genre": "Cozy Mystery"`)
	})

	t.Run("prices", func(t *testing.T) {
		out, err := e.run(t, "prices")
		require.NoError(t, err)
		assert.Contains(t, out, "Books with a price: 5")
		assert.Contains(t, out, "Median price:       $4.99")
		assert.Contains(t, out, "Insights:")
	})

	t.Run("book", func(t *testing.T) {
		out, err := e.run(t, "book", "B000000001")
		require.NoError(t, err)
		assert.Contains(t, out, "Murder at the Bakery")
		assert.Contains(t, out, "Genre:               Cozy Mystery")
		assert.Contains(t, out, "Author Page:         https://example.com/author/B0AUTHOR001")

		_, err = e.run(t, "book", "B999999999")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no book with ASIN B999999999")
	})
}

func TestExportCommand(t *testing.T) {
	e := newEnv(t)
	e.ingest(t)

	booksPath := filepath.Join(e.dir, "books.parquet")
	out, err := e.run(t, "export", "--what", "books", "--output", booksPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 5 books rows")

	books, err := parquet.ReadFile[export.BookRow](booksPath)
	require.NoError(t, err)
	assert.Len(t, books, 5)

	metricsPath := filepath.Join(e.dir, "metrics.parquet")
	_, err = e.run(t, "export", "--what", "metrics", "--output", metricsPath)
	require.NoError(t, err)
	metrics, err := parquet.ReadFile[export.MetricsRow](metricsPath)
	require.NoError(t, err)
	assert.Len(t, metrics, 2)

	_, err = e.run(t, "export", "--what", "authors")
	assert.Error(t, err)

	t.Setenv("ENABLE_EXPORT", "false")
	_, err = e.run(t, "export", "--output", booksPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export is disabled")
}

func TestInspectCommand(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.data, "20250811_cozy_mystery_raw_data.csv")

	out, err := e.run(t, "inspect", path, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 rows")
	assert.Contains(t, out, "Genre: cozy_mystery (report date 8/11/25)")
	assert.Contains(t, out, "ROW 2/2")
	assert.Contains(t, out, "(float64)")
	assert.NotContains(t, out, "Knit One")

	_, err = os.Stat(e.db)
	assert.True(t, os.IsNotExist(err), "inspect never creates the database")
}

func TestInspectTruncatesLongValues(t *testing.T) {
	e := newEnv(t)
	blurb := strings.Repeat("é", 99) + "ü" + strings.Repeat("ö", 20)
	path := filepath.Join(e.dir, "blurbs.csv")
	require.NoError(t, os.WriteFile(path, []byte("Title,blurbText\nCrème Brûlée,"+blurb+"\n"), 0o644))

	out, err := e.run(t, "inspect", path)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("é", 97)+"...")
	assert.NotContains(t, out, "ö")
}
