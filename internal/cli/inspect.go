package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookdata-explorer/bookdata/internal/format"
	"github.com/bookdata-explorer/bookdata/internal/ingest"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd(a *App) *cobra.Command {
	var limit int
	var interactive bool
	var validate bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Preview rows of an input file without touching the database",
		Long: `Inspect rows from an .xlsx, .csv, .jsonl or .parquet input file.

This command is useful for checking column names, coercion of numeric cells and
data quality issues before running an ingest.`,
		Example: `  # First 5 rows, one at a time
  bookdata inspect data/raw/20250811_cozy_mystery_raw_data.xlsx --limit 5 --interactive

  # Whole file with validation
  bookdata inspect books.csv --limit 0 --validate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInspect(cmd, args[0], limit, interactive, validate)
		},
	}

	cmd.Annotations = map[string]string{annotationNoDatabase: "true"}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of rows to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each row (press Enter to continue)")
	cmd.Flags().BoolVar(&validate, "validate", true, "Report data quality issues")

	return cmd
}

func executeInspect(cmd *cobra.Command, path string, limit int, interactive, validate bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	loader := ingest.NewLoader(path)

	var t ingest.Table
	var err error
	if limit > 0 {
		t, err = loader.LoadSample(limit)
	} else {
		t, err = loader.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}

	genre, date := ingest.GenreFromFilename(path)
	fmt.Fprintf(out, "Loaded %d rows from %s\n", len(t.Rows), path)
	fmt.Fprintf(out, "Genre: %s", genre)
	if d, ok := format.ReportDate(date); ok {
		fmt.Fprintf(out, " (report date %s)", d)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Columns (%d): %s\n", len(t.Columns), strings.Join(t.Columns, ", "))
	fmt.Fprintln(out, strings.Repeat("=", 80))

	if validate {
		for _, issue := range ingest.Validate(t, path) {
			fmt.Fprintf(out, "⚠️  %s\n", issue)
		}
	}
	fmt.Fprintln(out)

	width := 0
	for _, c := range t.Columns {
		width = max(width, len(c))
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	for i, row := range t.Rows {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(out, "ROW %d/%d\n", i+1, len(t.Rows))
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, c := range t.Columns {
			v, ok := row[c]
			if !ok || v == nil {
				continue
			}
			text := format.Truncate(format.Plain(v), 100)
			fmt.Fprintf(out, "%-*s  %s (%T)\n", width, c, text, v)
		}
		fmt.Fprintln(out)

		if !interactive {
			continue
		}
		fmt.Fprint(out, "Press Enter to continue to next row (or Ctrl+C to quit)...")

		inputCh := make(chan struct{})
		go func() {
			_, _ = reader.ReadString('\n')
			close(inputCh)
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInspection interrupted.")
			return nil
		case <-inputCh:
			fmt.Fprintln(out)
		}
	}

	return nil
}

