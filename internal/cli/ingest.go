package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookdata-explorer/bookdata/internal/ingest"
	"github.com/bookdata-explorer/bookdata/internal/report"
)

// NewIngestCmd creates the ingest command, which builds the books table from a directory
// of per-genre exports.
func NewIngestCmd(a *App) *cobra.Command {
	var dataDir string
	var replace bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load per-genre spreadsheet exports into the books database",
		Long: `Load every supported file (.xlsx, .csv, .jsonl, .parquet) in the data directory
into the books table.

Files are expected to be named YYYYMMDD_<genre>_raw_data.<ext>; the genre code is
taken from the name and its display name from the data mapping. Files that cannot be
read are reported and skipped.`,
		Example: `  # Rebuild the database from data/raw
  bookdata ingest

  # Append a new export to an existing database
  bookdata ingest --data-dir ./exports --replace=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				dataDir = a.Config.Ingest.DataDir
			}
			return executeIngest(cmd, a, dataDir, replace)
		},
	}

	cmd.Annotations = map[string]string{annotationNoDatabase: "true"}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the input files (default $DATA_DIR or data/raw)")
	cmd.Flags().BoolVar(&replace, "replace", true, "Replace existing rows instead of appending")

	return cmd
}

func executeIngest(cmd *cobra.Command, a *App, dataDir string, replace bool) error {
	ctx := cmd.Context()

	s, err := a.createStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	p := &ingest.Pipeline{
		Store:   s,
		Mapping: a.mapping(),
		Replace: replace,
	}
	res, err := p.Run(ctx, dataDir)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	sum, err := s.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to summarize database: %w", err)
	}
	return report.IngestSummary(cmd.OutOrStdout(), res, sum, a.Config.DB.Path)
}
