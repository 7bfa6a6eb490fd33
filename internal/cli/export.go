package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bookdata-explorer/bookdata/internal/export"
	"github.com/bookdata-explorer/bookdata/internal/market"
	"github.com/bookdata-explorer/bookdata/internal/store"
)

// NewExportCmd creates the export command.
func NewExportCmd(a *App) *cobra.Command {
	var what string
	var output string
	var genres []string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write books or genre metrics to a Parquet file",
		Example: `  # Every book
  bookdata export --what books --output books.parquet

  # Market metrics of two genres
  bookdata export --what metrics --genre "Cozy Mystery" --genre Thriller --output metrics.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.Config.Feature.Export {
				return errors.New("export is disabled (ENABLE_EXPORT=false)")
			}
			if output == "" {
				output = what + ".parquet"
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				n, err := executeExport(cmd, s, what, output, genres)
				if err != nil {
					return err
				}
				slog.Info("Export complete", "what", what, "rows", n, "path", output)
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %d %s rows to %s\n", n, what, output)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&what, "what", "books", "What to export (books or metrics)")
	cmd.Flags().StringVar(&output, "output", "", "Output Parquet file (default <what>.parquet)")
	addGenreFlag(cmd, &genres)
	return cmd
}

func executeExport(cmd *cobra.Command, s *store.Store, what, output string, genres []string) (int, error) {
	ctx := cmd.Context()
	switch what {
	case "books":
		books, err := s.AllBooks(ctx, genres)
		if err != nil {
			return 0, err
		}
		return len(books), export.WriteBooks(output, books)
	case "metrics":
		stats, err := s.GenreStats(ctx, genres)
		if err != nil {
			return 0, err
		}
		metrics, err := market.Augment(stats)
		if err != nil {
			return 0, fmt.Errorf("cannot compute market metrics: %w", err)
		}
		market.Sort(metrics, market.SortOpportunity)
		return len(metrics), export.WriteMetrics(output, metrics)
	default:
		return 0, fmt.Errorf("unknown export %q (want books or metrics)", what)
	}
}
