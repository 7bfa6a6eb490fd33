package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/bookdata-explorer/bookdata/internal/enhance"
	"github.com/bookdata-explorer/bookdata/internal/market"
	"github.com/bookdata-explorer/bookdata/internal/report"
	"github.com/bookdata-explorer/bookdata/internal/store"
)

// NewGenresCmd creates the genres command.
func NewGenresCmd(a *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List ingested genres with their display names",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				codes, err := s.GenreCodes(cmd.Context())
				if err != nil {
					return err
				}
				return report.Genres(cmd.OutOrStdout(), f, codes)
			})
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

// NewStatsCmd creates the stats command.
func NewStatsCmd(a *App) *cobra.Command {
	var format string
	var genres []string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-genre book counts and averages",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				stats, err := s.GenreStats(cmd.Context(), genres)
				if err != nil {
					return err
				}
				return report.Stats(cmd.OutOrStdout(), f, stats)
			})
		},
	}
	addFormatFlag(cmd, &format)
	addGenreFlag(cmd, &genres)
	return cmd
}

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd(a *App) *cobra.Command {
	var format string
	var genres []string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show an overview of the database: totals, prices, genres and authors",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				d, err := buildDashboard(cmd.Context(), s, genres)
				if err != nil {
					return err
				}
				if len(genres) == 0 {
					d.Missing = report.MissingGenres(a.mapping(), d.Genres)
				}
				return report.RenderDashboard(cmd.OutOrStdout(), f, d)
			})
		},
	}
	addFormatFlag(cmd, &format)
	addGenreFlag(cmd, &genres)
	return cmd
}

func buildDashboard(ctx context.Context, s *store.Store, genres []string) (*report.Dashboard, error) {
	var d report.Dashboard
	var err error

	if d.TotalBooks, err = s.BooksCount(ctx, genres); err != nil {
		return nil, err
	}
	all, err := s.Genres(ctx)
	if err != nil {
		return nil, err
	}
	d.Genres = all
	if len(genres) > 0 {
		d.Genres = nil
		for _, g := range all {
			if slices.Contains(genres, g) {
				d.Genres = append(d.Genres, g)
			}
		}
	}
	if d.Price, err = s.PriceStats(ctx, genres); err != nil {
		return nil, err
	}
	if d.Overview, err = s.GenreOverview(ctx, genres); err != nil {
		return nil, err
	}
	if d.Authors, err = s.AuthorsByGenre(ctx, genres); err != nil {
		return nil, err
	}
	return &d, nil
}

// NewAnalyticsCmd creates the analytics command.
func NewAnalyticsCmd(a *App) *cobra.Command {
	var format string
	var sortBy string
	var genres []string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Compare genres by market opportunity, competition and entry difficulty",
		Long: `Compute the comparative market metrics of the selected genres.

Competition and quality are relative to the largest genre in the selection, so the
numbers change with the --genre filter.`,
		Example: `  # All genres, most attractive opportunity first
  bookdata analytics

  # Two genres as YAML, least competitive first
  bookdata analytics --genre "Cozy Mystery" --genre Thriller --sort competition --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			key, err := market.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				stats, err := s.GenreStats(cmd.Context(), genres)
				if err != nil {
					return err
				}
				analysis, err := report.NewAnalysis(stats, key)
				if errors.Is(err, market.ErrPrecondition) {
					return fmt.Errorf("cannot compute market metrics: %w", err)
				}
				if err != nil {
					return err
				}
				return report.Analytics(cmd.OutOrStdout(), f, analysis)
			})
		},
	}
	addFormatFlag(cmd, &format)
	addGenreFlag(cmd, &genres)
	cmd.Flags().StringVar(&sortBy, "sort", string(market.SortOpportunity), "Sort by opportunity, competition, revenue or entry")
	return cmd
}

// NewTopCmd creates the top command.
func NewTopCmd(a *App) *cobra.Command {
	var format string
	var limit int
	var genres []string

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the best-rated books with more than 100 reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				books, err := s.TopBooks(cmd.Context(), limit, genres)
				if err != nil {
					return err
				}
				m := a.mapping()
				return report.Books(cmd.OutOrStdout(), f, enhance.New(m).EnhanceAll(books), m)
			})
		},
	}
	addFormatFlag(cmd, &format)
	addGenreFlag(cmd, &genres)
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of books to show")
	return cmd
}

// NewSearchCmd creates the search command.
func NewSearchCmd(a *App) *cobra.Command {
	var format string
	var p store.SearchParams
	var minRating, maxRating, minPrice, maxPrice float64
	var page int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search books by title, author, free text, genre, rating and price",
		Example: `  # Case-insensitive title search
  bookdata search --title bakery

  # Highly rated thrillers under $5
  bookdata search --genre Thriller --min-rating 4.5 --max-price 4.99

  # Free text over every searchable field, second page of results
  bookdata search --query "small town" --page 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("min-rating") {
				p.MinRating = &minRating
			}
			if flags.Changed("max-rating") {
				p.MaxRating = &maxRating
			}
			if flags.Changed("min-price") {
				p.MinPrice = &minPrice
			}
			if flags.Changed("max-price") {
				p.MaxPrice = &maxPrice
			}
			if page < 0 {
				return fmt.Errorf("invalid page: %d", page)
			}
			if page > 0 {
				size := a.Config.Search.DefaultPageSize
				if size <= 0 {
					size = 20
				}
				p.Limit = size
				p.Offset = (page - 1) * size
			}
			if p.Limit <= 0 {
				p.Limit = a.Config.Search.MaxResults
			}

			m := a.mapping()
			if p.Query != "" {
				p.Fields = m.SearchableFields()
			}

			return a.withStore(cmd.Context(), func(s *store.Store) error {
				books, err := s.Search(cmd.Context(), p)
				if err != nil {
					return err
				}
				return report.Books(cmd.OutOrStdout(), f, enhance.New(m).EnhanceAll(books), m)
			})
		},
	}
	addFormatFlag(cmd, &format)
	addGenreFlag(cmd, &p.Genres)
	cmd.Flags().StringVar(&p.Title, "title", "", "Title substring")
	cmd.Flags().StringVar(&p.Author, "author", "", "Author substring")
	cmd.Flags().StringVar(&p.Query, "query", "", "Substring matched against every searchable field of the data mapping")
	cmd.Flags().Float64Var(&minRating, "min-rating", 0, "Minimum average rating")
	cmd.Flags().Float64Var(&maxRating, "max-rating", 0, "Maximum average rating")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "Minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "Maximum price")
	cmd.Flags().IntVar(&p.Limit, "limit", 0, "Maximum number of results (default $MAX_SEARCH_RESULTS)")
	cmd.Flags().IntVar(&page, "page", 0, "Page of results, $DEFAULT_PAGE_SIZE per page (overrides --limit)")
	return cmd
}

// NewPricesCmd creates the prices command.
func NewPricesCmd(a *App) *cobra.Command {
	var format string
	var genres []string

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Summarize prices overall and per genre with pricing insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				ctx := cmd.Context()
				overall, err := s.PriceStats(ctx, genres)
				if err != nil {
					return err
				}
				byGenre, err := s.PricesByGenre(ctx, genres)
				if err != nil {
					return err
				}
				return report.Prices(cmd.OutOrStdout(), f, report.NewPriceReport(overall, byGenre))
			})
		},
	}
	addFormatFlag(cmd, &format)
	addGenreFlag(cmd, &genres)
	return cmd
}

// NewBookCmd creates the book command.
func NewBookCmd(a *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "book <ASIN>",
		Short: "Show one book as a detail card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *store.Store) error {
				b, err := s.BookByASIN(cmd.Context(), args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no book with ASIN %s", args[0])
				}
				if err != nil {
					return err
				}
				m := a.mapping()
				return report.Book(cmd.OutOrStdout(), f, enhance.New(m).Enhance(b), m)
			})
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}
