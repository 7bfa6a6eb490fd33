// Package cli holds the cobra commands of the bookdata tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookdata-explorer/bookdata/internal/config"
	"github.com/bookdata-explorer/bookdata/internal/logging"
	"github.com/bookdata-explorer/bookdata/internal/store"
	"github.com/bookdata-explorer/bookdata/internal/taxonomy"
)

// annotationNoDatabase marks commands that create the database or never read it, so a
// missing database is not worth a warning.
const annotationNoDatabase = "bookdata/no-database"

// App is the state shared by every command: the resolved configuration and the values
// of the root command's persistent flags.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DBPath      string
	MappingPath string
	Verbose     bool
}

// BindFlags registers the persistent flags on the root command.
func (a *App) BindFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&a.DBPath, "db", "", "Path to the books database (default $DB_PATH or data/processed/books_data.db)")
	root.PersistentFlags().StringVar(&a.MappingPath, "mapping", "", "Path to the data mapping YAML (default $MAPPING_PATH or data_map.yaml)")
	root.PersistentFlags().BoolVar(&a.Verbose, "verbose", false, "Verbose logging")
}

// Init loads the configuration, applies flag overrides and installs the logger. It is
// run before every command.
func (a *App) Init(cmd *cobra.Command) error {
	cfg := config.Load()
	if a.DBPath != "" {
		cfg.DB.Path = a.DBPath
	}
	if a.MappingPath != "" {
		cfg.Ingest.MappingPath = a.MappingPath
	}
	a.Config = cfg

	level := cfg.Logger.Level
	if a.Verbose {
		level = "debug"
	}
	a.Logger = logging.Setup(level, cfg.Logger.Format, cmd.ErrOrStderr())

	warnings := cfg.Validate
	if cmd.Annotations[annotationNoDatabase] == "true" {
		warnings = cfg.ValidateSettings
	}
	for _, w := range warnings() {
		slog.Warn("Configuration warning", "warning", w)
	}
	return nil
}

// NewCommands returns every subcommand.
func NewCommands(a *App) []*cobra.Command {
	return []*cobra.Command{
		NewIngestCmd(a),
		NewGenresCmd(a),
		NewStatsCmd(a),
		NewDashboardCmd(a),
		NewAnalyticsCmd(a),
		NewTopCmd(a),
		NewSearchCmd(a),
		NewPricesCmd(a),
		NewBookCmd(a),
		NewExportCmd(a),
		NewInspectCmd(a),
	}
}

func (a *App) mapping() *taxonomy.Mapping {
	return taxonomy.Load(a.Config.Ingest.MappingPath)
}

// openStore opens an existing database for reading.
func (a *App) openStore(ctx context.Context) (*store.Store, error) {
	path := a.Config.DB.Path
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s (run the ingest command first)", path)
	}
	return a.createStore(ctx)
}

// createStore opens the database, creating the file when needed.
func (a *App) createStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(ctx, a.Config.DB.Path, a.Logger)
	if err != nil {
		return nil, err
	}
	s.SetLogQueries(a.Config.Logger.Queries)
	return s, nil
}

// withStore runs fn against the database and closes it afterwards.
func (a *App) withStore(ctx context.Context, fn func(*store.Store) error) error {
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		if errors.Is(err, store.ErrNoBooksTable) {
			return fmt.Errorf("%w: run the ingest command first", err)
		}
		return err
	}
	return nil
}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", "text", "Output format (text, json, csv, yaml)")
}

func addGenreFlag(cmd *cobra.Command, genres *[]string) {
	cmd.Flags().StringSliceVar(genres, "genre", nil, "Restrict to these genres by display name (repeatable)")
}
