package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bookdata-explorer/bookdata/internal/cli"
)

func NewRootCmd() *cobra.Command {
	app := &cli.App{}

	cmd := &cobra.Command{
		Use:   "bookdata",
		Short: "Book market data explorer for per-genre bestseller exports",
		Long: `Bookdata ingests per-genre book exports into a local database and answers
questions about them: genre statistics, market opportunity analytics, top books,
search, pricing and single-book detail cards.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return app.Init(cmd)
		},
	}

	app.BindFlags(cmd)
	cmd.AddCommand(cli.NewCommands(app)...)

	return cmd
}
