package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cloudrun-items/items-api/internal/db/engine"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Connect to the database, create the schema and exit",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := engine.Open(commandContext(cmd), &cfg)
		if err != nil {
			return err //nolint:wrapcheck
		}

		log.Info().Str("engine", cfg.DB.Engine).Msg("schema is up to date")

		return e.Close() //nolint:wrapcheck
	},
}
