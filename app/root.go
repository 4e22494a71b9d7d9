// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/cloudrun-items/items-api/internal/config"
)

var configPath string // Path to the configuration directory

var rootCmd = &cobra.Command{
	Use:   "items-api",
	Short: "items-api stores and lists items in a Cloud SQL database",
	Long: `items-api is a small HTTP service that creates and lists items
in a Cloud SQL database reached through the Cloud SQL Go connector.`,
	Args:         cobra.OnlyValidArgs,
	SilenceUsage: true,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"./etc/",
		"directory holding "+config.ConfigFileName,
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
