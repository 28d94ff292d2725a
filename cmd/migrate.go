package cmd

import (
	"github.com/pviana/agenda/server"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the agenda database schema",
	Run: func(cmd *cobra.Command, args []string) {
		server.Migrate(serverConfig(), isDevEnv)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
