package cmd

import (
	"fmt"

	"github.com/pviana/agenda/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	config   *viper.Viper
	isDevEnv bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd *cobra.Command

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd = createRootCmd()
	rootCmd.Version = fmt.Sprintf("v%s", version.Version)
}

func createRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "agenda is a phone book API server",
		Long: `agenda serves a phone book HTTP API: contacts with addresses,
emails and phone numbers, plus a weather-based suggestion for the best way
to reach out to each contact today.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "sconfig", "", "server config file")
	cmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode")

	return cmd
}
