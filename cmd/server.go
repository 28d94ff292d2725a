package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/go-playground/validator"
	"github.com/pviana/agenda/colors"
	devConfig "github.com/pviana/agenda/dev/config"
	"github.com/pviana/agenda/server"
	"github.com/pviana/agenda/shared"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start an agenda server",
	Long:  `The agenda server exposes the phone book HTTP API & its weather suggestions`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(serverConfig(), isDevEnv)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

// serverConfig reads the server yaml config(creating the default dev config
// on first run in dev mode), overlays matching env vars & validates it.
func serverConfig() *shared.ServerConfig {
	config = viper.New()

	if isDevEnv && cfgFile == "" {
		cfgFile = devConfigFilePath()
	}

	config.SetConfigFile(cfgFile)
	config.AutomaticEnv() // read in environment variables that match

	if err := config.ReadInConfig(); err != nil {
		cobra.CheckErr(formattedError("error reading server config file: %v", err))
	}

	serverConfig := shared.ServerConfig{}
	if err := config.Unmarshal(&serverConfig); err != nil {
		cobra.CheckErr(formattedError("invalid server config: %v", err))
	}

	if err := validator.New().Struct(serverConfig); err != nil {
		cobra.CheckErr(formattedError("invalid server config: %v", err))
	}

	return &serverConfig
}

func devConfigFilePath() string {
	workingDir, err := os.Getwd()
	cobra.CheckErr(err)

	configFilePath := filepath.Join(workingDir, "dev", "config", "server.yml")

	// First dev run - write the default dev config
	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		cobra.CheckErr(os.MkdirAll(filepath.Dir(configFilePath), 0755))
		cobra.CheckErr(ioutil.WriteFile(configFilePath, []byte(devConfig.SERVER_YML), 0600))
	}

	return configFilePath
}

func formattedError(format string, a ...interface{}) error {
	return fmt.Errorf(colors.Red(format), a...)
}
