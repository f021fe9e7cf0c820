package main

import (
	"os"

	"github.com/dhavalsavalia/camlaunch/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "camlaunch",
	Short: "Launch an application when a USB camera is plugged in",
	Long: `camlaunch watches the USB bus for video-class devices and brings a
companion application to the foreground whenever a camera arrives.`,
	SilenceUsage: true,
}

var rootConfigPath string

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "path to config file (default $XDG_CONFIG_HOME/camlaunch/config.toml)")
	rootCmd.AddCommand(
		newRunCmd(),
		newDevicesCmd(),
		newCheckCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	if err := config.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("cannot load .env")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("camlaunch command failed")
	}
}
