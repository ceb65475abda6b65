package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "wiretap",
	Short: "wiretap exercises the network-telemetry interception core against live URLs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger once --log-level and env overrides
		// have been parsed
		initLogger()
	},
}

func initLogger() {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(level)
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "zerolog level (trace, debug, info, warn, error)")
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
	viper.SetEnvPrefix("WIRETAP")
	viper.AutomaticEnv()

	rootCmd.AddCommand(newProbeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
