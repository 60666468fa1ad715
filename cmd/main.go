package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"options-tracker/config"
	"options-tracker/lib/translation"
)

var rootCmd = &cobra.Command{
	Use:   "options-tracker",
	Short: "Options trade tracker with price proximity alerts",
	Long: `options-tracker watches user entered PUT and CALL trades, polls the price of every
tracked ticker on a fixed interval and pushes a notification when the price nears the strike.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		setupLogging()
		translation.Configure(config.GetString("locales_dir"), config.GetString("lang"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, checkCmd, priceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if config.GetString("log_format") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.Debug("Starting options tracker...")
}
