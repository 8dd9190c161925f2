package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "translatron",
	Short:         "Translate Twilio SMS conversations",
	Long:          "Translatron receives Twilio SMS webhooks, translates each message into the configured languages and hands the result to storage and forwarding actions.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (default $TRANSLATRON_CONFIG)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
