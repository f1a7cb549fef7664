package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/mojokv/pkg/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mojokv",
	Short: "Introspect and drive a mojokv store",
	Long: `mojokv is an introspection and maintenance CLI for a versioned,
page-oriented key-value store: view the store's internal state, dump a
bucket's index, force a commit, diff two committed versions, and truncate
a bucket.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(iviewCmd)
	rootCmd.AddCommand(igetCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(truncateCmd)
	rootCmd.AddCommand(metricsServeCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
