package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	backendURL   string
	logLevel     string
	logFormat    string
	outputFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "playoffcache",
		Short:        "Playoff analytics cache daemon and tools",
		Long:         "Namespaced TTL cache for playoff prediction analytics, with an optional Redis or Postgres mirror",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Durable backend URL (redis://, rediss://, postgres://)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")

	rootCmd.AddCommand(
		serveCmd(),
		benchCmd(),
		pingCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
