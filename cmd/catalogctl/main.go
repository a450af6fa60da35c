// Package main is the operator CLI for the course catalog crawler.
package main

import (
	"fmt"
	"os"

	"coursecrawler/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	storeDriver string
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Course catalog crawler tools",
	Long:  "catalogctl applies the database schema and runs catalog crawls in the foreground, without the HTTP server or task queue.",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if storeDriver != "" {
			_ = os.Setenv("STORE_DRIVER", storeDriver)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CATALOG_CONFIG_FILE"), "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Store driver: postgres or memory (defaults to STORE_DRIVER)")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
