package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "inventory",
		Short: "In-memory inventory with stock reports",
		Long: `inventory keeps an in-memory list of items, validates new items,
derives their SKU codes and reports on what is in stock.

Configuration is read from the environment (or a .env file):
  LOG_LEVEL, ENVIRONMENT, INVENTORY_NAME, SERVICE_NAME,
  SERVICE_VERSION, PRINT_METRICS`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(skuCmd)
}
