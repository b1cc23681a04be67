// Package commands implements the catalog-sync CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "catalog-sync",
	Short: "Product catalog synchronization pipeline",
	Long: `catalog-sync ingests a merchant's product catalog from a storefront JSON
feed and a scanned PDF catalog, normalizes it into a canonical product set,
acquires product images, exports everything to a relational store, assigns
categories, and publishes products to a remote storefront.

Each stage is rerunnable on its own; state is recovered from the artifacts
and rows the previous stage already wrote.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
