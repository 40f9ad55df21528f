package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath *string
var verbose *bool

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read, <name>.local.json5 is merged over it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug records.")
}

var rootCmd = &cobra.Command{
	Use:   "recipe-scraper",
	Short: "recipe-scraper scrapes recipes from eda.ru into a database and analyzes them.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
