// storefrontctl inspects the storefront's upstream data and maintains its
// database from the command line.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/config"
)

var (
	verbose bool
	timeout time.Duration
	output  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "storefrontctl",
	Short:         "Inspect and maintain the Kleinod storefront",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Write the result to a file instead of stdout")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(localesCmd)
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(subscriptionsCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	_ = godotenv.Load() // loads .env if present

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
