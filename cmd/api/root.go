package main

import (
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"propertyapi/internal/config"
	"propertyapi/internal/logging"
)

var (
	cfg    *config.AppConfig
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:               "propertyapi",
	Short:             "Property listing API",
	Long:              "HTTP API for property listings with image uploads, filtering and budget tiers.",
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	// Running the binary without a subcommand starts the server.
	rootCmd.RunE = runServe
}

func initializeApp(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	logger = logging.New(os.Stdout, logging.ParseLevel(cfg.LogLevel), cfg.Location())
	slog.SetDefault(logger)
	return nil
}
