package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linear-board-sync/credential"
	"linear-board-sync/logging"
	"linear-board-sync/models"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "linear-board-sync",
	Short: "Mirror a Linear custom view onto a static kanban page and sync moves back",
	Long: `linear-board-sync renders a Linear custom view as a static kanban board
(generate) and runs the small proxy that applies drag-and-drop moves to
Linear without exposing the API key to the browser (serve).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (optional, uses environment variables by default)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
}

// setup loads the configuration and builds the logger shared by every command
func setup() (*models.Config, *zap.Logger, error) {
	config, err := models.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(config)
	resolveAPIKey(config, logger)
	return config, logger, nil
}

// resolveAPIKey falls back to the OS keyring when no API key is configured
func resolveAPIKey(config *models.Config, logger *zap.Logger) {
	if config.HasAPIKey() || config.Linear.KeyringService == "" {
		return
	}

	key, err := credential.LookupAPIKey(config.Linear.KeyringService)
	if err != nil {
		logger.Warn("Failed to read Linear API key from keyring", zap.String("service", config.Linear.KeyringService), zap.Error(err))
		return
	}
	if key == "" {
		logger.Warn("No Linear API key stored in keyring", zap.String("service", config.Linear.KeyringService))
		return
	}

	config.Linear.APIKey = key
	logger.Info("Loaded Linear API key from keyring", zap.String("service", config.Linear.KeyringService))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
