package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"AUScraper/internal/app"
	"AUScraper/internal/logger"
	"AUScraper/pkg/config"
)

var (
	configPath string
	debugLog   bool
	jsonLog    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "scraper",
	Short:         "Autodesk University class catalog scraper",
	Long:          "Crawls the paginated Autodesk University catalog, fetches every class page not yet collected and appends it to a JSON corpus.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Init(logger.Options{
			Debug: debugLog || cfg.Log.Debug,
			JSON:  jsonLog || cfg.Log.JSON,
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "Path to config.yml (missing file means defaults)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json", false, "Log as JSON lines")
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newApp() *app.App {
	return app.New(cfg)
}
