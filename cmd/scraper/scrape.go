package main

import (
	"github.com/spf13/cobra"

	"AUScraper/internal/logger"
)

var scrapeLimit int

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl the catalog and append new classes to the corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()

		limit := cfg.Scraper.Limit
		if cmd.Flags().Changed("limit") {
			limit = scrapeLimit
		}

		summary, err := newApp().RunScrape(ctx, limit)
		if err != nil {
			return err
		}
		logger.Info("corpus saved", "path", cfg.Storage.CorpusPath, "total", summary.Total, "new", summary.New, "failed", summary.Failed)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "Fetch at most this many new classes (0 means all)")
	rootCmd.AddCommand(scrapeCmd)
}
