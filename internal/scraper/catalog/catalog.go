// Package catalog scrapes a paginated class catalog and its detail pages.
package catalog

import (
	"context"
	"time"

	"AUScraper/internal/browser"
	"AUScraper/internal/scraper"
	"AUScraper/pkg/config"
)

// Scraper holds the browser and the config sections it needs.
type Scraper struct {
	Browser     browser.Browser
	CatalogConf config.CatalogConfig
	CrawlerConf config.CrawlerConfig
}

var _ scraper.Scraper = (*Scraper)(nil)

// New accepts the specific config structs it needs.
func New(b browser.Browser, catalogConf config.CatalogConfig, crawlerConf config.CrawlerConfig) *Scraper {
	return &Scraper{
		Browser:     b,
		CatalogConf: catalogConf,
		CrawlerConf: crawlerConf,
	}
}

func (s *Scraper) retryPolicy() retryPolicy {
	return retryPolicy{
		MinItems:      s.CrawlerConf.MinItemsPerPage,
		MaxRetries:    s.CrawlerConf.MaxRetries,
		ReloadOnRetry: s.CrawlerConf.ReloadOnRetry,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
