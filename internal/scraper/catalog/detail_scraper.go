package catalog

import (
	"context"
	"fmt"

	"AUScraper/internal/logger"
	"AUScraper/internal/models"
)

// Outcome is the typed result of a detail fetch. Err is a soft failure: the
// record is still usable and is kept in the corpus.
type Outcome struct {
	Record models.DetailRecord
	Err    error
}

// FetchDetail folds the outcome's error into the record.
func (s *Scraper) FetchDetail(ctx context.Context, c models.Candidate) models.DetailRecord {
	out := s.Fetch(ctx, c)
	rec := out.Record
	if out.Err != nil {
		rec.Error = out.Err.Error()
		logger.Error("failed to scrape detail page", "url", c.URL, "error", out.Err)
	} else {
		logger.Debug("scraped detail page", "url", c.URL, "title", rec.Title)
	}
	return rec.Normalize()
}

// Fetch opens a fresh page for c, extracts it and always closes the page.
// Panics during the fetch are recovered into Err.
func (s *Scraper) Fetch(ctx context.Context, c models.Candidate) (out Outcome) {
	out.Record = models.NewDetailRecord(c)
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic while scraping: %v", r)
		}
	}()

	page, err := s.Browser.NewPage(ctx)
	if err != nil {
		out.Err = fmt.Errorf("failed to open page: %w", err)
		return out
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Debug("failed to close detail page", "url", c.URL, "error", err)
		}
	}()

	if err := page.Navigate(ctx, c.URL, s.CrawlerConf.DetailTimeout); err != nil {
		out.Err = &NavigationError{URL: c.URL, Cause: err}
		return out
	}
	markup, err := page.Content(ctx)
	if err != nil {
		out.Err = fmt.Errorf("failed to read page content: %w", err)
		return out
	}

	out.Record, out.Err = ExtractDetail(markup, c, ExtractOptions{ChipSelector: s.CatalogConf.ChipSelector})
	return out
}
