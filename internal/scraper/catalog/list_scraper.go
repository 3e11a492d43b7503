package catalog

import (
	"context"

	"AUScraper/internal/browser"
	"AUScraper/internal/logger"
	"AUScraper/internal/models"
)

// pageScan is the result of one validation pass over a catalog page.
type pageScan struct {
	Candidates    []models.Candidate
	FirstHref     string
	NextAvailable bool
}

// CrawlCatalog loads entryURL and follows the "next page" control until it
// disappears, collecting item links along the way.
func (s *Scraper) CrawlCatalog(ctx context.Context, entryURL string) ([]models.Candidate, error) {
	page, err := s.Browser.NewPage(ctx)
	if err != nil {
		return nil, &NavigationError{URL: entryURL, Cause: err}
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Debug("failed to close catalog page", "error", err)
		}
	}()

	logger.Info("navigating to catalog", "url", entryURL)
	if err := page.Navigate(ctx, entryURL, s.CrawlerConf.NavigationTimeout); err != nil {
		return nil, &NavigationError{URL: entryURL, Cause: err}
	}
	s.dismissConsent(ctx, page)
	if title, err := page.Title(ctx); err == nil {
		logger.Info("catalog loaded", "title", title)
	}

	state := NewPageState()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scan := s.validatePage(ctx, page, state.PageNum)
		var added int
		state, added = state.Merge(scan.Candidates, scan.NextAvailable)
		logger.Info("page collected",
			"page", state.PageNum,
			"found", len(scan.Candidates),
			"new", added,
			"total", state.Len())

		if !state.NextAvailable {
			logger.Info("no next page, reached the end of the catalog", "page", state.PageNum)
			break
		}
		if s.CrawlerConf.MaxPages > 0 && state.PageNum >= s.CrawlerConf.MaxPages {
			logger.Warn("page cap reached, stopping pagination", "max_pages", s.CrawlerConf.MaxPages)
			break
		}
		if !s.advance(ctx, page, scan.FirstHref, state.PageNum) {
			break
		}
		state = state.Advance()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cands := state.Candidates()
	logger.Info("catalog crawl finished", "pages", state.PageNum, "candidates", len(cands))
	return cands, nil
}

func (s *Scraper) dismissConsent(ctx context.Context, page browser.Page) {
	if s.CatalogConf.ConsentSelector == "" {
		return
	}
	if page.Click(ctx, s.CatalogConf.ConsentSelector, s.CrawlerConf.ConsentTimeout) {
		logger.Debug("dismissed consent banner")
	}
}

// validatePage scans the current page until it looks fully rendered or the
// retry budget is spent. Exhausted retries keep the last scan.
func (s *Scraper) validatePage(ctx context.Context, page browser.Page, pageNum int) pageScan {
	policy := s.retryPolicy()
	for retries := 0; ; {
		scan := s.scanOnce(ctx, page)
		v := assessPage(len(scan.Candidates), scan.NextAvailable, retries, policy)
		logger.Debug("page scanned",
			"page", pageNum,
			"attempt", retries+1,
			"count", len(scan.Candidates),
			"next", scan.NextAvailable,
			"verdict", v)

		switch v {
		case verdictAccept:
			return scan
		case verdictGiveUp:
			logger.Warn("page still looks incomplete after retries, continuing with what was found",
				"page", pageNum, "count", len(scan.Candidates), "attempts", retries+1)
			return scan
		}

		retries++
		logger.Warn("page looks incomplete, retrying",
			"page", pageNum,
			"count", len(scan.Candidates),
			"min", policy.MinItems,
			"retry", retries)
		if err := sleep(ctx, s.CrawlerConf.RetryDelay); err != nil {
			return scan
		}
		if policy.reloadBefore(retries) {
			logger.Info("reloading page to force a fresh render", "page", pageNum)
			if err := page.Reload(ctx); err != nil {
				logger.Warn("reload failed", "page", pageNum, "error", err)
			}
			if err := sleep(ctx, s.CrawlerConf.ReloadSettle); err != nil {
				return scan
			}
		}
	}
}

func (s *Scraper) scanOnce(ctx context.Context, page browser.Page) pageScan {
	if !page.WaitForSelector(ctx, s.CatalogConf.ItemSelector, s.CrawlerConf.ContentWaitTimeout) {
		logger.Warn("timed out waiting for catalog items")
	}
	if err := page.Scroll(ctx, s.CrawlerConf.ScrollSteps, s.CrawlerConf.ScrollDistance, s.CrawlerConf.ScrollDelay); err != nil {
		logger.Debug("scroll interrupted", "error", err)
	}

	var scan pageScan
	markup, err := page.Content(ctx)
	if err != nil {
		logger.Warn("failed to read page content", "error", err)
	}
	scan.Candidates, scan.FirstHref = ParseListing(markup, s.CatalogConf.ItemSelector, s.CatalogConf.SiteOrigin)

	next, err := page.ControlState(ctx, s.CatalogConf.NextSelector)
	if err != nil {
		logger.Debug("failed to read next control state", "error", err)
	}
	scan.NextAvailable = next.Available()
	return scan
}

// advance clicks the next control and waits for the first item to change.
// It returns false when pagination must stop. A page that does not visibly
// change is only logged; MaxPages bounds a crawler that stays stuck.
func (s *Scraper) advance(ctx context.Context, page browser.Page, firstHref string, pageNum int) bool {
	logger.Debug("clicking next page", "page", pageNum)
	if !page.Click(ctx, s.CatalogConf.NextSelector, s.CrawlerConf.ClickTimeout) {
		logger.Error("could not click next page, stopping pagination", "page", pageNum)
		return false
	}
	if s.waitForPageChange(ctx, page, firstHref) {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	logger.Warn("page content did not change after clicking next, the crawler might be stuck", "page", pageNum)
	return true
}

func (s *Scraper) waitForPageChange(ctx context.Context, page browser.Page, before string) bool {
	for i := 0; i < s.CrawlerConf.AdvancePollAttempts; i++ {
		if err := sleep(ctx, s.CrawlerConf.AdvancePollInterval); err != nil {
			return false
		}
		markup, err := page.Content(ctx)
		if err != nil {
			continue
		}
		if first := FirstHref(markup, s.CatalogConf.ItemSelector); first != "" && first != before {
			return true
		}
	}
	return false
}
