package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"AUScraper/internal/batch"
	"AUScraper/internal/browser"
	"AUScraper/internal/database"
	"AUScraper/internal/logger"
	"AUScraper/internal/models"
	"AUScraper/internal/scraper"
	"AUScraper/internal/scraper/catalog"
	"AUScraper/internal/store"
	"AUScraper/pkg/config"
	"AUScraper/utils"
)

// App is the main application structure holding all dependencies.
type App struct {
	Config *config.Config
	Store  *store.Store
	// NewBrowser launches the rendering backend; tests swap it.
	NewBrowser func(config.BrowserConfig) (browser.Browser, error)
}

// New creates a new application instance from cfg.
func New(cfg *config.Config) *App {
	return &App{
		Config:     cfg,
		Store:      store.New(cfg.Storage.CorpusPath),
		NewBrowser: browser.New,
	}
}

func (a *App) newScraper(b browser.Browser) scraper.Scraper {
	return catalog.New(b, a.Config.Catalog, a.Config.Crawler)
}

// RunScrape executes the whole pipeline: load the corpus, crawl the catalog,
// drop known candidates, fetch details in batches, then merge and persist.
// limit > 0 caps how many new candidates are fetched.
func (a *App) RunScrape(ctx context.Context, limit int) (models.RunSummary, error) {
	summary := models.RunSummary{ID: uuid.NewString(), StartedAt: time.Now()}
	log := logger.With("run", summary.ID)

	summary, err := a.runScrape(ctx, limit, summary, log)
	summary.EndedAt = time.Now()
	a.recordRun(summary, err)
	return summary, err
}

func (a *App) runScrape(ctx context.Context, limit int, summary models.RunSummary, log *slog.Logger) (models.RunSummary, error) {
	// 1. Load what previous runs collected.
	existing, err := a.Store.Load()
	if err != nil {
		log.Error("could not load existing corpus, starting from an empty one", "path", a.Store.Path, "error", err)
	}
	log.Info("loaded existing records", "count", len(existing))
	summary.Total = len(existing)

	// 2. Crawl the catalog with a single browser for the whole run.
	b, err := a.NewBrowser(a.Config.Browser)
	if err != nil {
		return summary, fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("failed to close browser", "error", err)
		}
	}()
	sc := a.newScraper(b)

	candidates, err := sc.CrawlCatalog(ctx, a.Config.Catalog.EntryURL)
	if err != nil {
		return summary, fmt.Errorf("failed to crawl catalog: %w", err)
	}
	summary.Found = len(candidates)
	log.Info("found candidates on the catalog", "count", summary.Found)

	// 3. Keep only what is not in the corpus yet.
	toScrape := store.FilterNew(candidates, existing)
	if limit > 0 && len(toScrape) > limit {
		log.Info("applying limit", "limit", limit, "dropped", len(toScrape)-limit)
		toScrape = toScrape[:limit]
	}
	summary.Filtered = len(toScrape)
	log.Info("new classes to scrape after deduplication", "count", summary.Filtered)

	if len(toScrape) == 0 {
		log.Info("no new classes, corpus left untouched")
		log.Info("run complete", "summary", summary.String())
		return summary, nil
	}

	// 4. Fetch details in sequential batches of concurrent pages.
	size := utils.GetBatchSize(a.Config.Scraper.BatchSize)
	progress := make(chan batch.Progress, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			log.Info("batch finished", "batch", p.Batch, "of", p.Batches, "done", p.Done, "total", p.Total)
		}
	}()
	records := batch.Run(ctx, batch.Scheduler{Size: size, Progress: progress}, toScrape, sc.FetchDetail)
	close(progress)
	<-done

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run interrupted before saving: %w", err)
	}

	// 5. Append and persist.
	final := store.Merge(existing, records)
	if err := a.Store.Persist(final); err != nil {
		return summary, err
	}

	summary.New = len(records)
	summary.Total = len(final)
	for _, r := range records {
		if r.Failed() {
			summary.Failed++
		}
	}
	if summary.Failed > 0 {
		log.Warn("some classes were saved with errors", "failed", summary.Failed)
	}

	a.syncIndex(final)
	log.Info("run complete", "summary", summary.String(), "path", a.Store.Path)
	return summary, nil
}

// syncIndex refreshes the sqlite mirror. Failures never fail the run.
func (a *App) syncIndex(corpus models.Corpus) {
	if a.Config.Storage.IndexPath == "" {
		return
	}
	repo, err := database.InitDB(a.Config.Storage.IndexPath)
	if err != nil {
		logger.Warn("could not open corpus index", "path", a.Config.Storage.IndexPath, "error", err)
		return
	}
	defer repo.Close()
	if err := repo.SyncCorpus(corpus); err != nil {
		logger.Warn("could not sync corpus index", "error", err)
		return
	}
	logger.Debug("corpus index synced", "records", len(corpus))
}

func (a *App) recordRun(summary models.RunSummary, runErr error) {
	if a.Config.Storage.IndexPath == "" {
		return
	}
	repo, err := database.InitDB(a.Config.Storage.IndexPath)
	if err != nil {
		logger.Warn("could not open run ledger", "error", err)
		return
	}
	defer repo.Close()

	run := models.RunRecord{RunSummary: summary, Status: models.RunSucceeded}
	if runErr != nil {
		run.Status = models.RunFailed
		run.Error = runErr.Error()
	}
	if err := repo.RecordRun(run); err != nil {
		logger.Warn("could not record run", "error", err)
	}
}

// RunDebugSnapshot opens the catalog entry page and saves a full-page
// screenshot and the rendered HTML into outDir. It returns the written paths.
func (a *App) RunDebugSnapshot(ctx context.Context, outDir string) ([]string, error) {
	if outDir == "" {
		outDir = a.Config.Storage.DebugDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}

	b, err := a.NewBrowser(a.Config.Browser)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer b.Close()

	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	url := a.Config.Catalog.EntryURL
	logger.Info("navigating to catalog", "url", url)
	if err := page.Navigate(ctx, url, a.Config.Crawler.NavigationTimeout); err != nil {
		return nil, &catalog.NavigationError{URL: url, Cause: err}
	}
	if !page.WaitForSelector(ctx, a.Config.Catalog.ItemSelector, a.Config.Crawler.ContentWaitTimeout) {
		logger.Warn("timed out waiting for catalog items, capturing anyway")
	}
	if title, err := page.Title(ctx); err == nil {
		logger.Info("page loaded", "title", title)
	}

	shot, err := page.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	markup, err := page.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{"screenshot.png", shot},
		{"page.html", []byte(markup)},
	}
	var paths []string
	for _, f := range files {
		path := filepath.Join(outDir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Info("saved debug artifact", "path", path, "size", humanize.Bytes(uint64(len(f.data))))
		paths = append(paths, path)
	}
	return paths, nil
}

// ProbeResult is what RunProbe learned about a single detail page.
type ProbeResult struct {
	PageTitle    string              `json:"page_title"`
	AccessDenied bool                `json:"access_denied"`
	Record       models.DetailRecord `json:"record"`
}

// RunProbe fetches one detail page and reports its title, whether the site
// blocked us and the extracted record.
func (a *App) RunProbe(ctx context.Context, url string) (ProbeResult, error) {
	var res ProbeResult

	b, err := a.NewBrowser(a.Config.Browser)
	if err != nil {
		return res, fmt.Errorf("failed to start browser: %w", err)
	}
	defer b.Close()

	page, err := b.NewPage(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, url, a.Config.Crawler.DetailTimeout); err != nil {
		return res, &catalog.NavigationError{URL: url, Cause: err}
	}
	if title, err := page.Title(ctx); err == nil {
		res.PageTitle = title
	}
	markup, err := page.Content(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to read page content: %w", err)
	}

	rec, err := catalog.ExtractDetail(markup, models.Candidate{URL: url}, catalog.ExtractOptions{ChipSelector: a.Config.Catalog.ChipSelector})
	if err != nil {
		rec.Error = err.Error()
	}
	res.AccessDenied = rec.Error == catalog.ErrAccessDenied.Error()
	res.Record = rec.Normalize()
	return res, nil
}

// WriteJSON pretty prints v to path, or to stdout when path is "-".
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if path == "-" || path == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
