package scraper

import (
	"context"

	"AUScraper/internal/models"
)

// Scraper defines the basic behavior for a catalog site: a paginated listing
// of items and one detail page per item.
type Scraper interface {
	// CrawlCatalog walks every listing page starting at entryURL and returns
	// the de-duplicated candidates in discovery order. Only a failure to load
	// the entry page is returned as an error.
	CrawlCatalog(ctx context.Context, entryURL string) ([]models.Candidate, error)

	// FetchDetail loads the candidate's detail page and extracts a record.
	// It never fails; problems are recorded in the record's Error field.
	FetchDetail(ctx context.Context, c models.Candidate) models.DetailRecord
}
