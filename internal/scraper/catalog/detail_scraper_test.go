package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AUScraper/internal/browser/browsertest"
	"AUScraper/internal/models"
)

const classURL = "https://www.autodesk.com/autodesk-university/class/bim-at-scale"

func TestFetchDetail_Success(t *testing.T) {
	site := newSite()
	site.Details = map[string]string{
		classURL: browsertest.DetailHTML(browsertest.Detail{
			Title:        "BIM at Scale",
			Summary:      "How large firms run BIM.",
			KeyLearnings: []string{"Standards", "Automation"},
			Tags:         [][2]string{{"Topics", "BIM"}},
		}),
	}
	s, _ := newTestScraper(site)

	rec := s.FetchDetail(context.Background(), models.Candidate{URL: classURL, Title: "bim at scale"})

	assert.Equal(t, "BIM at Scale", rec.Title)
	assert.Equal(t, "How large firms run BIM.", rec.Summary)
	assert.Equal(t, models.JSONStringSlice{"Standards", "Automation"}, rec.KeyLearnings)
	assert.Equal(t, models.JSONStringSlice{"BIM"}, rec.Tags.Topics)
	assert.Equal(t, models.JSONStringSlice{}, rec.Tags.Products)
	assert.Empty(t, rec.Error)

	stats := site.Stats()
	assert.Equal(t, 1, stats.Opened)
	assert.Equal(t, 1, stats.Closed)
}

func TestFetchDetail_SoftFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*browsertest.Site, *browsertest.Browser)
		wantErr string
	}{
		{
			name: "navigation timeout",
			setup: func(s *browsertest.Site, _ *browsertest.Browser) {
				s.NavigateErrs = map[string]error{classURL: errors.New("navigation timeout")}
			},
			wantErr: "navigation to " + classURL + " failed: navigation timeout",
		},
		{
			name: "content read fails",
			setup: func(s *browsertest.Site, _ *browsertest.Browser) {
				s.ContentErrs = map[string]error{classURL: errors.New("target closed")}
			},
			wantErr: "failed to read page content: target closed",
		},
		{
			name: "panic during fetch",
			setup: func(s *browsertest.Site, _ *browsertest.Browser) {
				s.PanicURLs = map[string]bool{classURL: true}
			},
			wantErr: "panic while scraping: scripted panic for " + classURL,
		},
		{
			name: "access denied",
			setup: func(s *browsertest.Site, _ *browsertest.Browser) {
				s.Details = map[string]string{classURL: "<html><body><h1>Access Denied</h1></body></html>"}
			},
			wantErr: "access denied",
		},
		{
			name: "page cannot be opened",
			setup: func(_ *browsertest.Site, b *browsertest.Browser) {
				b.NewPageErr = errors.New("browser gone")
			},
			wantErr: "failed to open page: browser gone",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			site := newSite()
			s, b := newTestScraper(site)
			tc.setup(site, b)

			c := models.Candidate{URL: classURL, Title: "BIM at Scale"}
			rec := s.FetchDetail(context.Background(), c)

			assert.Equal(t, tc.wantErr, rec.Error)
			assert.True(t, rec.Failed())
			assert.Equal(t, classURL, rec.URL)
			assert.NotNil(t, rec.KeyLearnings)
			assert.NotNil(t, rec.Tags.Topics)

			stats := site.Stats()
			assert.Equal(t, stats.Opened, stats.Closed, "page must be released on every path")
		})
	}
}

func TestFetch_OutcomeCarriesTypedError(t *testing.T) {
	site := newSite()
	site.Details = map[string]string{classURL: "<html><head><title>Access Denied</title></head><body>You don't have permission to access this server.</body></html>"}
	s, _ := newTestScraper(site)

	out := s.Fetch(context.Background(), models.Candidate{URL: classURL, Title: "Listing"})
	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, ErrAccessDenied)
	assert.Equal(t, "Listing", out.Record.Title)
	assert.Empty(t, out.Record.Error, "Fetch leaves folding to FetchDetail")
}
