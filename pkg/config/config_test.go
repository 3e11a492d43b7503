package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, "5", cfg.Scraper.BatchSize)
	assert.Equal(t, 15, cfg.Crawler.MinItemsPerPage)
	assert.Equal(t, 3, cfg.Crawler.MaxRetries)
	assert.Equal(t, 2, cfg.Crawler.ReloadOnRetry)
	assert.Equal(t, "data/au_2025.json", cfg.Storage.CorpusPath)
	assert.Equal(t, "rod", cfg.Browser.Backend)
}

func TestLoadConfig_OverridesAndDurations(t *testing.T) {
	path := writeConfig(t, `
scraper:
  batch_size: auto
crawler:
  min_items_per_page: 12
  retry_delay: 250ms
  max_pages: 4
browser:
  backend: chromedp
  headless: true
storage:
  corpus_path: out/corpus.json
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Scraper.BatchSize)
	assert.Equal(t, 12, cfg.Crawler.MinItemsPerPage)
	assert.Equal(t, 250*time.Millisecond, cfg.Crawler.RetryDelay)
	assert.Equal(t, 4, cfg.Crawler.MaxPages)
	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.Crawler.MaxRetries)
	assert.Equal(t, "chromedp", cfg.Browser.Backend)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "out/corpus.json", cfg.Storage.CorpusPath)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AU_CORPUS_PATH", "/tmp/x.json")
	t.Setenv("AU_INDEX_PATH", "")
	t.Setenv("AU_HEADLESS", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.json", cfg.Storage.CorpusPath)
	assert.Empty(t, cfg.Storage.IndexPath)
	assert.True(t, cfg.Browser.Headless)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad batch size", "scraper:\n  batch_size: many\n"},
		{"zero batch size", "scraper:\n  batch_size: \"0\"\n"},
		{"unknown backend", "browser:\n  backend: selenium\n"},
		{"negative limit", "scraper:\n  limit: -1\n"},
		{"bad entry url", "catalog:\n  entry_url: not a url\n"},
		{"malformed yaml", "scraper: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}
