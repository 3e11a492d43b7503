package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ScraperConfig holds general pipeline settings.
type ScraperConfig struct {
	// BatchSize is a positive integer or "auto".
	BatchSize string `yaml:"batch_size" validate:"required"`
	Limit     int    `yaml:"limit" validate:"gte=0"`
}

// CatalogConfig describes the catalog and detail page shape.
type CatalogConfig struct {
	EntryURL        string `yaml:"entry_url" validate:"required,url"`
	SiteOrigin      string `yaml:"site_origin" validate:"required,url"`
	ItemSelector    string `yaml:"item_selector" validate:"required"`
	NextSelector    string `yaml:"next_selector" validate:"required"`
	ConsentSelector string `yaml:"consent_selector"`
	ChipSelector    string `yaml:"chip_selector" validate:"required"`
}

// CrawlerConfig holds the tuning knobs of the pagination loop.
type CrawlerConfig struct {
	MinItemsPerPage int `yaml:"min_items_per_page" validate:"gte=0"`
	MaxRetries      int `yaml:"max_retries" validate:"gte=1"`
	// ReloadOnRetry is the retry number that forces a full reload. Negative disables it.
	ReloadOnRetry int           `yaml:"reload_on_retry"`
	RetryDelay    time.Duration `yaml:"retry_delay" validate:"gte=0"`
	ReloadSettle  time.Duration `yaml:"reload_settle" validate:"gte=0"`

	ScrollSteps    int           `yaml:"scroll_steps" validate:"gte=0"`
	ScrollDistance int           `yaml:"scroll_distance" validate:"gte=0"`
	ScrollDelay    time.Duration `yaml:"scroll_delay" validate:"gte=0"`

	NavigationTimeout  time.Duration `yaml:"navigation_timeout" validate:"gt=0"`
	ContentWaitTimeout time.Duration `yaml:"content_wait_timeout" validate:"gte=0"`
	ConsentTimeout     time.Duration `yaml:"consent_timeout" validate:"gte=0"`
	ClickTimeout       time.Duration `yaml:"click_timeout" validate:"gt=0"`
	DetailTimeout      time.Duration `yaml:"detail_timeout" validate:"gt=0"`

	AdvancePollAttempts int           `yaml:"advance_poll_attempts" validate:"gte=0"`
	AdvancePollInterval time.Duration `yaml:"advance_poll_interval" validate:"gte=0"`

	// MaxPages caps pagination; 0 means unbounded.
	MaxPages int `yaml:"max_pages" validate:"gte=0"`
}

// BrowserConfig selects and tunes the rendering backend.
type BrowserConfig struct {
	Backend      string `yaml:"backend" validate:"oneof=rod chromedp"`
	Headless     bool   `yaml:"headless"`
	UserAgent    string `yaml:"user_agent"`
	Locale       string `yaml:"locale"`
	WindowWidth  int    `yaml:"window_width" validate:"gt=0"`
	WindowHeight int    `yaml:"window_height" validate:"gt=0"`
}

// StorageConfig holds output locations.
type StorageConfig struct {
	CorpusPath string `yaml:"corpus_path" validate:"required"`
	// IndexPath is the sqlite mirror of the corpus; empty disables it.
	IndexPath string `yaml:"index_path"`
	DebugDir  string `yaml:"debug_dir"`
}

// ServerConfig holds the corpus API settings.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// LogConfig controls the operator log.
type LogConfig struct {
	Debug bool `yaml:"debug"`
	JSON  bool `yaml:"json"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Scraper ScraperConfig `yaml:"scraper"`
	Catalog CatalogConfig `yaml:"catalog"`
	Crawler CrawlerConfig `yaml:"crawler"`
	Browser BrowserConfig `yaml:"browser"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the configuration the scraper was tuned against.
func Default() *Config {
	return &Config{
		Scraper: ScraperConfig{BatchSize: "5"},
		Catalog: CatalogConfig{
			EntryURL:        "https://www.autodesk.com/autodesk-university/search?fields.year=2025&fields.topic=Software+Development&fields.recordtype=class",
			SiteOrigin:      "https://www.autodesk.com",
			ItemSelector:    `a[href*="/autodesk-university/class/"]`,
			NextSelector:    `button[aria-label="Go to next page"]`,
			ConsentSelector: "#onetrust-accept-btn-handler",
			ChipSelector:    `span[class*="MuiChip-label"]`,
		},
		Crawler: CrawlerConfig{
			MinItemsPerPage:     15,
			MaxRetries:          3,
			ReloadOnRetry:       2,
			RetryDelay:          5 * time.Second,
			ReloadSettle:        10 * time.Second,
			ScrollSteps:         5,
			ScrollDistance:      3000,
			ScrollDelay:         time.Second,
			NavigationTimeout:   60 * time.Second,
			ContentWaitTimeout:  20 * time.Second,
			ConsentTimeout:      3 * time.Second,
			ClickTimeout:        10 * time.Second,
			DetailTimeout:       30 * time.Second,
			AdvancePollAttempts: 20,
			AdvancePollInterval: time.Second,
		},
		Browser: BrowserConfig{
			Backend:      "rod",
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Locale:       "en-US",
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Storage: StorageConfig{
			CorpusPath: "data/au_2025.json",
			IndexPath:  "data/au_2025.db",
			DebugDir:   "debug_output",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig reads filepath over the defaults, applies environment overrides
// and validates the result. A missing file is not an error.
func LoadConfig(filepath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("error reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error unmarshalling config YAML: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Scraper.BatchSize != "auto" {
		n, err := strconv.Atoi(c.Scraper.BatchSize)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid config: batch_size must be a positive integer or \"auto\", got %q", c.Scraper.BatchSize)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AU_CORPUS_PATH"); v != "" {
		c.Storage.CorpusPath = v
	}
	if v, ok := os.LookupEnv("AU_INDEX_PATH"); ok {
		c.Storage.IndexPath = v
	}
	if v := os.Getenv("AU_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Browser.Headless = b
		}
	}
}

// fillDefaults restores zero values a partial YAML section may have produced.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Scraper.BatchSize == "" {
		c.Scraper.BatchSize = d.Scraper.BatchSize
	}
	if c.Crawler.MaxRetries == 0 {
		c.Crawler.MaxRetries = d.Crawler.MaxRetries
	}
	if c.Crawler.NavigationTimeout == 0 {
		c.Crawler.NavigationTimeout = d.Crawler.NavigationTimeout
	}
	if c.Crawler.ClickTimeout == 0 {
		c.Crawler.ClickTimeout = d.Crawler.ClickTimeout
	}
	if c.Crawler.DetailTimeout == 0 {
		c.Crawler.DetailTimeout = d.Crawler.DetailTimeout
	}
	if c.Browser.Backend == "" {
		c.Browser.Backend = d.Browser.Backend
	}
	if c.Browser.WindowWidth == 0 || c.Browser.WindowHeight == 0 {
		c.Browser.WindowWidth, c.Browser.WindowHeight = d.Browser.WindowWidth, d.Browser.WindowHeight
	}
	if c.Storage.CorpusPath == "" {
		c.Storage.CorpusPath = d.Storage.CorpusPath
	}
	if c.Storage.DebugDir == "" {
		c.Storage.DebugDir = d.Storage.DebugDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
}
