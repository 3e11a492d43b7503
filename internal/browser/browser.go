// Package browser is the rendered-page client used by the crawler and the
// detail fetcher. Two backends are available: go-rod (default) and chromedp.
package browser

import (
	"context"
	"fmt"
	"time"

	"AUScraper/pkg/config"
)

// ControlState describes a page control such as the "next page" button.
type ControlState struct {
	Exists  bool
	Visible bool
	Enabled bool
}

// Available reports whether the control can be clicked.
func (s ControlState) Available() bool {
	return s.Exists && s.Visible && s.Enabled
}

// Page is one browser tab.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitForSelector reports whether sel became visible before timeout.
	WaitForSelector(ctx context.Context, sel string, timeout time.Duration) bool
	Content(ctx context.Context) (string, error)
	Scroll(ctx context.Context, steps, distance int, delay time.Duration) error
	// Click reports whether sel was found and clicked before timeout.
	Click(ctx context.Context, sel string, timeout time.Duration) bool
	ControlState(ctx context.Context, sel string) (ControlState, error)
	Reload(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Browser hands out independent pages. Implementations must allow NewPage to
// be called from several goroutines.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// New launches the backend named by cfg.Backend.
func New(cfg config.BrowserConfig) (Browser, error) {
	switch cfg.Backend {
	case "", "rod":
		return NewRod(cfg)
	case "chromedp":
		return NewChromedp(cfg)
	default:
		return nil, fmt.Errorf("unknown browser backend %q", cfg.Backend)
	}
}

// pause sleeps for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
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
