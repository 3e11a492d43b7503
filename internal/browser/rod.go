package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"AUScraper/internal/logger"
	"AUScraper/pkg/config"
)

// RodBrowser drives Chrome through go-rod with the stealth evasions applied
// to every page.
type RodBrowser struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
}

// NewRod launches a local Chrome and connects to it.
func NewRod(cfg config.BrowserConfig) (*RodBrowser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	if cfg.Locale != "" {
		l = l.Set("lang", cfg.Locale)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	logger.Debug("rod browser launched", "headless", cfg.Headless, "control_url", u)
	return &RodBrowser{browser: b, cfg: cfg}, nil
}

// NewPage opens a stealth tab with the configured user agent and viewport.
func (b *RodBrowser) NewPage(ctx context.Context) (Page, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}
	if b.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      b.cfg.UserAgent,
			AcceptLanguage: b.cfg.Locale,
		})
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.WindowWidth,
		Height:            b.cfg.WindowHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	return &rodPage{page: page}, nil
}

func (b *RodBrowser) Close() error {
	return b.browser.Close()
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	page := p.page.Context(ctx).Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p *rodPage) WaitForSelector(ctx context.Context, sel string, timeout time.Duration) bool {
	el, err := p.page.Context(ctx).Timeout(timeout).Element(sel)
	if err != nil {
		return false
	}
	return el.WaitVisible() == nil
}

func (p *rodPage) Content(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Scroll(ctx context.Context, steps, distance int, delay time.Duration) error {
	page := p.page.Context(ctx)
	for i := 0; i < steps; i++ {
		if err := page.Mouse.Scroll(0, float64(distance), 1); err != nil {
			return err
		}
		if err := pause(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (p *rodPage) Click(ctx context.Context, sel string, timeout time.Duration) bool {
	el, err := p.page.Context(ctx).Timeout(timeout).Element(sel)
	if err != nil {
		return false
	}
	return el.Click(proto.InputMouseButtonLeft, 1) == nil
}

func (p *rodPage) ControlState(ctx context.Context, sel string) (ControlState, error) {
	var state ControlState
	has, el, err := p.page.Context(ctx).Has(sel)
	if err != nil || !has {
		return state, err
	}
	state.Exists = true

	if state.Visible, err = el.Visible(); err != nil {
		return state, err
	}
	disabled, err := el.Property("disabled")
	if err != nil {
		return state, err
	}
	aria, err := el.Attribute("aria-disabled")
	if err != nil {
		return state, err
	}
	state.Enabled = !disabled.Bool() && (aria == nil || *aria != "true")
	return state, nil
}

func (p *rodPage) Reload(ctx context.Context) error {
	page := p.page.Context(ctx)
	if err := page.Reload(); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p *rodPage) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
