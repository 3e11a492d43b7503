package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"AUScraper/internal/logger"
	"AUScraper/pkg/config"
)

// ChromedpBrowser runs one Chrome through an exec allocator. Each page is a
// separate tab context of the same browser.
type ChromedpBrowser struct {
	cfg           config.BrowserConfig
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

// NewChromedp starts the browser process.
func NewChromedp(cfg config.BrowserConfig) (*ChromedpBrowser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.Locale != "" {
		opts = append(opts, chromedp.Flag("lang", cfg.Locale))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	logger.Debug("chromedp browser launched", "headless", cfg.Headless)

	return &ChromedpBrowser{
		cfg:           cfg,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
	}, nil
}

// NewPage opens a new tab.
func (b *ChromedpBrowser) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	setup := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(int64(b.cfg.WindowWidth), int64(b.cfg.WindowHeight), 1, false),
	}
	if b.cfg.Locale != "" {
		setup = append(setup,
			emulation.SetLocaleOverride().WithLocale(b.cfg.Locale),
			network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": b.cfg.Locale}),
		)
	}

	// The first Run allocates the tab and must use the tab context itself.
	if err := chromedp.Run(tabCtx, setup...); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	if err := ctx.Err(); err != nil {
		cancel()
		return nil, err
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel}, nil
}

func (b *ChromedpBrowser) Close() error {
	b.cancelBrowser()
	b.cancelAlloc()
	return nil
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab, bounded by timeout (if positive) and by
// the caller's ctx.
func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.Navigate(url))
}

func (p *chromedpPage) WaitForSelector(ctx context.Context, sel string, timeout time.Duration) bool {
	return p.run(ctx, timeout, chromedp.WaitVisible(sel, chromedp.ByQuery)) == nil
}

func (p *chromedpPage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromedpPage) Scroll(ctx context.Context, steps, distance int, delay time.Duration) error {
	for i := 0; i < steps; i++ {
		if err := p.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", distance), nil)); err != nil {
			return err
		}
		if err := pause(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (p *chromedpPage) Click(ctx context.Context, sel string, timeout time.Duration) bool {
	return p.run(ctx, timeout, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible)) == nil
}

const controlStateJS = `(() => {
	const el = document.querySelector(%s);
	if (!el) return {exists: false, visible: false, enabled: false};
	const r = el.getBoundingClientRect();
	const st = window.getComputedStyle(el);
	const visible = r.width > 0 && r.height > 0 && st.visibility !== 'hidden' && st.display !== 'none';
	const enabled = !el.disabled && el.getAttribute('aria-disabled') !== 'true';
	return {exists: true, visible: visible, enabled: enabled};
})()`

func (p *chromedpPage) ControlState(ctx context.Context, sel string) (ControlState, error) {
	quoted, err := json.Marshal(sel)
	if err != nil {
		return ControlState{}, err
	}
	var res struct {
		Exists  bool `json:"exists"`
		Visible bool `json:"visible"`
		Enabled bool `json:"enabled"`
	}
	if err := p.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf(controlStateJS, quoted), &res)); err != nil {
		return ControlState{}, err
	}
	return ControlState{Exists: res.Exists, Visible: res.Visible, Enabled: res.Enabled}, nil
}

func (p *chromedpPage) Reload(ctx context.Context) error {
	return p.run(ctx, 0, chromedp.Reload())
}

func (p *chromedpPage) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, 0, chromedp.Title(&title))
	return title, err
}

func (p *chromedpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, 0, chromedp.FullScreenshot(&buf, 100))
	return buf, err
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
