// Package browsertest provides a scripted in-memory browser for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"AUScraper/internal/browser"
)

// CatalogPage is one page of a scripted catalog.
type CatalogPage struct {
	// Frames are returned by successive Content calls; the last one repeats.
	Frames []string
	// ReloadFrames replace Frames after a Reload, when set.
	ReloadFrames []string
	Next         browser.ControlState
	// Stuck keeps the page in place when next is clicked.
	Stuck bool
	// SwallowedClicks is how many clicks on next are accepted without moving
	// before the page advances.
	SwallowedClicks int
	// Unclickable makes every click on next fail.
	Unclickable bool
}

// Site is the scripted website every fake page reads from.
type Site struct {
	CatalogURL string
	Catalog    []CatalogPage
	// NextSelector routes ControlState and Click to the catalog pager.
	NextSelector string

	Details      map[string]string
	NavigateErrs map[string]error
	ContentErrs  map[string]error
	PanicURLs    map[string]bool
	// DetailDelay is spent inside Content of a detail page.
	DetailDelay time.Duration

	mu          sync.Mutex
	open        int
	maxOpen     int
	opened      int
	closed      int
	reloads     int
	clicks      int
	navigations []string
}

// Stats is a snapshot of the calls a Site has seen.
type Stats struct {
	Opened      int
	Closed      int
	MaxOpen     int
	Reloads     int
	Clicks      int
	Navigations []string
}

func (s *Site) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Opened:      s.opened,
		Closed:      s.closed,
		MaxOpen:     s.maxOpen,
		Reloads:     s.reloads,
		Clicks:      s.clicks,
		Navigations: append([]string(nil), s.navigations...),
	}
}

// Browser is a browser.Browser over a Site.
type Browser struct {
	Site       *Site
	NewPageErr error

	mu     sync.Mutex
	closed bool
}

func NewBrowser(site *Site) *Browser {
	return &Browser{Site: site}
}

func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	s := b.Site
	s.mu.Lock()
	s.opened++
	s.open++
	if s.open > s.maxOpen {
		s.maxOpen = s.open
	}
	s.mu.Unlock()
	return &Page{site: s}, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Page is a browser.Page over a Site.
type Page struct {
	site *Site

	mu       sync.Mutex
	url      string
	index    int
	reads    int
	ignored  int
	reloaded bool
	closed   bool
}

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	s := p.site
	s.mu.Lock()
	s.navigations = append(s.navigations, url)
	err := s.NavigateErrs[url]
	s.mu.Unlock()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.url, p.index, p.reads, p.ignored, p.reloaded = url, 0, 0, 0, false
	return nil
}

func (p *Page) onCatalog() bool {
	return p.url != "" && p.url == p.site.CatalogURL
}

func (p *Page) WaitForSelector(ctx context.Context, sel string, timeout time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url != ""
}

func (p *Page) Content(ctx context.Context) (string, error) {
	return p.read(ctx, true)
}

// read returns the current markup. Catalog frames advance only when advance
// is set.
func (p *Page) read(ctx context.Context, advance bool) (string, error) {
	p.mu.Lock()
	url := p.url
	if p.onCatalog() {
		defer p.mu.Unlock()
		cp, _ := p.current()
		frames := cp.Frames
		if p.reloaded && cp.ReloadFrames != nil {
			frames = cp.ReloadFrames
		}
		if len(frames) == 0 {
			return "", nil
		}
		i := min(p.reads, len(frames)-1)
		if advance {
			p.reads++
		}
		return frames[i], nil
	}
	p.mu.Unlock()

	s := p.site
	if s.PanicURLs[url] {
		panic("scripted panic for " + url)
	}
	if err := s.ContentErrs[url]; err != nil {
		return "", err
	}
	if s.DetailDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.DetailDelay):
		}
	}
	html, ok := s.Details[url]
	if !ok {
		return "", fmt.Errorf("no scripted page for %s", url)
	}
	return html, nil
}

func (p *Page) Scroll(ctx context.Context, steps, distance int, delay time.Duration) error {
	return ctx.Err()
}

func (p *Page) current() (CatalogPage, bool) {
	if !p.onCatalog() || p.index >= len(p.site.Catalog) {
		return CatalogPage{}, false
	}
	return p.site.Catalog[p.index], true
}

func (p *Page) Click(ctx context.Context, sel string, timeout time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sel != p.site.NextSelector {
		return false
	}
	cp, ok := p.current()
	if !ok || !cp.Next.Available() || cp.Unclickable {
		return false
	}

	p.site.mu.Lock()
	p.site.clicks++
	p.site.mu.Unlock()

	if cp.Stuck || p.ignored < cp.SwallowedClicks {
		p.ignored++
		return true
	}
	p.index++
	p.reads = 0
	p.ignored = 0
	p.reloaded = false
	return true
}

func (p *Page) ControlState(ctx context.Context, sel string) (browser.ControlState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sel != p.site.NextSelector {
		return browser.ControlState{}, nil
	}
	cp, _ := p.current()
	return cp.Next, nil
}

func (p *Page) Reload(ctx context.Context) error {
	p.site.mu.Lock()
	p.site.reloads++
	p.site.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloaded = true
	p.reads = 0
	return nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	html, err := p.read(ctx, false)
	if err != nil {
		return "", err
	}
	start := strings.Index(html, "<title>")
	end := strings.Index(html, "</title>")
	if start < 0 || end < start {
		return "", nil
	}
	return html[start+len("<title>") : end], nil
}

// PNG is the payload returned by Screenshot.
var PNG = []byte("\x89PNG\r\n\x1a\n")

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.url == "" {
		return nil, errors.New("nothing to capture")
	}
	return PNG, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.site.mu.Lock()
	defer p.site.mu.Unlock()
	p.site.open--
	p.site.closed++
	return nil
}

// Available is the ControlState of an enabled, visible control.
var Available = browser.ControlState{Exists: true, Visible: true, Enabled: true}

// CatalogHTML renders a listing with one anchor per href.
func CatalogHTML(title string, hrefs ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><main>", title)
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<div class="card"><a href="%s">%s</a></div>`, h, TitleFor(h))
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// TitleFor is the anchor text CatalogHTML renders for href.
func TitleFor(href string) string {
	return "Class " + path.Base(href)
}

// ClassHrefs returns n relative class hrefs numbered from first.
func ClassHrefs(first, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("/autodesk-university/class/class-%03d", first+i)
	}
	return out
}

// Detail describes a detail page to render.
type Detail struct {
	Title        string
	Summary      string
	KeyLearnings []string
	// Tags are {label, values} rows; values are separated by "|".
	Tags [][2]string
}

// DetailHTML renders a detail page shaped like the live site.
func DetailHTML(d Detail) string {
	var b strings.Builder
	b.WriteString("<html><head>")
	fmt.Fprintf(&b, "<title>%s</title>", d.Title)
	if d.Summary != "" {
		fmt.Fprintf(&b, `<meta name="description" content="%s">`, d.Summary)
	}
	b.WriteString("</head><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", d.Title)
	if len(d.KeyLearnings) > 0 {
		b.WriteString("<section><h3>Key Learnings</h3><ul>")
		for _, l := range d.KeyLearnings {
			fmt.Fprintf(&b, "<li>%s</li>", l)
		}
		b.WriteString("</ul></section>")
	}
	if len(d.Tags) > 0 {
		b.WriteString("<section><h2>Tags</h2><table>")
		for _, row := range d.Tags {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>", row[0])
			for _, v := range strings.Split(row[1], "|") {
				fmt.Fprintf(&b, `<span class="MuiChip-label MuiChip-labelSmall">%s</span>`, v)
			}
			b.WriteString("</td></tr>")
		}
		b.WriteString("</table></section>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
