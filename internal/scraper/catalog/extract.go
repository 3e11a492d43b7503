package catalog

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"AUScraper/internal/models"
	"AUScraper/utils"
)

// ParseListing returns the item anchors of a catalog page, resolved against
// origin, plus the raw href of the first anchor. Duplicates are kept.
func ParseListing(markup, itemSelector, origin string) ([]models.Candidate, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, ""
	}

	var (
		cands []models.Candidate
		first string
	)
	doc.Find(itemSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		if first == "" {
			first = href
		}
		cands = append(cands, models.Candidate{
			URL:   utils.ResolveURL(origin, href),
			Title: utils.CleanText(a.Text()),
		})
	})
	return cands, first
}

// FirstHref is the raw href of the first item anchor, or "".
func FirstHref(markup, itemSelector string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	href, _ := doc.Find(itemSelector).First().Attr("href")
	return strings.TrimSpace(href)
}

// ExtractOptions holds the selectors detail extraction depends on.
type ExtractOptions struct {
	ChipSelector string
}

// ExtractDetail parses a detail page into a record seeded from c. Every field
// is best-effort. A bot-block page yields ErrAccessDenied alongside whatever
// could still be extracted.
func ExtractDetail(markup string, c models.Candidate, opts ExtractOptions) (models.DetailRecord, error) {
	rec := models.NewDetailRecord(c)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return rec, fmt.Errorf("failed to parse detail page: %w", err)
	}

	if title := utils.CleanText(doc.Find("h1").First().Text()); title != "" {
		rec.Title = title
	}
	if summary, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		rec.Summary = strings.TrimSpace(summary)
	}
	rec.KeyLearnings = keyLearnings(doc)
	rec.Tags = extractTags(doc, opts.ChipSelector)

	if blocked(doc, rec) {
		return rec, ErrAccessDenied
	}
	return rec, nil
}

// blocked matches the CDN bot-block page: a title or h1 reading "Access
// Denied" and none of the class content.
func blocked(doc *goquery.Document, rec models.DetailRecord) bool {
	heading := false
	for _, sel := range []string{"title", "h1"} {
		if strings.HasPrefix(utils.CleanText(doc.Find(sel).First().Text()), "Access Denied") {
			heading = true
		}
	}
	if !heading {
		return false
	}
	return rec.Summary == "" && len(rec.KeyLearnings) == 0 &&
		len(rec.Tags.Topics) == 0 && len(rec.Tags.Industries) == 0 && len(rec.Tags.Products) == 0
}

func keyLearnings(doc *goquery.Document) models.JSONStringSlice {
	out := models.JSONStringSlice{}

	header := doc.Find("h2, h3, h4, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(s.Text()), "key learning")
	}).First()
	if header.Length() == 0 {
		return out
	}

	list := nextElement(header.Get(0), atom.Ul)
	if list == nil {
		return out
	}
	doc.FindNodes(list).Find("li").Each(func(_ int, li *goquery.Selection) {
		if text := utils.CleanText(li.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// nextElement walks forward in document order from n, descendants first, and
// returns the first element of kind a.
func nextElement(n *html.Node, a atom.Atom) *html.Node {
	cur := n
	for {
		switch {
		case cur.FirstChild != nil:
			cur = cur.FirstChild
		default:
			for cur != nil && cur.NextSibling == nil {
				cur = cur.Parent
			}
			if cur == nil {
				return nil
			}
			cur = cur.NextSibling
		}
		if cur.Type == html.ElementNode && cur.DataAtom == a {
			return cur
		}
	}
}

func extractTags(doc *goquery.Document, chipSelector string) models.Tags {
	tags := models.EmptyTags()

	hasHeader := doc.Find("h2, h3").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), "Tags")
	}).Length() > 0
	if !hasHeader {
		return tags
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := utils.CleanText(cells.Eq(0).Text())
		values := cellValues(cells.Eq(1), chipSelector)

		switch {
		case strings.Contains(label, "Topics"):
			tags.Topics = append(tags.Topics, values...)
		case strings.Contains(label, "Industries"):
			tags.Industries = append(tags.Industries, values...)
		case strings.Contains(label, "Product"):
			tags.Products = append(tags.Products, values...)
		}
	})

	tags.Topics = utils.UniqueStrings(tags.Topics)
	tags.Industries = utils.UniqueStrings(tags.Industries)
	tags.Products = utils.UniqueStrings(tags.Products)
	return tags
}

// cellValues prefers chip labels, then anchors, then the raw cell text.
func cellValues(cell *goquery.Selection, chipSelector string) []string {
	for _, sel := range []string{chipSelector, "a"} {
		if sel == "" {
			continue
		}
		var vals []string
		cell.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := utils.CleanText(s.Text()); t != "" {
				vals = append(vals, t)
			}
		})
		if len(vals) > 0 {
			return vals
		}
	}
	if t := utils.CleanText(cell.Text()); t != "" {
		return []string{t}
	}
	return nil
}
