package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AUScraper/internal/browser/browsertest"
	"AUScraper/internal/models"
)

const (
	itemSel = `a[href*="/autodesk-university/class/"]`
	chipSel = `span[class*="MuiChip-label"]`
	origin  = "https://www.autodesk.com"
)

var extractOpts = ExtractOptions{ChipSelector: chipSel}

func TestParseListing(t *testing.T) {
	markup := `<html><body>
		<a href="/autodesk-university/class/one">  One
			Title </a>
		<a href="https://www.autodesk.com/autodesk-university/class/two">Two</a>
		<a href="/autodesk-university/class/one">One</a>
		<a href="/somewhere/else">Other</a>
		<a href="">Empty</a>
	</body></html>`

	cands, first := ParseListing(markup, itemSel, origin)
	assert.Equal(t, "/autodesk-university/class/one", first)
	assert.Equal(t, []models.Candidate{
		{URL: "https://www.autodesk.com/autodesk-university/class/one", Title: "One Title"},
		{URL: "https://www.autodesk.com/autodesk-university/class/two", Title: "Two"},
		{URL: "https://www.autodesk.com/autodesk-university/class/one", Title: "One"},
	}, cands)
}

func TestFirstHref(t *testing.T) {
	assert.Equal(t, "/autodesk-university/class/class-005",
		FirstHref(browsertest.CatalogHTML("p", browsertest.ClassHrefs(5, 3)...), itemSel))
	assert.Empty(t, FirstHref("<html><body>loading…</body></html>", itemSel))
}

func TestExtractDetail_FullPage(t *testing.T) {
	markup := browsertest.DetailHTML(browsertest.Detail{
		Title:        "Automating Revit with Dynamo",
		Summary:      "Learn to script Revit.",
		KeyLearnings: []string{"Write nodes", "Ship packages"},
		Tags: [][2]string{
			{"Topics", "Automation|Software Development|Automation"},
			{"Industries", "Architecture"},
			{"Products", "Revit|Dynamo"},
			{"Level", "Intermediate"},
		},
	})

	c := models.Candidate{URL: "https://x/class/dynamo", Title: "listing title"}
	rec, err := ExtractDetail(markup, c, extractOpts)
	require.NoError(t, err)

	assert.Equal(t, c.URL, rec.URL)
	assert.Equal(t, "Automating Revit with Dynamo", rec.Title)
	assert.Equal(t, "Learn to script Revit.", rec.Summary)
	assert.Equal(t, models.JSONStringSlice{"Write nodes", "Ship packages"}, rec.KeyLearnings)
	assert.Equal(t, models.JSONStringSlice{"Automation", "Software Development"}, rec.Tags.Topics)
	assert.Equal(t, models.JSONStringSlice{"Architecture"}, rec.Tags.Industries)
	assert.Equal(t, models.JSONStringSlice{"Revit", "Dynamo"}, rec.Tags.Products)
	assert.False(t, rec.Failed())
}

func TestExtractDetail_MissingSectionsDefault(t *testing.T) {
	c := models.Candidate{URL: "https://x/class/bare", Title: "Listing Title"}
	rec, err := ExtractDetail(`<html><body><h1>   </h1><p>nothing here</p></body></html>`, c, extractOpts)
	require.NoError(t, err)

	assert.Equal(t, "Listing Title", rec.Title, "an empty h1 keeps the listing title")
	assert.Equal(t, "", rec.Summary)
	assert.Equal(t, models.JSONStringSlice{}, rec.KeyLearnings)
	assert.Equal(t, models.EmptyTags(), rec.Tags)
}

func TestExtractDetail_ClassAboutAccessDeniedIsNotBlocked(t *testing.T) {
	markup := browsertest.DetailHTML(browsertest.Detail{
		Title:        "Securing APIs: Handling Access Denied Responses",
		Summary:      "What to do when your API returns Access Denied.",
		KeyLearnings: []string{"Map Access Denied to 403"},
		Tags:         [][2]string{{"Topics", "Security"}},
	})
	rec, err := ExtractDetail(markup, models.Candidate{URL: "u", Title: "Listing"}, extractOpts)
	require.NoError(t, err)
	assert.Equal(t, "Securing APIs: Handling Access Denied Responses", rec.Title)
	assert.Equal(t, models.JSONStringSlice{"Security"}, rec.Tags.Topics)
}

func TestExtractDetail_AccessDeniedHeadingWithContentIsNotBlocked(t *testing.T) {
	markup := browsertest.DetailHTML(browsertest.Detail{
		Title:   "Access Denied? Permissions in Autodesk Construction Cloud",
		Summary: "Project admins walk through permission sets.",
	})
	_, err := ExtractDetail(markup, models.Candidate{URL: "u", Title: "Listing"}, extractOpts)
	assert.NoError(t, err)
}

func TestExtractDetail_TagRowsIgnoredWithoutHeader(t *testing.T) {
	markup := `<html><body><h1>T</h1>
		<table><tr><td>Topics</td><td><span class="MuiChip-label">AI</span></td></tr></table>
	</body></html>`
	rec, err := ExtractDetail(markup, models.Candidate{URL: "u"}, extractOpts)
	require.NoError(t, err)
	assert.Equal(t, models.EmptyTags(), rec.Tags)
}

func TestExtractDetail_TagValueFallbacks(t *testing.T) {
	markup := `<html><body><h1>T</h1><h3>Tags</h3><table>
		<tr><td>Topics</td><td><a href="/t/bim">BIM</a><a href="/t/ai">AI</a></td></tr>
		<tr><td>Industries</td><td>  Civil
			Infrastructure </td></tr>
		<tr><td>Product</td><td></td></tr>
		<tr><td>single cell</td></tr>
	</table></body></html>`
	rec, err := ExtractDetail(markup, models.Candidate{URL: "u"}, extractOpts)
	require.NoError(t, err)

	assert.Equal(t, models.JSONStringSlice{"BIM", "AI"}, rec.Tags.Topics)
	assert.Equal(t, models.JSONStringSlice{"Civil Infrastructure"}, rec.Tags.Industries)
	assert.Equal(t, models.JSONStringSlice{}, rec.Tags.Products)
}

func TestExtractDetail_LabelRoutingIsCaseSensitive(t *testing.T) {
	markup := `<html><body><h2>Tags</h2><table>
		<tr><td>topics</td><td><span class="MuiChip-label">lower</span></td></tr>
		<tr><td>Featured Products</td><td><span class="MuiChip-label">AutoCAD</span></td></tr>
	</table></body></html>`
	rec, err := ExtractDetail(markup, models.Candidate{URL: "u"}, extractOpts)
	require.NoError(t, err)

	assert.Empty(t, rec.Tags.Topics)
	assert.Equal(t, models.JSONStringSlice{"AutoCAD"}, rec.Tags.Products)
}

func TestExtractDetail_KeyLearningsNextListInDocumentOrder(t *testing.T) {
	markup := `<html><body>
		<ul><li>navigation</li></ul>
		<h4>KEY LEARNINGS</h4>
		<p>intro</p>
		<div><ul><li> first  point </li><li></li><li>second</li></ul></div>
		<ul><li>unrelated</li></ul>
	</body></html>`
	rec, err := ExtractDetail(markup, models.Candidate{URL: "u"}, extractOpts)
	require.NoError(t, err)
	assert.Equal(t, models.JSONStringSlice{"first point", "second"}, rec.KeyLearnings)
}

func TestExtractDetail_KeyLearningsWithoutList(t *testing.T) {
	markup := `<html><body><h2>Key learning</h2><p>none listed</p></body></html>`
	rec, err := ExtractDetail(markup, models.Candidate{URL: "u"}, extractOpts)
	require.NoError(t, err)
	assert.Equal(t, models.JSONStringSlice{}, rec.KeyLearnings)
}

func TestExtractDetail_AccessDenied(t *testing.T) {
	markup := `<html><head><title>Access Denied</title></head><body><h1>Access Denied</h1></body></html>`
	rec, err := ExtractDetail(markup, models.Candidate{URL: "u", Title: "Listing"}, extractOpts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccessDenied))
	assert.Equal(t, "Access Denied", rec.Title)
	assert.Equal(t, models.EmptyTags(), rec.Tags)
}
