package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/logger"
)

func extractSite(skipSelectors ...string) *domain.SiteConfig {
	return &domain.SiteConfig{
		ID:            "site-1",
		SourceLang:    "en",
		TargetLang:    "es",
		SkipSelectors: skipSelectors,
	}
}

func mustExtract(t *testing.T, page string, site *domain.SiteConfig) *Extraction {
	t.Helper()
	doc, err := ParseDocument([]byte(page))
	require.NoError(t, err)
	return NewExtractor(logger.NewTestLogger()).Extract(doc, site)
}

func TestExtractCanonicalOrder(t *testing.T) {
	page := `<html><head><title>My Site</title><meta name="description" content="A fine site"></head>
<body><p>Hello</p><img alt="A photo"></body></html>`

	ex := mustExtract(t, page, extractSite())

	require.Len(t, ex.Segments, 4)
	assert.Equal(t, "My Site", ex.Segments[0].Value)
	assert.Equal(t, domain.SegmentText, ex.Segments[0].Kind)
	assert.Equal(t, "A fine site", ex.Segments[1].Value)
	assert.Equal(t, domain.SegmentAttr, ex.Segments[1].Kind)
	assert.Equal(t, "Hello", ex.Segments[2].Value)
	assert.Equal(t, "A photo", ex.Segments[3].Value)
	assert.Equal(t, "alt", ex.Segments[3].AttrName)
}

func TestExtractIsDeterministic(t *testing.T) {
	page := `<html><head><title>T</title></head><body>
<p>One</p><div>Two <span>Three</span></div><ul><li>Four <b>bold</b></li></ul>
<input placeholder="Search here"></body></html>`

	first := mustExtract(t, page, extractSite())
	second := mustExtract(t, page, extractSite())

	require.Equal(t, len(first.Segments), len(second.Segments))
	for i := range first.Segments {
		assert.Equal(t, first.Segments[i].Value, second.Segments[i].Value)
		assert.Equal(t, first.Segments[i].Kind, second.Segments[i].Kind)
		assert.Equal(t, first.Segments[i].Hash, second.Segments[i].Hash)
	}
}

func TestExtractSkipSelectorByAncestry(t *testing.T) {
	page := `<html><body>
<p>Hello</p>
<div class="notranslate"><p>Keep</p><span>Also keep</span></div>
<p>World</p>
</body></html>`

	ex := mustExtract(t, page, extractSite(".notranslate"))

	values := ex.Values()
	assert.Equal(t, []string{"Hello", "World"}, values)
}

func TestExtractSkipTags(t *testing.T) {
	page := `<html><body>
<script>var x = "ignore me";</script>
<style>.a{color:red}</style>
<code>fmt.Println("ignore")</code>
<p>Visible</p>
</body></html>`

	ex := mustExtract(t, page, extractSite())
	assert.Equal(t, []string{"Visible"}, ex.Values())
}

func TestExtractInvalidSelectorIsIgnored(t *testing.T) {
	page := `<html><body><p>Hello</p></body></html>`

	ex := mustExtract(t, page, extractSite("[[[not-a-selector"))
	assert.Equal(t, []string{"Hello"}, ex.Values())
}

func TestExtractGroupsInlineMarkup(t *testing.T) {
	page := `<html><body><p>Hello <strong>world</strong></p></body></html>`

	ex := mustExtract(t, page, extractSite())

	require.Len(t, ex.Segments, 1)
	seg := ex.Segments[0]
	assert.Equal(t, domain.SegmentHTML, seg.Kind)
	assert.Equal(t, "Hello [HB1]world[/HB1]", seg.Value)
	assert.Equal(t, "Hello <strong>world</strong>", seg.RawHTML)
}

func TestExtractDivDoesNotGroup(t *testing.T) {
	page := `<html><body><div>Hello <span>World</span></div></body></html>`

	ex := mustExtract(t, page, extractSite())

	require.Len(t, ex.Segments, 2)
	assert.Equal(t, "Hello", ex.Segments[0].Value)
	assert.Equal(t, domain.SegmentText, ex.Segments[0].Kind)
	assert.Equal(t, "World", ex.Segments[1].Value)
	assert.Equal(t, domain.SegmentText, ex.Segments[1].Kind)
}

func TestExtractNumbersBecomeTokens(t *testing.T) {
	page := `<html><body><p>Price 123.45 USD</p></body></html>`

	ex := mustExtract(t, page, extractSite())

	require.Len(t, ex.Segments, 1)
	assert.Equal(t, "Price [N1] USD", ex.Segments[0].Value)
}

func TestExtractPureNumbersSkipped(t *testing.T) {
	page := `<html><body><p>12345</p><p>...</p><p>Text</p></body></html>`

	ex := mustExtract(t, page, extractSite())
	assert.Equal(t, []string{"Text"}, ex.Values())
}

func TestExtractCapturesWhitespace(t *testing.T) {
	page := "<html><body><div>  Hello  <span>x1</span></div></body></html>"

	ex := mustExtract(t, page, extractSite())
	require.NotEmpty(t, ex.Segments)
	seg := ex.Segments[0]
	assert.Equal(t, "Hello", seg.Value)
	assert.Equal(t, "  ", seg.LeadingWS)
	assert.Equal(t, "  ", seg.TrailingWS)
}

func TestExtractTranslatableAttrs(t *testing.T) {
	page := `<html><body>
<img alt="A dog" title="Good boy">
<input placeholder="Type here" aria-label="Search box">
</body></html>`

	ex := mustExtract(t, page, extractSite())

	attrs := map[string]string{}
	for _, seg := range ex.Segments {
		require.Equal(t, domain.SegmentAttr, seg.Kind)
		attrs[seg.AttrName] = seg.Value
	}
	assert.Equal(t, map[string]string{
		"alt":         "A dog",
		"title":       "Good boy",
		"placeholder": "Type here",
		"aria-label":  "Search box",
	}, attrs)
}

func TestExtractSkipsAttrsInsideGroupedBlock(t *testing.T) {
	page := `<html><body><p title="Tip">Hello <a href="/x" title="Info">world</a></p></body></html>`

	ex := mustExtract(t, page, extractSite())

	// The group's own attribute is still scanned; attributes on its
	// descendants live inside the hidden tag markup instead.
	require.Len(t, ex.Segments, 2)
	assert.Equal(t, domain.SegmentHTML, ex.Segments[0].Kind)
	assert.Equal(t, "Hello [HB1]world[/HB1]", ex.Segments[0].Value)
	assert.Equal(t, domain.SegmentAttr, ex.Segments[1].Kind)
	assert.Equal(t, "Tip", ex.Segments[1].Value)
}

func TestExtractHashShape(t *testing.T) {
	page := `<html><body><p>Hello</p></body></html>`

	ex := mustExtract(t, page, extractSite())
	require.Len(t, ex.Segments, 1)
	assert.Regexp(t, "^[0-9a-f]{32}$", ex.Segments[0].Hash)
}
